package ui

import tea "github.com/charmbracelet/bubbletea"

// Harness drives the UI model programmatically for integration tests.
// Commands run inline, so the model must not be given a live ticker.
type Harness struct {
	model *Model
	quit  bool
}

// NewHarness creates a harness for the provided model.
func NewHarness(model *Model) *Harness {
	return &Harness{model: model}
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

// Key sends a named key such as "enter" or "tab", or a run of characters.
func (h *Harness) Key(key string) {
	switch key {
	case "enter":
		h.Send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		h.Send(tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		h.Send(tea.KeyMsg{Type: tea.KeyTab})
	case "shift+tab":
		h.Send(tea.KeyMsg{Type: tea.KeyShiftTab})
	case "up":
		h.Send(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		h.Send(tea.KeyMsg{Type: tea.KeyDown})
	case "left":
		h.Send(tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		h.Send(tea.KeyMsg{Type: tea.KeyRight})
	case "backspace":
		h.Send(tea.KeyMsg{Type: tea.KeyBackspace})
	case "ctrl+u":
		h.Send(tea.KeyMsg{Type: tea.KeyCtrlU})
	default:
		for _, r := range key {
			h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			return
		case tea.QuitMsg:
			h.quit = true
			return
		case tea.BatchMsg:
			for _, sub := range msg {
				h.processCmd(sub)
			}
			return
		}
		mdl, next := h.model.Update(msg)
		if updated, ok := mdl.(*Model); ok {
			h.model = updated
		}
		cmd = next
	}
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool { return h.quit }

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
