package ui

import (
	"fmt"

	"github.com/atomicstack/gridsync/internal/backend"
	"github.com/atomicstack/gridsync/internal/logging"
	"github.com/atomicstack/gridsync/internal/scheduler"
	tea "github.com/charmbracelet/bubbletea"
)

func waitForTick(t *backend.Ticker) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-t.Events()
		if !ok {
			return tickerDoneMsg{}
		}
		return tickMsg{event: evt}
	}
}

type tickMsg struct {
	event backend.Event
}

type tickerDoneMsg struct{}

func (m *Model) handleTickMsg(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tickMsg); !ok {
		return nil
	}
	m.applyTick()
	if m.ticker != nil {
		return waitForTick(m.ticker)
	}
	return nil
}

func (m *Model) handleTickerDoneMsg(msg tea.Msg) tea.Cmd {
	m.ticker = nil
	return nil
}

// applyTick runs one scheduler step and folds its result into the view.
func (m *Model) applyTick() {
	if m.scheduler == nil || m.sheet == nil {
		return
	}
	gen := m.sheet.Generation()
	res := m.scheduler.Tick()
	m.lastResult = res

	if m.sheet.Generation() != gen {
		// Received data wins over an edit in progress.
		m.cancelEdit("replaced by received grid")
		m.syncDimensions()
	}

	if err := res.Err(); err != nil {
		logging.Error(err)
		m.setError(syncStatus(res))
		return
	}
	m.setInfo(syncStatus(res))
}

func syncStatus(res scheduler.Result) string {
	if err := res.Err(); err != nil {
		return fmt.Sprintf("%s failed: %v", res.Mode, err)
	}
	switch res.Mode {
	case scheduler.ModeReceive:
		if res.Applied == 0 {
			return "waiting for peer"
		}
		if res.Applied == 1 {
			return "received 1 update"
		}
		return fmt.Sprintf("received %d updates", res.Applied)
	default:
		return fmt.Sprintf("sent %d bytes", res.Sent)
	}
}
