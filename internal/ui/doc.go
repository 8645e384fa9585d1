// Package ui contains the Bubble Tea program that edits and synchronizes the
// grid. The Model type focuses on message orchestration, while dedicated
// helpers own input, address fields, rendering and tick handling.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages.
//   - A modal alert swallows the next key press. Otherwise the active form
//     (cell editor or row finder) gets the message first. When no form is
//     active, the message is routed through a typed handler registry so each
//     tea.Msg is handled by a focused function.
//   - Address fields (Bind, Connect, DB) commit when focus leaves them. A
//     failed commit restores the live value and raises an alert.
//
// State ownership:
//   - The sheet (internal/sheet) owns the grid and the store handle. The
//     model only keeps the selection, the pending edit and view state.
//   - The endpoint is reconfigured in place; the transport and scheduler keep
//     using it.
//
// Backend interactions:
//   - A backend.Ticker posts tick events; Update waits for them and calls
//     Scheduler.Tick synchronously, so socket, store and grid work never runs
//     concurrently with rendering or editing.
package ui
