package events

import "github.com/atomicstack/gridsync/internal/logging"

type UITracer struct{}

type EditTracer struct{}

var (
	UI   = UITracer{}
	Edit = EditTracer{}
)

func (UITracer) Focus(field string) {
	logging.Trace("ui.focus", map[string]interface{}{"field": field})
}

func (UITracer) Cursor(row, col int) {
	logging.Trace("ui.cursor", map[string]interface{}{"row": row, "col": col})
}

func (UITracer) Alert(title, message string) {
	logging.Trace("ui.alert", map[string]interface{}{"title": title, "message": message})
}

func (UITracer) Find(query string, row int) {
	logging.Trace("ui.find", map[string]interface{}{"query": query, "row": row})
}

func (EditTracer) Begin(row, col int, value string) {
	logging.Trace("edit.begin", map[string]interface{}{"row": row, "col": col, "value": value})
}

func (EditTracer) Commit(row, col int, value string, sent int) {
	logging.Trace("edit.commit", map[string]interface{}{"row": row, "col": col, "value": value, "sent": sent})
}

func (EditTracer) Cancel(row, col int, reason string) {
	logging.Trace("edit.cancel", map[string]interface{}{"row": row, "col": col, "reason": reason})
}

func (EditTracer) Rejected(row, col int, err error) {
	logging.Trace("edit.reject", map[string]interface{}{"row": row, "col": col, "error": errString(err)})
}

func (EditTracer) AddRow(rows int, err error) {
	logging.Trace("edit.add-row", map[string]interface{}{"rows": rows, "error": errString(err)})
}
