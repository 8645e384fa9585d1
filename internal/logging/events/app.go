package events

import (
	"github.com/atomicstack/gridsync/internal/logging"
	"github.com/atomicstack/gridsync/internal/store"
)

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Populate(url string, rows int) {
	logging.Trace("app.populate", map[string]interface{}{"db": store.RedactURL(url), "rows": rows})
}

func (AppTracer) Exit(err error) {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("app.exit", payload)
}
