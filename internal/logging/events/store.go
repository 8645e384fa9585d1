package events

import (
	"github.com/atomicstack/gridsync/internal/logging"
	"github.com/atomicstack/gridsync/internal/store"
)

type StoreTracer struct{}

var Store = StoreTracer{}

func (StoreTracer) Open(url string, rows int) {
	logging.Trace("store.open", map[string]interface{}{"db": store.RedactURL(url), "rows": rows})
}

func (StoreTracer) Swap(from, to string, err error) {
	logging.Trace("store.swap", map[string]interface{}{"from": store.RedactURL(from), "to": store.RedactURL(to), "error": errString(err)})
}

func (StoreTracer) Reload(url string, rows int, err error) {
	logging.Trace("store.reload", map[string]interface{}{"db": store.RedactURL(url), "rows": rows, "error": errString(err)})
}
