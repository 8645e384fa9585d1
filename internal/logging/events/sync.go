package events

import "github.com/atomicstack/gridsync/internal/logging"

type SyncTracer struct{}

var Sync = SyncTracer{}

func (SyncTracer) Sent(bytes, rows int) {
	logging.Trace("sync.send", map[string]interface{}{"bytes": bytes, "rows": rows})
}

func (SyncTracer) SendFailed(err error) {
	logging.Trace("sync.send-error", map[string]interface{}{"error": errString(err)})
}

func (SyncTracer) Received(attempt, rows, cols int) {
	logging.Trace("sync.receive", map[string]interface{}{"attempt": attempt, "rows": rows, "cols": cols})
}

func (SyncTracer) ReceiveFailed(attempt int, err error) {
	logging.Trace("sync.receive-error", map[string]interface{}{"attempt": attempt, "error": errString(err)})
}

func (SyncTracer) Idle(attempt int) {
	logging.Trace("sync.idle", map[string]interface{}{"attempt": attempt})
}

func (SyncTracer) Mode(from, to string) {
	logging.Trace("sync.mode", map[string]interface{}{"from": from, "to": to})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
