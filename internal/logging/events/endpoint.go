package events

import "github.com/atomicstack/gridsync/internal/logging"

type EndpointTracer struct{}

var Endpoint = EndpointTracer{}

func (EndpointTracer) Bound(local, remote string) {
	logging.Trace("endpoint.bind", map[string]interface{}{"local": local, "remote": remote})
}

func (EndpointTracer) Rebind(from, to string, err error) {
	logging.Trace("endpoint.rebind", map[string]interface{}{"from": from, "to": to, "error": errString(err)})
}

func (EndpointTracer) Reconnect(from, to string, err error) {
	logging.Trace("endpoint.reconnect", map[string]interface{}{"from": from, "to": to, "error": errString(err)})
}
