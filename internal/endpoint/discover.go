package endpoint

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultHost         = "127.0.0.1"
	DefaultBasePort     = 10001
	DefaultPortAttempts = 10
	DefaultRemote       = "127.0.0.1:10000"
)

// ErrPortsExhausted is returned when no port in the probed range binds.
var ErrPortsExhausted = errors.New("no free local port in range")

// Discover binds the first free port in [basePort, basePort+attempts) on host
// and targets remote. A bad remote fails immediately since no local port can
// fix it.
func Discover(host string, basePort, attempts int, remote string) (*Endpoint, error) {
	if attempts <= 0 {
		attempts = DefaultPortAttempts
	}
	if _, err := resolveRemote(remote); err != nil {
		return nil, err
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		port := basePort + i
		local := net.JoinHostPort(host, strconv.Itoa(port))
		ep, err := New(local, remote)
		if err == nil {
			return ep, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: tried %d ports from %d on %s: %w", ErrPortsExhausted, attempts, basePort, host, lastErr)
}
