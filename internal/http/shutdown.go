package http

import "sync/atomic"

// shuttingDown is the process-wide shutdown flag. The health handler
// reports shutting-down while set so load balancers drain the instance.
var shuttingDown atomic.Bool

// SetShuttingDown sets or clears the shutdown flag.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the service is shutting down.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
