// Package metrics records gateway verification outcomes and latencies.
package metrics

import "time"

// Recorder receives counter and latency observations from the gateway.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, d time.Duration, labels map[string]string)
}
