// Package metrics defines the ledger instrumentation surface.
package metrics

import "time"

// Recorder receives ledger write outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Posted(kind string, amount int64)
	Rejected(kind, reason string)
	ObserveDuration(kind string, d time.Duration)
}

// NoOp ignores everything.
type NoOp struct{}

func (NoOp) Posted(string, int64)                  {}
func (NoOp) Rejected(string, string)               {}
func (NoOp) ObserveDuration(string, time.Duration) {}
