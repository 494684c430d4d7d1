package glue

import "time"

// HeartbeatSink is the watchdog-feed interface consumed by the goroutine
// loops that the original outpost-core calls outpost::support::Heartbeat:
// the SIP coordinator receiver and the compression processor thread each
// call Send once per loop iteration with an allowance that must exceed the
// iteration's worst-case duration, so a hung loop trips the watchdog
// before silently wedging. No-op sinks are legal (tests, single-shot
// callers); a real RTOS integration supplies one that feeds an actual
// watchdog timer.
type HeartbeatSink interface {
	Send(allowance time.Duration)
}

// NoopHeartbeat discards Send calls; used by tests and any caller with no
// watchdog to feed.
type NoopHeartbeat struct{}

func (NoopHeartbeat) Send(time.Duration) {}
