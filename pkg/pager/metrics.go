package pager

import "time"

// Metrics receives pager instrumentation. A nil Metrics disables collection
// with zero overhead; see pkg/metrics for the Prometheus implementation.
type Metrics interface {
	// ObserveFetch records one fetch step. result is "ok", "empty" or "fault".
	ObserveFetch(origin Origin, result string, items int, duration time.Duration)

	// RecordCachePersist records a write-back of a network page.
	RecordCachePersist(success bool)

	// RecordAnswer records an authoritative answer for phase.
	RecordAnswer(phase Phase, items int)

	// RecordForwardRejected counts FORWARD loads answered empty because
	// another one was in flight.
	RecordForwardRejected()

	// RecordPreview records a preview that was delivered or dropped.
	RecordPreview(delivered bool)

	// RecordProtocolViolation counts defects that were ignored.
	RecordProtocolViolation()

	// SetInFlight reports the number of sessions with a forward load in flight.
	SetInFlight(delta int)
}

const (
	fetchOK    = "ok"
	fetchEmpty = "empty"
	fetchFault = "fault"
)

func fetchResult(items int, err error) string {
	switch {
	case err != nil:
		return fetchFault
	case items == 0:
		return fetchEmpty
	default:
		return fetchOK
	}
}
