package ftp

import "time"

// MetricsCollector receives server events. Implementations must be safe for
// concurrent use.
type MetricsCollector interface {
	// RecordConnection is called for every accepted socket. reason is empty
	// for admitted connections.
	RecordConnection(admitted bool, reason string)
	SetActiveConnections(n int)
	RecordSession(failed bool, d time.Duration)
	RecordAuthentication(result string)
	RecordCommand(verb string, failed bool, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordConnection(bool, string)             {}
func (nopMetrics) SetActiveConnections(int)                  {}
func (nopMetrics) RecordSession(bool, time.Duration)         {}
func (nopMetrics) RecordAuthentication(string)               {}
func (nopMetrics) RecordCommand(string, bool, time.Duration) {}
