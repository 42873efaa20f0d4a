package ftp

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// TransferMode is an FTP transfer mode as sent in the MODE command.
type TransferMode string

const (
	ModeStream     TransferMode = "S"
	ModeBlock      TransferMode = "B"
	ModeCompressed TransferMode = "C"
)

// ParseTransferMode returns the mode named by s, case-insensitive.
func ParseTransferMode(s string) (TransferMode, bool) {
	switch m := TransferMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeStream, ModeBlock, ModeCompressed:
		return m, true
	}
	return "", false
}

// AdmissionPolicy decides what happens to a connection over MaxConnections.
type AdmissionPolicy string

const (
	// AdmissionReject replies 421 and closes the connection.
	AdmissionReject AdmissionPolicy = "reject"
	// AdmissionLog serves the connection and only logs the overflow.
	AdmissionLog AdmissionPolicy = "log"
)

const (
	// DefaultIdleTimeout is the read deadline armed before every line.
	DefaultIdleTimeout = 600 * time.Second
	// DefaultWelcome is sent with the 220 greeting.
	DefaultWelcome = "rftp"
)

// ServerInfo is the configuration shared read-only by every session.
type ServerInfo struct {
	// Modes lists the accepted transfer modes.
	Modes []TransferMode
	// MaxConnections is the connection budget, 0 means unlimited.
	MaxConnections int
	// AllowAnonymous enables the anonymous and ftp user names.
	AllowAnonymous bool
	Admission      AdmissionPolicy
	IdleTimeout    time.Duration
	Welcome        string
}

// AllowsMode reports whether m is one of the configured modes.
func (i *ServerInfo) AllowsMode(m TransferMode) bool {
	return slices.Contains(i.Modes, m)
}

func (i *ServerInfo) idleTimeout() time.Duration {
	if i.IdleTimeout <= 0 {
		return DefaultIdleTimeout
	}
	return i.IdleTimeout
}

func (i *ServerInfo) welcome() string {
	if i.Welcome == "" {
		return DefaultWelcome
	}
	return i.Welcome
}

// admissionLimit is the limit passed to Status.Acquire, 0 when not enforced.
func (i *ServerInfo) admissionLimit() int {
	if i.Admission == AdmissionLog {
		return 0
	}
	return i.MaxConnections
}

// Status is the runtime state shared by every session.
type Status struct {
	mu                sync.Mutex
	activeConnections int
}

// Acquire reads and increments the active connection count in one critical
// section and returns the counts before and after. When limit is positive
// and the count is already at the limit, nothing changes and ok is false.
func (s *Status) Acquire(limit int) (before, after int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before = s.activeConnections
	if limit > 0 && before >= limit {
		return before, before, false
	}
	s.activeConnections++
	return before, s.activeConnections, true
}

// Release decrements the count and returns the new value. It never drops
// below zero.
func (s *Status) Release() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeConnections > 0 {
		s.activeConnections--
	}
	return s.activeConnections
}

// ActiveConnections returns the current count.
func (s *Status) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConnections
}
