package ftp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/telebroad/rftp/filesystem"
	"github.com/telebroad/rftp/ftp/ftpusers"
	"github.com/telebroad/rftp/tools"
)

var (
	// ErrBindFailure is returned by ListenAndServe when the address cannot be bound.
	ErrBindFailure = errors.New("ftp: bind failure")
	// ErrSandboxSetup is returned when the root directory cannot be created or entered.
	ErrSandboxSetup = errors.New("ftp: sandbox setup failure")
	// ErrServerClosed is returned by Serve after Close or Shutdown.
	ErrServerClosed = errors.New("ftp: server closed")
)

// DefaultAddr is the control port used when Server.Addr is empty.
const DefaultAddr = "0.0.0.0:21"

type Server struct {
	// Addr optionally specifies the TCP address for the server to listen on,
	// in the form "host:port". If empty, DefaultAddr is used.
	Addr string

	// Info is shared read-only by every session.
	Info *ServerInfo

	// Users authenticates credentialed logins.
	Users ftpusers.Users

	// Root is the sandbox directory served to clients.
	Root *filesystem.Root

	// Executor applies parsed commands. If nil, a DefaultExecutor over Info
	// and Root is used.
	Executor Executor

	status         *Status
	metrics        MetricsCollector
	logger         *slog.Logger
	sessionManager *sessionManager

	mu         sync.Mutex
	listener   net.Listener
	inShutdown atomic.Bool
	sessions   sync.WaitGroup
}

// NewServer returns a server for info, users and root listening on addr.
func NewServer(addr string, info *ServerInfo, users ftpusers.Users, root *filesystem.Root) *Server {
	return &Server{
		Addr:           addr,
		Info:           info,
		Users:          users,
		Root:           root,
		status:         &Status{},
		sessionManager: newSessionManager(),
	}
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Logger returns the logger for the server.
func (s *Server) Logger() *slog.Logger {
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s.logger.With("module", "ftp-server")
}

// SetMetrics sets the collector receiving server events.
func (s *Server) SetMetrics(m MetricsCollector) {
	s.metrics = m
}

func (s *Server) collector() MetricsCollector {
	if s.metrics == nil {
		return nopMetrics{}
	}
	return s.metrics
}

// Status returns the runtime status shared by the sessions.
func (s *Server) Status() *Status {
	if s.status == nil {
		s.status = &Status{}
	}
	return s.status
}

// ListenAddr returns the bound address, or nil before the server listens.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe creates the root directory, binds Addr and serves until
// Close. Bind errors wrap ErrBindFailure and root creation errors wrap
// ErrSandboxSetup.
func (s *Server) ListenAndServe() error {
	if s.inShutdown.Load() {
		return ErrServerClosed
	}
	if err := s.Root.Create(); err != nil {
		s.Logger().Error("Failed to create root directory", "root", s.Root.Dir(), "error", err)
		return fmt.Errorf("%w: %w", ErrSandboxSetup, err)
	}

	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.Logger().Error("Failed to listen", "addr", addr, "error", err)
		return fmt.Errorf("%w: %w", ErrBindFailure, err)
	}

	s.Logger().Info("Listening on "+listener.Addr().String(), "root", s.Root.Dir())
	return s.Serve(listener)
}

// Serve accepts connections on l and starts a session for each one. It
// always returns a non-nil error; after Close it is ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	if s.Root == nil {
		return fmt.Errorf("%w: root directory is not set", ErrSandboxSetup)
	}
	if s.Info == nil {
		s.Info = &ServerInfo{Modes: []TransferMode{ModeStream}}
	}
	if s.Users == nil {
		s.Users = ftpusers.NewLocalUsers()
	}
	if s.Executor == nil {
		s.Executor = NewExecutor(s.Info, s.Root)
	}
	if s.sessionManager == nil {
		s.sessionManager = newSessionManager()
	}

	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		_ = l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	var tempDelay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("error accepting connection: %w", err)
			}
			// back off on temporary failures such as running out of descriptors
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else if tempDelay *= 2; tempDelay > time.Second {
				tempDelay = time.Second
			}
			s.Logger().Error("Error accepting connection", "error", err, "retry_in", tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		s.admit(conn)
	}
}

// admit runs on the accept goroutine: it takes a connection slot and starts
// the session, or turns the client away.
func (s *Server) admit(conn net.Conn) {
	// s.mu orders this Add before the Wait in Shutdown
	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.sessions.Add(1)
	s.mu.Unlock()

	status := s.Status()
	maxConns := s.Info.MaxConnections
	before, after, ok := status.Acquire(s.Info.admissionLimit())
	logger := s.Logger().With("remote_addr", conn.RemoteAddr().String())

	if !ok {
		logger.Warn("Connection rejected", "reason", "max_connections", "active", before, "max", maxConns)
		s.collector().RecordConnection(false, "max_connections")
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_ = Reply(conn, StatusServiceNotAvailable, "Too many users, sorry.")
		_ = conn.Close()
		s.sessions.Done()
		return
	}

	if maxConns > 0 && after > maxConns {
		logger.Warn("Connection budget exceeded", "before", before, "active", after, "max", maxConns)
	} else {
		logger.Info(fmt.Sprintf("Client number: %d/%d", after, maxConns), "before", before)
	}
	s.collector().RecordConnection(true, "")
	s.collector().SetActiveConnections(after)

	sess := s.newSession(conn, fmt.Sprintf("Client#%d", after))
	go s.handleConnection(sess)
}

func (s *Server) newSession(conn net.Conn, name string) *session {
	id := uuid.NewString()
	logger := s.Logger().With("session", name, "session_id", id, "remote_addr", conn.RemoteAddr().String())
	return &session{
		id:             id,
		name:           name,
		conn:           conn,
		rw:             tools.NewBufLogReadWriter(conn, logger, MaxCommandLength),
		client:         NewClientConn(),
		info:           s.Info,
		status:         s.Status(),
		users:          s.Users,
		allowAnonymous: s.Info.AllowAnonymous,
		root:           s.Root,
		executor:       s.Executor,
		metrics:        s.collector(),
		logger:         logger,
		state:          stateGreeting,
	}
}

// handleConnection serves sess and releases its connection slot exactly once,
// whatever the outcome.
func (s *Server) handleConnection(sess *session) {
	start := time.Now()
	failed := false
	defer s.sessions.Done()
	defer func() {
		if r := recover(); r != nil {
			failed = true
			sess.logger.Error("Recovered from panic", "panic", r, "stack", string(debug.Stack()))
		}
		_ = sess.conn.Close()
		s.sessionManager.Remove(sess.id)
		after := sess.status.Release()
		s.collector().SetActiveConnections(after)
		s.collector().RecordSession(failed, time.Since(start))
		sess.logger.Info(sess.name+" got enough of their misery", "active", after, "duration", time.Since(start))
	}()

	s.sessionManager.Add(sess.id, sess)
	if s.inShutdown.Load() {
		return
	}
	if err := sess.serve(); err != nil {
		failed = true
		sess.logger.Error("Error handling session", "error", err)
	}
}

// Close closes the listener and every live session socket. Sessions still
// run their exit path and release their slot.
func (s *Server) Close() error {
	s.inShutdown.Store(true)

	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	if s.sessionManager != nil {
		if n := s.sessionManager.Len(); n > 0 {
			s.Logger().Info("Dropping live sessions", "sessions", n)
		}
		s.sessionManager.CloseAll()
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("error closing listener: %w", err)
	}
	return nil
}

// Shutdown closes the server and waits for the sessions to finish or ctx
// to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Close()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
