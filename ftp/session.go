package ftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/telebroad/rftp/filesystem"
	"github.com/telebroad/rftp/ftp/ftpusers"
	"github.com/telebroad/rftp/tools"
)

const (
	// MaxLoginAttempts is the number of lines read before the command loop
	// starts, whatever the login outcome.
	MaxLoginAttempts = 2
	// MaxCommandLength bounds a single control channel line.
	MaxCommandLength = 4096
)

var errLineTooLong = errors.New("command line too long")

type sessionState int

const (
	stateGreeting sessionState = iota
	stateAuthenticating
	stateCommandLoop
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateGreeting:
		return "greeting"
	case stateAuthenticating:
		return "authenticating"
	case stateCommandLoop:
		return "command_loop"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("sessionState(%d)", int(s))
}

// session is one client connection, served by its own goroutine.
type session struct {
	id     string // correlation id for logs
	name   string // Client#<n>
	conn   net.Conn
	rw     *tools.BufLogReadWriter
	client *ClientConn

	info           *ServerInfo
	status         *Status
	users          ftpusers.Users
	allowAnonymous bool
	root           *filesystem.Root
	executor       Executor
	metrics        MetricsCollector
	logger         *slog.Logger

	state    sessionState
	attempts int
}

// serve runs the session until it is closed. A returned error means the
// session ended abnormally; clean disconnects return nil.
func (s *session) serve() error {
	scope, err := s.root.Enter()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSandboxSetup, err)
	}
	defer func() {
		if err := scope.Close(); err != nil {
			s.logger.Warn("error leaving root directory", "error", err)
		}
	}()

	for s.state != stateClosed {
		var err error
		switch s.state {
		case stateGreeting:
			err = s.greet()
		case stateAuthenticating:
			err = s.authenticate()
		case stateCommandLoop:
			err = s.commandLoop()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *session) greet() error {
	if err := Reply(s.rw, ReplyReady, s.info.welcome()); err != nil {
		return err
	}
	s.state = stateAuthenticating
	return nil
}

// authenticate runs one login attempt. The phase ends once the client is
// logged in, closing, or has used MaxLoginAttempts lines.
func (s *session) authenticate() error {
	if s.client.IsLoggedIn || s.client.IsClosing || s.attempts >= MaxLoginAttempts {
		s.state = stateCommandLoop
		return nil
	}

	s.attempts++
	line, err := s.readLine()
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			_ = Reply(s.rw, ReplyClosing, "Command line too long.")
		}
		return fmt.Errorf("error reading login attempt %d: %w", s.attempts, err)
	}
	if err := s.apply(line); err != nil {
		return err
	}
	if !s.client.IsRequestingLogin {
		return nil
	}

	result, err := Authenticate(s.rw, s.client, s.users, s.allowAnonymous)
	s.metrics.RecordAuthentication(result.String())
	if err != nil {
		return err
	}
	s.logger.Info("authentication",
		"result", result.String(),
		"user", s.client.User.Username,
		"anonymous", s.client.IsAnon,
		"attempt", s.attempts,
	)
	return nil
}

// commandLoop reads and applies one line. Read failures end the session
// without a reply.
func (s *session) commandLoop() error {
	if s.client.IsClosing {
		s.logger.Info("connection closed", "cause", "client closing")
		s.state = stateClosed
		return nil
	}

	line, err := s.readLine()
	if err != nil {
		s.state = stateClosed
		switch {
		case errors.Is(err, errLineTooLong):
			s.logger.Warn("connection closed", "cause", err)
			return Reply(s.rw, ReplyClosing, "Command line too long.")
		case errors.Is(err, io.EOF):
			s.logger.Info("connection closed", "cause", "peer closed")
		case errors.Is(err, os.ErrDeadlineExceeded):
			s.logger.Info("connection closed", "cause", "idle timeout")
		default:
			s.logger.Warn("connection closed", "cause", err)
		}
		return nil
	}

	if err := s.apply(line); err != nil {
		return err
	}
	if s.client.IsRequestingLogin {
		s.client.IsRequestingLogin = false
		return Reply(s.rw, ReplyNotLoggedIn, "Login attempts exhausted.")
	}
	return nil
}

// apply parses line and hands it to the executor.
func (s *session) apply(line string) error {
	cmd := ParseCommand(line)
	start := time.Now()
	err := s.executor.Execute(s.rw, s.client, cmd)
	s.metrics.RecordCommand(cmd.Verb(), err != nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("error executing %s: %w", cmd.Verb(), err)
	}
	s.logger.Debug("command", "verb", cmd.Verb(), "state", s.state.String())
	return nil
}

// readLine arms the idle deadline and reads one line. A final line without
// a newline is returned as is; the next call reports io.EOF.
func (s *session) readLine() (string, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.info.idleTimeout())); err != nil {
		return "", fmt.Errorf("error setting read deadline: %w", err)
	}

	line, err := s.rw.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		// drop the rest of the line so the reply is not lost to a reset
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = s.rw.ReadSlice('\n')
		}
		return "", errLineTooLong
	case err == nil:
	case errors.Is(err, io.EOF) && len(line) > 0:
	default:
		return "", err
	}
	return string(line), nil
}
