package ftp

import (
	"errors"
	"fmt"
	"io"

	"github.com/telebroad/rftp/ftp/ftpusers"
)

// AuthResult is the outcome of one authentication step.
type AuthResult int

const (
	// AuthLoggedIn means the client is now logged in.
	AuthLoggedIn AuthResult = iota
	// AuthRetry means the credentials were empty, nothing else changed.
	AuthRetry
	// AuthRejected means the client was refused and the session is closing.
	AuthRejected
)

func (r AuthResult) String() string {
	switch r {
	case AuthLoggedIn:
		return "logged_in"
	case AuthRetry:
		return "retry"
	case AuthRejected:
		return "rejected"
	}
	return fmt.Sprintf("AuthResult(%d)", int(r))
}

// Authenticate decides whether the client c may log in and sends exactly one
// reply to w. The rules are applied in order:
//
//  1. anonymous clients are accepted when allowAnonymous is set, otherwise
//     refused with 530 and the session closes
//  2. empty username and password get 501 and may try again
//  3. the first store record matching username and password logs the
//     client in with that record's rights
//  4. anything else gets 221 and the session closes
//
// IsRequestingLogin is cleared on return. Only store and write failures are
// returned as errors.
func Authenticate(w io.Writer, c *ClientConn, users ftpusers.Users, allowAnonymous bool) (AuthResult, error) {
	defer func() { c.IsRequestingLogin = false }()

	if c.IsAnon {
		if allowAnonymous {
			c.IsLoggedIn = true
			return AuthLoggedIn, Reply(w, ReplyLoggedIn, "User logged in as anonymous.")
		}
		c.IsLoggedIn = false
		c.IsClosing = true
		return AuthRejected, Reply(w, ReplyNotLoggedIn, "Anonymous is disabled on this server.")
	}

	if c.User.Username == "" && c.User.Password == "" {
		return AuthRetry, Reply(w, ReplyBadArguments, "Credentials are empty.")
	}

	user, err := users.Find(c.User.Username, c.User.Password)
	switch {
	case err == nil:
		c.User.Rights = user.Rights
		c.IsLoggedIn = true
		return AuthLoggedIn, Reply(w, ReplyLoggedIn, fmt.Sprintf("User %s logged in.", user.Username))
	case errors.Is(err, ftpusers.ErrUserNotFound):
		c.IsClosing = true
		return AuthRejected, Reply(w, ReplyClosing, "Bad credentials.")
	default:
		return AuthRejected, fmt.Errorf("error searching user store: %w", err)
	}
}
