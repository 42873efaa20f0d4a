package ftp

import "github.com/telebroad/rftp/ftp/ftpusers"

// SessionUser is the identity of the client as far as the session knows it.
type SessionUser struct {
	Username string
	Password string
	Rights   ftpusers.Rights
}

// ClientConn represents the state of one client FTP session. It is owned by
// the session goroutine and never shared.
type ClientConn struct {
	User SessionUser

	IsAnon            bool // logging in under an anonymous name
	IsLoggedIn        bool // authentication succeeded
	IsRequestingLogin bool // the last command asked for an authentication step
	IsClosing         bool // the session ends before the next read

	WorkingDir   string       // Current virtual working directory
	TransferType string       // "A" or "I"
	Mode         TransferMode // Current transfer mode
}

// NewClientConn returns a fresh state: every flag false, working
// directory "/", ASCII type and stream mode.
func NewClientConn() *ClientConn {
	return &ClientConn{
		WorkingDir:   "/",
		TransferType: "A",
		Mode:         ModeStream,
	}
}
