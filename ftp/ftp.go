// Package ftp implements the control channel of the rftp server.
// It accepts TCP connections, enforces the connection budget, authenticates
// clients against a user store and runs the line oriented command loop.
// Data connections are not handled here.
package ftp

// StatusCode is a type for FTP reply codes
type StatusCode = int

const (
	// Success codes (2xx)
	StatusCommandOK                       StatusCode = 200 // Command okay
	StatusSystemStatus                    StatusCode = 211 // System status, or system help reply
	StatusHelpMessage                     StatusCode = 214 // Help message
	StatusNameSystemType                  StatusCode = 215 // NAME system type
	StatusServiceReadyForNewUser          StatusCode = 220 // Service ready for new user
	StatusServiceClosingControlConnection StatusCode = 221 // Service closing control connection
	StatusUserLoggedIn                    StatusCode = 230 // User logged in, proceed
	StatusFileActionOK                    StatusCode = 250 // Requested file action okay, completed
	StatusPathnameCreated                 StatusCode = 257 // "PATHNAME" created

	// Positive intermediate codes (3xx)
	StatusUserNameOK StatusCode = 331 // User name okay, need password

	// Transient negative completion codes (4xx)
	StatusServiceNotAvailable StatusCode = 421 // Service not available, closing control connection

	// Permanent negative completion codes (5xx)
	StatusSyntaxError                   StatusCode = 500 // Syntax error, command unrecognized
	StatusSyntaxErrorInParameters       StatusCode = 501 // Syntax error in parameters or arguments
	StatusSyntaxErrorNotImplemented     StatusCode = 502 // Command not implemented
	StatusBadSequenceOfCommands         StatusCode = 503 // Bad sequence of commands
	StatusCommandNotImplementedForParam StatusCode = 504 // Command not implemented for that parameter
	StatusNotLoggedIn                   StatusCode = 530 // Not logged in
	StatusFileUnavailable               StatusCode = 550 // Requested action not taken; File unavailable
)

// Named replies used by the session core.
const (
	ReplyReady        = StatusServiceReadyForNewUser
	ReplyLoggedIn     = StatusUserLoggedIn
	ReplyNotLoggedIn  = StatusNotLoggedIn
	ReplyBadArguments = StatusSyntaxErrorInParameters
	ReplyClosing      = StatusServiceClosingControlConnection
)
