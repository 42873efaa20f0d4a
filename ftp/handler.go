package ftp

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/telebroad/rftp/filesystem"
)

// Executor applies one parsed command to the client state, writing any reply
// to w. It signals a login request by setting c.IsRequestingLogin and the
// end of the session by setting c.IsClosing. A returned error aborts the
// session.
type Executor interface {
	Execute(w io.Writer, c *ClientConn, cmd Command) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(w io.Writer, c *ClientConn, cmd Command) error

func (f ExecutorFunc) Execute(w io.Writer, c *ClientConn, cmd Command) error {
	return f(w, c, cmd)
}

var _ Executor = &DefaultExecutor{}

// DefaultExecutor implements the control channel verbs the server supports.
type DefaultExecutor struct {
	info *ServerInfo
	root *filesystem.Root
}

func NewExecutor(info *ServerInfo, root *filesystem.Root) *DefaultExecutor {
	return &DefaultExecutor{info: info, root: root}
}

// anonymousNames are the user names that request an anonymous login.
var anonymousNames = []string{"anonymous", "ftp"}

// helpVerbs is listed by HELP.
var helpVerbs = func() []string {
	verbs := []string{USER, PASS, QUIT, NOOP, SYST, FEAT, HELP, STAT, PWD, XPWD, CWD, XCWD, CDUP, XCUP, TYPE, MODE, STRU}
	sort.Strings(verbs)
	return verbs
}()

// allowedBeforeLogin reports whether cmd may run before authentication.
func allowedBeforeLogin(cmd Command) bool {
	switch cmd.(type) {
	case UserCommand, PassCommand, QuitCommand, NoopCommand, SystCommand, FeatCommand, HelpCommand, EmptyCommand, UnknownCommand:
		return true
	}
	return false
}

func (e *DefaultExecutor) Execute(w io.Writer, c *ClientConn, cmd Command) error {
	if !c.IsLoggedIn && !allowedBeforeLogin(cmd) {
		return Reply(w, StatusNotLoggedIn, "Please login with USER and PASS.")
	}

	switch cmd := cmd.(type) {
	case UserCommand:
		return e.userCommand(w, c, cmd)
	case PassCommand:
		return e.passCommand(w, c, cmd)
	case QuitCommand:
		c.IsClosing = true
		return Reply(w, StatusServiceClosingControlConnection, "Goodbye.")
	case NoopCommand:
		return Reply(w, StatusCommandOK, "NOOP ok.")
	case SystCommand:
		return e.systemCommand(w)
	case FeatCommand:
		return ReplyLines(w, StatusSystemStatus, "Features:", nil, "End")
	case HelpCommand:
		return ReplyLines(w, StatusHelpMessage, "The following commands are recognized.", []string{strings.Join(helpVerbs, " ")}, "Help OK.")
	case StatCommand:
		return e.statusCommand(w, c, cmd)
	case PwdCommand:
		return Reply(w, StatusPathnameCreated, fmt.Sprintf("%q is current directory", c.WorkingDir))
	case CwdCommand:
		return e.changeDirectory(w, c, cmd.Path)
	case CdupCommand:
		return e.changeDirectory(w, c, "..")
	case TypeCommand:
		return e.typeCommand(w, c, cmd)
	case ModeCommand:
		return e.modeCommand(w, c, cmd)
	case StruCommand:
		if strings.EqualFold(cmd.Structure, "F") {
			return Reply(w, StatusCommandOK, "Structure set to F.")
		}
		return Reply(w, StatusCommandNotImplementedForParam, fmt.Sprintf("Structure %s not implemented.", cmd.Structure))
	case EmptyCommand:
		return Reply(w, StatusSyntaxError, "Syntax error, command unrecognized.")
	default:
		return Reply(w, StatusSyntaxErrorNotImplemented, "Command not implemented.")
	}
}

// userCommand handles USER. Anonymous names and an empty name hand over to
// the authentication step without a reply of their own.
func (e *DefaultExecutor) userCommand(w io.Writer, c *ClientConn, cmd UserCommand) error {
	if c.IsLoggedIn {
		return Reply(w, StatusBadSequenceOfCommands, "Already logged in.")
	}

	c.User = SessionUser{Username: cmd.Name}
	c.IsAnon = false
	for _, name := range anonymousNames {
		if strings.EqualFold(cmd.Name, name) {
			c.IsAnon = true
			c.IsRequestingLogin = true
			return nil
		}
	}
	if cmd.Name == "" {
		c.IsRequestingLogin = true
		return nil
	}
	return Reply(w, StatusUserNameOK, "Please specify the password.")
}

// passCommand handles PASS. The reply comes from the authentication step.
func (e *DefaultExecutor) passCommand(w io.Writer, c *ClientConn, cmd PassCommand) error {
	if c.IsLoggedIn {
		return Reply(w, StatusBadSequenceOfCommands, "Already logged in.")
	}
	c.User.Password = cmd.Password
	c.IsRequestingLogin = true
	return nil
}

// systemCommand returns the system type.
func (e *DefaultExecutor) systemCommand(w io.Writer) error {
	switch runtime.GOOS {
	case "windows":
		return Reply(w, StatusNameSystemType, "WINDOWS Type: L8")
	case "linux", "darwin":
		return Reply(w, StatusNameSystemType, "UNIX Type: L8")
	default:
		return Reply(w, StatusNameSystemType, fmt.Sprintf("%s Type: L8", strings.ToUpper(runtime.GOOS)))
	}
}

// changeDirectory handles CWD and CDUP, confined to the root.
func (e *DefaultExecutor) changeDirectory(w io.Writer, c *ClientConn, arg string) error {
	requestedDir := e.root.Resolve(c.WorkingDir, arg)
	if err := e.root.CheckDir(requestedDir); err != nil {
		return Reply(w, StatusFileUnavailable, fmt.Sprintf("Failed to change directory to %q.", requestedDir))
	}

	c.WorkingDir = requestedDir
	return Reply(w, StatusFileActionOK, fmt.Sprintf("Directory successfully changed to %q.", requestedDir))
}

// typeCommand handles TYPE. ASCII (A, A N) and binary (I, L 8) are accepted.
func (e *DefaultExecutor) typeCommand(w io.Writer, c *ClientConn, cmd TypeCommand) error {
	switch strings.ToUpper(strings.Join(strings.Fields(cmd.Type), " ")) {
	case "A", "A N":
		c.TransferType = "A"
	case "I", "L 8":
		c.TransferType = "I"
	default:
		return Reply(w, StatusCommandNotImplementedForParam, fmt.Sprintf("Type %s not implemented.", cmd.Type))
	}
	return Reply(w, StatusCommandOK, fmt.Sprintf("Type set to %s.", c.TransferType))
}

// modeCommand handles MODE against the configured modes.
func (e *DefaultExecutor) modeCommand(w io.Writer, c *ClientConn, cmd ModeCommand) error {
	mode, ok := ParseTransferMode(cmd.Mode)
	if !ok || !e.info.AllowsMode(mode) {
		return Reply(w, StatusCommandNotImplementedForParam, "Unsupported mode.")
	}
	c.Mode = mode
	return Reply(w, StatusCommandOK, fmt.Sprintf("Mode set to %s.", mode))
}

// statusCommand handles STAT without arguments. Path arguments would need a
// directory listing, which this server does not serve.
func (e *DefaultExecutor) statusCommand(w io.Writer, c *ClientConn, cmd StatCommand) error {
	if cmd.Path != "" {
		return Reply(w, StatusCommandNotImplementedForParam, "STAT with a path is not implemented.")
	}

	user := c.User.Username
	if c.IsAnon {
		user = "anonymous"
	}
	lines := []string{
		fmt.Sprintf("Logged in as %s", user),
		fmt.Sprintf("Working directory %s", c.WorkingDir),
		fmt.Sprintf("TYPE: %s, MODE: %s, STRU: F", c.TransferType, c.Mode),
	}
	if stat, err := e.root.StatFS(); err == nil {
		lines = append(lines, fmt.Sprintf("Free space: %d bytes", stat.Frsize*stat.Bavail))
	}
	return ReplyLines(w, StatusSystemStatus, "rftp status:", lines, "End of status")
}
