package ftp

import "strings"

// Verb is the upper-cased command name of a control channel line.
type Verb = string

const (
	// Authentication
	USER Verb = "USER" // Send username
	PASS Verb = "PASS" // Send password
	QUIT Verb = "QUIT" // Disconnect from the server

	// Informational
	NOOP Verb = "NOOP" // No operation
	SYST Verb = "SYST" // Get operating system type
	FEAT Verb = "FEAT" // List extensions
	HELP Verb = "HELP" // Get help
	STAT Verb = "STAT" // Get server status

	// Directory
	PWD  Verb = "PWD"  // Print working directory
	XPWD Verb = "XPWD" // Print working directory (extended version)
	CWD  Verb = "CWD"  // Change working directory
	XCWD Verb = "XCWD" // Change working directory (extended version)
	CDUP Verb = "CDUP" // Change to parent directory
	XCUP Verb = "XCUP" // Change to parent directory (extended version)

	// Transfer parameters
	TYPE Verb = "TYPE" // Representation type
	MODE Verb = "MODE" // Transfer mode
	STRU Verb = "STRU" // File structure

	// Pseudo verbs for lines that carry no known command
	EMPTY   Verb = "EMPTY"
	UNKNOWN Verb = "UNKNOWN"
)

// Command is a parsed control channel line. The set of implementations is
// closed to this package.
type Command interface {
	// Verb returns the command name used for dispatch, logs and metrics.
	Verb() Verb
	command()
}

type (
	UserCommand    struct{ Name string }
	PassCommand    struct{ Password string }
	QuitCommand    struct{}
	NoopCommand    struct{}
	SystCommand    struct{}
	FeatCommand    struct{}
	HelpCommand    struct{ Topic string }
	StatCommand    struct{ Path string }
	PwdCommand     struct{}
	CwdCommand     struct{ Path string }
	CdupCommand    struct{}
	TypeCommand    struct{ Type string }
	ModeCommand    struct{ Mode string }
	StruCommand    struct{ Structure string }
	EmptyCommand   struct{}
	UnknownCommand struct{ Name, Arg string }
)

func (UserCommand) Verb() Verb    { return USER }
func (PassCommand) Verb() Verb    { return PASS }
func (QuitCommand) Verb() Verb    { return QUIT }
func (NoopCommand) Verb() Verb    { return NOOP }
func (SystCommand) Verb() Verb    { return SYST }
func (FeatCommand) Verb() Verb    { return FEAT }
func (HelpCommand) Verb() Verb    { return HELP }
func (StatCommand) Verb() Verb    { return STAT }
func (PwdCommand) Verb() Verb     { return PWD }
func (CwdCommand) Verb() Verb     { return CWD }
func (CdupCommand) Verb() Verb    { return CDUP }
func (TypeCommand) Verb() Verb    { return TYPE }
func (ModeCommand) Verb() Verb    { return MODE }
func (StruCommand) Verb() Verb    { return STRU }
func (EmptyCommand) Verb() Verb   { return EMPTY }
func (UnknownCommand) Verb() Verb { return UNKNOWN }

func (UserCommand) command()    {}
func (PassCommand) command()    {}
func (QuitCommand) command()    {}
func (NoopCommand) command()    {}
func (SystCommand) command()    {}
func (FeatCommand) command()    {}
func (HelpCommand) command()    {}
func (StatCommand) command()    {}
func (PwdCommand) command()     {}
func (CwdCommand) command()     {}
func (CdupCommand) command()    {}
func (TypeCommand) command()    {}
func (ModeCommand) command()    {}
func (StruCommand) command()    {}
func (EmptyCommand) command()   {}
func (UnknownCommand) command() {}

// ParseCommand parses one control channel line. The trailing "\r\n" or "\n"
// is optional. The verb is case-insensitive and separated from its argument
// by the first space. Parsing never fails: unrecognized verbs become an
// UnknownCommand and blank lines an EmptyCommand.
func ParseCommand(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(strings.TrimLeft(line, " "), " ", 2)
	name := strings.ToUpper(strings.TrimSpace(parts[0]))
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch name {
	case "":
		return EmptyCommand{}
	case USER:
		return UserCommand{Name: arg}
	case PASS:
		// passwords keep inner and trailing blanks
		if len(parts) > 1 {
			return PassCommand{Password: parts[1]}
		}
		return PassCommand{}
	case QUIT:
		return QuitCommand{}
	case NOOP:
		return NoopCommand{}
	case SYST:
		return SystCommand{}
	case FEAT:
		return FeatCommand{}
	case HELP:
		return HelpCommand{Topic: arg}
	case STAT:
		return StatCommand{Path: arg}
	case PWD, XPWD:
		return PwdCommand{}
	case CWD, XCWD:
		return CwdCommand{Path: arg}
	case CDUP, XCUP:
		return CdupCommand{}
	case TYPE:
		return TypeCommand{Type: arg}
	case MODE:
		return ModeCommand{Mode: arg}
	case STRU:
		return StruCommand{Structure: arg}
	default:
		return UnknownCommand{Name: name, Arg: arg}
	}
}
