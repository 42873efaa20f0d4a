package ftp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telebroad/rftp/filesystem"
)

func testExecutor(t *testing.T) *DefaultExecutor {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "2024"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))
	info := &ServerInfo{Modes: []TransferMode{ModeStream, ModeBlock}}
	return NewExecutor(info, filesystem.NewRoot(dir))
}

func execute(t *testing.T, e Executor, c *ClientConn, line string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Execute(&buf, c, ParseCommand(line)))
	return buf.String()
}

func loggedIn() *ClientConn {
	c := NewClientConn()
	c.User.Username = "alice"
	c.IsLoggedIn = true
	return c
}

func TestExecutor_User(t *testing.T) {
	e := testExecutor(t)

	c := NewClientConn()
	assert.Equal(t, "331 Please specify the password.\r\n", execute(t, e, c, "USER alice"))
	assert.Equal(t, "alice", c.User.Username)
	assert.False(t, c.IsRequestingLogin)
	assert.False(t, c.IsAnon)

	for _, name := range []string{"anonymous", "ftp", "Anonymous"} {
		c := NewClientConn()
		assert.Empty(t, execute(t, e, c, "USER "+name))
		assert.True(t, c.IsAnon, name)
		assert.True(t, c.IsRequestingLogin, name)
	}

	c = NewClientConn()
	assert.Empty(t, execute(t, e, c, "USER"))
	assert.True(t, c.IsRequestingLogin)
	assert.Empty(t, c.User.Username)

	assert.Equal(t, "503 Already logged in.\r\n", execute(t, e, loggedIn(), "USER bob"))
}

func TestExecutor_Pass(t *testing.T) {
	e := testExecutor(t)

	c := NewClientConn()
	execute(t, e, c, "USER alice")
	assert.Empty(t, execute(t, e, c, "PASS secret"))
	assert.Equal(t, "secret", c.User.Password)
	assert.True(t, c.IsRequestingLogin)

	assert.Equal(t, "503 Already logged in.\r\n", execute(t, e, loggedIn(), "PASS x"))
}

func TestExecutor_BeforeLogin(t *testing.T) {
	e := testExecutor(t)
	c := NewClientConn()

	for _, line := range []string{"PWD", "CWD docs", "CDUP", "TYPE I", "MODE S", "STRU F", "STAT"} {
		assert.Equal(t, "530 Please login with USER and PASS.\r\n", execute(t, e, c, line), line)
	}
	assert.Equal(t, "200 NOOP ok.\r\n", execute(t, e, c, "NOOP"))
	assert.True(t, strings.HasPrefix(execute(t, e, c, "SYST"), "215 "))
	assert.Equal(t, "211-Features:\r\n211 End\r\n", execute(t, e, c, "FEAT"))
	assert.Contains(t, execute(t, e, c, "HELP"), "214 Help OK.\r\n")
	assert.Equal(t, "502 Command not implemented.\r\n", execute(t, e, c, "RETR file"))
	assert.Equal(t, "500 Syntax error, command unrecognized.\r\n", execute(t, e, c, ""))
}

func TestExecutor_Quit(t *testing.T) {
	e := testExecutor(t)
	c := NewClientConn()

	assert.Equal(t, "221 Goodbye.\r\n", execute(t, e, c, "QUIT"))
	assert.True(t, c.IsClosing)
}

func TestExecutor_Directories(t *testing.T) {
	e := testExecutor(t)
	c := loggedIn()

	assert.Equal(t, "257 \"/\" is current directory\r\n", execute(t, e, c, "PWD"))

	assert.Equal(t, "250 Directory successfully changed to \"/docs\".\r\n", execute(t, e, c, "CWD docs"))
	assert.Equal(t, "250 Directory successfully changed to \"/docs/2024\".\r\n", execute(t, e, c, "XCWD 2024"))
	assert.Equal(t, "257 \"/docs/2024\" is current directory\r\n", execute(t, e, c, "XPWD"))
	assert.Equal(t, "250 Directory successfully changed to \"/docs\".\r\n", execute(t, e, c, "CDUP"))

	assert.Equal(t, "550 Failed to change directory to \"/docs/missing\".\r\n", execute(t, e, c, "CWD missing"))
	assert.Equal(t, "/docs", c.WorkingDir)
	assert.True(t, strings.HasPrefix(execute(t, e, c, "CWD /readme.txt"), "550 "))

	// cannot climb above the root
	execute(t, e, c, "CWD ../../..")
	assert.Equal(t, "/", c.WorkingDir)
	execute(t, e, c, "CDUP")
	assert.Equal(t, "/", c.WorkingDir)
}

func TestExecutor_TransferParameters(t *testing.T) {
	e := testExecutor(t)
	c := loggedIn()

	assert.Equal(t, "200 Type set to I.\r\n", execute(t, e, c, "TYPE I"))
	assert.Equal(t, "I", c.TransferType)
	assert.Equal(t, "200 Type set to A.\r\n", execute(t, e, c, "TYPE a n"))
	assert.Equal(t, "200 Type set to I.\r\n", execute(t, e, c, "TYPE L 8"))
	assert.Equal(t, "504 Type E not implemented.\r\n", execute(t, e, c, "TYPE E"))

	assert.Equal(t, "200 Mode set to B.\r\n", execute(t, e, c, "MODE B"))
	assert.Equal(t, ModeBlock, c.Mode)
	assert.Equal(t, "504 Unsupported mode.\r\n", execute(t, e, c, "MODE C"))
	assert.Equal(t, "504 Unsupported mode.\r\n", execute(t, e, c, "MODE Z"))
	assert.Equal(t, ModeBlock, c.Mode)

	assert.Equal(t, "200 Structure set to F.\r\n", execute(t, e, c, "STRU f"))
	assert.Equal(t, "504 Structure R not implemented.\r\n", execute(t, e, c, "STRU R"))
}

func TestExecutor_Stat(t *testing.T) {
	e := testExecutor(t)
	c := loggedIn()

	out := execute(t, e, c, "STAT")
	assert.True(t, strings.HasPrefix(out, "211-rftp status:\r\n"), out)
	assert.Contains(t, out, " Logged in as alice\r\n")
	assert.Contains(t, out, " TYPE: A, MODE: S, STRU: F\r\n")
	assert.True(t, strings.HasSuffix(out, "211 End of status\r\n"), out)

	assert.True(t, strings.HasPrefix(execute(t, e, c, "STAT /docs"), "504 "))
}

func TestExecutorFunc(t *testing.T) {
	var got Command
	e := ExecutorFunc(func(w io.Writer, c *ClientConn, cmd Command) error {
		got = cmd
		return Reply(w, StatusCommandOK, "ok")
	})
	assert.Equal(t, "200 ok\r\n", execute(t, e, NewClientConn(), "NOOP"))
	assert.Equal(t, NoopCommand{}, got)
}
