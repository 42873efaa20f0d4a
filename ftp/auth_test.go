package ftp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/telebroad/rftp/ftp/ftpusers"
)

func testUsers(t *testing.T) *ftpusers.LocalUsers {
	t.Helper()
	users := ftpusers.NewLocalUsers()
	users.Add("alice", "secret", ftpusers.RightRead|ftpusers.RightWrite)
	users.Add("alice", "secret", ftpusers.RightAdmin)
	hash, err := ftpusers.HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	users.AddHashed("bob", hash, ftpusers.RightRead)
	return users
}

func loginRequest(username, password string) *ClientConn {
	c := NewClientConn()
	c.User = SessionUser{Username: username, Password: password}
	c.IsRequestingLogin = true
	return c
}

func TestAuthenticate_AnonymousAllowed(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("anonymous", "")
	c.IsAnon = true

	res, err := Authenticate(&buf, c, testUsers(t), true)
	require.NoError(t, err)
	assert.Equal(t, AuthLoggedIn, res)
	assert.True(t, c.IsLoggedIn)
	assert.False(t, c.IsClosing)
	assert.False(t, c.IsRequestingLogin)
	assert.Equal(t, "230 User logged in as anonymous.\r\n", buf.String())
}

func TestAuthenticate_AnonymousDisabled(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("anonymous", "")
	c.IsAnon = true

	res, err := Authenticate(&buf, c, testUsers(t), false)
	require.NoError(t, err)
	assert.Equal(t, AuthRejected, res)
	assert.False(t, c.IsLoggedIn)
	assert.True(t, c.IsClosing)
	assert.Equal(t, "530 Anonymous is disabled on this server.\r\n", buf.String())
}

func TestAuthenticate_EmptyCredentials(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("", "")

	res, err := Authenticate(&buf, c, testUsers(t), true)
	require.NoError(t, err)
	assert.Equal(t, AuthRetry, res)
	assert.False(t, c.IsLoggedIn)
	assert.False(t, c.IsClosing)
	assert.False(t, c.IsRequestingLogin)
	assert.Equal(t, "501 Credentials are empty.\r\n", buf.String())
}

func TestAuthenticate_FirstMatchWins(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("alice", "secret")

	res, err := Authenticate(&buf, c, testUsers(t), false)
	require.NoError(t, err)
	assert.Equal(t, AuthLoggedIn, res)
	assert.True(t, c.IsLoggedIn)
	assert.False(t, c.IsAnon)
	assert.Equal(t, ftpusers.RightRead|ftpusers.RightWrite, c.User.Rights)
	assert.Equal(t, "230 User alice logged in.\r\n", buf.String())
}

func TestAuthenticate_HashedRecord(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("bob", "hunter2")

	res, err := Authenticate(&buf, c, testUsers(t), false)
	require.NoError(t, err)
	assert.Equal(t, AuthLoggedIn, res)
	assert.Equal(t, ftpusers.RightRead, c.User.Rights)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "mallory", "secret"},
		{"password only", "", "secret"},
		{"username only", "alice", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := loginRequest(tt.username, tt.password)

			res, err := Authenticate(&buf, c, testUsers(t), true)
			require.NoError(t, err)
			assert.Equal(t, AuthRejected, res)
			assert.False(t, c.IsLoggedIn)
			assert.True(t, c.IsClosing)
			assert.Equal(t, "221 Bad credentials.\r\n", buf.String())
		})
	}
}

type brokenStore struct{}

func (brokenStore) List() ([]*ftpusers.User, error) { return nil, errors.New("store offline") }
func (brokenStore) Find(string, string) (*ftpusers.User, error) {
	return nil, errors.New("store offline")
}

func TestAuthenticate_StoreError(t *testing.T) {
	var buf bytes.Buffer
	c := loginRequest("alice", "secret")

	_, err := Authenticate(&buf, c, brokenStore{}, false)
	assert.Error(t, err)
	assert.Empty(t, buf.String())
	assert.False(t, c.IsLoggedIn)
}

func TestAuthenticate_WriteError(t *testing.T) {
	c := loginRequest("alice", "secret")
	_, err := Authenticate(failingWriter{}, c, testUsers(t), false)
	assert.Error(t, err)
}

func TestAuthResult_String(t *testing.T) {
	assert.Equal(t, "logged_in", AuthLoggedIn.String())
	assert.Equal(t, "retry", AuthRetry.String())
	assert.Equal(t, "rejected", AuthRejected.String())
	assert.Equal(t, "AuthResult(9)", AuthResult(9).String())
}
