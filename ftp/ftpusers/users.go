package ftpusers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by Find when no record matches.
var ErrUserNotFound = errors.New("user not found")

// Rights is the permission set granted to a user.
type Rights uint8

const (
	RightRead Rights = 1 << iota
	RightWrite
	RightDelete
	RightAdmin
)

var rightNames = []struct {
	right Rights
	name  string
}{
	{RightRead, "read"},
	{RightWrite, "write"},
	{RightDelete, "delete"},
	{RightAdmin, "admin"},
}

// ParseRights converts names like "read" or "write" into a Rights set.
func ParseRights(names []string) (Rights, error) {
	var r Rights
next:
	for _, name := range names {
		for _, rn := range rightNames {
			if strings.EqualFold(strings.TrimSpace(name), rn.name) {
				r |= rn.right
				continue next
			}
		}
		return 0, fmt.Errorf("unknown right %q", name)
	}
	return r, nil
}

// Has reports whether every right in x is present in r.
func (r Rights) Has(x Rights) bool {
	return r&x == x
}

func (r Rights) String() string {
	var names []string
	for _, rn := range rightNames {
		if r.Has(rn.right) {
			names = append(names, rn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// User is one record of the user store. Records are not modified after load.
type User struct {
	Username string
	// Password is compared verbatim when PasswordHash is empty.
	Password string
	// PasswordHash is a bcrypt hash, it takes precedence over Password.
	PasswordHash string
	Rights       Rights
}

// CheckPassword reports whether password matches the record.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

// Users is the read side of a user store.
type Users interface {
	// List returns the records in load order.
	List() ([]*User, error)
	// Find returns the first record, in load order, whose username equals
	// username and whose password matches. It returns ErrUserNotFound when
	// there is none.
	Find(username, password string) (*User, error)
}

var _ Users = &LocalUsers{}

// LocalUsers is an in-memory ordered user store. Duplicate usernames are
// kept; Find returns the first one that matches.
type LocalUsers struct {
	users []*User
	mu    sync.RWMutex
}

func (u *LocalUsers) List() ([]*User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	list := make([]*User, len(u.users))
	copy(list, u.users)
	return list, nil
}

func (u *LocalUsers) Find(username, password string) (*User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, user := range u.users {
		if user.Username == username && user.CheckPassword(password) {
			found := *user
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

// Add appends a record with a plain password.
func (u *LocalUsers) Add(user, pass string, rights Rights) *User {
	return u.add(&User{Username: user, Password: pass, Rights: rights})
}

// AddHashed appends a record with a bcrypt password hash.
func (u *LocalUsers) AddHashed(user, hash string, rights Rights) *User {
	return u.add(&User{Username: user, PasswordHash: hash, Rights: rights})
}

func (u *LocalUsers) add(newUser *User) *User {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users = append(u.users, newUser)
	return newUser
}

// Len returns the number of records.
func (u *LocalUsers) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.users)
}

func NewLocalUsers() *LocalUsers {
	return &LocalUsers{}
}
