package ftpusers

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// fileRecord is one entry of the users file.
type fileRecord struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	PasswordHash string   `yaml:"password_hash"`
	Rights       []string `yaml:"rights"`
}

type usersFile struct {
	Users []fileRecord `yaml:"users"`
}

// LoadFile reads a YAML users file. An empty path yields an empty store.
//
//	users:
//	  - username: alice
//	    password_hash: $2a$10$...
//	    rights: [read, write]
func LoadFile(path string) (*LocalUsers, error) {
	store := NewLocalUsers()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading users file: %w", err)
	}
	if err := store.decode(data); err != nil {
		return nil, fmt.Errorf("error parsing users file %s: %w", path, err)
	}
	return store, nil
}

// Parse builds a store from YAML data in the users file format.
func Parse(data []byte) (*LocalUsers, error) {
	store := NewLocalUsers()
	if err := store.decode(data); err != nil {
		return nil, err
	}
	return store, nil
}

func (u *LocalUsers) decode(data []byte) error {
	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for i, rec := range file.Users {
		if rec.Username == "" {
			return fmt.Errorf("user #%d: username is required", i+1)
		}
		rights, err := ParseRights(rec.Rights)
		if err != nil {
			return fmt.Errorf("user %s: %w", rec.Username, err)
		}
		if rec.PasswordHash != "" {
			if _, err := bcrypt.Cost([]byte(rec.PasswordHash)); err != nil {
				return fmt.Errorf("user %s: invalid password_hash: %w", rec.Username, err)
			}
			u.AddHashed(rec.Username, rec.PasswordHash, rights)
			continue
		}
		u.Add(rec.Username, rec.Password, rights)
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for the password_hash field.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}
