package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrOutsideRoot is returned when a path escapes the virtual root.
var ErrOutsideRoot = errors.New("access denied: path is outside the root directory")

// Root is the sandbox directory the server serves. Clients see it as "/".
type Root struct {
	FS          fs.FS
	localDir    string // local directory to serve as the ftp virtualRoot
	virtualRoot string // what clients see, always "/"
}

// NewRoot returns a root backed by localDir. A relative localDir is made
// absolute against the current working directory, because Enter changes it.
func NewRoot(localDir string) *Root {
	if localDir != "" {
		if abs, err := filepath.Abs(localDir); err == nil {
			localDir = abs
		}
	}
	return &Root{
		localDir:    localDir,
		virtualRoot: "/",
		FS:          os.DirFS(localDir),
	}
}

// Dir returns the local directory backing the root.
func (r *Root) Dir() string {
	return r.localDir
}

// Create makes the local directory, including parents. It is a no-op when
// the directory already exists.
func (r *Root) Create() error {
	if r.localDir == "" {
		return errors.New("root directory is not set")
	}
	if err := os.MkdirAll(r.localDir, 0o755); err != nil {
		return fmt.Errorf("error creating root directory %s: %w", r.localDir, err)
	}
	return nil
}

// Resolve returns the absolute virtual path of name relative to workingDir.
// The result never leaves the virtual root: ".." at the top stays at "/".
func (r *Root) Resolve(workingDir, name string) string {
	if name == "" {
		return path.Clean(r.virtualRoot + workingDir)
	}
	if !strings.HasPrefix(name, "/") {
		name = path.Join(workingDir, name)
	}
	return path.Clean(r.virtualRoot + name)
}

// CheckDir checks if the given virtual directory exists
func (r *Root) CheckDir(dirName string) error {
	dirName, err := r.cleanPath(dirName)
	if err != nil {
		return err
	}

	info, err := fs.Stat(r.FS, dirName)
	if err != nil {
		return fmt.Errorf("error checking directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("error checking directory: %s is not a directory", dirName)
	}
	return nil
}

// securePath ensures that the given path is safe to use, it does not allow
// going outside the virtualRoot directory
func (r *Root) securePath(pathName string) (string, error) {
	if !strings.HasPrefix(pathName, "/") {
		pathName = r.virtualRoot + pathName
	}
	for _, elem := range strings.Split(pathName, "/") {
		if elem == ".." {
			return "", ErrOutsideRoot
		}
	}
	return path.Clean(pathName), nil
}

// cleanPath calls securePath and converts the result into an fs.FS name
func (r *Root) cleanPath(pathName string) (string, error) {
	pathName, err := r.securePath(pathName)
	if err != nil {
		return "", err
	}
	if pathName == "/" {
		return ".", nil
	}
	pathName = pathName[1:]
	if !fs.ValidPath(pathName) {
		return "", fmt.Errorf("invalid path %q", pathName)
	}
	return pathName, nil
}

// scopes tracks the process working directory shared by every open Scope.
// The working directory is process wide, so all roots share one counter.
var scopes struct {
	sync.Mutex
	refs     int
	previous string
	current  string
}

// Scope is held by a session while it runs inside the root.
type Scope struct {
	once sync.Once
}

// Enter changes the process working directory to the root and returns a
// Scope. The previous working directory is restored when the last open Scope
// is closed. This is a convenience for relative paths, not an isolation
// boundary; path confinement is done by Resolve and CheckDir.
func (r *Root) Enter() (*Scope, error) {
	scopes.Lock()
	defer scopes.Unlock()

	if scopes.refs == 0 {
		prev, err := os.Getwd()
		if err != nil {
			prev = ""
		}
		scopes.previous = prev
		scopes.current = ""
	}
	if scopes.current != r.localDir {
		if err := os.Chdir(r.localDir); err != nil {
			return nil, fmt.Errorf("error entering root directory %s: %w", r.localDir, err)
		}
		scopes.current = r.localDir
	}
	scopes.refs++
	return &Scope{}, nil
}

// Close releases the scope. It is safe to call more than once.
func (s *Scope) Close() (err error) {
	s.once.Do(func() {
		scopes.Lock()
		defer scopes.Unlock()

		scopes.refs--
		if scopes.refs > 0 {
			return
		}
		scopes.refs = 0
		scopes.current = ""
		if scopes.previous != "" {
			if cerr := os.Chdir(scopes.previous); cerr != nil {
				err = fmt.Errorf("error restoring working directory: %w", cerr)
			}
		}
	})
	return err
}
