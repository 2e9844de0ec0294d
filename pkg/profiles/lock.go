// Package profiles manages the browser profile directories of a workspace
// and the lock files that give one job at a time exclusive use of a
// profile.
//
// A profile is free when its lock file is absent. Locks live on disk so
// they survive restarts; a crashed process leaves the lock behind until
// Remove is called.
package profiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EnamSon/gformfiller/pkg/logging"
)

// LockFile is the name of the lock file inside a profile directory.
const LockFile = ".lock"

var (
	// ErrLocked is returned when a profile is already claimed.
	ErrLocked = errors.New("profile is locked")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid profile name")
)

var profilesLog *logging.Logger

func init() {
	var err error
	profilesLog, err = logging.NewLogger("profiles")
	if err != nil {
		profilesLog.Warnf("failed to initialize profiles logger: %v", err)
	}
}

// Locker is the lock primitive over profile names. Every method is safe to
// call redundantly.
type Locker interface {
	Exists(name string) bool
	Create(name string) error
	Remove(name string) error
}

// Dir is a directory holding one sub-directory per profile.
type Dir struct {
	Root string
	now  func() time.Time
}

// NewDir returns the profile directory rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root, now: time.Now}
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns the browser user data directory of a profile.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

func (d *Dir) lockPath(name string) string {
	return filepath.Join(d.Path(name), LockFile)
}

// Ensure creates the profile directory if needed.
func (d *Dir) Ensure(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path(name), 0755); err != nil {
		return fmt.Errorf("failed to create profile %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the profile is locked. A lock that cannot be
// inspected counts as present.
func (d *Dir) Exists(name string) bool {
	_, err := os.Stat(d.lockPath(name))
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	profilesLog.Warnf("cannot inspect lock of %s, treating as locked: %v", name, err)
	return true
}

// Create writes the lock file, leaving an existing one untouched.
func (d *Dir) Create(name string) error {
	err := d.TryLock(name, "")
	if errors.Is(err, ErrLocked) {
		return nil
	}
	return err
}

// TryLock atomically claims a profile for owner. It returns ErrLocked if
// the lock file already exists.
func (d *Dir) TryLock(name, owner string) error {
	if err := d.Ensure(name); err != nil {
		return err
	}
	f, err := os.OpenFile(d.lockPath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrLocked, name)
	}
	if err != nil {
		return fmt.Errorf("failed to lock profile %s: %w", name, err)
	}
	_, werr := fmt.Fprintf(f, "%s\n%d\n%s\n", owner, os.Getpid(), d.now().UTC().Format(time.RFC3339))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(d.lockPath(name))
		return fmt.Errorf("failed to write lock of %s: %w", name, werr)
	}
	profilesLog.Infof("profile %s locked by %q", name, owner)
	return nil
}

// Owner returns the owner recorded in a lock, or "" when unlocked.
func (d *Dir) Owner(name string) string {
	data, err := os.ReadFile(d.lockPath(name))
	if err != nil {
		return ""
	}
	owner, _, _ := strings.Cut(string(data), "\n")
	return owner
}

// Remove deletes the lock file. Removing a missing lock is not an error.
func (d *Dir) Remove(name string) error {
	err := os.Remove(d.lockPath(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to unlock profile %s: %w", name, err)
	}
	if err == nil {
		profilesLog.Infof("profile %s unlocked", name)
	}
	return nil
}

// List returns the profile names in lexical order.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && validName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
