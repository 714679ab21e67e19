// Package lock guards against the analyzer touching a recording the
// recorder still owns. The recorder writes a sibling `<cast>.lock` JSON
// file while capture is in progress; this package only reads that file
// to refuse mutating a recording mid-capture; lock lifecycle otherwise
// belongs to the recorder.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Info is the JSON shape of a recording's lock file.
type Info struct {
	PID     int       `json:"pid"`
	Started time.Time `json:"started"`
}

// PathFor returns the lock file path sibling to a recording path.
func PathFor(castPath string) string {
	return castPath + ".lock"
}

// ErrLocked is returned when a recording is held by a live recorder
// process.
type ErrLocked struct {
	Path string
	Info Info
}

func (e *ErrLocked) Error() string {
	return fmt.Sprintf("%s is locked by pid %d (started %s)", e.Path, e.Info.PID, e.Info.Started.Format(time.RFC3339))
}

// Check inspects castPath's lock file, if any. It returns nil when there is
// no lock file, or when the lock file exists but its owning PID is no
// longer alive (a stale lock, which the caller may proceed past — removing
// it is an explicit user action, not done here). It returns *ErrLocked when
// the owning PID is still alive.
func Check(castPath string) error {
	info, ok, err := read(PathFor(castPath))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !pidAlive(info.PID) {
		return nil
	}
	return &ErrLocked{Path: castPath, Info: info}
}

// IsStale reports whether castPath carries a lock file whose owning PID is
// no longer alive. Used by callers that want to surface "stale lock, remove
// it yourself" guidance rather than silently proceeding.
func IsStale(castPath string) (bool, Info, error) {
	info, ok, err := read(PathFor(castPath))
	if err != nil || !ok {
		return false, Info{}, err
	}
	return !pidAlive(info.PID), info, nil
}

func read(lockPath string) (Info, bool, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, false, nil
		}
		return Info{}, false, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, false, fmt.Errorf("parsing lock file %s: %w", lockPath, err)
	}
	return info, true, nil
}

// pidAlive reports whether pid refers to a running process, using signal 0
// (no-op permission/existence check, sends nothing).
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
