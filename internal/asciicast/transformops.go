package asciicast

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
)

// TransformResult reports the effect of ApplyTransforms on one recording.
type TransformResult struct {
	OriginalDuration float64
	NewDuration      float64
	BackupPath       string
	BackupCreated    bool
}

// TimeSaved is the number of seconds the transform removed.
func (r TransformResult) TimeSaved() float64 {
	return r.OriginalDuration - r.NewDuration
}

// PercentSaved is the fraction of original duration removed, as a
// percentage.
func (r TransformResult) PercentSaved() float64 {
	if r.OriginalDuration > 0.0 {
		return (r.TimeSaved() / r.OriginalDuration) * 100.0
	}
	return 0.0
}

// String renders a human-readable one-line summary suitable for CLI output.
func (r TransformResult) String() string {
	return fmt.Sprintf(
		"%ss -> %ss (saved %ss, %.1f%%)",
		humanize.Ftoa(r.OriginalDuration),
		humanize.Ftoa(r.NewDuration),
		humanize.Ftoa(r.TimeSaved()),
		r.PercentSaved(),
	)
}

// BackupPathFor returns the backup path for a recording: the original path
// with ".bak" appended.
func BackupPathFor(path string) string {
	return path + ".bak"
}

// HasBackup reports whether a backup already exists for path.
func HasBackup(path string) bool {
	_, err := os.Stat(BackupPathFor(path))
	return err == nil
}

// ApplyTransforms backs up the recording at path (if no backup exists yet),
// applies SilenceRemoval at the header's idle_time_limit (or
// DefaultSilenceThreshold), and atomically rewrites the file.
func ApplyTransforms(path string) (TransformResult, error) {
	cast, err := Parse(path)
	if err != nil {
		return TransformResult{}, fmt.Errorf("parse asciicast file %s: %w", path, err)
	}
	originalDuration := cast.Duration()

	backup := BackupPathFor(path)
	backupCreated := false
	if !HasBackup(path) {
		if err := copyFile(path, backup); err != nil {
			return TransformResult{}, fmt.Errorf("create backup %s: %w", backup, err)
		}
		backupCreated = true
	}

	threshold := DefaultSilenceThreshold
	if cast.Header.IdleTimeLimit != nil {
		threshold = *cast.Header.IdleTimeLimit
	}

	transform := NewSilenceRemoval(threshold)
	cast.Events = transform.Apply(cast.Events)

	newDuration := cast.Duration()

	if err := WriteAtomic(path, cast); err != nil {
		return TransformResult{}, err
	}

	return TransformResult{
		OriginalDuration: originalDuration,
		NewDuration:      newDuration,
		BackupPath:       backup,
		BackupCreated:    backupCreated,
	}, nil
}

// RestoreFromBackup replaces path with its backup copy.
func RestoreFromBackup(path string) error {
	backup := BackupPathFor(path)
	if !HasBackup(path) {
		return fmt.Errorf("no backup exists for: %s", path)
	}

	tempPath := path + ".tmp"
	if err := copyFile(backup, tempPath); err != nil {
		return fmt.Errorf("copy backup to temp file %s: %w", backup, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("restore from backup %s: %w", path, err)
	}
	return nil
}

// WriteAtomic serializes cast to a ".tmp" sibling of path and renames it
// over path, so a crash mid-write never corrupts the original file.
func WriteAtomic(path string, cast *File) error {
	tempPath := path + ".tmp"
	if err := cast.Write(tempPath); err != nil {
		return fmt.Errorf("write transformed file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace original file %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
