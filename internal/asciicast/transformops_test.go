package asciicast

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestCast(t *testing.T, dir, name string, idleLimit *float64, events []Event) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f := NewFile(Header{Version: 3, IdleTimeLimit: idleLimit})
	f.Events = events
	if err := f.Write(path); err != nil {
		t.Fatalf("write test cast: %v", err)
	}
	return path
}

func TestBackupPathFor(t *testing.T) {
	if got, want := BackupPathFor("recording.cast"), "recording.cast.bak"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestHasBackup(t *testing.T) {
	dir := t.TempDir()
	path := writeTestCast(t, dir, "test.cast", nil, []Event{NewOutput(0.1, "hello")})
	if HasBackup(path) {
		t.Fatal("expected no backup yet")
	}
	if err := copyFile(path, BackupPathFor(path)); err != nil {
		t.Fatalf("copyFile: %v", err)
	}
	if !HasBackup(path) {
		t.Fatal("expected backup to exist")
	}
}

func TestApplyTransformsCreatesBackupAndCapsSilence(t *testing.T) {
	dir := t.TempDir()
	path := writeTestCast(t, dir, "test.cast", nil, []Event{
		NewOutput(0.1, "a"),
		NewOutput(1800.0, "b"),
	})

	result, err := ApplyTransforms(path)
	if err != nil {
		t.Fatalf("ApplyTransforms: %v", err)
	}
	if !result.BackupCreated {
		t.Fatal("expected backup to be created")
	}
	if !approxEqual(result.OriginalDuration, 1800.1) {
		t.Fatalf("original duration = %v", result.OriginalDuration)
	}
	if !approxEqual(result.NewDuration, 2.1) {
		t.Fatalf("new duration = %v, want 2.1", result.NewDuration)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("expected no leftover .tmp file")
	}

	cast, err := Parse(path)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !approxEqual(cast.Events[1].Time, 2.0) {
		t.Fatalf("expected clamp to 2.0, got %v", cast.Events[1].Time)
	}
}

func TestApplyTransformsUsesIdleTimeLimit(t *testing.T) {
	dir := t.TempDir()
	limit := 5.0
	path := writeTestCast(t, dir, "test.cast", &limit, []Event{
		NewOutput(0.1, "a"),
		NewOutput(10.0, "b"),
	})

	result, err := ApplyTransforms(path)
	if err != nil {
		t.Fatalf("ApplyTransforms: %v", err)
	}
	if !approxEqual(result.NewDuration, 5.1) {
		t.Fatalf("new duration = %v, want 5.1", result.NewDuration)
	}
}

func TestRestoreFromBackupRequiresBackup(t *testing.T) {
	dir := t.TempDir()
	path := writeTestCast(t, dir, "test.cast", nil, []Event{NewOutput(0.1, "a")})
	if err := RestoreFromBackup(path); err == nil {
		t.Fatal("expected error when no backup exists")
	}
}

func TestRestoreFromBackupRestoresOriginalContent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestCast(t, dir, "test.cast", nil, []Event{
		NewOutput(0.1, "a"),
		NewOutput(1800.0, "b"),
	})

	if _, err := ApplyTransforms(path); err != nil {
		t.Fatalf("ApplyTransforms: %v", err)
	}
	if err := RestoreFromBackup(path); err != nil {
		t.Fatalf("RestoreFromBackup: %v", err)
	}

	cast, err := Parse(path)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !approxEqual(cast.Events[1].Time, 1800.0) {
		t.Fatalf("expected restored interval 1800.0, got %v", cast.Events[1].Time)
	}
}

func TestTransformResultPercentSaved(t *testing.T) {
	r := TransformResult{OriginalDuration: 100.0, NewDuration: 25.0}
	if !approxEqual(r.TimeSaved(), 75.0) {
		t.Fatalf("TimeSaved = %v, want 75.0", r.TimeSaved())
	}
	if !approxEqual(r.PercentSaved(), 75.0) {
		t.Fatalf("PercentSaved = %v, want 75.0", r.PercentSaved())
	}
}

func TestTransformResultPercentSavedZeroDuration(t *testing.T) {
	r := TransformResult{OriginalDuration: 0, NewDuration: 0}
	if !approxEqual(r.PercentSaved(), 0.0) {
		t.Fatalf("PercentSaved = %v, want 0.0", r.PercentSaved())
	}
}
