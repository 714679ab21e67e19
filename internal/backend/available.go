package backend

import "os/exec"

// commandExists reports whether name is resolvable on PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
