package diag

import (
	"fmt"
	"os"
)

// WritePidFile writes the current process id to path as a single decimal
// integer followed by a newline, per spec.md §6's persisted-state
// description, and returns a func that removes it.
func WritePidFile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("diag: write pid file %s: %w", path, err)
	}
	return func() { os.Remove(path) }, nil
}
