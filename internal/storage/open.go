package storage

import (
	"context"
	"fmt"
	"strings"
)

// BackendFactory resolves a config's storage_library value into a
// Backend. Built-in schemes ("memory", "sqlite:<path>",
// "postgres:<dsn>") are handled directly; anything else is treated as a
// path to a Go plugin .so implementing spec.md §6's plugin ABI, and the
// caller is expected to fall back to internal/plugin.Load for it.
type BackendFactory func(ctx context.Context, library, configPath string) (Backend, error)

// ParseBuiltinScheme reports whether library names one of the built-in
// back-ends handled in-process (as opposed to a dynamically loaded
// plugin), returning the scheme and the remainder after "scheme:".
func ParseBuiltinScheme(library string) (scheme, rest string, ok bool) {
	for _, s := range []string{"memory", "sqlite", "postgres"} {
		if library == s {
			return s, "", true
		}
		if strings.HasPrefix(library, s+":") {
			return s, strings.TrimPrefix(library, s+":"), true
		}
	}
	return "", "", false
}

// ErrUnknownScheme reports that library names neither a built-in scheme
// nor a loadable plugin path.
func ErrUnknownScheme(library string) error {
	return fmt.Errorf("storage: unrecognized storage_library %q: not a built-in scheme and no plugin loader configured", library)
}
