// Package gid extracts a stable numeric identifier for the calling
// goroutine. Go deliberately exposes no public goroutine id, so this parses
// the one runtime.Stack prints — the same trick joeycumines-go-utilpkg's
// goroutineid package sketches (that package was an empty module stub in
// the retrieval pack; this is an original, minimal implementation of the
// same idea, grounded on the documented runtime.Stack header format
// "goroutine N [running]:").
//
// The returned value is stable for the lifetime of the goroutine and is
// used as a thread id: keys into the thread-local registry (tlocal),
// RecursiveMutex's holder field, and the singleton package's reentrant-
// construction guard.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the calling goroutine's id.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	b = bytes.TrimPrefix(b, []byte(prefix))
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
