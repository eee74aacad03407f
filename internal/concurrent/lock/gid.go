package lock

import "github.com/chatrelay/chat-relay/internal/concurrent/gid"

// CurrentGoroutineID returns a stable identifier for the calling goroutine
// (the runtime's goroutine id as is, not hashed) — Go exposes no public
// thread/goroutine id, so RecursiveMutex
// and the singleton package's reentrancy check parse it out of
// runtime.Stack, same as tlocal and thread do.
func CurrentGoroutineID() uint64 { return gid.Current() }
