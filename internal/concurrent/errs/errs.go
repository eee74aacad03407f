// Package errs implements the accumulating error carrier from spec.md §4.J:
// context frames appended as the error propagates, an optional source
// location, and an optional captured back-trace.
package errs

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is an exception-shaped value that accumulates context as it
// propagates up the call stack.
type Error struct {
	frames []string
	file   string
	line   int
	stack  []uintptr
	cause  error
}

// New starts a new Error carrying msg as its first context frame, captured
// at the caller's source location.
func New(msg string) *Error {
	e := &Error{frames: []string{msg}}
	e.file, e.line = callerLocation(1)
	return e
}

// Wrap carries cause forward, starting a new Error whose first frame is msg
// and whose Unwrap returns cause.
func Wrap(cause error, msg string) *Error {
	e := New(msg)
	e.cause = cause
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(cause error, format string, args ...any) *Error {
	return Wrap(cause, fmt.Sprintf(format, args...))
}

// Append adds another context frame, returning the same Error for
// chaining — the streaming `Error() << "context" << n` idiom from spec.md
// §4.J rendered as ordinary method chaining.
func (e *Error) Append(v any) *Error {
	e.frames = append(e.frames, fmt.Sprint(v))
	return e
}

// CaptureStack records the current goroutine's back-trace into the error.
func (e *Error) CaptureStack() *Error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	e.stack = pcs[:n]
	return e
}

// Stack renders the captured back-trace, if any, as text.
func (e *Error) Stack() string {
	if len(e.stack) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(e.stack)
	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func (e *Error) Error() string {
	msg := strings.Join(e.frames, ": ")
	if e.file != "" {
		msg = fmt.Sprintf("%s (%s:%d)", msg, e.file, e.line)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap lets errors.Is/As traverse through a carried cause.
func (e *Error) Unwrap() error { return e.cause }

func callerLocation(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0
	}
	return file, line
}

// SystemError wraps an OS error code and its canonical string, per
// spec.md §7's SystemError kind.
type SystemError struct {
	*Error
	Errno int
	Text  string
}

// NewSystemError builds a SystemError from an errno-shaped value and its
// message.
func NewSystemError(errno int, text string) *SystemError {
	return &SystemError{
		Error: New(fmt.Sprintf("system error %d: %s", errno, text)),
		Errno: errno,
		Text:  text,
	}
}
