package errs

// Kind distinguishes the error families spec.md §7 requires callers to be
// able to tell apart (e.g. to decide retry vs. fatal-abort behavior).
type Kind string

const (
	KindConfig     Kind = "config"
	KindStorage    Kind = "storage"
	KindFuture     Kind = "future"
	KindThreadPool Kind = "thread_pool"
	KindThread     Kind = "thread"
	KindSystem     Kind = "system"
	KindFatal      Kind = "fatal"
)

// FutureTag enumerates the sub-tags spec.md §4.K / §7 attach to a
// FutureError.
type FutureTag string

const (
	ValueAlreadySet      FutureTag = "ValueAlreadySet"
	ValueNotSet          FutureTag = "ValueNotSet"
	WaitTimeout          FutureTag = "WaitTimeout"
	ValueWasMoved        FutureTag = "ValueWasMoved"
	ValueBeingRead       FutureTag = "ValueBeingRead"
	StateNotInitialized  FutureTag = "StateNotInitialized"
)

// KindError carries a Kind (and, for future errors, a FutureTag) alongside
// the accumulating *Error context.
type KindError struct {
	*Error
	Kind Kind
	Tag  FutureTag
}

// NewKind builds a KindError of the given kind with msg as its first
// context frame.
func NewKind(kind Kind, msg string) *KindError {
	return &KindError{Error: New(msg), Kind: kind}
}

// NewFutureError builds a KindError tagged per spec.md §4.K's future state
// machine violations.
func NewFutureError(tag FutureTag) *KindError {
	e := &KindError{Error: New(string(tag)), Kind: KindFuture, Tag: tag}
	return e
}

// Is lets errors.Is match on Kind/Tag: errors.Is(err, errs.NewFutureError(errs.ValueAlreadySet))
// matches any KindError with the same Kind and Tag.
func (e *KindError) Is(target error) bool {
	other, ok := target.(*KindError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind && e.Tag == other.Tag
}
