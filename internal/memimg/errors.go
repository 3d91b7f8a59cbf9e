package memimg

import (
	"errors"
	"fmt"
)

// Kind categorizes processor errors.
type Kind string

const (
	// KindCommandRejected: the command's own logic refused the mutation.
	// The committed state is unchanged.
	KindCommandRejected Kind = "COMMAND_REJECTED"

	// KindPersistenceFailure: the command validated but could not be
	// encoded or appended. The committed state is unchanged and the caller
	// must treat the command as not having happened.
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"

	// KindReplayCorruption: an entry could not be read, decoded or applied
	// during replay. The state cannot be trusted.
	KindReplayCorruption Kind = "REPLAY_CORRUPTION"

	// KindQueryFailure: the query's extraction logic reported an error.
	KindQueryFailure Kind = "QUERY_FAILURE"
)

// Sentinels for errors.Is matching against *Error kinds.
var (
	ErrCommandRejected    = errors.New("command rejected")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrReplayCorruption   = errors.New("replay corruption")
	ErrQueryFailure       = errors.New("query failure")
)

var (
	// ErrAlreadyReplayed is returned by a second successful Replay call.
	ErrAlreadyReplayed = errors.New("log already replayed")

	// ErrReplayAfterApply is returned when Replay is called after an Apply
	// has committed, since the state is no longer the initial value.
	ErrReplayAfterApply = errors.New("replay after apply")

	// ErrNilCommand is the cause of a rejection for a nil command.
	ErrNilCommand = errors.New("nil command")
)

var kindSentinels = map[Kind]error{
	KindCommandRejected:    ErrCommandRejected,
	KindPersistenceFailure: ErrPersistenceFailure,
	KindReplayCorruption:   ErrReplayCorruption,
	KindQueryFailure:       ErrQueryFailure,
}

// Error is returned by Apply, Replay and Execute.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op is the step that failed ("apply", "encode", "append", "read",
	// "decode", "query").
	Op string

	// Type is the command type or query type involved, if known.
	Type string

	// Position is the 1-based log position for replay errors, 0 otherwise.
	Position int64

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Position > 0 {
		msg += fmt.Sprintf(" entry %d", e.Position)
	}
	if e.Type != "" {
		msg += fmt.Sprintf(" (%s)", e.Type)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
