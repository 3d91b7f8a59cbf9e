package memimg

import (
	"context"
	"iter"
)

// State is a value the processor can duplicate. Clone must return a deep
// copy: mutating the clone must never be observable through the original.
type State[S any] interface {
	Clone() S
}

// Command describes one state transition.
//
// Apply receives a working copy and either completes all of its mutations
// and returns nil, or returns an error. On error the working copy may be
// left partially mutated; the processor discards it.
type Command[S any] interface {
	// CommandType names the variant. Used for logging, metrics and errors.
	CommandType() string

	// Apply mutates the working copy. It must not perform I/O.
	Apply(working S) error
}

// Query reads the committed state. Extract must not mutate its argument.
type Query[S, R any] interface {
	Extract(state S) (R, error)
}

// QueryFunc adapts a function to the Query interface.
type QueryFunc[S, R any] func(state S) (R, error)

// Extract calls f(state).
func (f QueryFunc[S, R]) Extract(state S) (R, error) {
	return f(state)
}

// Log is the durable, append-only store of encoded commands.
//
// Append must persist one entry ordered after all previous entries before
// returning nil. ReadAll yields every entry in append order; each call
// restarts from the beginning. A read error is yielded as the second value,
// after which iteration stops.
type Log interface {
	Append(ctx context.Context, entry []byte) error
	ReadAll(ctx context.Context) iter.Seq2[[]byte, error]
}

// Codec converts commands to and from their log representation.
// Decode(Encode(c)) must yield a command equivalent to c, and Decode must
// report malformed input as an error rather than substitute a value.
type Codec[S any] interface {
	Encode(cmd Command[S]) ([]byte, error)
	Decode(entry []byte) (Command[S], error)
}
