// Package memimg implements the memory image processor.
//
// The entire application state lives in memory. A durable, append-only log
// of commands is the only source of truth: on startup the state is rebuilt
// by replaying the log against an empty value, and at runtime the state
// changes only through commands that are made durable first.
//
// APPLY PROTOCOL:
//
//  1. Take the writer lock (one Apply in flight at a time).
//  2. Clone the committed state into a working copy.
//  3. Run the command against the working copy.
//  4. On failure, drop the working copy. The committed state is untouched.
//  5. Encode the command and append it to the log. On failure, drop the
//     working copy. The committed state is still untouched.
//  6. Swap the working copy in as the committed state.
//
// CRASH RECOVERY:
//
// The log append happens before the in-memory swap. A crash before the
// append means the command never happened. A crash after the append but
// before the swap leaves the command in the log, so the next replay commits
// it. Replay therefore always reconstructs the last durable state: it never
// includes a mutation that was not logged and never omits one that was.
//
// READERS:
//
// Queries take a shared lock on the committed state and never see a working
// copy. Because the committed value is swapped rather than mutated, a query
// observes either the complete state before an Apply or the complete state
// after it.
//
// DETERMINISM:
//
// Commands must depend only on their own fields and the state they are
// given. Timestamps, random identifiers and anything else external must be
// baked into the command before it is applied, or replay will diverge.
package memimg
