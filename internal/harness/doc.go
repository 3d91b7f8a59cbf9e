// Package harness runs ledger scenarios described in YAML.
//
// A scenario is a list of commands, each with an expected outcome, followed by
// assertions on the resulting ledger. Every run uses a fresh in-memory log.
// After the flow the log is replayed into a second ledger and compared with
// the live one, so each scenario is also a replay determinism check.
//
// Commands are built by encoding the step as a log entry and decoding it with
// the ledger codec. A scenario therefore cannot express a command the codec
// would refuse to read back.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
