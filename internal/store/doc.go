// Package store provides a SQLite-backed command log.
//
// Each row of the entries table holds one encoded command:
//
//	seq       INTEGER PRIMARY KEY AUTOINCREMENT  append order
//	entry     BLOB                               codec output, stored verbatim
//	checksum  TEXT                               canonical.Checksum(DomainLogEntry, entry)
//
// Reads are always ORDER BY seq ASC. seq is the only ordering; no wall-clock
// column exists, so replay order cannot depend on time.
//
// A row whose checksum does not match its entry is reported as a read error
// rather than handed to the codec.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: every committed append survives power loss
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
