// Package canonical produces deterministic JSON for log entries.
//
// The encoding follows RFC 8785 for the value types memimg commands use:
// strings, integers, booleans, arrays and objects. Object keys are sorted by
// UTF-16 code units, strings are NFC-normalized and HTML characters are left
// unescaped. Floats and nulls are rejected because they make a log entry's
// byte form depend on the encoder.
//
// The same command always encodes to the same bytes, which keeps checksums
// stable across processes and lets replay be verified byte-for-byte.
package canonical
