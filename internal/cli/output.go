package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/memimg/internal/ledger"
	"github.com/roach88/memimg/internal/memimg"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected command, missing account, replay verification failed
	ExitCommandError = 2 // Command error (bad arguments, unreadable config, log not writable, etc.)
)

// Error codes reported in CLIError.Code.
const (
	CodeRejected    = "E_REJECTED"
	CodeNotFound    = "E_NOT_FOUND"
	CodeQuery       = "E_QUERY"
	CodePersistence = "E_PERSISTENCE"
	CodeReplay      = "E_REPLAY"
	CodeDeterminism = "E_DETERMINISM"
	CodeUsage       = "E_USAGE"
	CodeInternal    = "E_INTERNAL"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the command output,
	// so the entry point does not print it a second time.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError: cobra
// reports bad flags and arguments that way.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// IsReported reports whether err was already written by an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_REJECTED", "E_REPLAY", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with fmt.Println, so result types
// implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail writes err under code and returns it as a reported ExitError.
func (f *OutputFormatter) Fail(code string, exitCode int, err error) error {
	if writeErr := f.Error(code, err.Error(), nil); writeErr != nil {
		return WrapExitError(exitCode, "write error output", writeErr)
	}
	exitErr := WrapExitError(exitCode, code, err)
	exitErr.Reported = true
	return exitErr
}

// FailProcessor maps a processor error onto a CLI error code and exit code.
// A missing account is reported as CodeNotFound whether it came from a
// command or a query.
func (f *OutputFormatter) FailProcessor(err error) error {
	kind, _ := memimg.KindOf(err)
	switch {
	case kind == memimg.KindReplayCorruption:
		return f.Fail(CodeReplay, ExitFailure, err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		return f.Fail(CodeNotFound, ExitFailure, err)
	}

	switch kind {
	case memimg.KindCommandRejected:
		return f.Fail(CodeRejected, ExitFailure, err)
	case memimg.KindQueryFailure:
		return f.Fail(CodeQuery, ExitFailure, err)
	case memimg.KindPersistenceFailure:
		return f.Fail(CodePersistence, ExitCommandError, err)
	default:
		return f.Fail(CodeInternal, ExitCommandError, err)
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
