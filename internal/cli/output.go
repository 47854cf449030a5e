package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Compilation pass failed (broken chunk graph, rule overrun)
	ExitCommandError = 2 // Command error (invalid paths, bad config or project)
)

// ExitError represents an error with a specific exit code.
// Commands return it so main can exit with ExitFailure for a failed pass
// and ExitCommandError for bad input, instead of a generic 1.
type ExitError struct {
	Code    int    // Exit code passed to os.Exit
	Message string // Error code or short description (e.g. "E201")
	Err     error  // Underlying error, if any
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

// WrapExitError wraps err with an exit code and message. The result
// unwraps to err, so errors.Is and errors.As still see the cause.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not, and does not wrap, an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string    // "json" or "text"
	Writer    io.Writer // Command results
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool      // Enables VerboseLog and error details in text mode
}

// CLIResponse is the standard JSON response format for CLI output.
// Every command writes exactly one of these per invocation in JSON mode.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // Command result on success
	Error  *CLIError `json:"error,omitempty"` // Set when Status is "error"
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // Stable error code ("E101", "E201", etc.)
	Message string `json:"message"`           // Human-readable description
	Details any    `json:"details,omitempty"` // Optional structured context
}

// textOutput is implemented by results with a human-readable rendering.
type textOutput interface {
	Text(w io.Writer)
}

// Success outputs a successful result in the configured format.
// In text mode, results implementing Text render themselves; anything
// else is printed with its default format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	// Human-readable text output
	if t, ok := data.(textOutput); ok {
		t.Text(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only in verbose mode.
// Uses ErrWriter if set, otherwise falls back to Writer. When format is
// JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// fail reports an error in the configured format and returns it as an
// ExitError, so a command can `return f.fail(...)` in one step.
func (f *OutputFormatter) fail(exitCode int, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(exitCode, code, err)
}
