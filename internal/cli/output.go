package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/aggc/internal/compiler"
)

// Exit codes.
const (
	ExitFailure      = 1 // compile error, execution error, failed scenario or unstable runs
	ExitCommandError = 2 // bad flags, unreadable model, request or database
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError returns an ExitError with no cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not
// ExitErrors exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrCodeCommand is reported for every failure that is not a compile error.
const ErrCodeCommand = "E_COMMAND"

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of a CLIResponse.
type CLIError struct {
	Code    string        `json:"code"` // compile error code or E_COMMAND
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails locates a compile error in the request.
type ErrorDetails struct {
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
	Type   string `json:"type,omitempty"`
}

// detailsOf returns the details of a compile error, or nil.
func detailsOf(ce *compiler.CompileError) *ErrorDetails {
	if ce.Method == "" && ce.Path == "" && ce.Type == "" {
		return nil
	}
	return &ErrorDetails{Method: ce.Method, Path: ce.Path, Type: ce.Type}
}

// OutputFormatter writes command results as text or as a JSON CLIResponse.
// Diagnostics go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// Success writes data. Text output relies on data's String method.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failure. In text mode each detail goes on its own
// indented line after the message.
func (f *OutputFormatter) Error(code, message string, details *ErrorDetails) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if details == nil {
		return nil
	}
	for _, kv := range [][2]string{{"method", details.Method}, {"path", details.Path}, {"type", details.Type}} {
		if kv[1] != "" {
			fmt.Fprintf(f.Writer, "  %s: %s\n", kv[0], kv[1])
		}
	}
	return nil
}

// Fail reports err and returns it so RunE can keep the exit code. Compile
// errors are reported under their own code.
func (f *OutputFormatter) Fail(err error) error {
	code := ErrCodeCommand
	var details *ErrorDetails
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		code = string(ce.Code)
		details = detailsOf(ce)
	}
	if writeErr := f.Error(code, err.Error(), details); writeErr != nil {
		return fmt.Errorf("write error output: %w", writeErr)
	}
	return err
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
