package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/veronicavalera/gritgirls/internal/listing/domain"
	photodomain "github.com/veronicavalera/gritgirls/internal/photo/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the marketplace refused or an upload failed
	ExitCommandError = 2 // bad flags, config or local files
)

// ExitError carries the exit code a command wants.
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an *ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Notice string    `json:"notice,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(data any, notice string, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data, Notice: notice})
	}
	if notice != "" {
		fmt.Fprintln(f.errWriter(), notice)
	}
	text(f.Writer)
	return nil
}

func (f *OutputFormatter) Error(err error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: errorCode(err), Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintf(f.errWriter(), "Error: %s\n", err)
	return werr
}

// Warn prints a diagnostic that does not fail the command.
func (f *OutputFormatter) Warn(format string, args ...any) {
	fmt.Fprintf(f.errWriter(), "Warning: "+format+"\n", args...)
}

// VerboseLog prints only with --verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func errorCode(err error) string {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return "not_logged_in"
	case errors.Is(err, domain.ErrInvalidForm):
		return "invalid_form"
	case errors.Is(err, domain.ErrBikeNotFound):
		return "not_found"
	case errors.Is(err, photodomain.ErrFlushFailed):
		return "upload_failed"
	case errors.As(err, &apiErr):
		return "api_error"
	case GetExitCode(err) == ExitCommandError:
		return "command_error"
	default:
		return "error"
	}
}
