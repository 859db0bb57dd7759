// Package errors provides typed errors for cpf.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the type of error.
type ErrorCode string

const (
	ErrConfigNotFound    ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrGitHubAuthFailed  ErrorCode = "GITHUB_AUTH_FAILED"
	ErrGitHubFetchFailed ErrorCode = "GITHUB_FETCH_FAILED"
	ErrCacheNotFound     ErrorCode = "CACHE_NOT_FOUND"
	ErrInvalidRepo       ErrorCode = "INVALID_REPO"
	ErrFormatInvalid     ErrorCode = "FORMAT_INVALID"
	ErrValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrInputReadFailed   ErrorCode = "INPUT_READ_FAILED"
	ErrOutputWriteFailed ErrorCode = "OUTPUT_WRITE_FAILED"
)

// CPFError represents a typed error with user-friendly hints.
type CPFError struct {
	Code    ErrorCode
	Message string
	Hint    string
	Cause   error
}

func (e *CPFError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CPFError) Unwrap() error {
	return e.Cause
}

// New creates a new CPFError.
func New(code ErrorCode, message, hint string) *CPFError {
	return &CPFError{
		Code:    code,
		Message: message,
		Hint:    hint,
	}
}

// Wrap creates a new CPFError wrapping an existing error.
func Wrap(code ErrorCode, message, hint string, cause error) *CPFError {
	return &CPFError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   cause,
	}
}

// ConfigNotFound returns an error for a config file named explicitly but
// missing.
func ConfigNotFound(path string) *CPFError {
	return &CPFError{
		Code:    ErrConfigNotFound,
		Message: fmt.Sprintf("config file not found: %s", path),
		Hint:    "Check the --config flag or CPF_CONFIG",
	}
}

// ConfigInvalid returns an error for invalid config.
func ConfigInvalid(reason string) *CPFError {
	return &CPFError{
		Code:    ErrConfigInvalid,
		Message: fmt.Sprintf("invalid config: %s", reason),
		Hint:    "Check your config file at ~/.config/cpf/config.yaml",
	}
}

// GitHubAuthFailed returns an error for authentication failures.
func GitHubAuthFailed(cause error) *CPFError {
	return &CPFError{
		Code:    ErrGitHubAuthFailed,
		Message: "GitHub authentication failed",
		Hint:    "Run `gh auth login` or set CPF_GITHUB_TOKEN environment variable",
		Cause:   cause,
	}
}

// GitHubFetchFailed returns an error for fetch failures.
func GitHubFetchFailed(repo string, cause error) *CPFError {
	return &CPFError{
		Code:    ErrGitHubFetchFailed,
		Message: fmt.Sprintf("failed to fetch from %s", repo),
		Hint:    "Check that the repository and path exist and you have access",
		Cause:   cause,
	}
}

// CacheNotFound returns an error when nothing is cached for a source.
func CacheNotFound(source string) *CPFError {
	return &CPFError{
		Code:    ErrCacheNotFound,
		Message: fmt.Sprintf("no cached copy of %s", source),
		Hint:    "Drop --offline to fetch it",
	}
}

// InvalidRepo returns an error for malformed repo strings.
func InvalidRepo(repo string) *CPFError {
	return &CPFError{
		Code:    ErrInvalidRepo,
		Message: fmt.Sprintf("invalid repository format: %s", repo),
		Hint:    "Use format: github.com/owner/repo or owner/repo",
	}
}

// FormatInvalid returns an error for text that is not a well-formed
// document.
func FormatInvalid(source string, cause error) *CPFError {
	return &CPFError{
		Code:    ErrFormatInvalid,
		Message: fmt.Sprintf("%s is not a valid CPF document", source),
		Hint:    "Run `cpf validate` for details, or `cpf encode` to convert prose",
		Cause:   cause,
	}
}

// ValidationFailed returns an error when validation found errors.
func ValidationFailed(source string, count int) *CPFError {
	noun := "errors"
	if count == 1 {
		noun = "error"
	}
	return &CPFError{
		Code:    ErrValidationFailed,
		Message: fmt.Sprintf("%s has %d validation %s", source, count, noun),
		Hint:    "Fix the reported lines and run `cpf validate` again",
	}
}

// InputReadFailed returns an error for unreadable input.
func InputReadFailed(path string, cause error) *CPFError {
	return &CPFError{
		Code:    ErrInputReadFailed,
		Message: fmt.Sprintf("cannot read %s", path),
		Hint:    "Pass a readable file or '-' for stdin",
		Cause:   cause,
	}
}

// OutputWriteFailed returns an error for unwritable output.
func OutputWriteFailed(path string, cause error) *CPFError {
	return &CPFError{
		Code:    ErrOutputWriteFailed,
		Message: fmt.Sprintf("cannot write %s", path),
		Hint:    "Check that the directory exists and is writable",
		Cause:   cause,
	}
}

// AbbreviationsInvalid returns an error for a bad abbreviation file.
func AbbreviationsInvalid(path string, problems []string) *CPFError {
	return &CPFError{
		Code:    ErrConfigInvalid,
		Message: fmt.Sprintf("invalid abbreviations in %s: %s", path, strings.Join(problems, "; ")),
		Hint:    "Tokens must be letters, digits or '_' and start with a letter or digit",
	}
}
