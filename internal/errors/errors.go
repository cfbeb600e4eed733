package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-001"
	ErrCodeConfigEndpoint  ErrorCode = "CONFIG-002"
	ErrCodeConfigMissing   ErrorCode = "CONFIG-003"
	ErrCodeConfigTelegram  ErrorCode = "CONFIG-004"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-005"

	// Questionnaire errors (QUESTIONNAIRE-001 to QUESTIONNAIRE-099)
	ErrCodeQuestionnaireEmpty       ErrorCode = "QUESTIONNAIRE-001"
	ErrCodeQuestionnaireDuplicateID ErrorCode = "QUESTIONNAIRE-002"
	ErrCodeQuestionnaireInvalid     ErrorCode = "QUESTIONNAIRE-003"

	// Answer errors (ANSWER-001 to ANSWER-099)
	ErrCodeAnswerIgnored       ErrorCode = "ANSWER-001"
	ErrCodeAnswerInvalid       ErrorCode = "ANSWER-002"
	ErrCodeAnswerUnknownChoice ErrorCode = "ANSWER-003"
	ErrCodeAnswerDuplicate     ErrorCode = "ANSWER-004"

	// Submission errors (SUBMIT-001 to SUBMIT-099)
	ErrCodeSubmitDisabled  ErrorCode = "SUBMIT-001"
	ErrCodeSubmitTransport ErrorCode = "SUBMIT-002"
	ErrCodeSubmitRejected  ErrorCode = "SUBMIT-003"
	ErrCodeSubmitEncode    ErrorCode = "SUBMIT-004"

	// Theme errors (THEME-001 to THEME-099)
	ErrCodeThemeUnknown ErrorCode = "THEME-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// ValuationError represents an enhanced error with code, suggestions, and documentation
type ValuationError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *ValuationError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ValuationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code, so sentinel
// values declared with New can be matched with errors.Is.
func (e *ValuationError) Is(target error) bool {
	t, ok := target.(*ValuationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new ValuationError
func New(code ErrorCode, message string) *ValuationError {
	return &ValuationError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ValuationError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ValuationError {
	return &ValuationError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ValuationError) WithSuggestion(suggestion string) *ValuationError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ValuationError) WithSuggestions(suggestions ...string) *ValuationError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *ValuationError) WithDocs(url string) *ValuationError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewConfigEndpointError creates an invalid endpoint configuration error
func NewConfigEndpointError(key, value string) *ValuationError {
	return New(ErrCodeConfigEndpoint, fmt.Sprintf("%s is not an absolute http(s) URL: %q", key, value)).
		WithSuggestion(fmt.Sprintf("Run 'valuation config view' to inspect the effective %s", key)).
		WithSuggestion("Set VALUATION_ENDPOINT or edit ~/.valuation/config.yaml")
}

// NewTelegramTokenMissingError creates a missing bot token error
func NewTelegramTokenMissingError() *ValuationError {
	return New(ErrCodeConfigTelegram, "telegram bot token is not configured").
		WithSuggestion("Set the TELEGRAM_BOT_TOKEN environment variable").
		WithSuggestion("Or add telegram.token to ~/.valuation/config.yaml")
}

// NewQuestionnaireDuplicateIDError creates a duplicate question id error
func NewQuestionnaireDuplicateIDError(id string) *ValuationError {
	return New(ErrCodeQuestionnaireDuplicateID, fmt.Sprintf("duplicate question id: %s", id)).
		WithSuggestion("Question ids must be unique across the questionnaire")
}

// NewQuestionnaireInvalidError creates an invalid question error
func NewQuestionnaireInvalidError(id, details string) *ValuationError {
	return New(ErrCodeQuestionnaireInvalid, fmt.Sprintf("invalid question %q: %s", id, details)).
		WithSuggestion("Run 'valuation questions' to see the built-in questionnaire for reference")
}

// NewThemeUnknownError creates an unknown theme error
func NewThemeUnknownError(theme string) *ValuationError {
	return New(ErrCodeThemeUnknown, fmt.Sprintf("unknown theme: %s", theme)).
		WithSuggestion("Use one of: light, dark")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *ValuationError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *ValuationError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
