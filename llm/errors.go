package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrorCategory classifies analyzer failures for retry decisions and audit
// trails.
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryAuth       ErrorCategory = "authentication"
	ErrorCategoryThrottled  ErrorCategory = "throttled"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryModel      ErrorCategory = "model"
	ErrorCategoryParse      ErrorCategory = "parse"
	ErrorCategorySystem     ErrorCategory = "system"
)

// transientCategories are worth retrying; validation and auth failures are
// not going to heal on a second attempt.
var transientCategories = map[ErrorCategory]bool{
	ErrorCategoryThrottled: true,
	ErrorCategoryTimeout:   true,
	ErrorCategoryNetwork:   true,
	ErrorCategoryModel:     true,
}

// AnalysisError wraps analyzer failures with category metadata.
type AnalysisError struct {
	Category  ErrorCategory
	Err       error
	RequestID string
	Timestamp time.Time
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("[%s] %s (request: %s)", e.Category, e.Err.Error(), e.RequestID)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying could help.
func (e *AnalysisError) Transient() bool {
	return transientCategories[e.Category]
}

// newAnalysisError creates an AnalysisError with standard fields.
func newAnalysisError(category ErrorCategory, err error, requestID string) *AnalysisError {
	return &AnalysisError{
		Category:  category,
		Err:       err,
		RequestID: requestID,
		Timestamp: time.Now(),
	}
}

// IsTransient reports whether an error is worth retrying. Uncategorized
// errors are classified by message.
func IsTransient(err error) bool {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Transient()
	}
	return transientCategories[Categorize(err)]
}

// Categorize classifies an error by its message. Used for errors coming
// out of SDKs and transports that do not carry our category metadata.
func Categorize(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "too many requests"), strings.Contains(msg, "rate limit"):
		return ErrorCategoryThrottled
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return ErrorCategoryTimeout
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"), strings.Contains(msg, "unavailable"):
		return ErrorCategoryNetwork
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "access denied"), strings.Contains(msg, "credential"):
		return ErrorCategoryAuth
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return ErrorCategoryValidation
	case strings.Contains(msg, "internal server"), strings.Contains(msg, "model"):
		return ErrorCategoryModel
	}

	return ErrorCategorySystem
}

// ErrorReporter writes structured error logs for analyzer failures.
type ErrorReporter struct {
	logger *log.Logger
}

// NewErrorReporter creates an error reporter over the given logger.
func NewErrorReporter(logger *log.Logger) *ErrorReporter {
	return &ErrorReporter{logger: logger}
}

// Report logs an error as one structured JSON line.
func (r *ErrorReporter) Report(err error) {
	details := map[string]interface{}{}

	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		details["category"] = string(analysisErr.Category)
		details["request_id"] = analysisErr.RequestID
		details["transient"] = analysisErr.Transient()
	}

	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     "error",
		"error":     err.Error(),
		"details":   details,
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		r.logger.Printf("error marshaling error log: %v", marshalErr)
		return
	}
	r.logger.Println(string(data))
}
