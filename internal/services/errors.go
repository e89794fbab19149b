package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/backend"
	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")
	ErrUpstream         = errors.New("upstream service error")

	// Session specific errors
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrSessionClosed   = errors.New("quiz session closed")

	// Quiz specific errors
	ErrQuizNotFound = errors.New("quiz not found")

	// Report specific errors
	ErrReportsUnavailable = errors.New("session reports require a database")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError is a request the current session state does not allow
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	err     error
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.err
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// sessionRuleError maps a rejected session transition onto a BusinessRuleError
func sessionRuleError(err error, phase quiz.Phase) error {
	rule := ""
	switch {
	case errors.Is(err, quiz.ErrInvalidTransition):
		rule = "invalid_transition"
	case errors.Is(err, quiz.ErrAnswerIncomplete):
		rule = "answer_incomplete"
	case errors.Is(err, quiz.ErrQuestionLocked):
		rule = "question_locked"
	case errors.Is(err, quiz.ErrContinueNotReady):
		rule = "continue_not_ready"
	case errors.Is(err, quiz.ErrEditMismatch), errors.Is(err, quiz.ErrEditOutOfRange):
		rule = "invalid_edit"
	default:
		return err
	}
	return &BusinessRuleError{
		Rule:    rule,
		Message: err.Error(),
		Context: map[string]interface{}{"phase": string(phase)},
		err:     err,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, repositories.ErrNotFound) {
		return true
	}
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, backend.ErrUnauthorized)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrSessionClosed)
}

// IsUpstream checks if error came from the platform backend
func IsUpstream(err error) bool {
	if errors.Is(err, ErrUpstream) {
		return true
	}
	var apiErr *backend.APIError
	return errors.As(err, &apiErr)
}
