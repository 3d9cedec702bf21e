// Package businessflow contains the core business logic and use cases for the download gate funnel
package businessflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fangate/fangate/models"
)

// Business flow error constants
var (
	// Gate-related errors
	ErrGateNotFound     = errors.New("gate not found")
	ErrGateInactive     = errors.New("gate is inactive or expired")
	ErrGateAccessDenied = errors.New("gate access denied")

	// Submission-related errors
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrUnknownStep        = errors.New("unknown step")
	ErrStepNotRequired    = errors.New("step is not required by this gate")

	// Download-related errors
	ErrDownloadCapReached = errors.New("gate download cap reached")

	// Verification errors
	ErrVerificationUnavailable = errors.New("verification provider unavailable")
	ErrActionNotPerformed      = errors.New("platform action not performed")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IncompleteSubmissionError is returned when a download is requested before
// every required step is satisfied. It carries the steps that remain so the
// caller can self-correct.
type IncompleteSubmissionError struct {
	Missing []models.Step
}

func (e *IncompleteSubmissionError) Error() string {
	names := make([]string, len(e.Missing))
	for i, step := range e.Missing {
		names[i] = string(step)
	}
	return fmt.Sprintf("submission incomplete, remaining steps: %s", strings.Join(names, ", "))
}

func NewIncompleteSubmissionError(missing []models.Step) *IncompleteSubmissionError {
	return &IncompleteSubmissionError{Missing: missing}
}

func IsGateNotFound(err error) bool {
	return errors.Is(err, ErrGateNotFound)
}

func IsGateInactive(err error) bool {
	return errors.Is(err, ErrGateInactive)
}

func IsGateAccessDenied(err error) bool {
	return errors.Is(err, ErrGateAccessDenied)
}

func IsSubmissionNotFound(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

func IsInvalidEmail(err error) bool {
	return errors.Is(err, ErrInvalidEmail)
}

func IsUnknownStep(err error) bool {
	return errors.Is(err, ErrUnknownStep)
}

func IsStepNotRequired(err error) bool {
	return errors.Is(err, ErrStepNotRequired)
}

func IsDownloadCapReached(err error) bool {
	return errors.Is(err, ErrDownloadCapReached)
}

func IsVerificationUnavailable(err error) bool {
	return errors.Is(err, ErrVerificationUnavailable)
}

func IsActionNotPerformed(err error) bool {
	return errors.Is(err, ErrActionNotPerformed)
}

func IsIncompleteSubmission(err error) bool {
	var target *IncompleteSubmissionError
	return errors.As(err, &target)
}

// MissingStepsFrom extracts the remaining steps from an incomplete-submission
// error chain, or nil when the error is something else.
func MissingStepsFrom(err error) []models.Step {
	var target *IncompleteSubmissionError
	if errors.As(err, &target) {
		return target.Missing
	}
	return nil
}
