package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrDownload ErrorType = iota
	ErrProbe
	ErrNoValidSegments
	ErrRender
	ErrEncode
	ErrNotFound
	ErrValidation
	ErrConfig
	ErrUnknown
)

// CaptionError carries the failure class for a job plus enough context to
// tell which part of the timeline broke.
type CaptionError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *CaptionError {
	return &CaptionError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *CaptionError {
	return &CaptionError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *CaptionError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *CaptionError) Unwrap() error {
	return e.Cause
}

func (e *CaptionError) WithContext(key string, value any) *CaptionError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrDownload:
		return "Download"
	case ErrProbe:
		return "Probe"
	case ErrNoValidSegments:
		return "NoValidSegments"
	case ErrRender:
		return "Render"
	case ErrEncode:
		return "Encode"
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var captionErr *CaptionError
	if errors.As(err, &captionErr) {
		return captionErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *CaptionError {
	return NewErrorWithCause(errorType, message, err)
}
