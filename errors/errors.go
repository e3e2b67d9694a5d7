package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies a failure class in the pipeline taxonomy
type ErrorCode int

const (
	ErrorCode_INTERNAL ErrorCode = iota
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_TRANSCRIPT_UNPARSABLE
	ErrorCode_EXTRACTION_FAILED
	ErrorCode_CLASSIFICATION_AMBIGUOUS
	ErrorCode_COMPLETION_UNAVAILABLE
	ErrorCode_STATE_CORRUPT
)

// String returns the string representation of the error code
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_INTERNAL:
		return "INTERNAL"
	case ErrorCode_INVALID_ARGUMENT:
		return "INVALID_ARGUMENT"
	case ErrorCode_TRANSCRIPT_UNPARSABLE:
		return "TRANSCRIPT_UNPARSABLE"
	case ErrorCode_EXTRACTION_FAILED:
		return "EXTRACTION_FAILED"
	case ErrorCode_CLASSIFICATION_AMBIGUOUS:
		return "CLASSIFICATION_AMBIGUOUS"
	case ErrorCode_COMPLETION_UNAVAILABLE:
		return "COMPLETION_UNAVAILABLE"
	case ErrorCode_STATE_CORRUPT:
		return "STATE_CORRUPT"
	default:
		return "UNKNOWN"
	}
}

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the ErrorCode from an error chain, defaulting to INTERNAL
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCode_INTERNAL
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal pipeline error",
		Timestamp: time.Now(),
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		Code:      ErrorCode_INVALID_ARGUMENT,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Pipeline Errors

// ErrTranscriptUnparsable signals a transcript with no recognizable utterances
func ErrTranscriptUnparsable(file string) AppError {
	return AppError{
		Code:      ErrorCode_TRANSCRIPT_UNPARSABLE,
		Message:   "Transcript has no recognizable utterances",
		Timestamp: time.Now(),
	}.WithDetail("file", file)
}

// ErrExtractionFailed signals a window whose extraction retries are exhausted
func ErrExtractionFailed(transcriptID string, window int, err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_EXTRACTION_FAILED,
		Message:   "Insight extraction failed after retries",
		Timestamp: time.Now(),
	}.WithDetail("transcript_id", transcriptID).WithDetail("window", fmt.Sprintf("%d", window))
}

// ErrCompletionUnavailable signals the completion service failed for every call in a run
func ErrCompletionUnavailable(err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_COMPLETION_UNAVAILABLE,
		Message:   "Completion service unavailable for all requests",
		Timestamp: time.Now(),
	}
}

// ErrStateCorrupt signals an unreadable or version-incompatible state file
func ErrStateCorrupt(path string, err error) AppError {
	return AppError{
		Raw:       err,
		Code:      ErrorCode_STATE_CORRUPT,
		Message:   "Workstream state file is corrupt",
		Timestamp: time.Now(),
	}.WithDetail("path", path)
}
