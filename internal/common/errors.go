package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors. Message is safe to return
// to clients; Kind carries the pipeline stage category for errors.Is checks;
// Cause keeps the diagnostic chain.
type AppError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the category sentinel and the cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Stage category sentinels
var (
	ErrValidation = errors.New("validation failed")
	ErrExtraction = errors.New("text extraction failed")
	ErrAnalysis   = errors.New("analysis failed")
	ErrDelivery   = errors.New("report delivery failed")
	ErrAssembly   = errors.New("result assembly failed")
	ErrConfig     = errors.New("invalid configuration")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError rejects user input with a specific, client-facing reason.
func ValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message, Kind: ErrValidation}
}

func ValidationErrorf(format string, args ...interface{}) *AppError {
	return ValidationError(fmt.Sprintf(format, args...))
}

// ExtractionError marks a document whose every extraction strategy failed.
// The message carries the per-strategy cause summary for diagnostics.
func ExtractionError(message string, cause error) *AppError {
	return &AppError{Code: "EXTRACTION_ERROR", Message: message, Kind: ErrExtraction, Cause: cause}
}

// AnalysisError marks a failed or unparsable analyzer response.
func AnalysisError(message string, cause error) *AppError {
	return &AppError{Code: "ANALYSIS_ERROR", Message: message, Kind: ErrAnalysis, Cause: cause}
}

// DeliveryError marks a failed report delivery. Never fatal to a pipeline run.
func DeliveryError(message string, cause error) *AppError {
	return &AppError{Code: "DELIVERY_ERROR", Message: message, Kind: ErrDelivery, Cause: cause}
}

// AssemblyError marks a failure composing the final result.
func AssemblyError(message string, cause error) *AppError {
	return &AppError{Code: "ASSEMBLY_ERROR", Message: message, Kind: ErrAssembly, Cause: cause}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps a pipeline error to its response status. Validation
// failures are the caller's fault; every other fatal stage is server-side.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the stable machine code for logging, or UNKNOWN.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}
