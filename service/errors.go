package service

import (
	"errors"
	"fmt"
	"strings"

	"visaletter-backend/assets"
)

var (
	ErrEmptyResult       = errors.New("generation returned no letter text")
	ErrAssetsUnavailable = assets.ErrAssetsUnavailable
)

// Machine-readable error classifications shared with the HTTP layer
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeAssetsMissing    = "ASSETS_MISSING"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeEmptyGeneration  = "EMPTY_GENERATION"
	CodeInternal         = "INTERNAL_ERROR"
)

// ValidationError names every missing required or conditionally required field
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// UpstreamError is a generation failure after the fallback attempt.
// Status is the upstream HTTP status, or 0 when none was reported.
type UpstreamError struct {
	Model  string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("generation with %s failed (status %d): %v", e.Model, e.Status, e.Err)
	}
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorCode classifies err for callers and logs
func ErrorCode(err error) string {
	var validationErr *ValidationError
	var configErr *assets.ConfigurationError
	var upstreamErr *UpstreamError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return CodeValidationFailed
	case errors.As(err, &configErr), errors.Is(err, ErrAssetsUnavailable):
		return CodeAssetsMissing
	case errors.Is(err, ErrEmptyResult):
		return CodeEmptyGeneration
	case errors.As(err, &upstreamErr):
		return CodeGenerationFailed
	default:
		return CodeInternal
	}
}
