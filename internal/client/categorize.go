package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// ErrorCategory is a stable label for error classification in metrics and
// error response bodies.
type ErrorCategory string

const (
	ErrorCategoryTimeout             ErrorCategory = "timeout"
	ErrorCategoryUpstreamUnavailable ErrorCategory = "upstream_unavailable"
	ErrorCategoryUpstreamRejected    ErrorCategory = "upstream_rejected"
	ErrorCategoryNoMatch             ErrorCategory = "no_match"
	ErrorCategoryMalformed           ErrorCategory = "malformed_upstream_data"
	ErrorCategoryStoreUnavailable    ErrorCategory = "store_unavailable"
	ErrorCategoryUnknown             ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	switch {
	case errors.Is(err, models.ErrNoMatch):
		return ErrorCategoryNoMatch
	case errors.Is(err, models.ErrMalformedUpstreamData):
		return ErrorCategoryMalformed
	case errors.Is(err, models.ErrStoreUnavailable):
		return ErrorCategoryStoreUnavailable
	case errors.Is(err, models.ErrUpstreamRejected):
		return ErrorCategoryUpstreamRejected
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return ErrorCategoryUpstreamUnavailable
	}

	if strings.Contains(err.Error(), "timeout") {
		return ErrorCategoryTimeout
	}
	return ErrorCategoryUnknown
}

// Code returns the category as an upper-case error code, e.g. NO_MATCH.
func (c ErrorCategory) Code() string {
	return strings.ToUpper(string(c))
}
