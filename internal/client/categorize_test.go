package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// TestCategorizeError verifies that CategorizeError maps the failure taxonomy,
// wrapped or not, to the right ErrorCategory.
func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"timeout context", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled context", context.Canceled, ErrorCategoryTimeout},
		{"unavailable wrapping deadline", fmt.Errorf("%w: location: %w", models.ErrUpstreamUnavailable, context.DeadlineExceeded), ErrorCategoryTimeout},
		{"unavailable", fmt.Errorf("%w: dial tcp", models.ErrUpstreamUnavailable), ErrorCategoryUpstreamUnavailable},
		{"status error", &StatusError{Resource: ResourceMovies, StatusCode: 401}, ErrorCategoryUpstreamRejected},
		{"no match", fmt.Errorf("resolve: %w", models.ErrNoMatch), ErrorCategoryNoMatch},
		{"malformed", models.ErrMalformedUpstreamData, ErrorCategoryMalformed},
		{"store", fmt.Errorf("lookup: %w", models.ErrStoreUnavailable), ErrorCategoryStoreUnavailable},
		{"timeout in message", errors.New("i/o timeout"), ErrorCategoryTimeout},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(tt.err)
			if got != tt.want {
				t.Errorf("CategorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCategory_Code(t *testing.T) {
	if got := ErrorCategoryMalformed.Code(); got != "MALFORMED_UPSTREAM_DATA" {
		t.Errorf("Code() = %q, want MALFORMED_UPSTREAM_DATA", got)
	}
}
