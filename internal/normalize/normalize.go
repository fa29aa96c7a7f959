// Package normalize maps provider JSON payloads onto the fixed record shapes in
// models. Every function is pure: the clock is passed in, nothing is fetched.
//
// A required field that is absent, null or of the wrong JSON type yields
// models.ErrMalformedUpstreamData. A result collection that is present but
// empty yields models.ErrNoMatch.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// PosterBaseURL is prefixed to the provider's poster_path fragment.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

func decode(resource string, payload []byte, v interface{}) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrMalformedUpstreamData, resource, err)
	}
	return nil
}

func malformed(resource, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", models.ErrMalformedUpstreamData, resource, fmt.Sprintf(format, args...))
}

func noMatch(resource string) error {
	return fmt.Errorf("%w: %s returned no results", models.ErrNoMatch, resource)
}

func millis(now time.Time) int64 {
	return now.UnixMilli()
}

// coordText returns the verbatim text of a JSON string or number.
func coordText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return "", false
	}
	return n.String(), true
}
