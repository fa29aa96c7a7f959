package models

import "errors"

// Failure taxonomy shared by client, normalize, store and service. Components
// wrap these with context; callers classify with errors.Is.
var (
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrUpstreamRejected      = errors.New("upstream rejected request")
	ErrNoMatch               = errors.New("no match")
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	ErrStoreUnavailable      = errors.New("store unavailable")
)
