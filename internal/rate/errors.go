package rate

import "errors"

// DefaultPrefix namespaces challenge-start counters.
const DefaultPrefix = "rvcs"

var (
	// ErrRateLimited is returned when a user exceeded the start budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
