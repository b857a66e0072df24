package rate

import "errors"

var (
	// ErrRateLimited is returned once a budget is exhausted for the current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter store failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
