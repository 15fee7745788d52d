package spotify

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized means the access token was rejected. Callers may attempt
// one refresh-and-retry; the client itself never retries.
var ErrUnauthorized = errors.New("spotify: unauthorized")

// RateLimitedError is a 429 from the API, with the Retry-After hint when
// the response carried one. Callers abandon the call for this tick instead
// of waiting.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("spotify: rate limited, retry after %s", e.RetryAfter)
	}
	return "spotify: rate limited"
}

// APIError is any other non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Body)
}

// IsRateLimited reports whether err is a 429 classification.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
