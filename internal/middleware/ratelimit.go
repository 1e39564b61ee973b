package middleware

import (
	"fmt"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewRateLimitHandler returns a per-client-IP rate limiter. rate uses the
// limiter's formatted syntax, e.g. "100-M" for 100 requests per minute.
// Requests over the limit get 429 with X-Ratelimit-* headers.
//
// Limits are kept in process memory, so each replica counts separately.
func NewRateLimitHandler(rate string) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("middleware.NewRateLimitHandler: %w", err)
	}

	// RealIP runs earlier in the chain and has already rewritten RemoteAddr.
	instance := limiter.New(memory.NewStore(), r)
	return stdlib.NewMiddleware(instance).Handler, nil
}
