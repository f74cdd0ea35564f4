package middleware

import (
	"net/http"

	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/pkg/apperror"
	"github.com/vramonlinebsc/hms/pkg/response"

	"github.com/sirupsen/logrus"
)

var ErrRateLimited = apperror.RateLimited("too many requests, slow down")

// RateLimitMiddleware admits a request before any handler runs, keyed by
// actor id and operation. A rejected request touches nothing else.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
	log     *logrus.Logger
}

func NewRateLimitMiddleware(limiter service.RateLimiter, log *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		log:     log,
	}
}

// Limit wraps h for the named operation. It must run after Authenticate.
func (m *RateLimitMiddleware) Limit(operation string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "")
			return
		}

		key := actor.ID.String() + ":" + operation
		allowed, err := m.limiter.Admit(r.Context(), key)
		if err != nil {
			m.log.Warnf("Rate limiter unavailable for %s: %+v", key, err)
			response.AppError(w, apperror.Transient("rate limiter unavailable", err))
			return
		}
		if !allowed {
			response.AppError(w, ErrRateLimited)
			return
		}

		h(w, r)
	}
}
