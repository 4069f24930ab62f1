package security

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Throttle is a sliding-window rate limiter keyed by user id. The window and
// limit are per-call parameters, not per-user state, so different call sites
// can apply different policies against the same history (button callbacks
// typically use a stricter limit than text commands).
type Throttle struct {
	store  *ActivityStore
	logger *slog.Logger

	totalLimited atomic.Int64
	totalAllowed atomic.Int64
}

// NewThrottle creates a throttle backed by the given activity store
func NewThrottle(store *ActivityStore, logger *slog.Logger) *Throttle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Throttle{
		store:  store,
		logger: logger,
	}
}

// IsRateLimited reports whether the user has exhausted maxRequests within the
// trailing window. Timestamps older than the window are discarded first; a
// rejected request is never recorded, so denials do not consume future quota.
// The first request for an unseen user always passes.
func (t *Throttle) IsRateLimited(userID UserID, maxRequests int, window time.Duration) bool {
	now := time.Now()
	windowStart := now.Add(-window)

	limited := false
	inWindow := 0
	t.store.Update(userID, func(rec *ActivityRecord) {
		// History is append-ordered, so eviction is a prefix trim
		i := 0
		for i < len(rec.Requests) && rec.Requests[i].Before(windowStart) {
			i++
		}
		if i > 0 {
			rec.Requests = append(rec.Requests[:0], rec.Requests[i:]...)
		}

		if len(rec.Requests) >= maxRequests {
			limited = true
			inWindow = len(rec.Requests)
			return
		}
		rec.Requests = append(rec.Requests, now)
	})

	if limited {
		t.totalLimited.Add(1)
		t.logger.Warn("Rate limit exceeded",
			"user_id", userID,
			"requests_in_window", inWindow,
			"max_requests", maxRequests,
			"window", window)
		return true
	}

	t.totalAllowed.Add(1)
	return false
}

// ThrottleStats holds throttle counters for monitoring
type ThrottleStats struct {
	TotalLimited int64 // Requests rejected by the window check
	TotalAllowed int64 // Requests admitted into the window
}

// GetStats returns current throttle counters
func (t *Throttle) GetStats() ThrottleStats {
	return ThrottleStats{
		TotalLimited: t.totalLimited.Load(),
		TotalAllowed: t.totalAllowed.Load(),
	}
}
