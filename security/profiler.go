package security

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// ActionHorizon is the rolling window the profiler evaluates over
	ActionHorizon = time.Hour

	// HourlyActionLimit is the volume trigger: more actions than this within
	// the horizon flags the user as suspicious
	HourlyActionLimit = 20

	// BurstWindow is the short window for the burst trigger
	BurstWindow = 5 * time.Minute

	// BurstActionLimit is the burst trigger: more actions than this within
	// BurstWindow flags the user regardless of the hourly count
	BurstActionLimit = 10
)

// Suspicion trigger names used in logs and audit events
const (
	TriggerVolume = "volume"
	TriggerBurst  = "burst"
)

// Profiler detects abusive usage patterns. A user who crosses either trigger
// is latched into the suspicion set; the latch is never cleared by ordinary
// operation (ClearSuspicion exists for administrative use only).
type Profiler struct {
	store  *ActivityStore
	logger *slog.Logger

	mu         sync.RWMutex
	suspicious map[UserID]time.Time // user id -> time of first flag
}

// NewProfiler creates a profiler backed by the given activity store
func NewProfiler(store *ActivityStore, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		store:      store,
		logger:     logger,
		suspicious: make(map[UserID]time.Time),
	}
}

// CheckSuspiciousActivity records the action and evaluates the volume and
// burst triggers against the trailing hour. It returns true only when this
// call crosses a trigger; a previously latched user whose recent activity is
// back under threshold gets false. Callers needing the cumulative state must
// query IsSuspicious.
func (p *Profiler) CheckSuspiciousActivity(userID UserID, action string) bool {
	now := time.Now()
	horizonStart := now.Add(-ActionHorizon)
	burstStart := now.Add(-BurstWindow)

	var total, recent int
	p.store.Update(userID, func(rec *ActivityRecord) {
		// The action is recorded regardless of the outcome
		rec.Actions = append(rec.Actions, ActionEvent{Action: action, At: now})

		// Prune to the horizon; history is append-ordered
		i := 0
		for i < len(rec.Actions) && rec.Actions[i].At.Before(horizonStart) {
			i++
		}
		if i > 0 {
			rec.Actions = append(rec.Actions[:0], rec.Actions[i:]...)
		}

		total = len(rec.Actions)
		for j := len(rec.Actions) - 1; j >= 0; j-- {
			if rec.Actions[j].At.Before(burstStart) {
				break
			}
			recent++
		}
	})

	switch {
	case total > HourlyActionLimit:
		p.flag(userID, now)
		p.logger.Warn("User marked as suspicious",
			"user_id", userID,
			"trigger", TriggerVolume,
			"actions_in_hour", total)
		return true
	case recent > BurstActionLimit:
		p.flag(userID, now)
		p.logger.Warn("User marked as suspicious",
			"user_id", userID,
			"trigger", TriggerBurst,
			"actions_in_burst_window", recent)
		return true
	}

	return false
}

// flag latches the user into the suspicion set, keeping the first flag time
func (p *Profiler) flag(userID UserID, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.suspicious[userID]; !exists {
		p.suspicious[userID] = now
	}
}

// IsSuspicious reports whether the user has ever been flagged
func (p *Profiler) IsSuspicious(userID UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.suspicious[userID]
	return exists
}

// ClearSuspicion removes the latch for the user. This is an administrative
// operation, not part of the ordinary request path. Returns true if the user
// was flagged.
func (p *Profiler) ClearSuspicion(userID UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.suspicious[userID]; !exists {
		return false
	}
	delete(p.suspicious, userID)
	return true
}

// SuspiciousCount returns the number of currently flagged users
func (p *Profiler) SuspiciousCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.suspicious)
}
