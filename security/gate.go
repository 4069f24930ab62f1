package security

import (
	"log/slog"
	"time"
)

// Verdict reasons returned by Evaluate
const (
	ReasonAllowed         = "allowed"
	ReasonBlocked         = "blocked"
	ReasonRateLimited     = "rate_limited"
	ReasonInvalidIdentity = "invalid_identity"
)

// Verdict is the allow/deny decision for one evaluated action. Suspicious
// reports whether this call tripped the activity profiler; it is advisory
// and never set on a denied verdict, since denied calls skip the profiler.
type Verdict struct {
	Allowed    bool
	Reason     string
	Suspicious bool
}

// Config holds security gate configuration
type Config struct {
	// MaxTrackedUsers bounds how many users have live activity records.
	// Default: 10,000. Least recently active users are evicted beyond that.
	MaxTrackedUsers int

	// Retention is how long an idle user's activity record is kept.
	// Default: 24 hours.
	Retention time.Duration

	// SweepInterval is how often idle records are swept. Default: 15 minutes.
	SweepInterval time.Duration

	// EnableAuditLogging enables structured audit events for enforcement
	// and detection decisions.
	EnableAuditLogging bool

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger
}

// Gate is the composition root of the abuse-prevention subsystem. It exposes
// the single decision API callers use and updates the other components as a
// side effect. Construct one at startup and share it by reference; there is
// no package-level instance.
//
// The gate performs no I/O and never blocks on external latency; every
// operation completes in bounded, small time. It is safe for concurrent use.
type Gate struct {
	store    *ActivityStore
	throttle *Throttle
	profiler *Profiler
	registry *BlockRegistry
	stats    *StatsCollector
	auditor  *Auditor
	logger   *slog.Logger
}

// NewGate creates a security gate. A nil config uses defaults.
// Call Stop when the gate is no longer needed to release the background sweep.
func NewGate(cfg *Config) *Gate {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxUsers := cfg.MaxTrackedUsers
	if maxUsers == 0 {
		maxUsers = DefaultMaxTrackedUsers
	}

	store := NewActivityStoreWithConfig(maxUsers, cfg.Retention, cfg.SweepInterval, logger)
	stats := NewStatsCollector()
	auditor := NewAuditor(logger, cfg.EnableAuditLogging)

	return &Gate{
		store:    store,
		throttle: NewThrottle(store, logger),
		profiler: NewProfiler(store, logger),
		registry: NewBlockRegistry(stats, auditor, logger),
		stats:    stats,
		auditor:  auditor,
		logger:   logger,
	}
}

// Evaluate runs the composed decision for one inbound action. Checks are
// ordered: deny-list first (blocked actors never consume throttle quota),
// then the sliding-window throttle, then identity validation (a failure
// blocks the user), then the suspicious-activity check, which is advisory
// and never denies by itself. The accepted-request counter is incremented
// only on allow.
//
// Evaluate is total: malformed or missing identity data yields a conservative
// deny rather than an error.
func (g *Gate) Evaluate(identity *Identity, action string, maxRequests int, window time.Duration) Verdict {
	if identity == nil {
		// No id to block; deny without touching the registry
		g.logger.Warn("Request without identity denied", "action", action)
		return Verdict{Allowed: false, Reason: ReasonInvalidIdentity}
	}

	userID := identity.ID

	if g.registry.IsBlocked(userID) {
		return Verdict{Allowed: false, Reason: ReasonBlocked}
	}

	if g.throttle.IsRateLimited(userID, maxRequests, window) {
		g.auditor.LogRateLimitExceeded(userID, action)
		return Verdict{Allowed: false, Reason: ReasonRateLimited}
	}

	if !g.ValidateIdentity(identity) {
		g.registry.Block(userID, "failed identity validation")
		return Verdict{Allowed: false, Reason: ReasonInvalidIdentity}
	}

	suspicious := g.profiler.CheckSuspiciousActivity(userID, action)
	if suspicious {
		// Advisory: logged and counted, the caller decides whether to escalate
		g.stats.RecordSuspiciousActivity()
		g.auditor.LogSuspiciousActivity(userID, action)
	}

	g.stats.RecordRequest()
	return Verdict{Allowed: true, Reason: ReasonAllowed, Suspicious: suspicious}
}

// ValidateIdentity applies the static identity heuristics and audits rejections
func (g *Gate) ValidateIdentity(identity *Identity) bool {
	if identity == nil {
		return false
	}
	if ValidateIdentity(identity) {
		return true
	}

	reason := "suspicious username"
	if identity.IsBot {
		reason = "automated actor"
	}
	g.logger.Warn("Identity validation failed",
		"user_id", identity.ID,
		"reason", reason)
	g.auditor.LogIdentityRejected(identity.ID, identity.Username, reason)
	return false
}

// IsUserBlocked reports whether the user is on the deny-list
func (g *Gate) IsUserBlocked(userID UserID) bool {
	return g.registry.IsBlocked(userID)
}

// BlockUser adds the user to the deny-list with the given reason
func (g *Gate) BlockUser(userID UserID, reason string) {
	g.registry.Block(userID, reason)
}

// UnblockUser removes the user from the deny-list (administrative)
func (g *Gate) UnblockUser(userID UserID) bool {
	return g.registry.Unblock(userID)
}

// IsSuspicious reports whether the user has ever been flagged by the profiler
func (g *Gate) IsSuspicious(userID UserID) bool {
	return g.profiler.IsSuspicious(userID)
}

// ClearSuspicion clears the suspicion latch for a user (administrative)
func (g *Gate) ClearSuspicion(userID UserID) bool {
	cleared := g.profiler.ClearSuspicion(userID)
	if cleared {
		g.auditor.LogSuspicionCleared(userID)
	}
	return cleared
}

// SnapshotStats returns the current security counters
func (g *Gate) SnapshotStats() StatsSnapshot {
	return g.stats.Snapshot()
}

// LogSecurityStats emits a human-readable audit line with the current
// counters. Intended for a periodic caller; it has no durable output.
func (g *Gate) LogSecurityStats() {
	snap := g.stats.Snapshot()
	store := g.store.GetStats()

	g.logger.Info("security stats",
		"uptime", g.stats.Uptime().Round(time.Second).String(),
		"total_requests", snap.TotalRequests,
		"blocked_requests", snap.BlockedRequests,
		"suspicious_activity", snap.SuspiciousActivity,
		"suspicious_users", g.profiler.SuspiciousCount(),
		"blocked_users", g.registry.Count(),
		"tracked_users", store.TrackedUsers,
	)
}

// Throttle returns the gate's sliding-window throttle
func (g *Gate) Throttle() *Throttle {
	return g.throttle
}

// Profiler returns the gate's activity profiler
func (g *Gate) Profiler() *Profiler {
	return g.profiler
}

// Registry returns the gate's block registry
func (g *Gate) Registry() *BlockRegistry {
	return g.registry
}

// Store returns the gate's activity store
func (g *Gate) Store() *ActivityStore {
	return g.store
}

// Stop releases the gate's background sweep goroutine.
// Safe to call multiple times.
func (g *Gate) Stop() {
	g.store.Stop()
}
