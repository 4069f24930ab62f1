// Package security implements the abuse-prevention subsystem that gates every
// inbound user action: a sliding-window request throttle, a pattern-based
// suspicious-activity profiler, an explicit deny-list, and process-lifetime
// usage counters, composed behind a single decision API.
//
// # The Gate
//
// Gate.Evaluate is the one entry point callers use. For a given identity and
// action name it returns an allow/deny verdict with a reason, updating the
// underlying components as a side effect:
//
//	gate := security.NewGate(&security.Config{EnableAuditLogging: true})
//	defer gate.Stop()
//
//	verdict := gate.Evaluate(identity, "refresh", 5, time.Minute)
//	if !verdict.Allowed {
//	    // verdict.Reason is one of blocked, rate_limited, invalid_identity
//	    return
//	}
//
// Checks run in a fixed order: deny-list membership, then the throttle, then
// identity validation, then the advisory suspicious-activity check. A denied
// request never consumes throttle quota.
//
// # Memory Management
//
// Per-user activity records are created lazily and grow with the number of
// distinct users seen. The ActivityStore bounds that growth two ways: an LRU
// cap on tracked users (default 10,000) and a background sweep that drops
// records idle beyond a retention period (default 24 hours). Both use the
// same lock discipline as the live-path operations.
//
// # Latches
//
// Suspicion and deny-list membership are one-way latches: ordinary operation
// never clears them. ClearSuspicion and Unblock exist for administrative use
// only and emit audit events when they fire.
//
// # Concurrency
//
// Every exported operation is safe for concurrent callers. No operation in
// this package performs network or disk I/O, so the gate completes in
// bounded, small time and never becomes the caller's bottleneck.
package security
