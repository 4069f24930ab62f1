package security

// Event type constants for security audit logging.
// These constants ensure consistency across the codebase and prevent typos
// when logging security-relevant events.
const (
	// Enforcement events

	// EventUserBlocked is logged when a user is added to the deny-list
	EventUserBlocked = "user_blocked"

	// EventUserUnblocked is logged when an administrator removes a user from the deny-list
	EventUserUnblocked = "user_unblocked"

	// EventRateLimitExceeded is logged when a request is denied by the sliding-window throttle
	EventRateLimitExceeded = "rate_limit_exceeded"

	// Detection events

	// EventSuspiciousActivity is logged when the profiler flags a user
	EventSuspiciousActivity = "suspicious_activity"

	// EventSuspicionCleared is logged when an administrator clears a suspicion latch
	EventSuspicionCleared = "suspicion_cleared"

	// EventIdentityRejected is logged when identity validation fails
	EventIdentityRejected = "identity_rejected"
)
