package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/pumpwatch/pumpbot/internal/util"
)

// Auditor handles security event logging with PII protection.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	UserID    UserID
	Action    string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"user_id", int64(event.UserID),
		"action", event.Action,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogUserBlocked logs when a user is added to the deny-list
func (a *Auditor) LogUserBlocked(userID UserID, reason string) {
	a.LogEvent(Event{
		Type:   EventUserBlocked,
		UserID: userID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogUserUnblocked logs an administrative unblock
func (a *Auditor) LogUserUnblocked(userID UserID) {
	a.LogEvent(Event{
		Type:   EventUserUnblocked,
		UserID: userID,
	})
}

// LogRateLimitExceeded logs a throttle denial
func (a *Auditor) LogRateLimitExceeded(userID UserID, action string) {
	a.LogEvent(Event{
		Type:   EventRateLimitExceeded,
		UserID: userID,
		Action: action,
	})
}

// LogSuspiciousActivity logs a profiler detection
func (a *Auditor) LogSuspiciousActivity(userID UserID, action string) {
	a.LogEvent(Event{
		Type:   EventSuspiciousActivity,
		UserID: userID,
		Action: action,
	})
}

// LogSuspicionCleared logs an administrative latch clear
func (a *Auditor) LogSuspicionCleared(userID UserID) {
	a.LogEvent(Event{
		Type:   EventSuspicionCleared,
		UserID: userID,
	})
}

// LogIdentityRejected logs an identity validation failure with the handle hashed
func (a *Auditor) LogIdentityRejected(userID UserID, username, reason string) {
	a.LogEvent(Event{
		Type:   EventIdentityRejected,
		UserID: userID,
		Details: map[string]any{
			"username_hash": hashForLogging(username),
			"reason":        reason,
		},
	})
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return util.SafeTruncate(hex.EncodeToString(hash[:]), 16)
}
