package security

import (
	"log/slog"
	"sync"
	"time"
)

// BlockEntry records why and when a user was blocked. Membership in the
// registry is the enforced state; the reason and timestamp are audit-only.
type BlockEntry struct {
	UserID    UserID
	Reason    string
	Timestamp time.Time
}

// BlockRegistry is an explicit deny-list, separate from throttling. A blocked
// user stays blocked for the process lifetime unless an administrator calls
// Unblock.
type BlockRegistry struct {
	mu      sync.RWMutex
	blocked map[UserID]BlockEntry

	stats   *StatsCollector
	auditor *Auditor
	logger  *slog.Logger
}

// NewBlockRegistry creates an empty block registry. Block events are counted
// against the given stats collector and reported through the auditor.
func NewBlockRegistry(stats *StatsCollector, auditor *Auditor, logger *slog.Logger) *BlockRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockRegistry{
		blocked: make(map[UserID]BlockEntry),
		stats:   stats,
		auditor: auditor,
		logger:  logger,
	}
}

// IsBlocked reports whether the user is on the deny-list. O(1), no side effects.
func (r *BlockRegistry) IsBlocked(userID UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.blocked[userID]
	return exists
}

// Block adds the user to the deny-list. Membership is idempotent (the first
// reason and timestamp are kept), but every call counts as a block event.
func (r *BlockRegistry) Block(userID UserID, reason string) {
	now := time.Now()

	r.mu.Lock()
	if _, exists := r.blocked[userID]; !exists {
		r.blocked[userID] = BlockEntry{
			UserID:    userID,
			Reason:    reason,
			Timestamp: now,
		}
	}
	r.mu.Unlock()

	r.stats.RecordBlockedRequest()
	r.logger.Warn("User blocked",
		"user_id", userID,
		"reason", reason)
	r.auditor.LogUserBlocked(userID, reason)
}

// Unblock removes the user from the deny-list. This is an administrative
// operation, not part of the ordinary request path. Returns true if the user
// was blocked.
func (r *BlockRegistry) Unblock(userID UserID) bool {
	r.mu.Lock()
	_, exists := r.blocked[userID]
	if exists {
		delete(r.blocked, userID)
	}
	r.mu.Unlock()

	if exists {
		r.logger.Info("User unblocked", "user_id", userID)
		r.auditor.LogUserUnblocked(userID)
	}
	return exists
}

// Entry returns the audit record for a blocked user
func (r *BlockRegistry) Entry(userID UserID) (BlockEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.blocked[userID]
	return entry, exists
}

// Count returns the number of currently blocked users
func (r *BlockRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocked)
}
