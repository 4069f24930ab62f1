package security

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxTrackedUsers is the maximum number of users with live activity
	// records before LRU eviction kicks in
	DefaultMaxTrackedUsers = 10000

	// DefaultRetention is how long a user's activity record is kept after
	// their last observed request
	DefaultRetention = 24 * time.Hour

	// DefaultSweepInterval is how often the background sweep runs
	DefaultSweepInterval = 15 * time.Minute
)

// UserID identifies a user as supplied by the transport layer.
// It is opaque to this package and not validated for authenticity.
type UserID int64

// ActionEvent is a single recorded action with its timestamp
type ActionEvent struct {
	Action string
	At     time.Time
}

// ActivityRecord holds the per-user request history shared by the throttle
// and the profiler. Requests is append-ordered and bounded by the active
// throttle window; Actions is append-ordered and pruned to the profiler's
// rolling horizon. Both are trimmed lazily on access, never actively swept.
type ActivityRecord struct {
	UserID     UserID
	Requests   []time.Time
	Actions    []ActionEvent
	lastAccess time.Time
}

// ActivityStore tracks per-user activity records with LRU eviction and a
// background retention sweep to keep memory bounded. Records are created
// lazily on first observed activity.
type ActivityStore struct {
	entries map[UserID]*list.Element // user id -> list element
	lruList *list.List               // LRU list of *ActivityRecord
	mu      sync.Mutex

	maxEntries    int
	retention     time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
	stopSweep     chan struct{}
	stopOnce      sync.Once

	// Statistics
	totalEvictions int64
	totalSweeps    int64
}

// NewActivityStore creates an activity store with default settings
func NewActivityStore(logger *slog.Logger) *ActivityStore {
	return NewActivityStoreWithConfig(DefaultMaxTrackedUsers, DefaultRetention, DefaultSweepInterval, logger)
}

// NewActivityStoreWithConfig creates an activity store with custom limits.
// maxEntries controls how many users are tracked simultaneously; when the
// limit is reached the least recently active user is evicted. retention is
// how long an idle record survives before the sweep drops it.
func NewActivityStoreWithConfig(maxEntries int, retention, sweepInterval time.Duration, logger *slog.Logger) *ActivityStore {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries < 0 {
		logger.Warn("Invalid maxEntries, using default", "maxEntries", maxEntries)
		maxEntries = DefaultMaxTrackedUsers
	}
	if retention <= 0 {
		logger.Warn("Invalid retention, using default", "retention", retention)
		retention = DefaultRetention
	}
	if sweepInterval <= 0 {
		logger.Warn("Invalid sweepInterval, using default", "sweepInterval", sweepInterval)
		sweepInterval = DefaultSweepInterval
	}

	s := &ActivityStore{
		entries:       make(map[UserID]*list.Element),
		lruList:       list.New(),
		maxEntries:    maxEntries,
		retention:     retention,
		sweepInterval: sweepInterval,
		logger:        logger,
		stopSweep:     make(chan struct{}),
	}

	// Start background sweep goroutine
	go s.sweepLoop()

	return s
}

// Update runs fn against the user's activity record under the store lock,
// creating the record if the user has not been seen before. The record must
// not be retained after fn returns.
func (s *ActivityStore) Update(id UserID, fn func(*ActivityRecord)) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.entries[id]; exists {
		// Move to front (most recently active)
		s.lruList.MoveToFront(elem)
		rec := elem.Value.(*ActivityRecord)
		rec.lastAccess = now
		fn(rec)
		return
	}

	// First observed activity for this user - check capacity first
	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLRU()
	}

	rec := &ActivityRecord{
		UserID:     id,
		lastAccess: now,
	}
	elem := s.lruList.PushFront(rec)
	s.entries[id] = elem
	fn(rec)
}

// evictLRU removes the least recently active record.
// Must be called with mutex locked.
func (s *ActivityStore) evictLRU() {
	elem := s.lruList.Back()
	if elem == nil {
		return
	}

	rec := elem.Value.(*ActivityRecord)
	delete(s.entries, rec.UserID)
	s.lruList.Remove(elem)
	s.totalEvictions++

	s.logger.Debug("Activity store LRU eviction",
		"user_id", rec.UserID,
		"total_evictions", s.totalEvictions,
		"current_entries", len(s.entries))
}

// sweepLoop periodically drops records for users idle beyond the retention
func (s *ActivityStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopSweep:
			return
		}
	}
}

// Sweep removes records whose last activity is older than the retention.
// It holds the same lock as the live-path operations, so callers on the
// request path may briefly contend with it.
func (s *ActivityStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := s.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		rec := elem.Value.(*ActivityRecord)

		if now.Sub(rec.lastAccess) > s.retention {
			delete(s.entries, rec.UserID)
			s.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		s.totalSweeps++
		s.logger.Debug("Activity store sweep completed",
			"removed", removed,
			"remaining", len(s.entries),
			"total_sweeps", s.totalSweeps)
	}
}

// Stop gracefully stops the sweep goroutine.
// Safe to call multiple times concurrently.
func (s *ActivityStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
}

// StoreStats holds activity store statistics for monitoring
type StoreStats struct {
	TrackedUsers   int     // Current number of users with live records
	MaxEntries     int     // Maximum tracked users (0 = unlimited)
	TotalEvictions int64   // Total number of LRU evictions
	TotalSweeps    int64   // Total number of sweep operations that removed records
	MemoryPressure float64 // Percentage of max capacity used (0-100)
}

// GetStats returns current store statistics for monitoring and alerting
func (s *ActivityStore) GetStats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreStats{
		TrackedUsers:   len(s.entries),
		MaxEntries:     s.maxEntries,
		TotalEvictions: s.totalEvictions,
		TotalSweeps:    s.totalSweeps,
	}

	if s.maxEntries > 0 {
		stats.MemoryPressure = float64(stats.TrackedUsers) / float64(s.maxEntries) * 100.0
	}

	return stats
}
