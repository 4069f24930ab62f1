package security

import (
	"sync/atomic"
	"time"
)

// StatsCollector keeps process-lifetime security counters. Counters are
// monotonically non-decreasing and mutated only by the gate and the block
// registry; readers get a consistent point-in-time copy via Snapshot.
type StatsCollector struct {
	totalRequests      atomic.Int64
	blockedRequests    atomic.Int64
	suspiciousActivity atomic.Int64
	startTime          time.Time
}

// NewStatsCollector creates a stats collector with the start time fixed at now
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		startTime: time.Now(),
	}
}

// RecordRequest counts one accepted (non-denied) evaluation
func (s *StatsCollector) RecordRequest() {
	s.totalRequests.Add(1)
}

// RecordBlockedRequest counts one block event
func (s *StatsCollector) RecordBlockedRequest() {
	s.blockedRequests.Add(1)
}

// RecordSuspiciousActivity counts one suspicious-activity detection
func (s *StatsCollector) RecordSuspiciousActivity() {
	s.suspiciousActivity.Add(1)
}

// StatsSnapshot is a read-only copy of the counters at one point in time
type StatsSnapshot struct {
	TotalRequests      int64
	BlockedRequests    int64
	SuspiciousActivity int64
	StartTime          time.Time
}

// Snapshot returns the current counter values
func (s *StatsCollector) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests:      s.totalRequests.Load(),
		BlockedRequests:    s.blockedRequests.Load(),
		SuspiciousActivity: s.suspiciousActivity.Load(),
		StartTime:          s.startTime,
	}
}

// Uptime returns how long the collector has been running
func (s *StatsCollector) Uptime() time.Duration {
	return time.Since(s.startTime)
}
