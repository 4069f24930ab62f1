package security

import (
	"sync"
	"testing"
	"time"
)

func TestStatsCollector_Counters(t *testing.T) {
	stats := NewStatsCollector()

	stats.RecordRequest()
	stats.RecordRequest()
	stats.RecordBlockedRequest()
	stats.RecordSuspiciousActivity()

	snap := stats.Snapshot()
	if snap.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", snap.TotalRequests)
	}
	if snap.BlockedRequests != 1 {
		t.Errorf("BlockedRequests = %d, want 1", snap.BlockedRequests)
	}
	if snap.SuspiciousActivity != 1 {
		t.Errorf("SuspiciousActivity = %d, want 1", snap.SuspiciousActivity)
	}
}

func TestStatsCollector_StartTimeFixed(t *testing.T) {
	stats := NewStatsCollector()

	first := stats.Snapshot().StartTime
	if first.IsZero() {
		t.Fatal("StartTime should be set at construction")
	}

	stats.RecordRequest()
	if got := stats.Snapshot().StartTime; !got.Equal(first) {
		t.Error("StartTime must not change over the collector's lifetime")
	}

	if stats.Uptime() < 0 {
		t.Error("Uptime should be non-negative")
	}
	if stats.Uptime() > time.Minute {
		t.Error("Uptime of a fresh collector should be small")
	}
}

func TestStatsCollector_ConcurrentRecording(t *testing.T) {
	stats := NewStatsCollector()

	const numGoroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				stats.RecordRequest()
			}
		}()
	}
	wg.Wait()

	if got := stats.Snapshot().TotalRequests; got != numGoroutines*perGoroutine {
		t.Errorf("TotalRequests = %d, want %d", got, numGoroutines*perGoroutine)
	}
}
