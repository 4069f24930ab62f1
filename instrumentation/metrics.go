package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the bot
type Metrics struct {
	// Gate Metrics
	GateEvaluationsTotal metric.Int64Counter
	GateDenialsTotal     metric.Int64Counter
	RateLimitExceeded    metric.Int64Counter
	SuspiciousFlagged    metric.Int64Counter
	UsersBlocked         metric.Int64Counter
	GateTrackedUsers     metric.Int64ObservableGauge
	GateBlockedUsers     metric.Int64ObservableGauge
	GateSuspiciousUsers  metric.Int64ObservableGauge

	// Scraper Metrics
	ScraperFetchesTotal   metric.Int64Counter
	ScraperFetchDuration  metric.Float64Histogram
	ScraperFetchErrors    metric.Int64Counter
	ScraperFallbacksTotal metric.Int64Counter

	// RPC Metrics
	RPCCallsTotal   metric.Int64Counter
	RPCCallDuration metric.Float64Histogram
	RPCCallErrors   metric.Int64Counter
	RPCCacheHits    metric.Int64Counter

	// Transport Metrics
	UpdatesTotal metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	gateMeter := inst.Meter("gate")
	scraperMeter := inst.Meter("scraper")
	rpcMeter := inst.Meter("rpc")
	transportMeter := inst.Meter("transport")

	// Gate Metrics
	var err error
	m.GateEvaluationsTotal, err = gateMeter.Int64Counter(
		"pumpbot.gate.evaluations.total",
		metric.WithDescription("Total number of gate evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.evaluations.total counter: %w", err)
	}

	m.GateDenialsTotal, err = gateMeter.Int64Counter(
		"pumpbot.gate.denials.total",
		metric.WithDescription("Number of gate evaluations that ended in a deny verdict"),
		metric.WithUnit("{denial}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.denials.total counter: %w", err)
	}

	m.RateLimitExceeded, err = gateMeter.Int64Counter(
		"pumpbot.gate.rate_limit.exceeded",
		metric.WithDescription("Number of sliding-window throttle denials"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.rate_limit.exceeded counter: %w", err)
	}

	m.SuspiciousFlagged, err = gateMeter.Int64Counter(
		"pumpbot.gate.suspicious.flagged",
		metric.WithDescription("Number of suspicious-activity detections"),
		metric.WithUnit("{detection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.suspicious.flagged counter: %w", err)
	}

	m.UsersBlocked, err = gateMeter.Int64Counter(
		"pumpbot.gate.users.blocked",
		metric.WithDescription("Number of block events"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.users.blocked counter: %w", err)
	}

	m.GateTrackedUsers, err = gateMeter.Int64ObservableGauge(
		"pumpbot.gate.users.tracked",
		metric.WithDescription("Current number of users with live activity records"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.users.tracked gauge: %w", err)
	}

	m.GateBlockedUsers, err = gateMeter.Int64ObservableGauge(
		"pumpbot.gate.users.blocklisted",
		metric.WithDescription("Current number of users on the deny-list"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.users.blocklisted gauge: %w", err)
	}

	m.GateSuspiciousUsers, err = gateMeter.Int64ObservableGauge(
		"pumpbot.gate.users.suspicious",
		metric.WithDescription("Current number of users latched as suspicious"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate.users.suspicious gauge: %w", err)
	}

	// Scraper Metrics
	m.ScraperFetchesTotal, err = scraperMeter.Int64Counter(
		"pumpbot.scraper.fetches.total",
		metric.WithDescription("Total number of board fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper.fetches.total counter: %w", err)
	}

	m.ScraperFetchDuration, err = scraperMeter.Float64Histogram(
		"pumpbot.scraper.fetch.duration",
		metric.WithDescription("Board fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper.fetch.duration histogram: %w", err)
	}

	m.ScraperFetchErrors, err = scraperMeter.Int64Counter(
		"pumpbot.scraper.fetch.errors",
		metric.WithDescription("Number of failed board fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper.fetch.errors counter: %w", err)
	}

	m.ScraperFallbacksTotal, err = scraperMeter.Int64Counter(
		"pumpbot.scraper.fallbacks.total",
		metric.WithDescription("Number of fetches that served the synthetic fallback set"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper.fallbacks.total counter: %w", err)
	}

	// RPC Metrics
	m.RPCCallsTotal, err = rpcMeter.Int64Counter(
		"pumpbot.rpc.calls.total",
		metric.WithDescription("Total number of chain RPC calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc.calls.total counter: %w", err)
	}

	m.RPCCallDuration, err = rpcMeter.Float64Histogram(
		"pumpbot.rpc.call.duration",
		metric.WithDescription("Chain RPC call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc.call.duration histogram: %w", err)
	}

	m.RPCCallErrors, err = rpcMeter.Int64Counter(
		"pumpbot.rpc.call.errors",
		metric.WithDescription("Number of failed chain RPC calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc.call.errors counter: %w", err)
	}

	m.RPCCacheHits, err = rpcMeter.Int64Counter(
		"pumpbot.rpc.cache.hits",
		metric.WithDescription("Number of RPC lookups served from the short-lived cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc.cache.hits counter: %w", err)
	}

	// Transport Metrics
	m.UpdatesTotal, err = transportMeter.Int64Counter(
		"pumpbot.transport.updates.total",
		metric.WithDescription("Total number of inbound chat updates"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport.updates.total counter: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordEvaluation records a gate evaluation and its verdict
func (m *Metrics) RecordEvaluation(ctx context.Context, action string, allowed bool, reason string) {
	m.GateEvaluationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
	))

	if !allowed {
		m.GateDenialsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("reason", reason),
		))
	}
}

// RecordRateLimitExceeded records a throttle denial
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, action string) {
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
	))
}

// RecordSuspiciousFlagged records a suspicious-activity detection
func (m *Metrics) RecordSuspiciousFlagged(ctx context.Context, action string) {
	m.SuspiciousFlagged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
	))
}

// RecordUserBlocked records a block event
func (m *Metrics) RecordUserBlocked(ctx context.Context, reason string) {
	m.UsersBlocked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordScrape records one board fetch
func (m *Metrics) RecordScrape(ctx context.Context, durationMs float64, fallback bool, err error) {
	m.ScraperFetchesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("fallback", fallback),
	))
	m.ScraperFetchDuration.Record(ctx, durationMs)

	if fallback {
		m.ScraperFallbacksTotal.Add(ctx, 1)
	}
	if err != nil {
		m.ScraperFetchErrors.Add(ctx, 1)
	}
}

// RecordRPCCall records one chain RPC call
func (m *Metrics) RecordRPCCall(ctx context.Context, method string, durationMs float64, cached bool, err error) {
	if cached {
		m.RPCCacheHits.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
		))
		return
	}

	m.RPCCallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
	))
	m.RPCCallDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("method", method),
	))

	if err != nil {
		m.RPCCallErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
		))
	}
}

// RecordUpdate records one inbound chat update
func (m *Metrics) RecordUpdate(ctx context.Context, action string) {
	m.UpdatesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
	))
}
