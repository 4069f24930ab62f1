package instrumentation

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// These constants define attribute key names for observability. User handles
// are treated as PII: hash them before attaching, never attach raw values.
const (
	// Gate attributes
	AttrUserID        = "gate.user_id"        // Numeric user identifier
	AttrAction        = "gate.action"         // Action name being evaluated
	AttrVerdict       = "gate.verdict"        // allow or deny
	AttrVerdictReason = "gate.verdict_reason" // Reason for the verdict
	AttrTrigger       = "gate.trigger"        // Suspicion trigger (volume, burst)

	// Scraper attributes
	AttrScrapeURL      = "scraper.url"
	AttrScrapeFallback = "scraper.fallback" // Whether synthetic data was served (boolean)
	AttrCoinCount      = "scraper.coin_count"

	// RPC attributes
	AttrRPCMethod  = "rpc.method"
	AttrRPCCached  = "rpc.cached" // Whether the response came from cache (boolean)
	AttrRPCAccount = "rpc.account"

	// Transport attributes
	AttrChatID     = "transport.chat_id"
	AttrUpdateKind = "transport.update_kind" // command, callback, text
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}
