// Package instrumentation provides OpenTelemetry metrics and tracing for the
// bot: gate verdict counters and population gauges, scraper and RPC call
// metrics, and inbound update counters.
//
// Instrumentation is opt-in. With Enabled false (the default zero value),
// no-op providers are used and recording has effectively zero overhead, so
// callers never need to branch on whether observability is configured:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName:    "pumpbot",
//	    ServiceVersion: version,
//	    Enabled:        true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer inst.Shutdown(ctx)
//
//	inst.Metrics().RecordEvaluation(ctx, "refresh", verdict.Allowed, verdict.Reason)
//
// Population gauges (tracked, blocked, suspicious users) are observable and
// pull their values through callbacks registered with
// RegisterGateSizeCallbacks, keeping the gate itself free of any
// observability dependency.
package instrumentation
