package instrumentation

import (
	"context"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.config.ServiceName != "pumpbot" {
		t.Errorf("ServiceName = %q, want %q", inst.config.ServiceName, "pumpbot")
	}
	if inst.config.ServiceVersion != DefaultServiceVersion {
		t.Errorf("ServiceVersion = %q, want %q", inst.config.ServiceVersion, DefaultServiceVersion)
	}
	if inst.Metrics() == nil {
		t.Error("Metrics() should not be nil")
	}
	if inst.MeterProvider() == nil {
		t.Error("MeterProvider() should not be nil")
	}
	if inst.TracerProvider() == nil {
		t.Error("TracerProvider() should not be nil")
	}
}

func TestNew_Disabled(t *testing.T) {
	inst, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Recording through no-op providers must not panic
	ctx := context.Background()
	inst.Metrics().RecordEvaluation(ctx, "refresh", true, "allowed")
	inst.Metrics().RecordEvaluation(ctx, "refresh", false, "rate_limited")
	inst.Metrics().RecordRateLimitExceeded(ctx, "refresh")
	inst.Metrics().RecordSuspiciousFlagged(ctx, "refresh")
	inst.Metrics().RecordUserBlocked(ctx, "failed identity validation")
	inst.Metrics().RecordScrape(ctx, 12.5, false, nil)
	inst.Metrics().RecordRPCCall(ctx, "getAccountInfo", 42.0, false, nil)
	inst.Metrics().RecordRPCCall(ctx, "getAccountInfo", 0, true, nil)
	inst.Metrics().RecordUpdate(ctx, "start")
}

func TestInstrumentation_MeterAndTracer(t *testing.T) {
	inst, err := New(Config{ServiceName: "test-service"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if m := inst.Meter("gate"); m == nil {
		t.Error("Meter() should not be nil")
	}
	if tr := inst.Tracer("scraper"); tr == nil {
		t.Error("Tracer() should not be nil")
	}
}

func TestInstrumentation_RegisterGateSizeCallbacks(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = inst.RegisterGateSizeCallbacks(
		func() int64 { return 10 },
		func() int64 { return 2 },
		func() int64 { return 1 },
	)
	if err != nil {
		t.Errorf("RegisterGateSizeCallbacks() error = %v", err)
	}
}

func TestInstrumentation_Shutdown(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Shutdown is safe to call multiple times
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
