package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pumpwatch/pumpbot/instrumentation"
)

func rpcHandler(t *testing.T, result string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "getAccountInfo" {
			t.Errorf("method = %q, want getAccountInfo", req.Method)
		}
		if req.JSONRPC != "2.0" {
			t.Errorf("jsonrpc = %q, want 2.0", req.JSONRPC)
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}
}

func TestClient_AccountInfo(t *testing.T) {
	data := base64.StdEncoding.EncodeToString(make([]byte, 128))
	result := fmt.Sprintf(`{"value":{"lamports":1500000000,"owner":"BPFLoaderUpgradeab1e11111111111111111111111","executable":true,"rentEpoch":361,"data":["%s","base64"]}}`, data)

	srv := httptest.NewServer(rpcHandler(t, result))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL})

	info, cached, err := c.AccountInfo(context.Background(), DefaultProgramID)
	if err != nil {
		t.Fatalf("AccountInfo() error = %v", err)
	}
	if cached {
		t.Error("first lookup should not be cached")
	}
	if !info.Exists {
		t.Fatal("Exists = false, want true")
	}
	if info.Lamports != 1500000000 {
		t.Errorf("Lamports = %d, want 1500000000", info.Lamports)
	}
	if !info.Executable {
		t.Error("Executable = false, want true")
	}
	if info.RentEpoch != 361 {
		t.Errorf("RentEpoch = %d, want 361", info.RentEpoch)
	}
	if info.DataSize != 128 {
		t.Errorf("DataSize = %d, want 128", info.DataSize)
	}
}

func TestClient_AccountInfoCached(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"value":{"lamports":1,"owner":"x","executable":false,"rentEpoch":0,"data":["",""]}}}`)
	}))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL, CacheTTL: time.Minute})

	if _, cached, err := c.AccountInfo(context.Background(), "addr"); err != nil || cached {
		t.Fatalf("first lookup: cached = %v, err = %v", cached, err)
	}
	if _, cached, err := c.AccountInfo(context.Background(), "addr"); err != nil || !cached {
		t.Fatalf("second lookup: cached = %v, err = %v, want cache hit", cached, err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("RPC calls = %d, want 1", got)
	}
}

func TestClient_AccountNotFound(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, `{"value":null}`))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL})

	info, _, err := c.AccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("AccountInfo() error = %v", err)
	}
	if info.Exists {
		t.Error("Exists = true, want false for a missing account")
	}
	if info.Message == "" {
		t.Error("Message should explain the degraded result")
	}
}

func TestClient_RPCErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`)
	}))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL})

	info, _, err := c.AccountInfo(context.Background(), "bad")
	if err != nil {
		t.Fatalf("node-level errors should degrade, not fail: %v", err)
	}
	if info.Exists {
		t.Error("Exists = true, want false on an RPC error")
	}
}

func TestClient_TransportErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL})

	if _, _, err := c.AccountInfo(context.Background(), "addr"); err == nil {
		t.Error("transport failures should surface as errors")
	}
}

func TestClient_ContractInfo(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, `{"value":{"lamports":42,"owner":"owner","executable":false,"rentEpoch":1,"data":["",""]}}`))
	defer srv.Close()

	c := New(&Config{RPCURL: srv.URL})

	info, err := c.ContractInfo(context.Background())
	if err != nil {
		t.Fatalf("ContractInfo() error = %v", err)
	}
	if info.ProgramID != DefaultProgramID {
		t.Errorf("ProgramID = %q, want %q", info.ProgramID, DefaultProgramID)
	}
	if info.Network != networkName {
		t.Errorf("Network = %q, want %q", info.Network, networkName)
	}
	if info.ExplorerURL != ExplorerURL(DefaultProgramID) {
		t.Errorf("ExplorerURL = %q", info.ExplorerURL)
	}
	if info.Account == nil || !info.Account.Exists {
		t.Error("Account should exist")
	}
}

func TestClient_AccountInfoEmitsSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"value":{"lamports":1,"owner":"x","executable":false,"rentEpoch":0,"data":["",""]}}}`)
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := New(&Config{
		RPCURL:   srv.URL,
		CacheTTL: time.Minute,
		Tracer:   tp.Tracer("test"),
	})

	if _, _, err := c.AccountInfo(context.Background(), "addr"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if _, _, err := c.AccountInfo(context.Background(), "addr"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}

	cachedAttr := func(i int) bool {
		for _, kv := range spans[i].Attributes() {
			if kv.Key == attribute.Key(instrumentation.AttrRPCCached) {
				return kv.Value.AsBool()
			}
		}
		t.Fatalf("span %d has no cached attribute", i)
		return false
	}

	if spans[0].Name() != "solana.account_info" {
		t.Errorf("span name = %q, want solana.account_info", spans[0].Name())
	}
	if cachedAttr(0) {
		t.Error("first lookup should not be marked cached")
	}
	if !cachedAttr(1) {
		t.Error("second lookup should be marked cached")
	}
}

func TestAccountCache_Expiry(t *testing.T) {
	cache := newAccountCache(10*time.Millisecond, 10)
	cache.Set("a", &AccountInfo{Exists: true})

	if _, ok := cache.Get("a"); !ok {
		t.Fatal("entry should be present before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("a"); ok {
		t.Error("entry should be gone after expiry")
	}
	if removed := cache.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
}

func TestAccountCache_EvictOldest(t *testing.T) {
	cache := newAccountCache(time.Minute, 2)

	cache.Set("a", &AccountInfo{})
	time.Sleep(time.Millisecond)
	cache.Set("b", &AccountInfo{})
	time.Sleep(time.Millisecond)
	cache.Set("c", &AccountInfo{})

	if _, ok := cache.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("newest entry should be present")
	}
}
