package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pumpwatch/pumpbot/instrumentation"
)

const boardPage = `<!DOCTYPE html>
<html><body>
<table>
<tr><th>Name</th><th>Symbol</th><th>Price</th><th>Market Cap</th><th>24h</th><th>Volume</th></tr>
<tr><td>CatCoin</td><td>CAT</td><td>$0.0042</td><td>$3.1M</td><td>+12.0%</td><td>$150K</td></tr>
<tr><td>FrogToken</td><td>FROG</td><td>$0.001</td><td>$500K</td><td>-4.2%</td><td>$90K</td></tr>
<tr><td>SunDog</td><td>SUN</td><td>$0.02</td><td>$9.9M</td><td>+1.1%</td><td>$1.2M</td></tr>
<tr><td>WaveRider</td><td>WAVE</td><td>$0.3</td><td>$12M</td><td>+0.5%</td><td>$2M</td></tr>
<tr><td>StarDust</td><td>STAR</td><td>$0.007</td><td>$800K</td><td>-9.8%</td><td>$60K</td></tr>
<tr><td>SixthCoin</td><td>SIX</td><td>$0.1</td><td>$1M</td><td>+3.0%</td><td>$300K</td></tr>
</table>
</body></html>`

func newTestScraper(url string) *Scraper {
	return New(&Config{
		BoardURL:         url,
		MinFetchInterval: time.Millisecond,
	})
}

func TestScraper_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("fetch should send a User-Agent")
		}
		if _, err := w.Write([]byte(boardPage)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL)
	board, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if board.Fallback {
		t.Error("Fallback should be false for a parseable page")
	}
	if len(board.Coins) != MaxCoins {
		t.Fatalf("coins = %d, want %d (capped)", len(board.Coins), MaxCoins)
	}

	first := board.Coins[0]
	if first.Name != "CatCoin" || first.Symbol != "CAT" {
		t.Errorf("first coin = %q (%q), want CatCoin (CAT)", first.Name, first.Symbol)
	}
	if first.Price != "$0.0042" {
		t.Errorf("Price = %q, want $0.0042", first.Price)
	}
	if first.Change24h != "+12.0%" {
		t.Errorf("Change24h = %q, want +12.0%%", first.Change24h)
	}
}

func TestScraper_FetchSkipsHeaderRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardPage))
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL)
	board, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	for _, coin := range board.Coins {
		if coin.Name == "Name" {
			t.Error("header row should not be parsed as a coin")
		}
	}
}

func TestScraper_FetchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><div>rendered client-side</div></body></html>"))
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL)
	board, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !board.Fallback {
		t.Error("Fallback should be true when no rows parse")
	}
	if len(board.Coins) != MaxCoins {
		t.Errorf("fallback coins = %d, want %d", len(board.Coins), MaxCoins)
	}
	if board.Coins[0].Symbol != "PEPE" {
		t.Errorf("first fallback symbol = %q, want PEPE", board.Coins[0].Symbol)
	}
}

func TestScraper_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestScraper(srv.URL)
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("Fetch() should fail on a server error")
	}
}

func TestScraper_FetchContextCanceled(t *testing.T) {
	s := newTestScraper("http://127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Fetch(ctx); err == nil {
		t.Error("Fetch() should fail when the context is already canceled")
	}
}

func TestCoinFromCells(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{
			name:  "valid row",
			cells: []string{"CatCoin", "CAT", "$0.0042", "$3.1M", "+12.0%", "$150K"},
			want:  true,
		},
		{
			name:  "header row",
			cells: []string{"Name", "Symbol", "Price", "Market Cap"},
			want:  false,
		},
		{
			name:  "too few cells",
			cells: []string{"CatCoin", "CAT"},
			want:  false,
		},
		{
			name:  "percent only",
			cells: []string{"CatCoin", "CAT", "0.0042", "3.1M", "+12.0%"},
			want:  true,
		},
		{
			name:  "empty name",
			cells: []string{"", "CAT", "$0.0042", "$3.1M"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := coinFromCells(tt.cells); ok != tt.want {
				t.Errorf("coinFromCells() ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestScraper_FetchEmitsSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardPage))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	s := New(&Config{
		BoardURL:         srv.URL,
		MinFetchInterval: time.Millisecond,
		Tracer:           tp.Tracer("test"),
	})

	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "scraper.fetch" {
		t.Errorf("span name = %q, want scraper.fetch", span.Name())
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs[attribute.Key(instrumentation.AttrScrapeURL)].AsString(); got != srv.URL {
		t.Errorf("url attribute = %q, want %q", got, srv.URL)
	}
	if attrs[attribute.Key(instrumentation.AttrScrapeFallback)].AsBool() {
		t.Error("fallback attribute should be false for a parseable page")
	}
	if got := attrs[attribute.Key(instrumentation.AttrCoinCount)].AsInt64(); got != int64(MaxCoins) {
		t.Errorf("coin_count attribute = %d, want %d", got, MaxCoins)
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", span.Status().Code)
	}
}

func TestScraper_FetchErrorRecordedOnSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	s := New(&Config{
		BoardURL:         srv.URL,
		MinFetchInterval: time.Millisecond,
		Tracer:           tp.Tracer("test"),
	})

	if _, err := s.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() should fail on 503")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
}
