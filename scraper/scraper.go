package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/pumpwatch/pumpbot/instrumentation"
)

const (
	// DefaultBoardURL is the pump.fun board sorted by creation time
	DefaultBoardURL = "https://pump.fun/?coins_sort=created_timestamp&show_animations=false&view=table"

	// DefaultTimeout is the per-fetch HTTP timeout
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is a browser-like user agent for the board fetch
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMinFetchInterval spaces out outbound fetches to stay polite
	DefaultMinFetchInterval = 2 * time.Second

	// MaxCoins is how many coins a fetch returns at most
	MaxCoins = 5
)

// Coin is one row of the board
type Coin struct {
	Name        string
	Symbol      string
	MarketCap   string
	Price       string
	Change24h   string
	Volume24h   string
	CreatedTime string
	Address     string
}

// Board is the result of one fetch. Fallback reports whether the synthetic
// sample set was served because the page yielded no parseable rows.
type Board struct {
	Coins     []Coin
	Fallback  bool
	FetchedAt time.Time
}

// Config holds scraper configuration
type Config struct {
	// BoardURL is the page to fetch. Default: DefaultBoardURL.
	BoardURL string

	// UserAgent sent with each fetch. Default: DefaultUserAgent.
	UserAgent string

	// Timeout is the per-fetch HTTP timeout. Default: 30 seconds.
	// Ignored when HTTPClient is provided.
	Timeout time.Duration

	// MinFetchInterval is the minimum spacing between outbound fetches.
	// Default: 2 seconds.
	MinFetchInterval time.Duration

	// HTTPClient is a custom HTTP client for fetches (optional)
	HTTPClient *http.Client

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Tracer for fetch spans (optional, spans are skipped when nil)
	Tracer trace.Tracer
}

// Scraper fetches and parses the board page. The page structure is not under
// our control, so parsing is best-effort: when no rows can be extracted the
// scraper serves a synthetic fallback set rather than failing.
type Scraper struct {
	client    *http.Client
	limiter   *rate.Limiter
	boardURL  string
	userAgent string
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a scraper. A nil config uses defaults.
func New(cfg *Config) *Scraper {
	if cfg == nil {
		cfg = &Config{}
	}

	boardURL := cfg.BoardURL
	if boardURL == "" {
		boardURL = DefaultBoardURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := cfg.MinFetchInterval
	if interval <= 0 {
		interval = DefaultMinFetchInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Scraper{
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		boardURL:  boardURL,
		userAgent: userAgent,
		logger:    logger,
		tracer:    cfg.Tracer,
	}
}

// startSpan starts a fetch span when a tracer is configured
func (s *Scraper) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, "scraper."+operation)
}

// Fetch retrieves the board and returns up to MaxCoins of the newest coins.
// Outbound requests are spaced by the configured interval; Fetch blocks until
// its turn or until the context is done.
func (s *Scraper) Fetch(ctx context.Context) (*Board, error) {
	ctx, span := s.startSpan(ctx, "fetch")
	defer span.End()
	span.SetAttributes(attribute.String(instrumentation.AttrScrapeURL, s.boardURL))

	board, err := s.fetch(ctx)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool(instrumentation.AttrScrapeFallback, board.Fallback),
		attribute.Int(instrumentation.AttrCoinCount, len(board.Coins)),
	)
	instrumentation.SetSpanSuccess(span)
	return board, nil
}

func (s *Scraper) fetch(ctx context.Context) (*Board, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch canceled while waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.boardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build board request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	s.logger.Info("Fetching board", "url", s.boardURL)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board fetch returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board page: %w", err)
	}

	board := &Board{FetchedAt: time.Now()}
	board.Coins = parseCoins(doc)

	if len(board.Coins) == 0 {
		// The page layout changed or is rendered client-side; serve the
		// synthetic sample set so callers still have something to show
		s.logger.Warn("No coins parsed from board page, serving fallback data")
		board.Coins = fallbackCoins()
		board.Fallback = true
	}

	if len(board.Coins) > MaxCoins {
		board.Coins = board.Coins[:MaxCoins]
	}

	s.logger.Info("Board fetch completed",
		"coins", len(board.Coins),
		"fallback", board.Fallback)

	return board, nil
}

// parseCoins extracts coin rows from table markup
func parseCoins(doc *html.Node) []Coin {
	var coins []Coin

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "tr" {
			return
		}
		cells := rowCells(n)
		if coin, ok := coinFromCells(cells); ok {
			coins = append(coins, coin)
		}
	})

	return coins
}

// rowCells collects the trimmed text of each td/th cell in a table row
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

// coinFromCells builds a coin from table cells, rejecting header and
// malformed rows
func coinFromCells(cells []string) (Coin, bool) {
	if len(cells) < 4 {
		return Coin{}, false
	}

	coin := Coin{
		Name:      cells[0],
		Symbol:    cells[1],
		Price:     cells[2],
		MarketCap: cells[3],
	}
	if len(cells) > 4 {
		coin.Change24h = cells[4]
	}
	if len(cells) > 5 {
		coin.Volume24h = cells[5]
	}

	// Header rows carry labels, not values
	if coin.Name == "" || coin.Symbol == "" {
		return Coin{}, false
	}
	if !strings.Contains(coin.Price, "$") && !strings.Contains(coin.Change24h, "%") {
		return Coin{}, false
	}

	return coin, true
}

// nodeText concatenates all text nodes under n
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// walk visits n and all its descendants in document order
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// fallbackCoins is the synthetic sample set served when parsing yields nothing
func fallbackCoins() []Coin {
	return []Coin{
		{Name: "PEPE2.0", Symbol: "PEPE", MarketCap: "$1.2M", Price: "$0.00012", Change24h: "+15.6%", Volume24h: "$450K"},
		{Name: "DogeCoin Fork", Symbol: "DOGE2", MarketCap: "$890K", Price: "$0.000089", Change24h: "-2.3%", Volume24h: "$230K"},
		{Name: "SolanaKing", Symbol: "SOLKING", MarketCap: "$2.1M", Price: "$0.0021", Change24h: "+8.9%", Volume24h: "$680K"},
		{Name: "MoonShot", Symbol: "MOON", MarketCap: "$750K", Price: "$0.00075", Change24h: "+25.4%", Volume24h: "$320K"},
		{Name: "RocketFuel", Symbol: "FUEL", MarketCap: "$1.8M", Price: "$0.0018", Change24h: "-5.2%", Volume24h: "$540K"},
	}
}
