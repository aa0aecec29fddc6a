package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/quorumtrade/boardroom/internal/models"
)

func TestValidateSymbol(t *testing.T) {
	for _, valid := range []string{"AAPL", "brk.b", " msft ", "700.HK", "BF-B"} {
		if err := ValidateSymbol(valid); err != nil {
			t.Errorf("expected %q to validate: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "   ", "not a ticker", "WAYTOOLONGSYMBOL", "AAPL$"} {
		if err := ValidateSymbol(invalid); err == nil {
			t.Errorf("expected %q to fail validation", invalid)
		}
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, true)

	type payload struct {
		Value string `json:"value"`
	}
	params := map[string]string{"ticker": "AAPL"}
	if err := cache.Set("yahoo", "quote", params, payload{Value: "cached"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if !cache.Get("yahoo", "quote", params, &got) {
		t.Fatal("expected a cache hit")
	}
	if got.Value != "cached" {
		t.Fatalf("unexpected cached value %q", got.Value)
	}

	// Different params are a different key.
	if cache.Get("yahoo", "quote", map[string]string{"ticker": "MSFT"}, &got) {
		t.Fatal("different params must miss")
	}
}

func TestFileCacheDisabled(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Minute, false)
	if err := cache.Set("yahoo", "quote", "k", "v"); err != nil {
		t.Fatalf("Set on disabled cache: %v", err)
	}
	var got string
	if cache.Get("yahoo", "quote", "k", &got) {
		t.Fatal("disabled cache must always miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	cache.Set("key", 42)

	var got int
	if !cache.Get("key", &got) || got != 42 {
		t.Fatalf("expected fresh hit with 42, got %v", got)
	}

	time.Sleep(20 * time.Millisecond)
	if cache.Get("key", &got) {
		t.Fatal("expected expiry after TTL")
	}
}

func TestWithRetry(t *testing.T) {
	config := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(config, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	calls = 0
	if err := WithRetry(config, func() error {
		calls++
		return fmt.Errorf("permanent")
	}); err == nil {
		t.Fatal("expected final error after exhausting retries")
	}
	if calls != 4 {
		t.Fatalf("expected initial try plus 3 retries, got %d", calls)
	}
}

type scriptedProvider struct {
	name string
	err  error
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) GetStockData(ctx context.Context, ticker string) (*models.StockData, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.StockData{Ticker: ticker, CurrentPrice: 100}, nil
}

func (p *scriptedProvider) GetPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []models.PriceBar{{Ticker: ticker, AdjClose: 100}}, nil
}

func TestFallbackChain(t *testing.T) {
	primary := &scriptedProvider{name: "primary", err: fmt.Errorf("rate limited")}
	secondary := &scriptedProvider{name: "secondary"}
	chain := NewFallbackChain(primary, nil, secondary)

	data, err := chain.GetStockData(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("expected secondary to serve: %v", err)
	}
	if data.CurrentPrice != 100 {
		t.Fatalf("unexpected data %+v", data)
	}

	bars, err := chain.GetPriceHistory(context.Background(), "AAPL", 30)
	if err != nil || len(bars) != 1 {
		t.Fatalf("expected history from secondary, got %v bars, err %v", len(bars), err)
	}

	// Every provider failing surfaces an error.
	broken := NewFallbackChain(primary)
	if _, err := broken.GetStockData(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Now()

	got := parseRelativeTime("3 hours ago")
	if diff := now.Sub(got); diff < 2*time.Hour+59*time.Minute || diff > 3*time.Hour+time.Minute {
		t.Fatalf("expected ~3h ago, got %v", got)
	}

	got = parseRelativeTime("2 days ago")
	if diff := now.Sub(got); diff < 47*time.Hour || diff > 49*time.Hour {
		t.Fatalf("expected ~2d ago, got %v", got)
	}

	// Unparseable text falls back to roughly now.
	got = parseRelativeTime("yesterday-ish")
	if now.Sub(got) > time.Minute {
		t.Fatalf("expected fallback near now, got %v", got)
	}
}

func TestBuildGoogleNewsURL(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	raw := buildGoogleNewsURL("AAPL stock", start, end)

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	q := parsed.Query().Get("q")
	for _, want := range []string{"AAPL stock", "after:2024-05-01", "before:2024-05-03"} {
		if !strings.Contains(q, want) {
			t.Fatalf("expected query to contain %q, got %q", want, q)
		}
	}
}

func TestCleanGoogleNewsURL(t *testing.T) {
	got := cleanGoogleNewsURL("./articles/abc123")
	if got != "https://news.google.com/articles/abc123" {
		t.Fatalf("expected absolute article URL, got %s", got)
	}
	got = cleanGoogleNewsURL("https://example.com/redirect?url=https%3A%2F%2Fnews.site%2Fstory")
	if got != "https://news.site/story" {
		t.Fatalf("expected unwrapped URL, got %s", got)
	}
}
