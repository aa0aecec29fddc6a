package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quorumtrade/boardroom/internal/models"
)

// FinnhubClient serves quarterly fundamentals, company profiles, and
// company news over the Finnhub REST API.
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

// NewFinnhubClient creates a Finnhub client.
func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "finnhub"), SearchTTL, cacheEnabled),
		apiKey: apiKey,
	}
}

type finnhubMetrics struct {
	Metric map[string]interface{} `json:"metric"`
}

type finnhubProfile struct {
	Industry string `json:"finnhubIndustry"`
	Name     string `json:"name"`
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetFundamentals assembles a fundamentals snapshot from the metric and
// profile endpoints. Metrics Finnhub does not report stay nil and score
// neutral downstream.
func (fc *FinnhubClient) GetFundamentals(ctx context.Context, ticker string) (*models.FundamentalSnapshot, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(ticker); err != nil {
		return nil, err
	}
	ticker = NormalizeSymbol(ticker)

	var cached models.FundamentalSnapshot
	if fc.cache.Get("finnhub", "fundamentals", ticker, &cached) {
		return &cached, nil
	}

	var metrics finnhubMetrics
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": ticker,
				"metric": "all",
				"token":  fc.apiKey,
			}).
			Get("/stock/metric")
		if err != nil {
			return fmt.Errorf("fetch metrics for %s: %w", ticker, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &metrics)
	})
	if err != nil {
		return nil, err
	}

	snapshot := &models.FundamentalSnapshot{
		Ticker:     ticker,
		QuarterEnd: lastQuarterEnd(time.Now().UTC()),
	}
	snapshot.PERatio = metricValue(metrics.Metric, "peTTM", "peBasicExclExtraTTM")
	snapshot.DebtToEquity = metricValue(metrics.Metric, "totalDebt/totalEquityQuarterly", "totalDebtToEquityQuarterly")
	if g := metricValue(metrics.Metric, "revenueGrowthTTMYoy", "revenueGrowthQuarterlyYoy"); g != nil {
		pct := *g / 100.0
		snapshot.RevenueGrowth = &pct
	}
	if g := metricValue(metrics.Metric, "epsGrowthTTMYoy", "epsGrowthQuarterlyYoy"); g != nil {
		pct := *g / 100.0
		snapshot.EarningsGrowth = &pct
	}
	snapshot.NetIncome = metricValue(metrics.Metric, "netIncomeTTM", "netIncomeCommonStockholdersTTM")
	if snapshot.NetIncome == nil {
		// The metric endpoint does not always carry an income line; the
		// profit margin's sign is a usable stand-in for profitability.
		snapshot.NetIncome = metricValue(metrics.Metric, "netProfitMarginTTM", "netProfitMarginAnnual")
	}

	if profile, err := fc.getProfile(ctx, ticker); err == nil {
		snapshot.Sector = profile.Industry
	}

	fc.cache.Set("finnhub", "fundamentals", ticker, snapshot)
	return snapshot, nil
}

func (fc *FinnhubClient) getProfile(ctx context.Context, ticker string) (*finnhubProfile, error) {
	var cached finnhubProfile
	if fc.cache.Get("finnhub", "profile", ticker, &cached) {
		return &cached, nil
	}

	var profile finnhubProfile
	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": ticker, "token": fc.apiKey}).
		Get("/stock/profile2")
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", ticker, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("parse profile response: %w", err)
	}

	fc.cache.Set("finnhub", "profile", ticker, &profile)
	return &profile, nil
}

// SearchNews returns company news published within the trailing window.
func (fc *FinnhubClient) SearchNews(ctx context.Context, ticker string, hours int) ([]models.SearchResult, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(ticker); err != nil {
		return nil, err
	}
	ticker = NormalizeSymbol(ticker)

	to := time.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)

	cacheKey := map[string]interface{}{
		"symbol": ticker,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []models.SearchResult
	if fc.cache.Get("finnhub", "company_news", cacheKey, &cached) {
		return cached, nil
	}

	var result []models.SearchResult
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": ticker,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("fetch news for %s: %w", ticker, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		var articles []finnhubNews
		if err := json.Unmarshal(resp.Body(), &articles); err != nil {
			return fmt.Errorf("parse news response: %w", err)
		}

		result = result[:0]
		for _, a := range articles {
			published := time.Unix(a.DateTime, 0).UTC()
			if published.Before(from) {
				continue
			}
			result = append(result, models.SearchResult{
				Title:       a.Headline,
				URL:         a.URL,
				Snippet:     a.Summary,
				Source:      a.Source,
				PublishedAt: published,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("finnhub", "company_news", cacheKey, result)
	return result, nil
}

// metricValue returns the first numeric metric present under any of keys.
func metricValue(metrics map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		if raw, ok := metrics[key]; ok {
			if v, ok := raw.(float64); ok {
				value := v
				return &value
			}
		}
	}
	return nil
}

// lastQuarterEnd returns the most recent calendar quarter end at or before t.
func lastQuarterEnd(t time.Time) time.Time {
	year := t.Year()
	ends := []time.Time{
		time.Date(year-1, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(year, 6, 30, 0, 0, 0, 0, time.UTC),
		time.Date(year, 9, 30, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	last := ends[0]
	for _, end := range ends {
		if !end.After(t) {
			last = end
		}
	}
	return last
}
