package models

import "time"

// PriceBar is one daily OHLCV record. AdjClose absorbs splits and dividends
// and is the canonical price for return and backtest math.
type PriceBar struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Valid reports whether the bar carries usable price fields.
func (b PriceBar) Valid() bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.Volume >= 0
}

// FundamentalSnapshot is a quarterly fundamentals record keyed by
// (ticker, quarter end). Optional fields are nil when the source did not
// report them; consumers degrade to neutral rather than failing.
type FundamentalSnapshot struct {
	Ticker         string    `json:"ticker"`
	QuarterEnd     time.Time `json:"quarter_end"`
	PERatio        *float64  `json:"pe_ratio,omitempty"`
	RevenueGrowth  *float64  `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64  `json:"earnings_growth,omitempty"`
	DebtToEquity   *float64  `json:"debt_to_equity,omitempty"`
	NetIncome      *float64  `json:"net_income,omitempty"`
	Sector         string    `json:"sector,omitempty"`
}

// StockData is the market-data provider's composite answer for one ticker.
type StockData struct {
	Ticker       string     `json:"ticker"`
	CurrentPrice float64    `json:"current_price"`
	Open         float64    `json:"open"`
	High         float64    `json:"high"`
	Low          float64    `json:"low"`
	Volume       int64      `json:"volume"`
	MarketCap    *float64   `json:"market_cap,omitempty"`
	PERatio      *float64   `json:"pe_ratio,omitempty"`
	Sector       string     `json:"sector,omitempty"`
	History      []PriceBar `json:"history,omitempty"`
}

// SearchResult is one news or social item returned by the search provider.
type SearchResult struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// FundamentalsAsOf returns the most recent snapshot with a quarter end at or
// before date (forward-fill). Snapshots must be sorted ascending by QuarterEnd.
// Returns nil when nothing qualifies.
func FundamentalsAsOf(snapshots []FundamentalSnapshot, date time.Time) *FundamentalSnapshot {
	for i := len(snapshots) - 1; i >= 0; i-- {
		if !snapshots[i].QuarterEnd.After(date) {
			s := snapshots[i]
			return &s
		}
	}
	return nil
}
