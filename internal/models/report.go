package models

import "time"

// Action is a trade recommendation or execution direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Trend classifies the moving-average regime of a price series.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// FundamentalReport is the fundamental analyst's output for one run.
// Reports are created once per analysis run and never mutated.
type FundamentalReport struct {
	Ticker     string    `json:"ticker"`
	Rating     Action    `json:"rating"`
	Confidence float64   `json:"confidence"`
	PERatio    *float64  `json:"pe_ratio,omitempty"`
	MarketCap  *float64  `json:"market_cap,omitempty"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// SentimentReport carries a sentiment reading in [-1, 1].
type SentimentReport struct {
	Ticker       string    `json:"ticker"`
	Sentiment    float64   `json:"sentiment"`
	Confidence   float64   `json:"confidence"`
	ArticleCount int       `json:"article_count"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
}

// TechnicalReport carries the technical analyst's indicator readings.
type TechnicalReport struct {
	Ticker     string    `json:"ticker"`
	Trend      Trend     `json:"trend"`
	RSI        float64   `json:"rsi"`
	MA50       float64   `json:"ma_50"`
	MA200      float64   `json:"ma_200"`
	Rating     Action    `json:"rating"`
	Confidence float64   `json:"confidence"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// RiskAssessment is the risk manager's verdict. Veto=true is a valid
// terminal outcome of the pipeline, not an error.
type RiskAssessment struct {
	Ticker                string    `json:"ticker"`
	Sector                string    `json:"sector"`
	PortfolioSectorWeight float64   `json:"portfolio_sector_weight"`
	VaR95                 float64   `json:"var_95"`
	Veto                  bool      `json:"veto"`
	VetoReason            string    `json:"veto_reason,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// Decision is the chairperson's final synthesis.
type Decision struct {
	Ticker     string    `json:"ticker"`
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
	CreatedAt  time.Time `json:"created_at"`
}
