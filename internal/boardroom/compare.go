package boardroom

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/llm"
)

const (
	minCompareTickers = 2
	maxCompareTickers = 4
	compareWindowDays = 180
)

// TickerValuation is one row of the valuation comparison table.
type TickerValuation struct {
	Ticker       string   `json:"ticker"`
	CurrentPrice float64  `json:"current_price"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	MarketCap    *float64 `json:"market_cap,omitempty"`
	Sector       string   `json:"sector,omitempty"`
}

// Ranking is the LLM's ordered pick across the compared tickers.
type Ranking struct {
	BestPick  string   `json:"best_pick"`
	Order     []string `json:"order"`
	Rationale string   `json:"rationale"`
}

// Comparison is the cross-sectional result over 2 to 4 tickers. Correlation
// and RelativeReturn are indexed the same way as Tickers; histories are
// aligned to the shortest common length before returns are computed.
type Comparison struct {
	Tickers        []string
	Outcomes       []*Outcome
	Correlation    [][]float64
	RelativeReturn []float64
	Valuations     []TickerValuation
	Ranking        *Ranking
}

// Compare runs the full pipeline for each ticker, then computes the
// relative-strength metrics and asks the LLM for a ranked pick.
func (o *Orchestrator) Compare(ctx context.Context, provider llm.Provider, tickers []string, sectorWeights map[string]float64) (*Comparison, error) {
	if len(tickers) < minCompareTickers || len(tickers) > maxCompareTickers {
		return nil, fmt.Errorf("comparison needs %d to %d tickers, got %d", minCompareTickers, maxCompareTickers, len(tickers))
	}

	cmp := &Comparison{
		Tickers:  make([]string, len(tickers)),
		Outcomes: make([]*Outcome, len(tickers)),
	}
	histories := make([][]float64, len(tickers))

	for i, raw := range tickers {
		ticker := dataflows.NormalizeSymbol(raw)
		cmp.Tickers[i] = ticker

		outcome, err := o.Run(ctx, Request{
			Ticker:                ticker,
			PortfolioSectorWeight: sectorWeights[ticker],
		})
		if err != nil {
			return nil, fmt.Errorf("compare %s: %w", ticker, err)
		}
		cmp.Outcomes[i] = outcome

		bars, err := o.market.GetPriceHistory(ctx, ticker, compareWindowDays)
		if err != nil {
			return nil, fmt.Errorf("compare %s: price history: %w", ticker, err)
		}
		closes := make([]float64, 0, len(bars))
		for _, bar := range bars {
			closes = append(closes, bar.AdjClose)
		}
		histories[i] = closes

		valuation := TickerValuation{Ticker: ticker}
		if data, err := o.market.GetStockData(ctx, ticker); err == nil && data != nil {
			valuation.CurrentPrice = data.CurrentPrice
			valuation.MarketCap = data.MarketCap
		}
		if o.fundamentals != nil {
			if snapshot, err := o.fundamentals.GetFundamentals(ctx, ticker); err == nil && snapshot != nil {
				valuation.PERatio = snapshot.PERatio
				valuation.Sector = snapshot.Sector
			}
		}
		cmp.Valuations = append(cmp.Valuations, valuation)
	}

	aligned := alignHistories(histories)
	cmp.RelativeReturn = relativeReturns(aligned)
	cmp.Correlation = correlationMatrix(aligned)

	ranking, err := rankTickers(ctx, provider, cmp)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	cmp.Ranking = ranking
	return cmp, nil
}

// alignHistories trims every series to the shortest common length, keeping
// the most recent points.
func alignHistories(histories [][]float64) [][]float64 {
	shortest := -1
	for _, h := range histories {
		if shortest < 0 || len(h) < shortest {
			shortest = len(h)
		}
	}
	if shortest <= 0 {
		shortest = 0
	}
	aligned := make([][]float64, len(histories))
	for i, h := range histories {
		aligned[i] = h[len(h)-shortest:]
	}
	return aligned
}

// relativeReturns computes each series' simple return over the aligned
// window.
func relativeReturns(aligned [][]float64) []float64 {
	out := make([]float64, len(aligned))
	for i, h := range aligned {
		if len(h) < 2 || h[0] == 0 {
			continue
		}
		out[i] = h[len(h)-1]/h[0] - 1
	}
	return out
}

// correlationMatrix is the pairwise Pearson correlation of daily simple
// returns. Degenerate series correlate at 0 with everything but themselves.
func correlationMatrix(aligned [][]float64) [][]float64 {
	returns := make([][]float64, len(aligned))
	for i, h := range aligned {
		returns[i] = simpleReturns(h)
	}

	n := len(aligned)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := pearson(returns[i], returns[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix
}

func simpleReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a, b = a[len(a)-n:], b[len(b)-n:]

	meanA, meanB := mean(a), mean(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func mean(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// rankTickers asks the LLM for an ordered pick over the compared tickers,
// parsing the reply as strict JSON.
func rankTickers(ctx context.Context, provider llm.Provider, cmp *Comparison) (*Ranking, error) {
	var sb strings.Builder
	for i, ticker := range cmp.Tickers {
		outcome := cmp.Outcomes[i]
		fmt.Fprintf(&sb, "%s: window return %.1f%%", ticker, cmp.RelativeReturn[i]*100)
		if outcome.Vetoed {
			fmt.Fprintf(&sb, ", risk manager vetoed (%s)", outcome.Risk.VetoReason)
		} else if outcome.Decision != nil {
			fmt.Fprintf(&sb, ", committee says %s (confidence %.2f)", outcome.Decision.Action, outcome.Decision.Confidence)
		}
		if v := cmp.Valuations[i]; v.PERatio != nil {
			fmt.Fprintf(&sb, ", P/E %.1f", *v.PERatio)
		}
		sb.WriteString("\n")
	}

	messages := []*schema.Message{
		schema.SystemMessage(`You rank stocks for an investment committee.
Respond with JSON: {"best_pick": string, "order": [string], "rationale": string}.
The order lists every ticker from strongest to weakest. Never rank a vetoed ticker first.`),
		schema.UserMessage(sb.String()),
	}

	var ranking Ranking
	if err := provider.CompleteStructured(ctx, messages, &ranking); err != nil {
		return nil, err
	}
	if ranking.BestPick == "" && len(ranking.Order) > 0 {
		ranking.BestPick = ranking.Order[0]
	}
	return &ranking, nil
}
