package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/indicators"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// MaxSectorWeight is the hard portfolio concentration limit. Exceeding it
// vetoes the trade before the LLM is consulted; the rule is authoritative
// over the model's judgment.
const MaxSectorWeight = 0.30

// RiskInputs are the completed analyst reports plus portfolio context the
// risk manager needs. All three reports must be present.
type RiskInputs struct {
	Fundamental *models.FundamentalReport
	Sentiment   *models.SentimentReport
	Technical   *models.TechnicalReport

	Sector                string
	PortfolioSectorWeight float64
	Closes                []float64
}

// RiskManager can veto a recommendation on concentration or risk grounds.
type RiskManager struct {
	*BaseAgent
}

func NewRiskManager(provider llm.Provider) *RiskManager {
	return &RiskManager{BaseAgent: NewBaseAgent(NameRiskManager, provider)}
}

// Assess renders the risk verdict. The sector-concentration rule fires
// deterministically and skips the LLM entirely; otherwise the model weighs
// the three reports and VaR and may veto with a stated reason.
func (r *RiskManager) Assess(ctx context.Context, ticker string, in RiskInputs) (*models.RiskAssessment, error) {
	if in.Fundamental == nil || in.Sentiment == nil || in.Technical == nil {
		return nil, fmt.Errorf("risk assessment requires all three analyst reports")
	}

	assessment := &models.RiskAssessment{
		Ticker:                ticker,
		Sector:                in.Sector,
		PortfolioSectorWeight: in.PortfolioSectorWeight,
		VaR95:                 indicators.VaR95(in.Closes),
		CreatedAt:             time.Now().UTC(),
	}

	if in.PortfolioSectorWeight > MaxSectorWeight {
		assessment.Veto = true
		assessment.VetoReason = fmt.Sprintf(
			"portfolio already holds %.0f%% in %s, above the %.0f%% concentration limit",
			in.PortfolioSectorWeight*100, sectorLabel(in.Sector), MaxSectorWeight*100)
		return assessment, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(`You are the risk manager of an investment committee.
You may veto a trade on risk grounds but should not second-guess the analysts' views otherwise.
Finish with two labeled lines:
Veto: true or false
Reason: one sentence`),
		schema.UserMessage(riskContext(ticker, in, assessment.VaR95)),
	}

	text, err := r.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("risk manager completion: %w", err)
	}

	veto, reason := ParseVeto(text)
	assessment.Veto = veto
	if veto && reason == "" {
		reason = Summarize(text, 1)
	}
	assessment.VetoReason = reason
	if !veto {
		assessment.VetoReason = ""
	}
	return assessment, nil
}

func riskContext(ticker string, in RiskInputs, var95 float64) string {
	return fmt.Sprintf(`Proposed trade: %s
Fundamental view: %s (confidence %.2f)
Sentiment: %.2f (confidence %.2f, %d articles)
Technical view: %s, trend %s (confidence %.2f)
Daily 95%% VaR: %.2f%%
Portfolio weight already in %s: %.0f%%`,
		ticker,
		in.Fundamental.Rating, in.Fundamental.Confidence,
		in.Sentiment.Sentiment, in.Sentiment.Confidence, in.Sentiment.ArticleCount,
		in.Technical.Rating, in.Technical.Trend, in.Technical.Confidence,
		var95*100,
		sectorLabel(in.Sector), in.PortfolioSectorWeight*100)
}

func sectorLabel(sector string) string {
	if sector == "" {
		return "this sector"
	}
	return sector
}
