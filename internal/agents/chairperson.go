package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// Chairperson synthesizes the three analyst reports and the risk assessment
// into the final BUY/SELL/HOLD decision. It only runs after the risk manager
// has declined to veto.
type Chairperson struct {
	*BaseAgent
}

func NewChairperson(provider llm.Provider) *Chairperson {
	return &Chairperson{BaseAgent: NewBaseAgent(NameChairperson, provider)}
}

func (c *Chairperson) Decide(ctx context.Context, ticker string,
	fundamental *models.FundamentalReport,
	sentiment *models.SentimentReport,
	technical *models.TechnicalReport,
	risk *models.RiskAssessment) (*models.Decision, error) {

	if fundamental == nil || sentiment == nil || technical == nil || risk == nil {
		return nil, fmt.Errorf("chairperson requires all reports and the risk assessment")
	}

	prompt := fmt.Sprintf(`The committee has completed its review of %s.

Fundamental analyst: %s (confidence %.2f)
%s

Sentiment analyst: score %.2f (confidence %.2f)
%s

Technical analyst: %s, trend %s (confidence %.2f)
%s

Risk manager: no veto. Daily 95%% VaR %.2f%%.

Render the committee's final decision.`,
		ticker,
		fundamental.Rating, fundamental.Confidence, fundamental.Summary,
		sentiment.Sentiment, sentiment.Confidence, sentiment.Summary,
		technical.Rating, technical.Trend, technical.Confidence, technical.Summary,
		risk.VaR95*100)

	messages := []*schema.Message{
		schema.SystemMessage(`You chair an investment committee.
Weigh the analysts' reports, state a short rationale, and finish with two labeled lines:
Decision: BUY, SELL, or HOLD
Confidence: a value between 0 and 1`),
		schema.UserMessage(prompt),
	}

	text, err := c.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chairperson completion: %w", err)
	}

	return &models.Decision{
		Ticker:     ticker,
		Action:     ParseRating(text),
		Confidence: ParseConfidence(text),
		Rationale:  Summarize(text, 4),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
