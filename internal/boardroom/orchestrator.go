// Package boardroom runs the analysis pipeline: three analysts in parallel,
// a risk-manager gate, and a chairperson decision when no veto fires.
package boardroom

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/quorumtrade/boardroom/internal/agents"
	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// riskHistoryDays is the trailing window used for the VaR input series.
const riskHistoryDays = 365

// FundamentalAnalyzer produces a fundamental report for a ticker.
type FundamentalAnalyzer interface {
	Analyze(ctx context.Context, ticker string) (*models.FundamentalReport, error)
}

// SentimentAnalyzer produces a sentiment report for a ticker.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, ticker string) (*models.SentimentReport, error)
}

// TechnicalAnalyzer produces a technical report for a ticker.
type TechnicalAnalyzer interface {
	Analyze(ctx context.Context, ticker string) (*models.TechnicalReport, error)
}

// RiskAssessor gates the pipeline and may veto.
type RiskAssessor interface {
	Assess(ctx context.Context, ticker string, in agents.RiskInputs) (*models.RiskAssessment, error)
}

// Decider renders the final decision once the risk manager has passed.
type Decider interface {
	Decide(ctx context.Context, ticker string,
		fundamental *models.FundamentalReport,
		sentiment *models.SentimentReport,
		technical *models.TechnicalReport,
		risk *models.RiskAssessment) (*models.Decision, error)
}

// Request carries one pipeline invocation's inputs. PortfolioSectorWeight is
// the current weight of the ticker's sector in the caller's portfolio, used
// by the risk manager's concentration rule.
type Request struct {
	Ticker                string
	PortfolioSectorWeight float64
}

// Outcome is the completed pipeline result. Decision is nil when Vetoed.
type Outcome struct {
	Ticker      string
	Fundamental *models.FundamentalReport
	Sentiment   *models.SentimentReport
	Technical   *models.TechnicalReport
	Risk        *models.RiskAssessment
	Decision    *models.Decision
	Vetoed      bool
}

// Orchestrator drives the five agents through one analysis run.
type Orchestrator struct {
	fundamental  FundamentalAnalyzer
	sentiment    SentimentAnalyzer
	technical    TechnicalAnalyzer
	risk         RiskAssessor
	chair        Decider
	market       dataflows.MarketDataProvider
	fundamentals dataflows.FundamentalsProvider
}

// New wires the concrete agents over the supplied providers.
func New(provider llm.Provider, market dataflows.MarketDataProvider,
	fundamentals dataflows.FundamentalsProvider, search dataflows.SearchProvider) *Orchestrator {
	return &Orchestrator{
		fundamental:  agents.NewFundamentalAnalyst(provider, market, fundamentals),
		sentiment:    agents.NewSentimentAnalyst(provider, search),
		technical:    agents.NewTechnicalAnalyst(provider, market),
		risk:         agents.NewRiskManager(provider),
		chair:        agents.NewChairperson(provider),
		market:       market,
		fundamentals: fundamentals,
	}
}

// NewWithAgents builds an orchestrator over caller-supplied agents.
func NewWithAgents(fundamental FundamentalAnalyzer, sentiment SentimentAnalyzer,
	technical TechnicalAnalyzer, risk RiskAssessor, chair Decider,
	market dataflows.MarketDataProvider, fundamentals dataflows.FundamentalsProvider) *Orchestrator {
	return &Orchestrator{
		fundamental:  fundamental,
		sentiment:    sentiment,
		technical:    technical,
		risk:         risk,
		chair:        chair,
		market:       market,
		fundamentals: fundamentals,
	}
}

// Run executes the full pipeline once. The three analysts run concurrently
// and all must succeed before the risk manager is consulted. A veto ends the
// run without calling the chairperson.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, error) {
	ticker := dataflows.NormalizeSymbol(req.Ticker)
	if err := dataflows.ValidateSymbol(ticker); err != nil {
		return nil, err
	}

	reports, err := o.runAnalysts(ctx, ticker)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Ticker:      ticker,
		Fundamental: reports.fundamental,
		Sentiment:   reports.sentiment,
		Technical:   reports.technical,
	}

	assessment, err := o.risk.Assess(ctx, ticker, o.riskInputs(ctx, ticker, req, reports))
	if err != nil {
		return nil, fmt.Errorf("risk assessment: %w", err)
	}
	outcome.Risk = assessment

	if assessment.Veto {
		outcome.Vetoed = true
		return outcome, nil
	}

	decision, err := o.chair.Decide(ctx, ticker,
		reports.fundamental, reports.sentiment, reports.technical, assessment)
	if err != nil {
		return nil, fmt.Errorf("chairperson decision: %w", err)
	}
	outcome.Decision = decision
	return outcome, nil
}

type analystReports struct {
	fundamental *models.FundamentalReport
	sentiment   *models.SentimentReport
	technical   *models.TechnicalReport
}

// runAnalysts fans the three analysts out and waits for all of them. Any
// analyst failure aborts the run.
func (o *Orchestrator) runAnalysts(ctx context.Context, ticker string) (*analystReports, error) {
	var (
		wg      sync.WaitGroup
		reports analystReports
		fundErr error
		sentErr error
		techErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		reports.fundamental, fundErr = o.fundamental.Analyze(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		reports.sentiment, sentErr = o.sentiment.Analyze(ctx, ticker)
	}()
	go func() {
		defer wg.Done()
		reports.technical, techErr = o.technical.Analyze(ctx, ticker)
	}()
	wg.Wait()

	for _, err := range []error{fundErr, sentErr, techErr} {
		if err != nil {
			return nil, err
		}
	}
	return &reports, nil
}

// riskInputs gathers the portfolio context for the risk manager. Sector and
// price data failures degrade to empty inputs rather than aborting, since
// the analysts have already succeeded by this point.
func (o *Orchestrator) riskInputs(ctx context.Context, ticker string, req Request, reports *analystReports) agents.RiskInputs {
	in := agents.RiskInputs{
		Fundamental:           reports.fundamental,
		Sentiment:             reports.sentiment,
		Technical:             reports.technical,
		PortfolioSectorWeight: req.PortfolioSectorWeight,
	}

	if o.fundamentals != nil {
		if snapshot, err := o.fundamentals.GetFundamentals(ctx, ticker); err != nil {
			log.Printf("risk inputs: fundamentals for %s unavailable: %v", ticker, err)
		} else if snapshot != nil {
			in.Sector = snapshot.Sector
		}
	}

	if o.market != nil {
		bars, err := o.market.GetPriceHistory(ctx, ticker, riskHistoryDays)
		if err != nil {
			log.Printf("risk inputs: price history for %s unavailable: %v", ticker, err)
		} else {
			closes := make([]float64, 0, len(bars))
			for _, bar := range bars {
				closes = append(closes, bar.AdjClose)
			}
			in.Closes = closes
		}
	}
	return in
}
