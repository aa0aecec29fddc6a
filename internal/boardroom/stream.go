package boardroom

import (
	"context"
	"fmt"
	"time"

	"github.com/quorumtrade/boardroom/internal/agents"
	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/models"
)

// RunStream executes the pipeline while emitting progress events. The three
// analysts still run concurrently, but their started/completed pairs are
// emitted in a fixed order so consumers see a stable narrative. The events
// channel is closed when the run ends; at most one error is delivered on the
// second channel.
func (o *Orchestrator) RunStream(ctx context.Context, req Request) (<-chan models.StreamEvent, <-chan error) {
	events := make(chan models.StreamEvent)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		if err := o.streamRun(ctx, req, events); err != nil {
			errs <- err
		}
	}()
	return events, errs
}

func (o *Orchestrator) streamRun(ctx context.Context, req Request, events chan<- models.StreamEvent) error {
	ticker := dataflows.NormalizeSymbol(req.Ticker)
	if err := dataflows.ValidateSymbol(ticker); err != nil {
		return err
	}

	if !emit(ctx, events, models.StreamEvent{
		Type:    models.EventAnalysisStarted,
		Ticker:  ticker,
		Message: fmt.Sprintf("boardroom convened for %s", ticker),
	}) {
		return ctx.Err()
	}

	var reports analystReports
	fundDone := make(chan error, 1)
	sentDone := make(chan error, 1)
	techDone := make(chan error, 1)

	go func() {
		var err error
		reports.fundamental, err = o.fundamental.Analyze(ctx, ticker)
		fundDone <- err
	}()
	go func() {
		var err error
		reports.sentiment, err = o.sentiment.Analyze(ctx, ticker)
		sentDone <- err
	}()
	go func() {
		var err error
		reports.technical, err = o.technical.Analyze(ctx, ticker)
		techDone <- err
	}()

	analysts := []struct {
		name string
		done <-chan error
		msg  func() string
	}{
		{agents.NameFundamental, fundDone, func() string {
			return fmt.Sprintf("rating %s, confidence %.2f", reports.fundamental.Rating, reports.fundamental.Confidence)
		}},
		{agents.NameSentiment, sentDone, func() string {
			return fmt.Sprintf("sentiment %.2f over %d items", reports.sentiment.Sentiment, reports.sentiment.ArticleCount)
		}},
		{agents.NameTechnical, techDone, func() string {
			return fmt.Sprintf("trend %s, RSI %.1f", reports.technical.Trend, reports.technical.RSI)
		}},
	}

	for _, a := range analysts {
		if !emit(ctx, events, models.StreamEvent{Type: models.EventAgentStarted, Ticker: ticker, Agent: a.name}) {
			return ctx.Err()
		}
		select {
		case err := <-a.done:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
		if !emit(ctx, events, models.StreamEvent{
			Type:    models.EventAgentCompleted,
			Ticker:  ticker,
			Agent:   a.name,
			Message: a.msg(),
		}) {
			return ctx.Err()
		}
	}

	if !emit(ctx, events, models.StreamEvent{Type: models.EventAgentStarted, Ticker: ticker, Agent: agents.NameRiskManager}) {
		return ctx.Err()
	}
	assessment, err := o.risk.Assess(ctx, ticker, o.riskInputs(ctx, ticker, req, &reports))
	if err != nil {
		return fmt.Errorf("risk assessment: %w", err)
	}
	if !emit(ctx, events, models.StreamEvent{
		Type:    models.EventAgentCompleted,
		Ticker:  ticker,
		Agent:   agents.NameRiskManager,
		Message: fmt.Sprintf("95%% VaR %.2f%%", assessment.VaR95*100),
	}) {
		return ctx.Err()
	}

	if assessment.Veto {
		if !emit(ctx, events, models.StreamEvent{
			Type:    models.EventVeto,
			Ticker:  ticker,
			Agent:   agents.NameRiskManager,
			Message: assessment.VetoReason,
			Risk:    assessment,
		}) {
			return ctx.Err()
		}
		return nil
	}

	if !emit(ctx, events, models.StreamEvent{Type: models.EventAgentStarted, Ticker: ticker, Agent: agents.NameChairperson}) {
		return ctx.Err()
	}
	decision, err := o.chair.Decide(ctx, ticker,
		reports.fundamental, reports.sentiment, reports.technical, assessment)
	if err != nil {
		return fmt.Errorf("chairperson decision: %w", err)
	}
	if !emit(ctx, events, models.StreamEvent{
		Type:    models.EventAgentCompleted,
		Ticker:  ticker,
		Agent:   agents.NameChairperson,
		Message: string(decision.Action),
	}) {
		return ctx.Err()
	}

	if !emit(ctx, events, models.StreamEvent{
		Type:     models.EventDecision,
		Ticker:   ticker,
		Agent:    agents.NameChairperson,
		Message:  decision.Rationale,
		Risk:     assessment,
		Decision: decision,
	}) {
		return ctx.Err()
	}
	return nil
}

// emit delivers one timestamped event, giving up when the context ends.
func emit(ctx context.Context, events chan<- models.StreamEvent, ev models.StreamEvent) bool {
	ev.Timestamp = time.Now().UTC()
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
