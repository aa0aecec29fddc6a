package boardroom

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quorumtrade/boardroom/internal/agents"
	"github.com/quorumtrade/boardroom/internal/models"
)

type fakeFundamental struct {
	err error
}

func (f *fakeFundamental) Analyze(ctx context.Context, ticker string) (*models.FundamentalReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.FundamentalReport{Ticker: ticker, Rating: models.ActionBuy, Confidence: 0.8}, nil
}

type fakeSentiment struct{}

func (f *fakeSentiment) Analyze(ctx context.Context, ticker string) (*models.SentimentReport, error) {
	return &models.SentimentReport{Ticker: ticker, Sentiment: 0.4, Confidence: 0.6}, nil
}

type fakeTechnical struct{}

func (f *fakeTechnical) Analyze(ctx context.Context, ticker string) (*models.TechnicalReport, error) {
	return &models.TechnicalReport{Ticker: ticker, Rating: models.ActionBuy, Trend: models.TrendBullish, RSI: 55}, nil
}

type fakeRisk struct {
	veto bool
}

func (f *fakeRisk) Assess(ctx context.Context, ticker string, in agents.RiskInputs) (*models.RiskAssessment, error) {
	if in.Fundamental == nil || in.Sentiment == nil || in.Technical == nil {
		return nil, fmt.Errorf("risk called before all analysts completed")
	}
	return &models.RiskAssessment{
		Ticker:                ticker,
		PortfolioSectorWeight: in.PortfolioSectorWeight,
		Veto:                  f.veto,
		VetoReason:            "sector concentration above limit",
	}, nil
}

type fakeChair struct {
	calls atomic.Int64
}

func (f *fakeChair) Decide(ctx context.Context, ticker string,
	fundamental *models.FundamentalReport, sentiment *models.SentimentReport,
	technical *models.TechnicalReport, risk *models.RiskAssessment) (*models.Decision, error) {
	f.calls.Add(1)
	return &models.Decision{Ticker: ticker, Action: models.ActionBuy, Confidence: 0.7, Rationale: "aligned signals"}, nil
}

func newTestOrchestrator(veto bool) (*Orchestrator, *fakeChair) {
	chair := &fakeChair{}
	orch := NewWithAgents(&fakeFundamental{}, &fakeSentiment{}, &fakeTechnical{},
		&fakeRisk{veto: veto}, chair, nil, nil)
	return orch, chair
}

func TestRunHappyPath(t *testing.T) {
	orch, chair := newTestOrchestrator(false)
	outcome, err := orch.Run(context.Background(), Request{Ticker: "aapl"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Ticker != "AAPL" {
		t.Fatalf("expected normalized ticker AAPL, got %s", outcome.Ticker)
	}
	if outcome.Fundamental == nil || outcome.Sentiment == nil || outcome.Technical == nil {
		t.Fatal("expected all three reports")
	}
	if outcome.Vetoed {
		t.Fatal("unexpected veto")
	}
	if outcome.Decision == nil || outcome.Decision.Action != models.ActionBuy {
		t.Fatalf("expected BUY decision, got %+v", outcome.Decision)
	}
	if got := chair.calls.Load(); got != 1 {
		t.Fatalf("chairperson should be called once, got %d", got)
	}
}

func TestRunVetoSkipsChairperson(t *testing.T) {
	orch, chair := newTestOrchestrator(true)
	outcome, err := orch.Run(context.Background(), Request{Ticker: "AAPL", PortfolioSectorWeight: 0.45})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Vetoed {
		t.Fatal("expected vetoed outcome")
	}
	if outcome.Decision != nil {
		t.Fatal("vetoed run must not carry a decision")
	}
	if outcome.Risk == nil || outcome.Risk.VetoReason == "" {
		t.Fatal("veto must carry a reason")
	}
	if got := chair.calls.Load(); got != 0 {
		t.Fatalf("chairperson must not run after a veto, called %d times", got)
	}
}

func TestRunAnalystFailureAborts(t *testing.T) {
	chair := &fakeChair{}
	orch := NewWithAgents(&fakeFundamental{err: fmt.Errorf("provider down")},
		&fakeSentiment{}, &fakeTechnical{}, &fakeRisk{}, chair, nil, nil)
	if _, err := orch.Run(context.Background(), Request{Ticker: "AAPL"}); err == nil {
		t.Fatal("expected error when an analyst fails")
	}
	if got := chair.calls.Load(); got != 0 {
		t.Fatalf("chairperson must not run after an analyst failure, called %d times", got)
	}
}

func TestRunRejectsBadSymbol(t *testing.T) {
	orch, _ := newTestOrchestrator(false)
	if _, err := orch.Run(context.Background(), Request{Ticker: "not a ticker!"}); err == nil {
		t.Fatal("expected symbol validation error")
	}
}

func TestRunStreamEventOrder(t *testing.T) {
	orch, _ := newTestOrchestrator(false)
	events, errs := orch.RunStream(context.Background(), Request{Ticker: "AAPL"})

	var got []models.StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	if err := <-errs; err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	want := []struct {
		typ   models.EventType
		agent string
	}{
		{models.EventAnalysisStarted, ""},
		{models.EventAgentStarted, agents.NameFundamental},
		{models.EventAgentCompleted, agents.NameFundamental},
		{models.EventAgentStarted, agents.NameSentiment},
		{models.EventAgentCompleted, agents.NameSentiment},
		{models.EventAgentStarted, agents.NameTechnical},
		{models.EventAgentCompleted, agents.NameTechnical},
		{models.EventAgentStarted, agents.NameRiskManager},
		{models.EventAgentCompleted, agents.NameRiskManager},
		{models.EventAgentStarted, agents.NameChairperson},
		{models.EventAgentCompleted, agents.NameChairperson},
		{models.EventDecision, agents.NameChairperson},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Type != w.typ || got[i].Agent != w.agent {
			t.Fatalf("event %d: expected %s/%s, got %s/%s", i, w.typ, w.agent, got[i].Type, got[i].Agent)
		}
	}
}

func TestRunStreamVetoTerminates(t *testing.T) {
	orch, chair := newTestOrchestrator(true)
	events, errs := orch.RunStream(context.Background(), Request{Ticker: "AAPL"})

	var last models.StreamEvent
	for ev := range events {
		last = ev
	}
	if err := <-errs; err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	if last.Type != models.EventVeto {
		t.Fatalf("expected terminal veto event, got %s", last.Type)
	}
	if got := chair.calls.Load(); got != 0 {
		t.Fatalf("chairperson must not run after a veto, called %d times", got)
	}
}

func TestRunStreamCancellation(t *testing.T) {
	orch, _ := newTestOrchestrator(false)
	ctx, cancel := context.WithCancel(context.Background())
	events, errs := orch.RunStream(ctx, Request{Ticker: "AAPL"})

	// Abandon the stream after the first event.
	<-events
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				if err := <-errs; err == nil {
					t.Fatal("expected a cancellation error")
				}
				return
			}
		case <-deadline:
			t.Fatal("stream did not shut down after cancellation")
		}
	}
}
