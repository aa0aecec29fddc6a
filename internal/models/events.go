package models

import "time"

// EventType identifies one streaming pipeline event.
type EventType string

const (
	EventAnalysisStarted EventType = "analysis_started"
	EventAgentStarted    EventType = "agent_started"
	EventAgentCompleted  EventType = "agent_completed"
	EventVeto            EventType = "veto"
	EventDecision        EventType = "decision"
)

// StreamEvent is one element of the orchestrator's event stream. Exactly one
// of Veto or Decision terminates a run; consumers must treat them as
// mutually exclusive terminal events.
type StreamEvent struct {
	Type      EventType       `json:"type"`
	Ticker    string          `json:"ticker"`
	Agent     string          `json:"agent,omitempty"`
	Message   string          `json:"message,omitempty"`
	Risk      *RiskAssessment `json:"risk,omitempty"`
	Decision  *Decision       `json:"decision,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
