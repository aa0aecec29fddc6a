// Package agents implements the five boardroom members: three independent
// analysts, the risk manager, and the chairperson. Each agent fetches its
// raw inputs from an external provider, asks the LLM for an assessment, and
// parses the answer into a typed report with safe defaults.
package agents

import (
	"github.com/quorumtrade/boardroom/internal/llm"
)

// Agent display names used in stream events and logs.
const (
	NameFundamental = "fundamental_analyst"
	NameSentiment   = "sentiment_analyst"
	NameTechnical   = "technical_analyst"
	NameRiskManager = "risk_manager"
	NameChairperson = "chairperson"
)

type BaseAgent struct {
	name string
	llm  llm.Provider
}

func NewBaseAgent(name string, provider llm.Provider) *BaseAgent {
	return &BaseAgent{
		name: name,
		llm:  provider,
	}
}

func (b *BaseAgent) Name() string {
	return b.name
}
