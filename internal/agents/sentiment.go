package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// How far back the sentiment analyst looks for coverage.
const sentimentLookbackHours = 48

// SentimentAnalyst reads recent news and social chatter and distills it into
// a sentiment score in [-1, 1].
type SentimentAnalyst struct {
	*BaseAgent
	search dataflows.SearchProvider
}

func NewSentimentAnalyst(provider llm.Provider, search dataflows.SearchProvider) *SentimentAnalyst {
	return &SentimentAnalyst{
		BaseAgent: NewBaseAgent(NameSentiment, provider),
		search:    search,
	}
}

// Analyze produces a sentiment report. With no retrievable coverage the
// report is neutral without spending an LLM call.
func (s *SentimentAnalyst) Analyze(ctx context.Context, ticker string) (*models.SentimentReport, error) {
	news, _ := s.search.SearchNews(ctx, ticker, sentimentLookbackHours)
	social, _ := s.search.SearchSocial(ctx, ticker, sentimentLookbackHours)

	items := append(news, social...)
	if len(items) == 0 {
		return &models.SentimentReport{
			Ticker:     ticker,
			Sentiment:  0.0,
			Confidence: 0.5,
			Summary:    "No recent news or social coverage found.",
			CreatedAt:  time.Now().UTC(),
		}, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(`You are a market sentiment analyst.
Read the headlines and snippets below and judge the prevailing mood toward the stock.
Finish with two labeled lines:
Sentiment: a value between -1 (very negative) and 1 (very positive)
Confidence: a value between 0 and 1`),
		schema.UserMessage(sentimentContext(ticker, items)),
	}

	text, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("sentiment analyst completion: %w", err)
	}

	return &models.SentimentReport{
		Ticker:       ticker,
		Sentiment:    ParseSentiment(text),
		Confidence:   ParseConfidence(text),
		ArticleCount: len(items),
		Summary:      Summarize(text, 4),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func sentimentContext(ticker string, items []models.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recent coverage for %s (%d items):\n", ticker, len(items))

	const maxItems = 25
	for i, item := range items {
		if i >= maxItems {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s", item.Source, item.Title)
		if item.Snippet != "" {
			fmt.Fprintf(&b, ": %s", Summarize(item.Snippet, 1))
		}
		b.WriteString("\n")
	}
	return b.String()
}
