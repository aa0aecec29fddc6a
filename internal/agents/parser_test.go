package agents

import (
	"testing"

	"github.com/quorumtrade/boardroom/internal/models"
)

func TestParseRating(t *testing.T) {
	cases := []struct {
		name string
		text string
		want models.Action
	}{
		{"explicit label", "After weighing the evidence.\nRating: BUY\nConfidence: 0.8", models.ActionBuy},
		{"explicit sell", "Decision: sell, the valuation is stretched", models.ActionSell},
		{"keyword frequency", "The stock looks bullish with strong upside and growth potential.", models.ActionBuy},
		{"bearish keywords", "Overvalued and overbought, expect downside.", models.ActionSell},
		{"empty text", "", models.ActionHold},
		{"ambiguous", "Some say buy, others say sell.", models.ActionHold},
	}
	for _, tc := range cases {
		if got := ParseRating(tc.text); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestParseConfidence(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"decimal", "Confidence: 0.85", 0.85},
		{"percent sign", "Confidence: 85%", 0.85},
		{"0-100 scale", "confidence = 85", 0.85},
		{"missing", "no confidence stated", 0.5},
		{"garbage", "", 0.5},
	}
	for _, tc := range cases {
		if got := ParseConfidence(tc.text); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestParseSentiment(t *testing.T) {
	if got := ParseSentiment("Sentiment: -0.4"); got != -0.4 {
		t.Fatalf("expected -0.4, got %v", got)
	}
	if got := ParseSentiment("Sentiment score: 75"); got != 0.75 {
		t.Fatalf("expected 0.75 from 0-100 scale, got %v", got)
	}
	if got := ParseSentiment("nothing here"); got != 0 {
		t.Fatalf("expected default 0, got %v", got)
	}
}

func TestParseVeto(t *testing.T) {
	veto, reason := ParseVeto("Veto: yes\nReason: sector concentration too high")
	if !veto {
		t.Fatal("expected veto")
	}
	if reason != "sector concentration too high" {
		t.Fatalf("unexpected reason %q", reason)
	}

	veto, _ = ParseVeto("Veto: no\nReason: risk acceptable")
	if veto {
		t.Fatal("expected no veto")
	}

	veto, _ = ParseVeto("the model rambled with no verdict")
	if veto {
		t.Fatal("default must be no veto")
	}
}

func TestSummarize(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	got := Summarize(text, 2)
	if got != "One. Two." {
		t.Fatalf("expected two sentences, got %q", got)
	}
	if got := Summarize("Short.", 4); got != "Short." {
		t.Fatalf("short text should pass through, got %q", got)
	}
}
