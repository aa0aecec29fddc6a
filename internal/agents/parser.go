package agents

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quorumtrade/boardroom/internal/models"
)

// Tolerant extraction of structured fields from free-text model output.
// Every parser has a safe default and never fails on malformed text:
// HOLD, confidence 0.5, sentiment 0.0, veto false.

var (
	buyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(strong buy|recommended buy|buy recommendation)\b`),
		regexp.MustCompile(`(?i)\b(buy|accumulate|long|bullish|upside)\b`),
		regexp.MustCompile(`(?i)\b(undervalued|oversold|growth potential)\b`),
	}
	sellPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(strong sell|sell recommendation|avoid)\b`),
		regexp.MustCompile(`(?i)\b(sell|reduce|short|bearish|downside)\b`),
		regexp.MustCompile(`(?i)\b(overvalued|overbought)\b`),
	}
	holdPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait|sideways)\b`),
		regexp.MustCompile(`(?i)\b(no action|stay put|keep position)\b`),
	}

	ratingPattern     = regexp.MustCompile(`(?i)\b(?:rating|recommendation|action|decision)\s*[:=]?\s*(buy|sell|hold)\b`)
	confidencePattern = regexp.MustCompile(`(?i)\bconfidence\s*[:=]?\s*([0-9]*\.?[0-9]+)\s*(%?)`)
	sentimentPattern  = regexp.MustCompile(`(?i)\bsentiment\s*(?:score)?\s*[:=]?\s*(-?[0-9]*\.?[0-9]+)`)
	vetoPattern       = regexp.MustCompile(`(?i)\bveto\s*[:=]?\s*(true|yes|approve[d]?|false|no)\b`)
	reasonPattern     = regexp.MustCompile(`(?i)\b(?:veto[ _]?reason|reason)\s*[:=]\s*([^\n]+)`)
)

// ParseRating extracts a BUY/SELL/HOLD recommendation, preferring an
// explicit "rating:"-style label over keyword frequency. Defaults to HOLD.
func ParseRating(text string) models.Action {
	if m := ratingPattern.FindStringSubmatch(text); len(m) > 1 {
		return models.Action(strings.ToUpper(m[1]))
	}

	lower := strings.ToLower(text)
	buyScore := countMatches(lower, buyPatterns)
	sellScore := countMatches(lower, sellPatterns)
	holdScore := countMatches(lower, holdPatterns)

	if buyScore > sellScore && buyScore > holdScore {
		return models.ActionBuy
	}
	if sellScore > buyScore && sellScore > holdScore {
		return models.ActionSell
	}
	return models.ActionHold
}

// ParseConfidence extracts a confidence value in [0, 1]. Percentages and
// 0-100 scales are normalized. Defaults to 0.5.
func ParseConfidence(text string) float64 {
	m := confidencePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0.5
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0.5
	}
	if m[2] == "%" || v > 1 {
		v /= 100
	}
	return clamp01(v)
}

// ParseSentiment extracts a sentiment reading clamped to [-1, 1].
// Defaults to 0.0.
func ParseSentiment(text string) float64 {
	m := sentimentPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0.0
	}
	if v > 1 {
		v /= 100
	}
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return v
}

// ParseVeto extracts a veto verdict and its stated reason.
// Defaults to no veto.
func ParseVeto(text string) (bool, string) {
	veto := false
	if m := vetoPattern.FindStringSubmatch(text); len(m) > 1 {
		switch strings.ToLower(m[1]) {
		case "true", "yes":
			veto = true
		}
	}

	reason := ""
	if m := reasonPattern.FindStringSubmatch(text); len(m) > 1 {
		reason = strings.TrimSpace(m[1])
	}
	return veto, reason
}

// Summarize trims text to at most n sentences for report summaries.
func Summarize(text string, n int) string {
	text = strings.TrimSpace(text)
	sentences := strings.SplitAfter(text, ". ")
	if len(sentences) <= n {
		return text
	}
	return strings.TrimSpace(strings.Join(sentences[:n], ""))
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, p := range patterns {
		count += len(p.FindAllString(text, -1))
	}
	return count
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
