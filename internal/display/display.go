// Package display renders pipeline outcomes and reports for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quorumtrade/boardroom/internal/boardroom"
	"github.com/quorumtrade/boardroom/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	sellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	vetoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Padding(1, 2).
			Width(80)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func actionStyle(action models.Action) lipgloss.Style {
	switch action {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	}
	return holdStyle
}

// RenderOutcome prints one completed analysis run.
func RenderOutcome(outcome *boardroom.Outcome) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("📊 Boardroom verdict: %s", outcome.Ticker)))

	var b strings.Builder
	if f := outcome.Fundamental; f != nil {
		fmt.Fprintf(&b, "Fundamental  %s (%.0f%%)\n", actionStyle(f.Rating).Render(string(f.Rating)), f.Confidence*100)
		fmt.Fprintf(&b, "  %s\n\n", f.Summary)
	}
	if s := outcome.Sentiment; s != nil {
		fmt.Fprintf(&b, "Sentiment    %+.2f over %d items (%.0f%%)\n", s.Sentiment, s.ArticleCount, s.Confidence*100)
		fmt.Fprintf(&b, "  %s\n\n", s.Summary)
	}
	if t := outcome.Technical; t != nil {
		fmt.Fprintf(&b, "Technical    %s, trend %s, RSI %.1f (%.0f%%)\n",
			actionStyle(t.Rating).Render(string(t.Rating)), t.Trend, t.RSI, t.Confidence*100)
		fmt.Fprintf(&b, "  %s\n", t.Summary)
	}
	fmt.Println(panelStyle.Render(strings.TrimRight(b.String(), "\n")))

	if outcome.Risk != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("Risk: daily 95%% VaR %.2f%%, sector weight %.0f%%",
			outcome.Risk.VaR95*100, outcome.Risk.PortfolioSectorWeight*100)))
	}

	if outcome.Vetoed {
		fmt.Println(vetoStyle.Render("🚫 VETO: " + outcome.Risk.VetoReason))
		return
	}
	if d := outcome.Decision; d != nil {
		verdict := fmt.Sprintf("%s %s (confidence %.0f%%)\n\n%s",
			actionStyle(d.Action).Render(string(d.Action)), d.Ticker, d.Confidence*100, d.Rationale)
		fmt.Println(panelStyle.Render(verdict))
	}
}

// RenderEvent prints one streaming pipeline event.
func RenderEvent(ev models.StreamEvent) {
	switch ev.Type {
	case models.EventAnalysisStarted:
		fmt.Println(titleStyle.Render("🏛  " + ev.Message))
	case models.EventAgentStarted:
		fmt.Println(dimStyle.Render(fmt.Sprintf("  ⏳ %s working...", ev.Agent)))
	case models.EventAgentCompleted:
		fmt.Printf("  ✅ %s: %s\n", ev.Agent, ev.Message)
	case models.EventVeto:
		fmt.Println(vetoStyle.Render("🚫 VETO: " + ev.Message))
	case models.EventDecision:
		if ev.Decision != nil {
			fmt.Println(panelStyle.Render(fmt.Sprintf("%s %s\n\n%s",
				actionStyle(ev.Decision.Action).Render(string(ev.Decision.Action)),
				ev.Ticker, ev.Decision.Rationale)))
		}
	}
}

// RenderComparison prints the cross-sectional tables and the ranked pick.
func RenderComparison(cmp *boardroom.Comparison) {
	fmt.Println(titleStyle.Render("⚖️  Comparison: " + strings.Join(cmp.Tickers, " vs ")))

	var b strings.Builder
	b.WriteString("Ticker     Return    P/E      Sector           Verdict\n")
	for i, ticker := range cmp.Tickers {
		v := cmp.Valuations[i]
		pe := "-"
		if v.PERatio != nil {
			pe = fmt.Sprintf("%.1f", *v.PERatio)
		}
		verdict := "VETO"
		if out := cmp.Outcomes[i]; !out.Vetoed && out.Decision != nil {
			verdict = string(out.Decision.Action)
		}
		fmt.Fprintf(&b, "%-10s %+7.1f%%  %-7s  %-15s  %s\n",
			ticker, cmp.RelativeReturn[i]*100, pe, truncate(v.Sector, 15), verdict)
	}

	b.WriteString("\nReturn correlation\n")
	b.WriteString("          ")
	for _, t := range cmp.Tickers {
		fmt.Fprintf(&b, "%8s", truncate(t, 8))
	}
	b.WriteString("\n")
	for i, t := range cmp.Tickers {
		fmt.Fprintf(&b, "%-10s", truncate(t, 10))
		for j := range cmp.Tickers {
			fmt.Fprintf(&b, "%8.2f", cmp.Correlation[i][j])
		}
		b.WriteString("\n")
	}
	fmt.Println(panelStyle.Render(strings.TrimRight(b.String(), "\n")))

	if cmp.Ranking != nil {
		fmt.Println(panelStyle.Render(fmt.Sprintf("🏆 Best pick: %s\n\nOrder: %s\n\n%s",
			buyStyle.Render(cmp.Ranking.BestPick),
			strings.Join(cmp.Ranking.Order, " > "),
			cmp.Ranking.Rationale)))
	}
}

// RenderBacktest prints the summary metrics of one run.
func RenderBacktest(result *models.BacktestResult) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("📈 Backtest: %s  %s to %s",
		result.Ticker, result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"))))

	sharpe := "n/a"
	if result.SharpeRatio != nil {
		sharpe = fmt.Sprintf("%.2f", *result.SharpeRatio)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Initial capital     %12.2f\n", result.InitialCapital)
	fmt.Fprintf(&b, "Final equity        %12.2f\n", result.FinalEquity)
	fmt.Fprintf(&b, "Total return        %+11.2f%%\n", result.TotalReturn*100)
	fmt.Fprintf(&b, "Annualized return   %+11.2f%%\n", result.AnnualizedReturn*100)
	fmt.Fprintf(&b, "Buy & hold return   %+11.2f%%\n", result.BuyAndHoldReturn*100)
	fmt.Fprintf(&b, "Max drawdown        %+11.2f%%\n", result.MaxDrawdown*100)
	fmt.Fprintf(&b, "Sharpe ratio        %12s\n", sharpe)
	fmt.Fprintf(&b, "Win rate            %11.0f%%\n", result.WinRate*100)
	fmt.Fprintf(&b, "Trades              %12d", result.TotalTrades)
	fmt.Println(panelStyle.Render(b.String()))
}

// RenderPerformance prints a paper account's realized statistics.
func RenderPerformance(account *models.Account, positions []models.Position, perf *models.Performance) {
	fmt.Println(titleStyle.Render("💼 Account: " + account.Name))

	var b strings.Builder
	fmt.Fprintf(&b, "Cash balance        %12s\n", account.CashBalance.StringFixed(2))
	fmt.Fprintf(&b, "Total return        %+11.2f%%\n", perf.TotalReturn*100)
	fmt.Fprintf(&b, "Win rate            %11.0f%%  (%d closed pairs)\n", perf.WinRate*100, perf.ClosedPairs)
	fmt.Fprintf(&b, "Avg win / loss      %s / %s\n", perf.AvgWin.StringFixed(2), perf.AvgLoss.StringFixed(2))
	fmt.Fprintf(&b, "Trades              %12d\n", perf.TotalTrades)

	if len(positions) > 0 {
		b.WriteString("\nOpen positions\n")
		for _, p := range positions {
			fmt.Fprintf(&b, "  %-8s %12s @ %s\n", p.Ticker, p.Quantity.String(), p.AvgEntryPrice.StringFixed(2))
		}
	}
	fmt.Println(panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
