// Package cli wires the commands, prompts, and terminal output for the
// boardroom binary.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quorumtrade/boardroom/config"
	"github.com/quorumtrade/boardroom/internal/backtest"
	"github.com/quorumtrade/boardroom/internal/boardroom"
	"github.com/quorumtrade/boardroom/internal/display"
	"github.com/quorumtrade/boardroom/internal/ledger"
	"github.com/quorumtrade/boardroom/internal/models"
)

const dateFormat = "2006-01-02"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "boardroom",
		Short: "Boardroom - multi-agent equity analysis",
		Long: `Boardroom convenes three analyst agents, a risk manager, and a chairperson
to produce a BUY/SELL/HOLD verdict for a ticker, backtest the underlying
scoring strategy, and track paper trades.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.EnsureDirectories()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker, err := PromptForTicker()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, ticker, "", true)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newCompareCmd(cfg))
	rootCmd.AddCommand(newBacktestCmd(cfg))
	rootCmd.AddCommand(newPaperCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run the full analysis pipeline for one ticker",
		Long: `Run the fundamental, sentiment, and technical analysts concurrently, gate
the result through the risk manager, and print the chairperson's verdict.
Example: boardroom analyze AAPL --account my-account`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, _ := cmd.Flags().GetString("account")
			stream, _ := cmd.Flags().GetBool("stream")
			return runAnalyze(cmd.Context(), cfg, args[0], account, stream)
		},
	}
	cmd.Flags().String("account", "", "Paper account used for sector concentration checks")
	cmd.Flags().Bool("stream", true, "Print agent progress as it happens")
	return cmd
}

func runAnalyze(ctx context.Context, cfg *config.Config, ticker, accountID string, stream bool) error {
	rt, err := newRuntime(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := boardroom.Request{
		Ticker:                ticker,
		PortfolioSectorWeight: rt.sectorWeight(ctx, accountID, ticker),
	}

	if !stream {
		outcome, err := rt.orch.Run(ctx, req)
		if err != nil {
			return err
		}
		display.RenderOutcome(outcome)
		return nil
	}

	events, errs := rt.orch.RunStream(ctx, req)
	for ev := range events {
		display.RenderEvent(ev)
	}
	return <-errs
}

func newCompareCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare SYMBOL SYMBOL [SYMBOL...]",
		Short: "Compare 2 to 4 tickers and rank the best pick",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			account, _ := cmd.Flags().GetString("account")
			weights := make(map[string]float64, len(args))
			for _, ticker := range args {
				weights[ticker] = rt.sectorWeight(ctx, account, ticker)
			}

			cmp, err := rt.orch.Compare(ctx, rt.provider, args, weights)
			if err != nil {
				return err
			}
			display.RenderComparison(cmp)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Paper account used for sector concentration checks")
	return cmd
}

func newBacktestCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest SYMBOL",
		Short: "Replay the scoring strategy over historical prices",
		Long: `Backtest the weighted scoring strategy over a date range and store the
result. Example: boardroom backtest AAPL --start 2024-01-02 --end 2024-12-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd, cfg, args[0])
		},
	}
	cmd.Flags().String("start", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().Float64("capital", 10000, "Initial capital")
	cmd.Flags().String("frequency", "daily", "Decision frequency: daily or weekly")
	cmd.Flags().Float64("position-size", 0.5, "Fraction of cash committed per BUY")
	cmd.Flags().Float64("stop-loss", 0, "Stop-loss fraction, 0 disables")
	cmd.Flags().Float64("take-profit", 0, "Take-profit fraction, 0 disables")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func runBacktest(cmd *cobra.Command, cfg *config.Config, ticker string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	start, err := time.Parse(dateFormat, startStr)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(dateFormat, endStr)
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}

	capital, _ := cmd.Flags().GetFloat64("capital")
	frequency, _ := cmd.Flags().GetString("frequency")
	positionSize, _ := cmd.Flags().GetFloat64("position-size")
	stopLoss, _ := cmd.Flags().GetFloat64("stop-loss")
	takeProfit, _ := cmd.Flags().GetFloat64("take-profit")

	strategy := models.DefaultStrategy("cli")
	if stopLoss > 0 {
		strategy.StopLossPct = &stopLoss
	}
	if takeProfit > 0 {
		strategy.TakeProfitPct = &takeProfit
	}

	// Fetch enough history to seed the trailing score window before the
	// range starts, then persist it so the paper ledger can price against
	// the same data.
	days := int(time.Since(start).Hours()/24) + 365
	bars, err := rt.market.GetPriceHistory(ctx, ticker, days)
	if err != nil {
		return fmt.Errorf("price history: %w", err)
	}
	if err := rt.store.UpsertPrices(ctx, bars); err != nil {
		return fmt.Errorf("store prices: %w", err)
	}

	var snapshots []models.FundamentalSnapshot
	if snapshot, err := rt.finnhub.GetFundamentals(ctx, ticker); err == nil && snapshot != nil {
		snapshots = append(snapshots, *snapshot)
		if err := rt.store.UpsertFundamentals(ctx, snapshots); err != nil {
			return fmt.Errorf("store fundamentals: %w", err)
		}
	}
	if stored, err := rt.store.GetFundamentals(ctx, ticker); err == nil && len(stored) > 0 {
		snapshots = stored
	}

	result, err := backtest.Run(backtest.Config{
		Ticker:          ticker,
		Strategy:        strategy,
		StartDate:       start,
		EndDate:         end,
		InitialCapital:  capital,
		Frequency:       backtest.Frequency(frequency),
		PositionSizePct: positionSize,
	}, bars, snapshots)
	if err != nil {
		return err
	}

	if err := rt.store.SaveBacktestResult(ctx, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	display.RenderBacktest(result)
	return nil
}

func newPaperCmd(cfg *config.Config) *cobra.Command {
	paperCmd := &cobra.Command{
		Use:   "paper",
		Short: "Paper-trading accounts and trades",
	}

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a paper account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			capital, _ := cmd.Flags().GetFloat64("capital")
			balance := decimal.NewFromFloat(capital)
			account := &models.Account{
				Name:           args[0],
				CashBalance:    balance,
				InitialBalance: balance,
			}
			if err := rt.store.CreateAccount(ctx, account); err != nil {
				return err
			}
			fmt.Printf("Created account %s (%s) with %s cash\n",
				account.Name, account.ID, balance.StringFixed(2))
			return nil
		},
	}
	createCmd.Flags().Float64("capital", 100000, "Starting cash balance")

	tradeCmd := &cobra.Command{
		Use:   "trade SYMBOL",
		Short: "Execute a paper trade",
		Long: `Buy or sell at the latest stored price, or at --price when given.
Example: boardroom paper trade AAPL --account ID --side BUY --quantity 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			accountID, _ := cmd.Flags().GetString("account")
			side, _ := cmd.Flags().GetString("side")
			quantity, _ := cmd.Flags().GetFloat64("quantity")
			price, _ := cmd.Flags().GetFloat64("price")

			req := ledger.TradeRequest{
				AccountID: accountID,
				Ticker:    args[0],
				Action:    models.Action(side),
				Quantity:  decimal.NewFromFloat(quantity),
			}
			if price > 0 {
				p := decimal.NewFromFloat(price)
				req.Price = &p
			}

			trade, err := rt.ledger.ExecuteTrade(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s @ %s (total %s)\n",
				trade.Type, trade.Quantity.String(), trade.Ticker,
				trade.Price.StringFixed(2), trade.TotalValue.StringFixed(2))
			return nil
		},
	}
	tradeCmd.Flags().String("account", "", "Account ID")
	tradeCmd.Flags().String("side", "BUY", "BUY or SELL")
	tradeCmd.Flags().Float64("quantity", 0, "Share quantity")
	tradeCmd.Flags().Float64("price", 0, "Execution price, latest stored price when omitted")
	tradeCmd.MarkFlagRequired("account")
	tradeCmd.MarkFlagRequired("quantity")

	perfCmd := &cobra.Command{
		Use:   "performance",
		Short: "Show an account's realized performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			accountID, _ := cmd.Flags().GetString("account")
			account, err := rt.store.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			positions, err := rt.store.ListPositions(ctx, accountID)
			if err != nil {
				return err
			}
			perf, err := rt.ledger.Performance(ctx, accountID)
			if err != nil {
				return err
			}
			display.RenderPerformance(account, positions, perf)
			return nil
		},
	}
	perfCmd.Flags().String("account", "", "Account ID")
	perfCmd.MarkFlagRequired("account")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List paper accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			accounts, err := rt.store.ListAccounts(ctx)
			if err != nil {
				return err
			}
			for _, a := range accounts {
				fmt.Printf("%s  %-20s cash %s\n", a.ID, a.Name, a.CashBalance.StringFixed(2))
			}
			return nil
		},
	}

	paperCmd.AddCommand(createCmd, tradeCmd, perfCmd, listCmd)
	return paperCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Boardroom v0.1.0")
			fmt.Println("Multi-agent equity analysis")
		},
	}
}
