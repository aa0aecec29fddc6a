package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/boardroom/config"
	"github.com/quorumtrade/boardroom/internal/boardroom"
	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/ledger"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/storage/sqlite"
)

// runtime bundles the wired collaborators one command invocation needs.
type runtime struct {
	cfg     *config.Config
	store   *sqlite.Store
	market  dataflows.MarketDataProvider
	finnhub *dataflows.FinnhubClient
	search  *dataflows.SearchService
	ledger  *ledger.Ledger

	provider llm.Provider
	orch     *boardroom.Orchestrator
}

// newRuntime opens storage and builds the provider chain. The LLM and
// orchestrator are only wired when withLLM is set, so data-only commands run
// without model credentials.
func newRuntime(ctx context.Context, cfg *config.Config, withLLM bool) (*runtime, error) {
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	yahoo := dataflows.NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled)
	providers := []dataflows.MarketDataProvider{yahoo}
	if longport, err := dataflows.NewLongportClient(cfg); err != nil {
		log.Printf("longport provider unavailable: %v", err)
	} else {
		providers = append(providers, longport)
	}
	market := dataflows.NewFallbackChain(providers...)

	finnhub := dataflows.NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled)
	google := dataflows.NewGoogleNewsClient(cfg.DataCacheDir, cfg.CacheEnabled)
	search := dataflows.NewSearchService(finnhub, google)

	rt := &runtime{
		cfg:     cfg,
		store:   store,
		market:  market,
		finnhub: finnhub,
		search:  search,
		ledger:  ledger.New(store),
	}

	if withLLM {
		provider, err := llm.New(ctx, cfg)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init llm provider: %w", err)
		}
		rt.provider = provider
		rt.orch = boardroom.New(provider, market, finnhub, search)
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

// sectorWeight computes how much of the account's equity sits in the
// ticker's sector. Missing data degrades to 0 rather than failing the run.
func (rt *runtime) sectorWeight(ctx context.Context, accountID, ticker string) float64 {
	if accountID == "" {
		return 0
	}
	account, err := rt.store.GetAccount(ctx, accountID)
	if err != nil {
		log.Printf("sector weight: %v", err)
		return 0
	}
	positions, err := rt.store.ListPositions(ctx, accountID)
	if err != nil {
		log.Printf("sector weight: %v", err)
		return 0
	}

	target := rt.sectorOf(ctx, ticker)
	if target == "" {
		return 0
	}

	total := account.CashBalance
	inSector := decimal.Zero
	for _, p := range positions {
		value := p.Quantity.Mul(p.AvgEntryPrice)
		total = total.Add(value)
		if rt.sectorOf(ctx, p.Ticker) == target {
			inSector = inSector.Add(value)
		}
	}
	if !total.IsPositive() {
		return 0
	}
	weight, _ := inSector.Div(total).Float64()
	return weight
}

func (rt *runtime) sectorOf(ctx context.Context, ticker string) string {
	snapshot, err := rt.finnhub.GetFundamentals(ctx, ticker)
	if err != nil || snapshot == nil {
		return ""
	}
	return snapshot.Sector
}
