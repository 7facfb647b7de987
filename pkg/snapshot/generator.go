package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fundwatch-hq/fundwatch/pkg/clock"
	"fundwatch-hq/fundwatch/pkg/holdings"
)

// Keys of the aggregate snapshots. Per-fund files are <FUND>_holdings and
// <FUND>_top20.
const (
	ManifestKey    = "manifest"
	TickerIndexKey = "ticker_funds_index"
	PopularKey     = "popular_multi"
	StatsMultiKey  = "stats_multi"
	Top10Key       = "top10"
)

// Source is the data the generator reads. *holdings.Repository satisfies it.
type Source interface {
	ListFunds(ctx context.Context) (*holdings.FundList, error)
	Holdings(ctx context.Context, fund string) ([]holdings.Holding, error)
	TopHoldings(ctx context.Context, fund string, limit int) (*holdings.TopHoldings, error)
	FundsContaining(ctx context.Context, ticker string) (*holdings.StockFunds, error)
	Search(ctx context.Context, query string) (*holdings.SearchResult, error)
	Stats(ctx context.Context) (*holdings.Stats, error)
}

var _ Source = (*holdings.Repository)(nil)

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	// TopSizes are the top-N lists generated per fund.
	// Default: 10, 20
	TopSizes []int

	// Tickers get stock and search snapshots.
	// Default: holdings.PopularTickers
	Tickers []string

	// AllTickers adds a stock snapshot for every held ticker.
	AllTickers bool

	// Clock stamps GeneratedAt. Default: system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Manifest describes a generation.
type Manifest struct {
	GeneratedAt       time.Time `json:"generated_at"`
	TotalFunds        int       `json:"total_funds"`
	TotalUniqueStocks int       `json:"total_unique_stocks"`
	Keys              []string  `json:"keys"`
}

// Generator builds the snapshot set from the holdings database. Snapshot
// values are holdings.Payload documents keyed like the response cache.
type Generator struct {
	source Source
	cfg    GeneratorConfig
	clock  clock.Clock
	logger *slog.Logger
}

// NewGenerator creates a generator reading from source.
func NewGenerator(source Source, cfg GeneratorConfig) *Generator {
	if len(cfg.TopSizes) == 0 {
		cfg.TopSizes = []int{10, 20}
	}
	if len(cfg.Tickers) == 0 {
		cfg.Tickers = holdings.PopularTickers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		source: source,
		cfg:    cfg,
		clock:  clock.OrSystem(cfg.Clock),
		logger: logger.With("component", "snapshot.generator"),
	}
}

// Generate builds every snapshot. Any query failure aborts the generation so
// that a partial set never replaces a complete one.
func (g *Generator) Generate(ctx context.Context) ([]Snapshot, error) {
	now := g.clock.Now()
	b := &builder{at: now}

	funds, err := g.source.ListFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	b.add(holdings.FundsKey, holdings.Payload{Kind: holdings.KindFunds, Funds: funds})

	stats, err := g.source.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	b.add(holdings.StatsKey, holdings.Payload{Kind: holdings.KindStats, Stats: stats})

	tickers := make(map[string]bool)
	for _, t := range g.cfg.Tickers {
		tickers[holdings.NormalizeSymbol(t)] = true
	}

	held := make(map[string]bool)
	index := make(map[string][]holdings.FundPosition)
	top10 := make(map[string]*holdings.TopHoldings, len(funds.Funds))

	for _, f := range funds.Funds {
		for _, n := range g.cfg.TopSizes {
			top, err := g.source.TopHoldings(ctx, f.Symbol, n)
			if err != nil {
				return nil, fmt.Errorf("top %d of %s: %w", n, f.Symbol, err)
			}
			b.add(holdings.TopKey(f.Symbol, n), holdings.Payload{Kind: holdings.KindTop, Top: top})
		}

		all, err := g.source.Holdings(ctx, f.Symbol)
		if err != nil {
			return nil, fmt.Errorf("holdings of %s: %w", f.Symbol, err)
		}
		for i := range all {
			h := &all[i]
			h.Rank = i + 1
			held[h.Ticker] = true
			if g.cfg.AllTickers {
				tickers[h.Ticker] = true
			}
			index[h.Ticker] = append(index[h.Ticker], holdings.FundPosition{
				FundSymbol:  f.Symbol,
				FundName:    f.Name,
				Percentage:  h.Percentage,
				Shares:      h.Shares,
				MarketValue: h.MarketValue,
			})
		}

		b.add(f.Symbol+"_holdings", ranked(f, all, len(all)))
		b.add(f.Symbol+"_top20", ranked(f, all, 20))
		top10[f.Symbol] = ranked(f, all, 10).Top
	}

	popular := make(map[string][]holdings.FundPosition)
	for _, t := range g.cfg.Tickers {
		t = holdings.NormalizeSymbol(t)
		if positions, ok := index[t]; ok {
			popular[t] = positions
		}
	}
	b.add(TickerIndexKey, index)
	b.add(PopularKey, popular)
	b.add(Top10Key, top10)
	b.add(StatsMultiKey, holdings.Payload{Kind: holdings.KindStats, Stats: stats})

	for _, t := range sortedKeys(tickers) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stock, err := g.source.FundsContaining(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("funds containing %s: %w", t, err)
		}
		if !stock.Found {
			continue
		}
		b.add(holdings.StockKey(t), holdings.Payload{Kind: holdings.KindStock, Stock: stock})

		search, err := g.source.Search(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", t, err)
		}
		b.add(holdings.SearchKey(t, ""), holdings.Payload{Kind: holdings.KindSearch, Search: search})
	}

	b.add(ManifestKey, Manifest{
		GeneratedAt:       now,
		TotalFunds:        len(funds.Funds),
		TotalUniqueStocks: len(held),
		Keys:              b.keys(),
	})

	if b.err != nil {
		return nil, b.err
	}

	g.logger.Info("snapshots generated",
		"count", len(b.out),
		"funds", len(funds.Funds),
		"tickers", len(held),
	)
	return b.out, nil
}

// Run generates snapshots and hands them to w. It returns the number of
// snapshots written.
func (g *Generator) Run(ctx context.Context, w Writer) (int, error) {
	snaps, err := g.Generate(ctx)
	if err != nil {
		return 0, err
	}
	if err := w.Replace(ctx, snaps); err != nil {
		return 0, fmt.Errorf("write snapshots: %w", err)
	}
	return len(snaps), nil
}

// ranked returns a top payload holding the first n of a fund's ranked
// holdings.
func ranked(f holdings.FundSummary, all []holdings.Holding, n int) holdings.Payload {
	if n > len(all) {
		n = len(all)
	}
	hs := make([]holdings.Holding, n)
	copy(hs, all[:n])
	return holdings.Payload{Kind: holdings.KindTop, Top: &holdings.TopHoldings{
		FundSymbol: f.Symbol,
		FundName:   f.Name,
		Count:      n,
		Holdings:   hs,
	}}
}

// builder accumulates snapshots and keeps the first encoding error.
type builder struct {
	at  time.Time
	out []Snapshot
	err error
}

func (b *builder) add(key string, v any) {
	if b.err != nil {
		return
	}
	snap, err := New(key, v, b.at)
	if err != nil {
		b.err = err
		return
	}
	b.out = append(b.out, snap)
}

func (b *builder) keys() []string {
	keys := make([]string, len(b.out))
	for i, s := range b.out {
		keys[i] = s.Key
	}
	return keys
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
