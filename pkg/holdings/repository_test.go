package holdings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fundwatch-hq/fundwatch/pkg/clock"
)

var seedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRepo opens a temporary database seeded with two funds.
func createTestRepo(t *testing.T) *Repository {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "holdings.db")

	repo, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	repo.WithClock(clock.NewManual(seedTime))

	ctx := context.Background()
	for _, sym := range []string{"VOO", "VUG"} {
		f := SupportedFunds[sym]
		if err := repo.UpsertFund(ctx, FundSummary{
			Symbol:       f.Symbol,
			Name:         f.Name,
			Description:  f.Description,
			ExpenseRatio: f.ExpenseRatio,
		}); err != nil {
			t.Fatalf("UpsertFund(%s) failed: %v", sym, err)
		}
	}

	if _, err := repo.ReplaceHoldings(ctx, "VOO", []Holding{
		{Ticker: "AAPL", CompanyName: "Apple Inc.", Percentage: 7.1, MarketValue: 1000, Shares: 10},
		{Ticker: "MSFT", CompanyName: "Microsoft Corp.", Percentage: 6.5, MarketValue: 900, Shares: 9},
		{Ticker: "AMZN", CompanyName: "Amazon.com Inc.", Percentage: 3.4, MarketValue: 500, Shares: 5},
		{Ticker: "", CompanyName: "Cash", Percentage: 0.1},
	}); err != nil {
		t.Fatalf("ReplaceHoldings(VOO) failed: %v", err)
	}
	if _, err := repo.ReplaceHoldings(ctx, "vug", []Holding{
		{Ticker: "aapl", CompanyName: "Apple Inc.", Percentage: 12.0, MarketValue: 2000, Shares: 20},
		{Ticker: "NVDA", CompanyName: "NVIDIA Corp.", Percentage: 10.0, MarketValue: 1800, Shares: 18},
	}); err != nil {
		t.Fatalf("ReplaceHoldings(VUG) failed: %v", err)
	}

	return repo
}

func TestRepository_Search(t *testing.T) {
	repo := createTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		wantFound bool
		wantFunds int
	}{
		{"ticker across funds", "aapl", true, 2},
		{"company name", "micro", true, 1},
		{"no match", "ZZZZ", false, 0},
		{"wildcards are literal", "%", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if res.Found != tt.wantFound {
				t.Errorf("Expected found=%v, got %v", tt.wantFound, res.Found)
			}
			if res.TotalFunds != tt.wantFunds {
				t.Errorf("Expected %d funds, got %d", tt.wantFunds, res.TotalFunds)
			}
		})
	}
}

func TestRepository_SearchOrdersByPercentage(t *testing.T) {
	repo := createTestRepo(t)

	res, err := repo.Search(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Funds[0].FundSymbol != "VUG" {
		t.Errorf("Expected largest position (VUG) first, got %s", res.Funds[0].FundSymbol)
	}
	if res.Funds[0].FundName != SupportedFunds["VUG"].Name {
		t.Errorf("Expected fund name from funds table, got %q", res.Funds[0].FundName)
	}
}

func TestRepository_SearchInFund(t *testing.T) {
	repo := createTestRepo(t)

	res, err := repo.SearchInFund(context.Background(), "apple", "voo")
	if err != nil {
		t.Fatalf("SearchInFund failed: %v", err)
	}
	if res.TotalFunds != 1 || res.Funds[0].FundSymbol != "VOO" {
		t.Errorf("Expected only VOO, got %+v", res.Funds)
	}
}

func TestRepository_SearchEmptyQuery(t *testing.T) {
	repo := createTestRepo(t)

	if _, err := repo.Search(context.Background(), "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestRepository_TopHoldings(t *testing.T) {
	repo := createTestRepo(t)
	ctx := context.Background()

	top, err := repo.TopHoldings(ctx, "voo", 2)
	if err != nil {
		t.Fatalf("TopHoldings failed: %v", err)
	}
	if top.Count != 2 {
		t.Fatalf("Expected 2 holdings, got %d", top.Count)
	}
	if top.Holdings[0].Ticker != "AAPL" || top.Holdings[0].Rank != 1 {
		t.Errorf("Expected AAPL ranked 1, got %+v", top.Holdings[0])
	}
	if top.Holdings[1].Rank != 2 {
		t.Errorf("Expected rank 2, got %d", top.Holdings[1].Rank)
	}

	// Supported but not scraped yet.
	empty, err := repo.TopHoldings(ctx, "VTV", 10)
	if err != nil {
		t.Fatalf("TopHoldings(VTV) failed: %v", err)
	}
	if empty.Count != 0 || empty.FundName != SupportedFunds["VTV"].Name {
		t.Errorf("Expected empty VTV with configured name, got %+v", empty)
	}

	if _, err := repo.TopHoldings(ctx, "SPY", 10); !errors.Is(err, ErrUnknownFund) {
		t.Errorf("Expected ErrUnknownFund, got %v", err)
	}
}

func TestRepository_FundsContaining(t *testing.T) {
	repo := createTestRepo(t)
	ctx := context.Background()

	res, err := repo.FundsContaining(ctx, "aapl")
	if err != nil {
		t.Fatalf("FundsContaining failed: %v", err)
	}
	if !res.Found || res.TotalFunds != 2 || res.Ticker != "AAPL" {
		t.Errorf("Expected AAPL in 2 funds, got %+v", res)
	}

	missing, err := repo.FundsContaining(ctx, "ZZZZ")
	if err != nil {
		t.Fatalf("FundsContaining failed: %v", err)
	}
	if missing.Found || missing.Message == "" {
		t.Errorf("Expected not found with message, got %+v", missing)
	}
}

func TestRepository_ListFundsAndStats(t *testing.T) {
	repo := createTestRepo(t)
	ctx := context.Background()

	list, err := repo.ListFunds(ctx)
	if err != nil {
		t.Fatalf("ListFunds failed: %v", err)
	}
	if len(list.Funds) != 2 {
		t.Fatalf("Expected 2 funds, got %d", len(list.Funds))
	}
	if list.Funds[0].Symbol != "VOO" || list.Funds[0].HoldingsCount != 3 {
		t.Errorf("Expected VOO with 3 holdings, got %+v", list.Funds[0])
	}
	if !list.Funds[0].LastUpdated.Equal(seedTime) {
		t.Errorf("Expected last updated %v, got %v", seedTime, list.Funds[0].LastUpdated)
	}
	if len(list.Supported) != len(SupportedFunds) {
		t.Errorf("Expected supported funds listed, got %d", len(list.Supported))
	}

	st, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.TotalHoldings != 4 {
		t.Errorf("Expected 4 distinct tickers, got %d", st.TotalHoldings)
	}
	if st.TotalFunds != 2 {
		t.Errorf("Expected 2 funds, got %d", st.TotalFunds)
	}
	if st.LastUpdated == nil || !st.LastUpdated.Equal(seedTime) {
		t.Errorf("Expected last updated %v, got %v", seedTime, st.LastUpdated)
	}
	if len(st.FundDetails) != 2 {
		t.Errorf("Expected 2 fund details, got %d", len(st.FundDetails))
	}
}

func TestRepository_ReplaceHoldings(t *testing.T) {
	repo := createTestRepo(t)
	ctx := context.Background()

	n, err := repo.ReplaceHoldings(ctx, "VOO", []Holding{
		{Ticker: "GOOGL", CompanyName: "Alphabet Inc.", Percentage: 4},
	})
	if err != nil {
		t.Fatalf("ReplaceHoldings failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 stored, got %d", n)
	}

	all, err := repo.Holdings(ctx, "VOO")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}
	if len(all) != 1 || all[0].Ticker != "GOOGL" {
		t.Errorf("Expected holdings replaced wholesale, got %+v", all)
	}

	if _, err := repo.ReplaceHoldings(ctx, "QQQ", nil); !errors.Is(err, ErrUnknownFund) {
		t.Errorf("Expected ErrUnknownFund, got %v", err)
	}
}

func TestRepository_Ping(t *testing.T) {
	repo := createTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
