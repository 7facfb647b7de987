package holdings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"fundwatch-hq/fundwatch/pkg/clock"
)

// Config configures the holdings database.
type Config struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging so readers never block the scraper.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default database configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/index_funds.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// Repository reads and writes fund holdings.
type Repository struct {
	db     *sqlx.DB
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens (and if needed creates) the holdings database.
func Open(cfg *Config) (*Repository, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	r := &Repository{
		db:     db,
		clock:  clock.System(),
		logger: slog.Default().With("component", "holdings"),
	}

	if err := r.initialize(cfg.WALMode); err != nil {
		db.Close()
		return nil, err
	}

	r.logger.Info("holdings database opened",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
	)

	return r, nil
}

// WithClock returns r using c for update timestamps.
func (r *Repository) WithClock(c clock.Clock) *Repository {
	r.clock = clock.OrSystem(c)
	return r
}

func (r *Repository) initialize(wal bool) error {
	if wal {
		if _, err := r.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := r.db.Exec(Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := r.db.Exec(sqlInsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}

	var version int
	if err := r.db.Get(&version, sqlGetSchemaVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type matchRow struct {
	FundSymbol string `db:"fund_symbol"`
	FundName   string `db:"fund_name"`
	Holding
}

// Search finds holdings across all funds whose ticker equals query or whose
// company name contains it. Results are grouped by fund, largest positions
// first.
func (r *Repository) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var rows []matchRow
	err := r.db.SelectContext(ctx, &rows, sqlSearch, NormalizeSymbol(query), likePattern(query))
	if err != nil {
		return nil, fmt.Errorf("search holdings: %w", err)
	}

	return groupMatches(query, rows), nil
}

// SearchInFund is Search restricted to one fund.
func (r *Repository) SearchInFund(ctx context.Context, query, fund string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var rows []matchRow
	err := r.db.SelectContext(ctx, &rows, sqlSearchInFund,
		NormalizeSymbol(fund), NormalizeSymbol(query), likePattern(query))
	if err != nil {
		return nil, fmt.Errorf("search holdings in %s: %w", fund, err)
	}

	return groupMatches(query, rows), nil
}

// ListFunds returns every stored fund with its holdings count.
func (r *Repository) ListFunds(ctx context.Context) (*FundList, error) {
	funds := []FundSummary{}
	if err := r.db.SelectContext(ctx, &funds, sqlListFunds); err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	return &FundList{Funds: funds, Supported: SupportedFunds}, nil
}

// Holdings returns all of a fund's holdings, largest first.
func (r *Repository) Holdings(ctx context.Context, fund string) ([]Holding, error) {
	hs := []Holding{}
	if err := r.db.SelectContext(ctx, &hs, sqlHoldings, NormalizeSymbol(fund)); err != nil {
		return nil, fmt.Errorf("list holdings of %s: %w", fund, err)
	}
	return hs, nil
}

// TopHoldings returns a fund's limit largest holdings ranked from 1.
// Unknown funds that are not supported return ErrUnknownFund.
func (r *Repository) TopHoldings(ctx context.Context, fund string, limit int) (*TopHoldings, error) {
	fund = NormalizeSymbol(fund)

	name, err := r.fundName(ctx, fund)
	if err != nil {
		return nil, err
	}

	hs := []Holding{}
	if err := r.db.SelectContext(ctx, &hs, sqlHoldings+"\n\t\tLIMIT ?", fund, limit); err != nil {
		return nil, fmt.Errorf("top holdings of %s: %w", fund, err)
	}
	for i := range hs {
		hs[i].Rank = i + 1
	}

	return &TopHoldings{
		FundSymbol: fund,
		FundName:   name,
		Count:      len(hs),
		Holdings:   hs,
	}, nil
}

// FundsContaining lists the funds that hold ticker.
func (r *Repository) FundsContaining(ctx context.Context, ticker string) (*StockFunds, error) {
	ticker = NormalizeSymbol(ticker)

	positions := []FundPosition{}
	if err := r.db.SelectContext(ctx, &positions, sqlFundsContaining, ticker); err != nil {
		return nil, fmt.Errorf("funds containing %s: %w", ticker, err)
	}

	res := &StockFunds{
		Found:      len(positions) > 0,
		Ticker:     ticker,
		Funds:      positions,
		TotalFunds: len(positions),
	}
	if !res.Found {
		res.Message = fmt.Sprintf("%s not found in any tracked funds", ticker)
	}
	return res, nil
}

// Stats summarizes the stored data.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{FundDetails: []FundCount{}}

	if err := r.db.GetContext(ctx, &st.TotalHoldings, sqlCountTickers); err != nil {
		return nil, fmt.Errorf("count tickers: %w", err)
	}
	if err := r.db.GetContext(ctx, &st.TotalFunds, sqlCountFunds); err != nil {
		return nil, fmt.Errorf("count funds: %w", err)
	}

	var latest time.Time
	err := r.db.GetContext(ctx, &latest, sqlLatestUpdate)
	switch {
	case err == nil:
		st.LastUpdated = &latest
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("latest update: %w", err)
	}

	if err := r.db.SelectContext(ctx, &st.FundDetails, sqlFundCounts); err != nil {
		return nil, fmt.Errorf("fund counts: %w", err)
	}

	return st, nil
}

// UpsertFund inserts or updates a fund row. A zero LastUpdated is set to now.
func (r *Repository) UpsertFund(ctx context.Context, f FundSummary) error {
	f.Symbol = NormalizeSymbol(f.Symbol)
	if f.Symbol == "" {
		return errors.New("fund symbol cannot be empty")
	}
	if f.LastUpdated.IsZero() {
		f.LastUpdated = r.clock.Now()
	}
	f.LastUpdated = f.LastUpdated.UTC()

	if _, err := r.db.NamedExecContext(ctx, sqlUpsertFund, f); err != nil {
		return fmt.Errorf("upsert fund %s: %w", f.Symbol, err)
	}
	return nil
}

// ReplaceHoldings swaps all of a fund's holdings in one transaction. Rows
// without a ticker or company name are skipped. It returns the number of
// rows stored.
func (r *Repository) ReplaceHoldings(ctx context.Context, fund string, hs []Holding) (int, error) {
	fund = NormalizeSymbol(fund)

	var exists string
	if err := r.db.GetContext(ctx, &exists, sqlFundName, fund); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownFund, fund)
		}
		return 0, fmt.Errorf("lookup fund %s: %w", fund, err)
	}

	now := r.clock.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqlDeleteHoldings, fund); err != nil {
		return 0, fmt.Errorf("delete holdings of %s: %w", fund, err)
	}

	stmt, err := tx.PreparexContext(ctx, sqlInsertHolding)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, h := range hs {
		ticker := NormalizeSymbol(h.Ticker)
		if ticker == "" || strings.TrimSpace(h.CompanyName) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			fund, ticker, strings.TrimSpace(h.CompanyName), h.Percentage, h.MarketValue,
			h.Shares, h.Sector, h.Country, now,
		); err != nil {
			return 0, fmt.Errorf("insert holding %s/%s: %w", fund, ticker, err)
		}
		stored++
	}

	if _, err := tx.ExecContext(ctx, sqlTouchFund, now, fund); err != nil {
		return 0, fmt.Errorf("touch fund %s: %w", fund, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit holdings of %s: %w", fund, err)
	}

	r.logger.Info("holdings replaced", "fund", fund, "count", stored)
	return stored, nil
}

func (r *Repository) fundName(ctx context.Context, fund string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, sqlFundName, fund)
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, sql.ErrNoRows):
		if f, ok := LookupFund(fund); ok {
			return f.Name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownFund, fund)
	default:
		return "", fmt.Errorf("lookup fund %s: %w", fund, err)
	}
}

// groupMatches groups rows by fund, keeping the order funds first appear.
func groupMatches(query string, rows []matchRow) *SearchResult {
	res := &SearchResult{Query: query}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.FundSymbol]
		if !ok {
			i = len(res.Funds)
			index[row.FundSymbol] = i
			res.Funds = append(res.Funds, FundMatches{
				FundSymbol: row.FundSymbol,
				FundName:   row.FundName,
			})
		}
		res.Funds[i].Holdings = append(res.Funds[i].Holdings, row.Holding)
	}

	res.TotalFunds = len(res.Funds)
	res.Found = res.TotalFunds > 0
	if !res.Found {
		res.Message = fmt.Sprintf("No holdings found for %q", query)
	}
	return res
}

// likePattern builds a LIKE pattern matching query anywhere, with LIKE
// wildcards in query escaped.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
