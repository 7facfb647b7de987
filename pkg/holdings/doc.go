// Package holdings is the data-access layer for scraped fund holdings.
//
// Holdings are stored in SQLite (github.com/mattn/go-sqlite3) and queried
// through github.com/jmoiron/sqlx. The database is filled by an external
// scraper through UpsertFund and ReplaceHoldings; the web layer only reads.
//
// # Payload
//
// Every API response is wrapped in a Payload so that a single cache, a
// single snapshot decoder and a single gate can serve all endpoints:
//
//	res, err := repo.FundsContaining(ctx, "AAPL")
//	p := holdings.Payload{Kind: holdings.KindStock, Stock: res}
//
// # Keys
//
// Cache and snapshot keys are built with SearchKey, TopKey, StockKey,
// FundsKey and StatsKey so the web layer and the snapshot generator always
// agree on them.
package holdings
