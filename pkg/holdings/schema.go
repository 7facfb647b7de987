package holdings

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the holdings database.
const Schema = `
CREATE TABLE IF NOT EXISTS funds (
    symbol TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    expense_ratio REAL NOT NULL DEFAULT 0,
    last_updated TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fund_symbol TEXT NOT NULL REFERENCES funds(symbol) ON DELETE CASCADE,
    ticker TEXT NOT NULL,
    company_name TEXT NOT NULL,
    percentage REAL NOT NULL DEFAULT 0,
    market_value REAL NOT NULL DEFAULT 0,
    shares INTEGER NOT NULL DEFAULT 0,
    sector TEXT NOT NULL DEFAULT '',
    country TEXT NOT NULL DEFAULT '',
    last_updated TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_holdings_ticker ON holdings(ticker);
CREATE INDEX IF NOT EXISTS idx_holdings_fund ON holdings(fund_symbol, percentage DESC);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const (
	sqlInsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`
	sqlGetSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	sqlSelectMatch = `
		SELECT h.fund_symbol, f.name AS fund_name, h.ticker, h.company_name,
		       h.percentage, h.market_value, h.shares, h.sector, h.country
		FROM holdings h
		JOIN funds f ON f.symbol = h.fund_symbol`

	sqlSearch = sqlSelectMatch + `
		WHERE h.ticker = ? OR h.company_name LIKE ? ESCAPE '\'
		ORDER BY h.percentage DESC`

	sqlSearchInFund = sqlSelectMatch + `
		WHERE h.fund_symbol = ? AND (h.ticker = ? OR h.company_name LIKE ? ESCAPE '\')
		ORDER BY h.percentage DESC`

	sqlListFunds = `
		SELECT f.symbol, f.name, f.description, f.expense_ratio, f.last_updated,
		       COUNT(h.id) AS holdings_count
		FROM funds f
		LEFT JOIN holdings h ON h.fund_symbol = f.symbol
		GROUP BY f.symbol
		ORDER BY f.symbol`

	sqlFundName = `SELECT name FROM funds WHERE symbol = ?`

	sqlHoldings = `
		SELECT ticker, company_name, percentage, market_value, shares, sector, country
		FROM holdings
		WHERE fund_symbol = ?
		ORDER BY percentage DESC`

	sqlFundsContaining = `
		SELECT h.fund_symbol, f.name AS fund_name, h.percentage, h.shares, h.market_value
		FROM holdings h
		JOIN funds f ON f.symbol = h.fund_symbol
		WHERE h.ticker = ?
		ORDER BY h.percentage DESC`

	sqlCountTickers = `SELECT COUNT(DISTINCT ticker) FROM holdings`
	sqlCountFunds   = `SELECT COUNT(*) FROM funds`
	sqlLatestUpdate = `SELECT last_updated FROM funds ORDER BY last_updated DESC LIMIT 1`
	sqlFundCounts   = `
		SELECT f.symbol, f.name, COUNT(h.id) AS holdings_count
		FROM funds f
		LEFT JOIN holdings h ON h.fund_symbol = f.symbol
		GROUP BY f.symbol
		ORDER BY f.symbol`

	sqlUpsertFund = `
		INSERT INTO funds (symbol, name, description, expense_ratio, last_updated)
		VALUES (:symbol, :name, :description, :expense_ratio, :last_updated)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expense_ratio = excluded.expense_ratio,
			last_updated = excluded.last_updated`

	sqlDeleteHoldings = `DELETE FROM holdings WHERE fund_symbol = ?`

	sqlInsertHolding = `
		INSERT INTO holdings (fund_symbol, ticker, company_name, percentage, market_value,
		                      shares, sector, country, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlTouchFund = `UPDATE funds SET last_updated = ? WHERE symbol = ?`
)
