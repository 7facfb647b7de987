package holdings

import (
	"errors"
	"time"
)

// FundSummary is a fund row with its holdings count.
type FundSummary struct {
	Symbol        string    `db:"symbol" json:"fund_symbol"`
	Name          string    `db:"name" json:"fund_name"`
	Description   string    `db:"description" json:"description"`
	ExpenseRatio  float64   `db:"expense_ratio" json:"expense_ratio"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
	HoldingsCount int       `db:"holdings_count" json:"holdings_count"`
}

// Holding is one position of a fund.
type Holding struct {
	Ticker      string  `db:"ticker" json:"ticker"`
	CompanyName string  `db:"company_name" json:"company_name"`
	Percentage  float64 `db:"percentage" json:"percentage"`
	MarketValue float64 `db:"market_value" json:"market_value"`
	Shares      int64   `db:"shares" json:"shares"`
	Sector      string  `db:"sector" json:"sector,omitempty"`
	Country     string  `db:"country" json:"country,omitempty"`
	Rank        int     `db:"-" json:"rank,omitempty"`
}

// FundMatches groups the holdings of one fund that matched a search.
type FundMatches struct {
	FundSymbol string    `json:"fund_symbol"`
	FundName   string    `json:"fund_name"`
	Holdings   []Holding `json:"holdings"`
}

// SearchResult is the response of Search and SearchInFund.
type SearchResult struct {
	Found      bool          `json:"found"`
	Query      string        `json:"query"`
	Funds      []FundMatches `json:"funds,omitempty"`
	TotalFunds int           `json:"total_funds"`
	Message    string        `json:"message,omitempty"`
}

// FundList is the response of the fund listing.
type FundList struct {
	Funds     []FundSummary   `json:"funds"`
	Supported map[string]Fund `json:"supported_funds"`
}

// TopHoldings is a fund's largest positions, ranked from 1.
type TopHoldings struct {
	FundSymbol string    `json:"fund_symbol"`
	FundName   string    `json:"fund_name"`
	Count      int       `json:"count"`
	Holdings   []Holding `json:"holdings"`
}

// FundPosition is a ticker's position within one fund.
type FundPosition struct {
	FundSymbol  string  `db:"fund_symbol" json:"fund_symbol"`
	FundName    string  `db:"fund_name" json:"fund_name"`
	Percentage  float64 `db:"percentage" json:"percentage"`
	Shares      int64   `db:"shares" json:"shares"`
	MarketValue float64 `db:"market_value" json:"market_value"`
}

// StockFunds lists the funds holding a ticker.
type StockFunds struct {
	Found      bool           `json:"found"`
	Ticker     string         `json:"ticker"`
	Funds      []FundPosition `json:"funds,omitempty"`
	TotalFunds int            `json:"total_funds"`
	Message    string         `json:"message,omitempty"`
}

// FundCount is the number of holdings stored for a fund.
type FundCount struct {
	FundSymbol    string `db:"symbol" json:"fund_symbol"`
	FundName      string `db:"name" json:"fund_name"`
	HoldingsCount int    `db:"holdings_count" json:"holdings_count"`
}

// Stats summarizes the database.
type Stats struct {
	TotalHoldings int         `json:"total_holdings"`
	TotalFunds    int         `json:"total_funds"`
	LastUpdated   *time.Time  `json:"last_updated"`
	FundDetails   []FundCount `json:"fund_details"`
}

var (
	// ErrUnknownFund is returned for fund symbols that are not stored.
	ErrUnknownFund = errors.New("unknown fund")

	// ErrEmptyQuery is returned when a search has no query.
	ErrEmptyQuery = errors.New("search query cannot be empty")
)
