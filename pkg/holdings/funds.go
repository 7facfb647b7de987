package holdings

import (
	"sort"
	"strings"
)

// Fund describes a fund the scraper knows how to fetch.
type Fund struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`
	Name           string  `json:"name" yaml:"name"`
	Description    string  `json:"description" yaml:"description"`
	ExpenseRatio   float64 `json:"expense_ratio" yaml:"expense_ratio"`
	URL            string  `json:"url" yaml:"url"`
	ApproxHoldings int     `json:"holdings_count" yaml:"holdings_count"`
}

// SupportedFunds lists the Vanguard funds with holdings pages the scraper
// can parse.
var SupportedFunds = map[string]Fund{
	"VTSAX": {
		Symbol:         "VTSAX",
		Name:           "Vanguard Total Stock Market Index Fund Admiral",
		Description:    "Total US Stock Market",
		ExpenseRatio:   0.04,
		URL:            "https://advisors.vanguard.com/investments/products/vtsax/vanguard-total-stock-market-index-fund-admiral-shares",
		ApproxHoldings: 3500,
	},
	"VOO": {
		Symbol:         "VOO",
		Name:           "Vanguard S&P 500 ETF",
		Description:    "S&P 500 Index",
		ExpenseRatio:   0.03,
		URL:            "https://advisors.vanguard.com/investments/products/voo/vanguard-sp-500-etf",
		ApproxHoldings: 500,
	},
	"VTI": {
		Symbol:         "VTI",
		Name:           "Vanguard Total Stock Market ETF",
		Description:    "Total US Stock Market ETF",
		ExpenseRatio:   0.03,
		URL:            "https://advisors.vanguard.com/investments/products/vti/vanguard-total-stock-market-etf",
		ApproxHoldings: 3500,
	},
	"VUG": {
		Symbol:         "VUG",
		Name:           "Vanguard Growth ETF",
		Description:    "Large-Cap Growth",
		ExpenseRatio:   0.04,
		URL:            "https://advisors.vanguard.com/investments/products/vug/vanguard-growth-etf",
		ApproxHoldings: 250,
	},
	"VTV": {
		Symbol:         "VTV",
		Name:           "Vanguard Value ETF",
		Description:    "Large-Cap Value",
		ExpenseRatio:   0.04,
		URL:            "https://advisors.vanguard.com/investments/products/vtv/vanguard-value-etf",
		ApproxHoldings: 350,
	},
}

// PopularTickers are pre-generated into snapshots so the most requested
// lookups survive rate limiting.
var PopularTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "BRK.B"}

// NormalizeSymbol upper-cases and trims a fund symbol or ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// LookupFund returns the supported fund for symbol, case-insensitively.
func LookupFund(symbol string) (Fund, bool) {
	f, ok := SupportedFunds[NormalizeSymbol(symbol)]
	return f, ok
}

// SupportedSymbols returns the supported fund symbols in sorted order.
func SupportedSymbols() []string {
	out := make([]string, 0, len(SupportedFunds))
	for s := range SupportedFunds {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// FundName returns the display name for symbol, or symbol itself.
func FundName(symbol string) string {
	if f, ok := LookupFund(symbol); ok {
		return f.Name
	}
	return NormalizeSymbol(symbol)
}
