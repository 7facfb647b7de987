package holdings

import (
	"fmt"
	"strings"
)

const (
	// FundsKey caches the fund list.
	FundsKey = "funds"

	// StatsKey caches database statistics.
	StatsKey = "stats"
)

// SearchKey returns the cache key for a search, optionally scoped to a fund.
func SearchKey(query, fund string) string {
	key := "search:" + strings.ToLower(strings.TrimSpace(query))
	if fund = NormalizeSymbol(fund); fund != "" {
		key += ":" + fund
	}
	return key
}

// TopKey returns the cache key for a fund's top n holdings.
func TopKey(fund string, n int) string {
	return fmt.Sprintf("top:%s:%d", NormalizeSymbol(fund), n)
}

// StockKey returns the cache key for the funds holding ticker.
func StockKey(ticker string) string {
	return "stock:" + NormalizeSymbol(ticker)
}
