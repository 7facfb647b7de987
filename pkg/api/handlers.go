package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fundwatch-hq/fundwatch/pkg/holdings"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	fund := holdings.NormalizeSymbol(r.URL.Query().Get("fund"))
	if query == "" {
		writeError(w, http.StatusBadRequest, `Missing search query parameter "q"`)
		return
	}

	a.serveGated(w, r, holdings.SearchKey(query, fund), func(ctx context.Context) (holdings.Payload, error) {
		var (
			res *holdings.SearchResult
			err error
		)
		if fund != "" {
			res, err = a.source.SearchInFund(ctx, query, fund)
		} else {
			res, err = a.source.Search(ctx, query)
		}
		if err != nil {
			return holdings.Payload{}, err
		}
		return holdings.Payload{Kind: holdings.KindSearch, Search: res}, nil
	})
}

func (a *API) handleFunds(w http.ResponseWriter, r *http.Request) {
	a.serveGated(w, r, holdings.FundsKey, func(ctx context.Context) (holdings.Payload, error) {
		res, err := a.source.ListFunds(ctx)
		if err != nil {
			return holdings.Payload{}, err
		}
		return holdings.Payload{Kind: holdings.KindFunds, Funds: res}, nil
	})
}

// parseLimit reads the limit parameter: default 10, clamped to 1..100.
// Non-integers are rejected.
func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return defaultTopLimit, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return min(max(n, 1), maxTopLimit), true
}

func (a *API) handleTopHoldings(w http.ResponseWriter, r *http.Request) {
	fund := holdings.NormalizeSymbol(r.PathValue("fund"))
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	a.serveGated(w, r, holdings.TopKey(fund, limit), func(ctx context.Context) (holdings.Payload, error) {
		res, err := a.source.TopHoldings(ctx, fund, limit)
		if err != nil {
			return holdings.Payload{}, err
		}
		return holdings.Payload{Kind: holdings.KindTop, Top: res}, nil
	})
}

func (a *API) handleStockFunds(w http.ResponseWriter, r *http.Request) {
	ticker := holdings.NormalizeSymbol(r.PathValue("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "Missing ticker")
		return
	}

	a.serveGated(w, r, holdings.StockKey(ticker), func(ctx context.Context) (holdings.Payload, error) {
		res, err := a.source.FundsContaining(ctx, ticker)
		if err != nil {
			return holdings.Payload{}, err
		}
		return holdings.Payload{Kind: holdings.KindStock, Stock: res}, nil
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	a.serveGated(w, r, holdings.StatsKey, func(ctx context.Context) (holdings.Payload, error) {
		res, err := a.source.Stats(ctx)
		if err != nil {
			return holdings.Payload{}, err
		}
		return holdings.Payload{Kind: holdings.KindStats, Stats: res}, nil
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Fund Holdings API",
	})
}
