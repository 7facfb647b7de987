package holdings

import (
	"testing"
)

func TestPayload_Body(t *testing.T) {
	tests := []struct {
		name  string
		p     Payload
		valid bool
	}{
		{"search", Payload{Kind: KindSearch, Search: &SearchResult{}}, true},
		{"stats", Payload{Kind: KindStats, Stats: &Stats{}}, true},
		{"mismatch", Payload{Kind: KindTop, Stock: &StockFunds{}}, false},
		{"empty", Payload{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Valid(); got != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, got)
			}
		})
	}
}

func TestPayload_TruncateCopies(t *testing.T) {
	orig := Payload{Kind: KindTop, Top: &TopHoldings{
		FundSymbol: "VOO",
		Count:      3,
		Holdings:   []Holding{{Ticker: "A"}, {Ticker: "B"}, {Ticker: "C"}},
	}}

	got := orig.Truncate(2)
	if got.Top.Count != 2 || len(got.Top.Holdings) != 2 {
		t.Errorf("Expected 2 holdings, got %d/%d", got.Top.Count, len(got.Top.Holdings))
	}
	if orig.Top.Count != 3 || len(orig.Top.Holdings) != 3 {
		t.Error("Expected original payload untouched")
	}

	if same := orig.Truncate(0); same.Top != orig.Top {
		t.Error("Expected n <= 0 to return payload unchanged")
	}
}

func TestPayload_TruncateSearch(t *testing.T) {
	orig := Payload{Kind: KindSearch, Search: &SearchResult{
		Funds: []FundMatches{
			{FundSymbol: "VOO", Holdings: []Holding{{Ticker: "A"}, {Ticker: "B"}}},
			{FundSymbol: "VUG", Holdings: []Holding{{Ticker: "A"}}},
		},
	}}

	got := orig.Truncate(1)
	if len(got.Search.Funds[0].Holdings) != 1 {
		t.Errorf("Expected 1 holding, got %d", len(got.Search.Funds[0].Holdings))
	}
	if len(orig.Search.Funds[0].Holdings) != 2 {
		t.Error("Expected original search untouched")
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{SearchKey(" Apple ", ""), "search:apple"},
		{SearchKey("AAPL", "voo"), "search:aapl:VOO"},
		{TopKey("voo", 10), "top:VOO:10"},
		{StockKey("brk.b"), "stock:BRK.B"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestLookupFund(t *testing.T) {
	if _, ok := LookupFund("vtsax"); !ok {
		t.Error("Expected VTSAX to be supported")
	}
	if _, ok := LookupFund("SPY"); ok {
		t.Error("Expected SPY to be unsupported")
	}
	if got := FundName("spy"); got != "SPY" {
		t.Errorf("Expected fallback name SPY, got %q", got)
	}
	if syms := SupportedSymbols(); len(syms) != 5 || syms[0] != "VOO" {
		t.Errorf("Expected 5 sorted symbols, got %v", syms)
	}
}
