package holdings

// Kind identifies which Payload variant is populated.
type Kind string

const (
	KindSearch Kind = "search"
	KindFunds  Kind = "funds"
	KindTop    Kind = "top"
	KindStock  Kind = "stock"
	KindStats  Kind = "stats"
)

// Payload is a cacheable API response. Exactly one variant matching Kind
// is set.
type Payload struct {
	Kind   Kind          `json:"kind"`
	Search *SearchResult `json:"search,omitempty"`
	Funds  *FundList     `json:"funds,omitempty"`
	Top    *TopHoldings  `json:"top,omitempty"`
	Stock  *StockFunds   `json:"stock,omitempty"`
	Stats  *Stats        `json:"stats,omitempty"`
}

// Body returns the populated variant, or nil if Kind and variant disagree.
func (p Payload) Body() any {
	switch p.Kind {
	case KindSearch:
		if p.Search != nil {
			return p.Search
		}
	case KindFunds:
		if p.Funds != nil {
			return p.Funds
		}
	case KindTop:
		if p.Top != nil {
			return p.Top
		}
	case KindStock:
		if p.Stock != nil {
			return p.Stock
		}
	case KindStats:
		if p.Stats != nil {
			return p.Stats
		}
	}
	return nil
}

// Valid reports whether the populated variant matches Kind.
func (p Payload) Valid() bool {
	return p.Body() != nil
}

// Truncate returns a copy whose lists hold at most n items. The receiver is
// not modified, so cached payloads can be truncated safely. n <= 0 returns p
// unchanged.
func (p Payload) Truncate(n int) Payload {
	if n <= 0 {
		return p
	}

	switch p.Kind {
	case KindSearch:
		if p.Search == nil {
			return p
		}
		s := *p.Search
		s.Funds = make([]FundMatches, len(p.Search.Funds))
		for i, fm := range p.Search.Funds {
			fm.Holdings = truncate(fm.Holdings, n)
			s.Funds[i] = fm
		}
		p.Search = &s

	case KindTop:
		if p.Top == nil {
			return p
		}
		top := *p.Top
		top.Holdings = truncate(top.Holdings, n)
		top.Count = len(top.Holdings)
		p.Top = &top

	case KindStock:
		if p.Stock == nil {
			return p
		}
		st := *p.Stock
		st.Funds = truncate(st.Funds, n)
		p.Stock = &st

	case KindFunds:
		if p.Funds == nil {
			return p
		}
		fl := *p.Funds
		fl.Funds = truncate(fl.Funds, n)
		p.Funds = &fl
	}

	return p
}

func truncate[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n:n]
}
