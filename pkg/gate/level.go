package gate

import "fmt"

// ServiceLevel describes how much of the backend budget is left.
type ServiceLevel int

const (
	// LevelNormal is full service.
	LevelNormal ServiceLevel = iota

	// LevelReduced trims large lists (70% of the budget used).
	LevelReduced

	// LevelMinimal keeps only essential items (85% used).
	LevelMinimal

	// LevelStaticOnly prefers static snapshots over live computation
	// (95% used).
	LevelStaticOnly
)

// Usage thresholds, as fractions of the backend budget.
const (
	ReducedThreshold    = 0.70
	MinimalThreshold    = 0.85
	StaticOnlyThreshold = 0.95
)

// LevelFor maps a used fraction of the backend budget to a service level.
func LevelFor(used float64) ServiceLevel {
	switch {
	case used >= StaticOnlyThreshold:
		return LevelStaticOnly
	case used >= MinimalThreshold:
		return LevelMinimal
	case used >= ReducedThreshold:
		return LevelReduced
	default:
		return LevelNormal
	}
}

// String returns the level name.
func (l ServiceLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelReduced:
		return "reduced"
	case LevelMinimal:
		return "minimal"
	case LevelStaticOnly:
		return "static_only"
	default:
		return fmt.Sprintf("ServiceLevel(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l ServiceLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ItemCap is the maximum list length served at this level. Zero means no
// cap.
func (l ServiceLevel) ItemCap() int {
	switch l {
	case LevelReduced:
		return 100
	case LevelMinimal, LevelStaticOnly:
		return 20
	default:
		return 0
	}
}
