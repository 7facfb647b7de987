package shard

import "testing"

func TestIndex_StableAndInRange(t *testing.T) {
	keys := []string{"", "a", "10.0.0.1", "api-key-123", "search:aapl:VOO"}

	for _, n := range []int{1, 2, 7, 32} {
		for _, key := range keys {
			idx := Index(key, n)
			if idx < 0 || idx >= n {
				t.Errorf("Index(%q, %d) = %d, out of range", key, n, idx)
			}
			if again := Index(key, n); again != idx {
				t.Errorf("Index(%q, %d) not stable: %d then %d", key, n, idx, again)
			}
		}
	}
}

func TestIndex_Spreads(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[Index(string(rune('a'+i%26))+string(rune(i)), 8)] = true
	}
	if len(seen) < 8 {
		t.Errorf("Expected keys to hit all 8 shards, hit %d", len(seen))
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(0) != DefaultCount {
		t.Errorf("Expected default for 0, got %d", Normalize(0))
	}
	if Normalize(-3) != DefaultCount {
		t.Errorf("Expected default for negative, got %d", Normalize(-3))
	}
	if Normalize(4) != 4 {
		t.Errorf("Expected 4, got %d", Normalize(4))
	}
}
