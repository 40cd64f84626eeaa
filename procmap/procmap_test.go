package procmap

import "testing"

func TestSingleOwnsEverything(t *testing.T) {
	var m Single
	if m.NumRanks() != 1 {
		t.Fatalf("Single.NumRanks() = %d, want 1", m.NumRanks())
	}
	if m.Owner(Key{N: 5, L: []int{1, 2, 3}}) != 0 {
		t.Fatal("Single should always assign ownership to rank 0")
	}
}

func TestDefaultMapIsDeterministic(t *testing.T) {
	m := New(4, 2)
	k := Key{N: 6, L: []int{3, 5, 7}}
	first := m.Owner(k)
	for i := 0; i < 10; i++ {
		if got := m.Owner(k); got != first {
			t.Fatalf("Owner(%v) = %d on call %d, want stable %d", k, got, i, first)
		}
	}
	if first < 0 || first >= m.NumRanks() {
		t.Fatalf("Owner returned out-of-range rank %d for NumRanks=%d", first, m.NumRanks())
	}
}

func TestDefaultMapKeepsSubtreeLocality(t *testing.T) {
	m := New(8, 2)
	parentAtN0 := Key{N: 2, L: []int{1, 1}}
	owner := m.Owner(parentAtN0)
	// descendants at deeper levels sharing the same n0 ancestor must map to
	// the same owner, per the locality policy documented in New.
	for _, child := range []Key{
		{N: 3, L: []int{2, 2}},
		{N: 4, L: []int{4, 4}},
		{N: 5, L: []int{9, 9}},
	} {
		if got := m.Owner(child); got != owner {
			t.Errorf("Owner(%v) = %d, want %d (same n0=2 ancestor as %v)", child, got, owner, parentAtN0)
		}
	}
}

func TestDefaultMapSingleRankAlwaysZero(t *testing.T) {
	m := New(1, 2)
	if m.Owner(Key{N: 10, L: []int{100}}) != 0 {
		t.Fatal("a single-rank DefaultMap should always return owner 0")
	}
}
