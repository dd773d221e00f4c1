package bitmask

import "testing"

func TestMaskSetUnsetIsSet(t *testing.T) {
	m := New(128)
	if m.IsSet(5) {
		t.Fatalf("bit 5 should start unset")
	}
	m.Set(5)
	if !m.IsSet(5) {
		t.Fatalf("bit 5 should be set")
	}
	m.Set(127)
	if !m.IsSet(127) {
		t.Fatalf("last bit should be set")
	}
	m.Unset(5)
	if m.IsSet(5) {
		t.Fatalf("bit 5 should be unset again")
	}
}

func TestMaskMatchIsSubset(t *testing.T) {
	need := New(64)
	need.Set(1)
	need.Set(3)

	have := New(64)
	have.Set(1)
	have.Set(3)
	have.Set(9)

	if !need.Match(have) {
		t.Fatalf("need should be a subset of have")
	}

	have.Unset(3)
	if need.Match(have) {
		t.Fatalf("need should no longer be a subset of have")
	}
}

func TestMaskEqualsAndClone(t *testing.T) {
	a := New(64)
	a.Set(2)
	b := a.Clone()
	if !a.Equals(b) {
		t.Fatalf("clone should equal original")
	}
	b.Set(10)
	if a.Equals(b) {
		t.Fatalf("mutating the clone should not affect the original")
	}
}

func TestMaskHasAny(t *testing.T) {
	a := New(64)
	b := New(64)
	if a.HasAny(b) {
		t.Fatalf("two empty masks should not have any shared bit")
	}
	a.Set(4)
	b.Set(4)
	if !a.HasAny(b) {
		t.Fatalf("masks sharing bit 4 should report HasAny")
	}
}

func TestMaskCountAndIsEmpty(t *testing.T) {
	m := New(64)
	if !m.IsEmpty() {
		t.Fatalf("fresh mask should be empty")
	}
	m.Set(0)
	m.Set(63)
	if m.IsEmpty() {
		t.Fatalf("mask with bits set should not be empty")
	}
	if got := m.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
}

func TestLazyAllocatesOnFirstSet(t *testing.T) {
	l := NewLazy(256)
	if l.words != nil {
		t.Fatalf("lazy mask should not allocate before first Set")
	}
	if l.IsSet(10) {
		t.Fatalf("unset lazy mask should report false for any bit")
	}
	l.Set(10)
	if l.words == nil {
		t.Fatalf("lazy mask should allocate after first Set")
	}
	if !l.IsSet(10) {
		t.Fatalf("bit 10 should be set")
	}
}

func TestLazyForEachSetIsAscending(t *testing.T) {
	l := NewLazy(256)
	l.Set(200)
	l.Set(1)
	l.Set(65)

	var got []int
	l.ForEachSet(func(i int) { got = append(got, i) })

	want := []int{1, 65, 200}
	if len(got) != len(want) {
		t.Fatalf("ForEachSet returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ForEachSet returned %v, want %v", got, want)
		}
	}
}

func TestLazySnapshotMatchesMask(t *testing.T) {
	l := NewLazy(128)
	l.Set(3)
	l.Set(100)
	snap := l.Snapshot()
	if !snap.IsSet(3) || !snap.IsSet(100) {
		t.Fatalf("snapshot should reflect the lazy mask's bits")
	}
	snap.Set(50)
	if l.IsSet(50) {
		t.Fatalf("mutating the snapshot must not affect the lazy mask")
	}
}
