// Package bitmask implements the fixed-width bitmap over attached-object
// type ids used both inline on every entity (membership) and on every
// attached object (its requirements set).
//
// Mask is the "inline" variant: its backing storage is allocated up front
// (at entity-creation time) and never starts out nil, since the entity
// mask is always present. Lazy is the complementary variant used for
// rarely-populated requirement sets: its backing storage stays nil until
// the first Set.
package bitmask

import "math/bits"

const wordBits = 64

// Mask is a fixed-capacity, eagerly-allocated bitmap.
type Mask struct {
	words []uint64
}

// New allocates a Mask with room for bitCount bits. bitCount must be a
// positive multiple of 64.
func New(bitCount int) Mask {
	if bitCount <= 0 || bitCount%wordBits != 0 {
		panic("bitmask: bit count must be a positive multiple of 64")
	}
	return Mask{words: make([]uint64, bitCount/wordBits)}
}

// Bits reports the capacity of the mask in bits.
func (m Mask) Bits() int { return len(m.words) * wordBits }

// Set sets bit i.
func (m Mask) Set(i int) { m.words[i/wordBits] |= 1 << uint(i%wordBits) }

// Unset clears bit i.
func (m Mask) Unset(i int) { m.words[i/wordBits] &^= 1 << uint(i%wordBits) }

// IsSet reports whether bit i is set.
func (m Mask) IsSet(i int) bool {
	return m.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// Reset clears every bit.
func (m Mask) Reset() {
	for i := range m.words {
		m.words[i] = 0
	}
}

// IsEmpty reports whether no bit is set.
func (m Mask) IsEmpty() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// HasAny reports whether m and other share any set bit.
func (m Mask) HasAny(other Mask) bool {
	for i := 0; i < minLen(m.words, other.words); i++ {
		if m.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// Match reports whether m is a subset of other: m & other == m.
func (m Mask) Match(other Mask) bool {
	for i, w := range m.words {
		var ow uint64
		if i < len(other.words) {
			ow = other.words[i]
		}
		if w&ow != w {
			return false
		}
	}
	return true
}

// Equals reports whether m and other have exactly the same bits set.
func (m Mask) Equals(other Mask) bool {
	n := max(len(m.words), len(other.words))
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(m.words) {
			a = m.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of m.
func (m Mask) Clone() Mask {
	words := make([]uint64, len(m.words))
	copy(words, m.words)
	return Mask{words: words}
}

// CopyFrom overwrites m's bits with other's, growing m if necessary.
func (m *Mask) CopyFrom(other Mask) {
	if cap(m.words) < len(other.words) {
		m.words = make([]uint64, len(other.words))
	} else {
		m.words = m.words[:len(other.words)]
		for i := range m.words {
			m.words[i] = 0
		}
	}
	copy(m.words, other.words)
}

// Lazy is the requirements-set variant: it allocates no backing storage
// until the first Set, which matters when most attached objects require
// nothing.
type Lazy struct {
	bitCount int
	words    []uint64
}

// NewLazy returns a Lazy mask with capacity for bitCount bits that performs
// no allocation until the first Set.
func NewLazy(bitCount int) Lazy {
	return Lazy{bitCount: bitCount}
}

// Set sets bit i, allocating backing storage on first use.
func (l *Lazy) Set(i int) {
	l.ensure()
	l.words[i/wordBits] |= 1 << uint(i%wordBits)
}

// Unset clears bit i. It is a no-op on a mask that never allocated.
func (l *Lazy) Unset(i int) {
	if l.words == nil {
		return
	}
	l.words[i/wordBits] &^= 1 << uint(i%wordBits)
}

// IsSet reports whether bit i is set.
func (l Lazy) IsSet(i int) bool {
	if l.words == nil {
		return false
	}
	return l.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// IsEmpty reports whether no bit is set (trivially true if never allocated).
func (l Lazy) IsEmpty() bool {
	for _, w := range l.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// ForEachSet calls fn once for every set bit, in ascending order.
func (l Lazy) ForEachSet(fn func(i int)) {
	for wi, w := range l.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(wi*wordBits + b)
			w &^= 1 << uint(b)
		}
	}
}

// Snapshot returns an eagerly-allocated Mask with the same bits set.
func (l Lazy) Snapshot() Mask {
	m := New(l.bitCount)
	copy(m.words, l.words)
	return m
}

func (l *Lazy) ensure() {
	if l.words == nil {
		l.words = make([]uint64, l.bitCount/wordBits)
	}
}

func minLen(a, b []uint64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
