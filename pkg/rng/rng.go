// Package rng provides the deterministic random stream behind trial ordering.
//
// A session's trial lists are a pure function of its seed, and the seed is a
// pure function of the participant identifier, so any session can be replayed
// from the identifier alone.
package rng

import "unicode/utf16"

// Seed hashes an identifier into a non-zero 32-bit seed.
//
// The hash runs over UTF-16 code units: h = (h<<5) - h + c with signed 32-bit
// wraparound, followed by the absolute value. A zero result maps to 1.
func Seed(id string) uint32 {
	var h int32
	for _, c := range utf16.Encode([]rune(id)) {
		h = (h << 5) - h + int32(c)
	}
	var u uint32
	if h < 0 {
		u = uint32(-int64(h))
	} else {
		u = uint32(h)
	}
	if u == 0 {
		return 1
	}
	return u
}

// Next advances a mulberry32 state and returns a float in [0,1) with the new state.
func Next(state uint32) (float64, uint32) {
	state += 0x6D2B79F5
	t := state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0, state
}

// Source is a stateful wrapper around Next. Not safe for concurrent use.
type Source struct {
	state uint32
}

// New creates a Source positioned at seed.
func New(seed uint32) *Source {
	return &Source{state: seed}
}

// FromIdentifier creates a Source seeded from an identifier string.
func FromIdentifier(id string) *Source {
	return New(Seed(id))
}

// Float64 returns the next float in [0,1).
func (s *Source) Float64() float64 {
	f, next := Next(s.state)
	s.state = next
	return f
}

// Intn returns an int in [0,n) using one draw. It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	return int(s.Float64() * float64(n))
}

// Bool returns true with probability one half.
func (s *Source) Bool() bool {
	return s.Float64() < 0.5
}

// State exposes the current internal state, e.g. for persistence.
func (s *Source) State() uint32 {
	return s.state
}
