// Package dicetest provides scripted dice.Source implementations for tests.
package dicetest

import "sync"

// Fixed is a Source whose every die shows the same face, clamped to the die size.
type Fixed int

// Intn returns face-1 clamped to [0, n).
func (f Fixed) Intn(n int) int {
	return clamp(int(f), n)
}

// Script replays a list of die faces in order. Once exhausted it replays the
// list from the start.
type Script struct {
	mu    sync.Mutex
	faces []int
	next  int
	draws int
}

// Faces returns a Script that yields the given faces in order.
//
// Precondition: len(faces) > 0.
func Faces(faces ...int) *Script {
	return &Script{faces: faces}
}

// Intn returns the next scripted face (minus one) clamped to [0, n).
func (s *Script) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.faces[s.next%len(s.faces)]
	s.next++
	s.draws++
	return clamp(f, n)
}

// Draws reports how many values have been consumed.
func (s *Script) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

func clamp(face, n int) int {
	v := face - 1
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
