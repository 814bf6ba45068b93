// Package dice provides the randomness abstraction and roll helpers used by
// every stochastic decision in the expedition engine.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d4+1"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d4+1 → [3 2] +1 = 6"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// D rolls a single die with the given number of sides.
//
// Precondition: sides >= 1.
// Postcondition: 1 <= result <= sides.
func D(src Source, sides int) int {
	return src.Intn(sides) + 1
}

// Rolls rolls count dice of the given size and returns each result in order.
func Rolls(src Source, count, sides int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = D(src, sides)
	}
	return out
}

// Sum rolls count dice of the given size and returns their total.
//
// Postcondition: count <= result <= count*sides.
func Sum(src Source, count, sides int) int {
	total := 0
	for i := 0; i < count; i++ {
		total += D(src, sides)
	}
	return total
}

// Chance reports true with probability p, using a d1000 resolution.
func Chance(src Source, p float64) bool {
	return float64(src.Intn(1000)) < p*1000
}

// Pick returns a uniformly chosen index in [0, n).
//
// Precondition: n > 0.
func Pick(src Source, n int) int {
	return src.Intn(n)
}
