package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dice/dicetest"
)

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d4+1", Dice: []int{3, 2}, Modifier: 1}
	assert.Equal(t, 6, r.Total())
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Expression: "2d4+1", Dice: []int{3, 2}, Modifier: 1}
	assert.Equal(t, "2d4+1 → [3 2] +1 = 6", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}}
	assert.Panics(t, func() { _ = r.String() })
}

func TestRollResult_String_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.StringMatching(`[0-9]+d[0-9]+[+-][0-9]+`).Draw(rt, "expression")
		faces := rapid.SliceOfN(rapid.IntRange(1, 20), 1, 10).Draw(rt, "dice")
		modifier := rapid.IntRange(-100, 100).Draw(rt, "modifier")

		r := dice.RollResult{Expression: expr, Dice: faces, Modifier: modifier}
		s := r.String()
		assert.True(rt, strings.Contains(s, expr))
		assert.Contains(rt, s, fmt.Sprintf("%d", r.Total()))
	})
}

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in                    string
		count, sides, modifer int
	}{
		{"d20", 1, 20, 0},
		{"2d4", 2, 4, 0},
		{"1d6+3", 1, 6, 3},
		{"4d8-2", 4, 8, -2},
		{" 1D10 ", 1, 10, 0},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.count, e.Count, tc.in)
		assert.Equal(t, tc.sides, e.Sides, tc.in)
		assert.Equal(t, tc.modifer, e.Modifier, tc.in)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "20", "0d6", "2d1", "2dx", "2d6+x", "-1d6"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected %q to be rejected", in)
	}
}

func TestExpression_Bounds(t *testing.T) {
	e := dice.MustParse("2d4+1")
	assert.Equal(t, 3, e.Min())
	assert.Equal(t, 9, e.Max())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestRoll_WithinBounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-5, 5).Draw(rt, "mod")
		seed := rapid.Int64().Draw(rt, "seed")
		e, err := dice.Parse(fmt.Sprintf("%dd%d%+d", count, sides, mod))
		require.NoError(rt, err)

		r := dice.Roll(e, dice.NewSeededSource(seed))
		assert.Len(rt, r.Dice, count)
		assert.GreaterOrEqual(rt, r.Total(), e.Min())
		assert.LessOrEqual(rt, r.Total(), e.Max())
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		a := dice.NewSeededSource(seed)
		b := dice.NewSeededSource(seed)
		for i := 0; i < 50; i++ {
			n := i%19 + 2
			assert.Equal(rt, a.Intn(n), b.Intn(n))
		}
	})
}

func TestSeededSource_DistinctSeedsDiverge(t *testing.T) {
	a := dice.NewSeededSource(1)
	b := dice.NewSeededSource(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Intn(1000) == b.Intn(1000) {
			same++
		}
	}
	assert.Less(t, same, 10)
}

func TestSeededSource_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}

func TestHelpers_UseFaces(t *testing.T) {
	src := dicetest.Faces(3, 5, 20, 1)
	assert.Equal(t, 3, dice.D(src, 6))
	assert.Equal(t, []int{5, 20}, dice.Rolls(src, 2, 20))
	assert.Equal(t, 1, dice.D(src, 4))
	assert.Equal(t, 4, src.Draws())
}

func TestSum_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(1, 100).Draw(rt, "sides")
		v := dice.Sum(dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")), count, sides)
		assert.GreaterOrEqual(rt, v, count)
		assert.LessOrEqual(rt, v, count*sides)
	})
}

func TestDeriveSeed_StreamsDiffer(t *testing.T) {
	assert.NotEqual(t, dice.DeriveSeed(42, 1), dice.DeriveSeed(42, 2))
	assert.Equal(t, dice.DeriveSeed(42, 7), dice.DeriveSeed(42, 7))
}

func TestLoggedRoller_DelegatesToSource(t *testing.T) {
	r := dice.NewLoggedRoller(dicetest.Fixed(4), "party:1", zaptest.NewLogger(t))
	assert.Equal(t, 3, r.Intn(6))
	res, err := r.RollExpr("2d6+1")
	require.NoError(t, err)
	assert.Equal(t, 9, res.Total())
	_, err = r.RollExpr("bad")
	assert.Error(t, err)
}
