package morale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dice/dicetest"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/morale"
)

// newParty builds a fresh party. With Fixed(4) max HP is Striker 16,
// Burglar 14, Support 15, Controller 14.
func newParty(t require.TestingT) *character.Party {
	stats := character.Stats{Might: 10, Grit: 10, Wit: 10, Luck: 10}
	var members []*character.Character
	for i, role := range character.Roles() {
		s := stats
		switch role {
		case character.Striker:
			s.Grit = 12
		case character.Support:
			s.Grit = 11
		}
		c, err := character.New([]string{"Aldric", "Lyra", "Elara", "Magnus"}[i], role, 1, s, dicetest.Fixed(4))
		require.NoError(t, err)
		members = append(members, c)
	}
	p, err := character.NewParty(1, "Brave Companions", members)
	require.NoError(t, err)
	return p
}

func TestDC_SumsEveryComponent(t *testing.T) {
	p := newParty(t)
	p.Members[0].CurrentHP--
	p.Members[1].DisableSpell("Shadow Step")
	p.Members[2].CurrentHP, p.Members[2].Conscious = 0, false
	p.Members[3].TimesDowned = 2

	// 1 missing + 5 disabled + 15 missing and 20 unconscious + 20 downed.
	assert.Equal(t, 61, morale.DC(p))
}

func TestDC_UnhurtPartyNeverRetreats(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := newParty(rt)
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		assert.True(rt, morale.CheckRoom(p, src).Success)
		assert.True(rt, morale.CheckFloor(p, src).Success)
		assert.True(rt, p.IsActive())
	})
}

func TestDC_MonotonicInEachComponent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := newParty(rt)
		before := morale.DC(p)
		m := p.Members[rapid.IntRange(0, 3).Draw(rt, "member")]
		switch rapid.IntRange(0, 3).Draw(rt, "component") {
		case 0:
			m.CurrentHP = rapid.IntRange(1, m.MaxHP-1).Draw(rt, "hp")
		case 1:
			m.DisableSpell("Anything")
		case 2:
			m.CurrentHP, m.Conscious = 0, false
		case 3:
			m.TimesDowned++
		}
		assert.Greater(rt, morale.DC(p), before)
	})
}

func TestCheckFloor_TakesTheLowerRoll(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(1, 100).Draw(rt, "a")
		b := rapid.IntRange(1, 100).Draw(rt, "b")
		res := morale.CheckFloor(newParty(rt), dicetest.Faces(a, b))
		assert.Equal(rt, []int{a, b}, res.Rolls)
		assert.Equal(rt, min(a, b), res.Roll)
		assert.True(rt, res.Disadvantage)
	})
}

func TestCheckRoom_FailureRetreats(t *testing.T) {
	p := newParty(t)
	p.Members[3].TimesDowned = 4 // DC 40

	res := morale.CheckRoom(p, dicetest.Faces(39))
	assert.False(t, res.Success)
	assert.Equal(t, 40, res.DC)
	assert.Equal(t, character.Retreated, p.Status)
}

func TestCheckRoom_PassesOnEqualRoll(t *testing.T) {
	p := newParty(t)
	p.Members[3].TimesDowned = 4
	res := morale.CheckRoom(p, dicetest.Faces(40))
	assert.True(t, res.Success)
	assert.True(t, p.IsActive())
}

func TestCheckFloor_DisadvantageCanBreakMorale(t *testing.T) {
	p := newParty(t)
	p.Members[3].TimesDowned = 4
	res := morale.CheckFloor(p, dicetest.Faces(90, 12))
	assert.False(t, res.Success)
	assert.Equal(t, 12, res.Roll)
	assert.Equal(t, character.Retreated, p.Status)
}

func TestReport(t *testing.T) {
	cases := []struct {
		name string
		res  morale.Result
		typ  event.Type
		desc string
	}{
		{"room success", morale.Result{Rolls: []int{55}, Roll: 55, DC: 20, Success: true},
			event.MoraleSuccess, "Morale check: 55 vs DC 20 - The party steels their resolve!"},
		{"room failure", morale.Result{Rolls: []int{5}, Roll: 5, DC: 20},
			event.MoraleFailure, "Morale breaks! 5 vs DC 20 - The party retreats from the dungeon!"},
		{"floor success", morale.Result{Rolls: []int{80, 31}, Roll: 31, DC: 30, Success: true, Disadvantage: true},
			event.MoraleSuccess, "Floor complete! Morale check: [80, 31] taking 31 vs DC 30 - Press deeper!"},
		{"floor failure", morale.Result{Rolls: []int{80, 12}, Roll: 12, DC: 30, Disadvantage: true},
			event.MoraleFailure, "Floor complete, but morale breaks! [80, 12] taking 12 vs DC 30 - Time to retreat!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := event.NewRecorder()
			morale.Report(event.NewScope(1, "Brave Companions", rec, nil), tc.res)
			evs := rec.Events()
			require.Len(t, evs, 1)
			assert.Equal(t, tc.typ, evs[0].Type)
			assert.Equal(t, tc.desc, evs[0].Description)
			assert.Equal(t, tc.res.Roll, evs[0].Payload.(event.MoralePayload).Roll)
		})
	}
}
