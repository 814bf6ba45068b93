package trap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dice/dicetest"
	"github.com/cory-johannsen/guildmanager/internal/game/dungeon"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/trap"
)

// newParty builds a party whose Burglar has luck 15 (+5). With Fixed(4)
// max HP is Striker 16, Burglar 14, Support 15, Controller 14.
func newParty(t *testing.T) *character.Party {
	t.Helper()
	specs := []struct {
		name  string
		role  character.Role
		stats character.Stats
	}{
		{"Aldric", character.Striker, character.Stats{Might: 15, Grit: 12, Wit: 8, Luck: 10}},
		{"Lyra", character.Burglar, character.Stats{Might: 9, Grit: 10, Wit: 11, Luck: 15}},
		{"Elara", character.Support, character.Stats{Might: 8, Grit: 11, Wit: 15, Luck: 12}},
		{"Magnus", character.Controller, character.Stats{Might: 9, Grit: 10, Wit: 14, Luck: 13}},
	}
	var members []*character.Character
	for _, s := range specs {
		c, err := character.New(s.name, s.role, 3, s.stats, dicetest.Fixed(4))
		require.NoError(t, err)
		members = append(members, c)
	}
	p, err := character.NewParty(3, "Iron Wolves", members)
	require.NoError(t, err)
	return p
}

func trapRoom(floor int) dungeon.Room {
	return dungeon.Room{Floor: floor, Index: 2, Type: dungeon.Trap, Difficulty: floor, TrapDC: 10 + floor}
}

func resolve(t *testing.T, p *character.Party, room dungeon.Room, src dice.Source) (trap.Result, *event.Recorder) {
	t.Helper()
	rec := event.NewRecorder()
	res, err := trap.Resolve(p, room, src, event.NewScope(p.GuildID, p.GuildName, rec, nil))
	require.NoError(t, err)
	return res, rec
}

func types(rec *event.Recorder) []event.Type {
	var out []event.Type
	for _, e := range rec.Events() {
		out = append(out, e.Type)
	}
	return out
}

func TestResolve_NaturalTwentyDisarmsExpertly(t *testing.T) {
	p := newParty(t)
	res, rec := resolve(t, p, trapRoom(5), dicetest.Fixed(20))

	assert.Equal(t, trap.ExpertDisarm, res.Outcome)
	assert.Equal(t, "Lyra", res.Detector.Name)
	assert.Nil(t, res.Victim)
	assert.Equal(t, []event.Type{event.TrapDetected, event.TrapDisarmed}, types(rec))
	assert.Zero(t, p.TotalMissingHP())
}

func TestResolve_DisarmsOnTotal(t *testing.T) {
	res, _ := resolve(t, newParty(t), trapRoom(1), dicetest.Faces(10))
	assert.Equal(t, trap.Disarmed, res.Outcome)
	assert.Equal(t, 15, res.Total)
	assert.Equal(t, 11, res.DC)
}

func TestResolve_FailureHitsRandomMember(t *testing.T) {
	p := newParty(t)
	// d20 2 (total 7 vs 12), d6 6 -> 12 damage, victim index 0.
	res, rec := resolve(t, p, trapRoom(2), dicetest.Faces(2, 6, 1))

	assert.Equal(t, trap.Triggered, res.Outcome)
	require.NotNil(t, res.Victim)
	assert.Equal(t, "Aldric", res.Victim.Name)
	assert.Equal(t, 12, res.Rolled)
	assert.Equal(t, res.Victim.MaxHP-12, res.Victim.CurrentHP)
	assert.False(t, res.Downed)
	assert.Equal(t, []event.Type{event.TrapDetected, event.TrapTriggered}, types(rec))
}

func TestResolve_NaturalOneHurtsDetectorWithDebuff(t *testing.T) {
	p := newParty(t)
	// d20 1, d6 4 -> 8 damage, debuff d8 3 (slowed) for d4 2 rounds.
	res, rec := resolve(t, p, trapRoom(2), dicetest.Faces(1, 4, 3, 2))

	assert.Equal(t, trap.CriticalFailure, res.Outcome)
	lyra := p.MemberByRole(character.Burglar)
	assert.Same(t, lyra, res.Victim)
	assert.Equal(t, lyra.MaxHP-8, lyra.CurrentHP)
	d, ok := lyra.Debuffs.Get(debuff.Slowed)
	require.True(t, ok)
	assert.Equal(t, 2, d.Remaining)
	assert.Equal(t, []event.Type{event.TrapDetected, event.TrapCriticalFail, event.DebuffApplied}, types(rec))
}

func TestResolve_NaturalOneDownsDetector(t *testing.T) {
	p := newParty(t)
	// Floor 5: d6 6 -> 30 damage; death test rolls 15, 15, 15; then the debuff.
	res, rec := resolve(t, p, trapRoom(5), dicetest.Faces(1, 6, 15, 15, 15, 3, 2))

	assert.True(t, res.Downed)
	assert.True(t, res.Victim.Alive)
	assert.False(t, res.Victim.Conscious)
	assert.Contains(t, types(rec), event.CharacterUnconscious)
}

func TestResolve_DebuffsLowerTheRoll(t *testing.T) {
	p := newParty(t)
	lyra := p.MemberByRole(character.Burglar)
	lyra.Debuffs.Apply(debuff.Debuff{Kind: debuff.Cursed, Remaining: 3})
	res, _ := resolve(t, p, trapRoom(1), dicetest.Faces(8))
	assert.Equal(t, trap.Disarmed, res.Outcome)
	assert.Equal(t, 11, res.Total)

	lyra.Debuffs.Apply(debuff.Debuff{Kind: debuff.Poisoned, Remaining: 3})
	res, _ = resolve(t, p, trapRoom(1), dicetest.Faces(8, 1, 1))
	assert.Equal(t, trap.Triggered, res.Outcome)
	assert.Equal(t, 9, res.Total)
}

func TestResolve_FallsBackWhenBurglarDown(t *testing.T) {
	p := newParty(t)
	lyra := p.MemberByRole(character.Burglar)
	lyra.CurrentHP, lyra.Conscious = 0, false

	res, _ := resolve(t, p, trapRoom(1), dicetest.Fixed(20))
	assert.Equal(t, character.Controller, res.Detector.Role)
}

func TestResolve_NoDetector(t *testing.T) {
	p := newParty(t)
	for _, m := range p.Members {
		m.CurrentHP, m.Conscious = 0, false
	}
	_, err := trap.Resolve(p, trapRoom(1), dicetest.Fixed(10), event.NewScope(3, "g", nil, nil))
	assert.ErrorIs(t, err, trap.ErrNoDetector)
}

func TestDC_DefaultsFromFloor(t *testing.T) {
	assert.Equal(t, 14, trap.DC(dungeon.Room{Floor: 4}))
	assert.Equal(t, 12, trap.DC(dungeon.Room{Floor: 4, TrapDC: 12}))
}
