package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dice/dicetest"
)

func striker(t *testing.T, src dice.Source) *character.Character {
	t.Helper()
	c, err := character.New("Aldric", character.Striker, 1, character.Stats{Might: 15, Grit: 12, Wit: 8, Luck: 10}, src)
	require.NoError(t, err)
	return c
}

func TestModifier_FloorsDivision(t *testing.T) {
	assert.Equal(t, 0, character.Modifier(2))
	assert.Equal(t, 1, character.Modifier(3))
	assert.Equal(t, 4, character.Modifier(14))
	assert.Equal(t, 5, character.Modifier(15))
}

func TestNew_StrikerMaxHPRange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		c, err := character.New("Aldric", character.Striker, 1,
			character.Stats{Might: 15, Grit: 12, Wit: 8, Luck: 10}, dice.NewSeededSource(seed))
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, c.MaxHP, 13)
		assert.LessOrEqual(rt, c.MaxHP, 22)
		assert.Equal(rt, c.MaxHP, c.CurrentHP)
	})
}

func TestNew_HitDiePerRole(t *testing.T) {
	stats := character.Stats{Might: 9, Grit: 10, Wit: 14, Luck: 13}
	for role, want := range map[character.Role]int{
		character.Striker: 20, character.Burglar: 18, character.Support: 16, character.Controller: 16,
	} {
		c, err := character.New("x", role, 1, stats, dicetest.Fixed(20))
		require.NoError(t, err)
		assert.Equal(t, want, c.MaxHP, role.String())
	}
}

func TestNew_SpellSlotsOnlyForCasters(t *testing.T) {
	stats := character.Stats{Might: 9, Grit: 10, Wit: 14, Luck: 13}
	ctrl, err := character.New("Magnus", character.Controller, 1, stats, dicetest.Fixed(1))
	require.NoError(t, err)
	assert.Equal(t, 4, ctrl.SpellSlots)
	burg, err := character.New("Lyra", character.Burglar, 1, stats, dicetest.Fixed(1))
	require.NoError(t, err)
	assert.Equal(t, 0, burg.SpellSlots)
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	src := dicetest.Fixed(1)
	_, err := character.New("", character.Striker, 1, character.Stats{Might: 1, Grit: 1, Wit: 1, Luck: 1}, src)
	assert.ErrorIs(t, err, character.ErrInvalidCharacter)
	_, err = character.New("x", character.Role(9), 1, character.Stats{Might: 1, Grit: 1, Wit: 1, Luck: 1}, src)
	assert.ErrorIs(t, err, character.ErrInvalidCharacter)
	_, err = character.New("x", character.Striker, 1, character.Stats{Might: 1, Grit: 0, Wit: 1, Luck: 1}, src)
	assert.ErrorIs(t, err, character.ErrInvalidCharacter)
}

func TestRestore_ValidatesHP(t *testing.T) {
	stats := character.Stats{Might: 9, Grit: 10, Wit: 14, Luck: 13}
	c, err := character.Restore(7, "Magnus", character.Controller, 1, stats, 16, 0, 2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.False(t, c.Conscious)
	_, err = character.Restore(7, "Magnus", character.Controller, 1, stats, 16, 17, 0, true)
	assert.ErrorIs(t, err, character.ErrInvalidCharacter)
}

func TestAC_UsesGritModifier(t *testing.T) {
	c := striker(t, dicetest.Fixed(5))
	assert.Equal(t, 14, c.AC())
}

func TestEffectiveAC_BlindedIsEasierToHit(t *testing.T) {
	c := striker(t, dicetest.Fixed(5))
	c.Debuffs.Apply(debuff.Debuff{Kind: debuff.Weakened, Remaining: 2})
	assert.Equal(t, 14, c.EffectiveAC())
	c.Debuffs.Apply(debuff.Debuff{Kind: debuff.Blinded, Remaining: 2})
	assert.Equal(t, 12, c.EffectiveAC())
	assert.Equal(t, 14, c.AC())
}

func TestTakeDamage_DownedSurvivesDeathTest(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	res := c.TakeDamage(25, dicetest.Faces(5, 15, 18))
	assert.True(t, res.Downed)
	require.NotNil(t, res.DeathTest)
	assert.Equal(t, []int{5, 15, 18}, res.DeathTest.Rolls)
	assert.True(t, res.DeathTest.Survived)
	assert.True(t, c.Alive)
	assert.False(t, c.Conscious)
	assert.Equal(t, 0, c.CurrentHP)
	assert.Equal(t, 1, c.TimesDowned)
}

func TestTakeDamage_DownedFailsDeathTest(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	res := c.TakeDamage(25, dicetest.Faces(5, 10, 18))
	assert.True(t, res.Died())
	assert.False(t, c.Alive)
	assert.Equal(t, 0, c.Heal(10))
	c.ResetForExpedition()
	assert.False(t, c.Alive)
	assert.Equal(t, 0, c.CurrentHP)
}

func TestTakeDamage_ShieldAbsorbsFirst(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.ApplyShield(4)
	res := c.TakeDamage(6, dicetest.Fixed(20))
	assert.Equal(t, 4, res.Absorbed)
	assert.Equal(t, 2, res.Dealt)
	assert.Equal(t, 0, c.DamageShield)
	assert.Equal(t, c.MaxHP-2, c.CurrentHP)
}

func TestTakeDamage_NegativeClamped(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	res := c.TakeDamage(-3, dicetest.Fixed(20))
	assert.Zero(t, res.Dealt)
	assert.Equal(t, c.MaxHP, c.CurrentHP)
}

func TestTakeDamage_AlreadyUnconsciousNoSecondTest(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.TakeDamage(100, dicetest.Fixed(20))
	res := c.TakeDamage(5, dicetest.Fixed(1))
	assert.False(t, res.Downed)
	assert.True(t, c.Alive)
	assert.Equal(t, 1, c.TimesDowned)
}

func TestTakeDamage_DeathProtectionGrantsSurvival(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.ApplyDeathProtection()
	src := dicetest.Faces(1)
	res := c.TakeDamage(100, src)
	require.NotNil(t, res.DeathTest)
	assert.True(t, res.DeathTest.Protected)
	assert.True(t, c.Alive)
	assert.False(t, c.DeathProtected)
	assert.Zero(t, src.Draws())
}

func TestHeal_RevivesAndCaps(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.TakeDamage(100, dicetest.Fixed(20))
	assert.Equal(t, 3, c.Heal(3))
	assert.True(t, c.Conscious)
	assert.Equal(t, c.MaxHP-3, c.Heal(1000))
	assert.Equal(t, c.MaxHP, c.CurrentHP)
}

func TestHeal_NeverExceedsMax_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c, err := character.New("x", character.Support, 1, character.Stats{Might: 8, Grit: 11, Wit: 15, Luck: 12},
			dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")))
		require.NoError(rt, err)
		dmg := rapid.IntRange(0, c.MaxHP-1).Draw(rt, "dmg")
		c.TakeDamage(dmg, dicetest.Fixed(20))
		amount := rapid.IntRange(0, 100).Draw(rt, "heal")
		healed := c.Heal(amount)
		assert.LessOrEqual(rt, c.CurrentHP, c.MaxHP)
		assert.LessOrEqual(rt, healed, amount)
		assert.LessOrEqual(rt, healed, dmg)
	})
}

func TestRegeneration_HealsOnePerRound(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.TakeDamage(5, dicetest.Fixed(20))
	c.ApplyRegeneration(2)
	assert.Equal(t, 1, c.ProcessRegeneration())
	assert.Equal(t, 1, c.ProcessRegeneration())
	assert.Equal(t, 0, c.ProcessRegeneration())
	assert.Equal(t, c.MaxHP-3, c.CurrentHP)
}

func TestSpells_DisableRemovesFromAvailable(t *testing.T) {
	c, err := character.New("Elara", character.Support, 1, character.Stats{Might: 8, Grit: 11, Wit: 15, Luck: 12}, dicetest.Fixed(1))
	require.NoError(t, err)
	c.KnownSpells = []string{"Mend Wounds", "Lifebloom"}
	assert.True(t, c.CanCast())
	c.DisableSpell("Mend Wounds")
	assert.Equal(t, []string{"Lifebloom"}, c.AvailableSpells())
	c.DisableSpell("Lifebloom")
	assert.False(t, c.CanCast())
}

func TestResetForExpedition_KeepsScars(t *testing.T) {
	c := striker(t, dicetest.Fixed(10))
	c.TakeDamage(100, dicetest.Fixed(20))
	c.Debuffs.Apply(debuff.Debuff{Kind: debuff.Cursed, Remaining: 3})
	c.ApplyShield(5)
	c.DisableSpell("Psychic Lance")
	c.ResetForExpedition()
	assert.Equal(t, c.MaxHP, c.CurrentHP)
	assert.True(t, c.Conscious)
	assert.Zero(t, c.Debuffs.Len())
	assert.Zero(t, c.DamageShield)
	assert.Equal(t, 1, c.TimesDowned)
	assert.True(t, c.DisabledSpells["Psychic Lance"])
}

func TestParseRole(t *testing.T) {
	for _, r := range character.Roles() {
		got, err := character.ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := character.ParseRole("bard")
	assert.Error(t, err)
}
