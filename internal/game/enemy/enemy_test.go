package enemy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dice/dicetest"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
)

func lookup(t *testing.T, name string) enemy.Type {
	t.Helper()
	typ, ok := enemy.DefaultCatalog().Lookup(name)
	require.True(t, ok, name)
	return typ
}

func TestDefaultCatalog_FourTypesPerTier(t *testing.T) {
	c := enemy.DefaultCatalog()
	for floor := 1; floor <= 10; floor += 2 {
		types := c.Types(floor)
		assert.Len(t, types, 4)
		for _, typ := range types {
			assert.Equal(t, enemy.TierForFloor(floor), typ.Tier)
			assert.Equal(t, enemy.DefaultSpecialTrigger, typ.SpecialTrigger)
		}
	}
}

func TestTierForFloor(t *testing.T) {
	cases := map[int]enemy.Tier{1: enemy.Tier1, 2: enemy.Tier1, 3: enemy.Tier2, 6: enemy.Tier3, 8: enemy.Tier4, 9: enemy.Tier5, 14: enemy.Tier5}
	for floor, want := range cases {
		assert.Equal(t, want, enemy.TierForFloor(floor), "floor %d", floor)
	}
}

func TestLoadCatalog_RejectsUnknownField(t *testing.T) {
	_, err := enemy.LoadCatalog([]byte("tiers:\n  - tier: 1\n    types:\n      - name: X\n        hp_die: 4\n        damage_die: 4\n        armor: 3\n"))
	assert.Error(t, err)
}

func TestLoadCatalog_RejectsMissingTier(t *testing.T) {
	_, err := enemy.LoadCatalog([]byte("tiers:\n  - tier: 1\n    types:\n      - name: X\n        hp_die: 4\n        damage_die: 4\n"))
	assert.ErrorContains(t, err, "tier 2 has no types")
}

func TestLoadCatalog_RejectsUnknownSpecial(t *testing.T) {
	_, err := enemy.LoadCatalog([]byte("tiers:\n  - tier: 1\n    types:\n      - name: X\n        hp_die: 4\n        damage_die: 4\n        special: explode\n"))
	assert.Error(t, err)
}

func TestSpawn_LightTierFormulas(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Giant Rat"), 1, 2, 0, dicetest.Fixed(4))
	assert.Equal(t, "Giant Rat 2", e.Name)
	assert.Equal(t, 9, e.MaxHP)
	assert.Equal(t, 11, e.AC)
	assert.Equal(t, 1, e.Might)
	assert.Equal(t, 1, e.DamageDice)
	assert.False(t, e.IsBoss())
}

func TestSpawn_HeavyTierFormulas(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Bone Golem"), 7, 1, 0, dicetest.Fixed(4))
	assert.Equal(t, 43, e.MaxHP)
	assert.Equal(t, 15, e.AC)
	assert.Equal(t, 3, e.Might)
	assert.Equal(t, 2, e.DamageDice)
	assert.Equal(t, 8, e.MaxDamageDice())
}

func TestSpawn_BossModifiers(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Giant Rat"), 1, 1, enemy.Rage, dicetest.Fixed(4))
	assert.Equal(t, "Rage Giant Rat", e.Name)
	assert.Equal(t, 18, e.MaxHP)
	assert.Equal(t, 13, e.AC)
	assert.Equal(t, 3, e.Might)
	assert.True(t, e.IsBoss())
}

func TestEnemy_DamageAndHeal(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Skeleton"), 3, 1, 0, dicetest.Fixed(6))
	assert.False(t, e.TakeDamage(5))
	assert.Equal(t, 5, e.Heal(100))
	assert.True(t, e.TakeDamage(1000))
	assert.False(t, e.IsAlive())
	assert.Zero(t, e.Heal(5))
	assert.False(t, e.TakeDamage(3))
}

func TestEnemy_IsBloodied(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Skeleton"), 3, 1, 0, dicetest.Fixed(6))
	e.TakeDamage(e.MaxHP - e.MaxHP/2 - 1)
	assert.False(t, e.IsBloodied())
	e.TakeDamage(1)
	assert.True(t, e.IsBloodied())
}

func TestEnemy_EffectiveMight_DebuffsAndRage(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Giant Rat"), 2, 1, enemy.Rage, dicetest.Fixed(1))
	assert.Equal(t, 4, e.EffectiveMight())
	e.Debuffs.Apply(debuff.Debuff{Kind: debuff.Weakened, Remaining: 2})
	assert.Equal(t, 2, e.EffectiveMight())
	e.Raged = true
	assert.Equal(t, 4, e.EffectiveMight())
}

func TestEnemy_EffectiveAC_Blinded(t *testing.T) {
	e := enemy.Spawn(lookup(t, "Giant Rat"), 1, 1, 0, dicetest.Fixed(4))
	assert.Equal(t, 11, e.EffectiveAC())
	e.Debuffs.Apply(debuff.Debuff{Kind: debuff.Blinded, Remaining: 2})
	assert.Equal(t, 9, e.EffectiveAC())
	assert.Equal(t, 11, e.AC)

	e.AC = 1
	assert.Zero(t, e.EffectiveAC())
}

func TestSpecial_Debuff(t *testing.T) {
	k, ok := enemy.SpecialBurn.Debuff()
	require.True(t, ok)
	assert.Equal(t, debuff.Poisoned, k)
	_, ok = enemy.SpecialNone.Debuff()
	assert.False(t, ok)
}

func TestGenerator_BossRoomFirstEnemyIsBoss(t *testing.T) {
	g := enemy.NewGenerator(nil)
	enemies := g.Encounter(1, 3, true, dicetest.Fixed(1))
	require.Len(t, enemies, 3)
	assert.Equal(t, enemy.Rage, enemies[0].Boss)
	assert.Equal(t, "Rage Giant Rat", enemies[0].Name)
	assert.False(t, enemies[1].IsBoss())
	assert.Equal(t, "Giant Rat 2", enemies[1].Name)
}

func TestGenerator_EncounterCount_Property(t *testing.T) {
	g := enemy.NewGenerator(nil)
	rapid.Check(t, func(rt *rapid.T) {
		floor := rapid.IntRange(1, 10).Draw(rt, "floor")
		count := rapid.IntRange(0, 9).Draw(rt, "count")
		boss := rapid.Bool().Draw(rt, "boss")
		enemies := g.Encounter(floor, count, boss, dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")))
		assert.Len(rt, enemies, count)
		bosses := 0
		for _, e := range enemies {
			assert.Equal(rt, floor, e.Level)
			assert.Greater(rt, e.MaxHP, 0)
			if e.IsBoss() {
				bosses++
			}
		}
		if boss && count > 0 {
			assert.Equal(rt, 1, bosses)
		} else {
			assert.Zero(rt, bosses)
		}
	})
}

func TestAverageLevel(t *testing.T) {
	assert.Equal(t, 4, enemy.AverageLevel(nil, 4))
	g := enemy.NewGenerator(nil)
	enemies := g.Encounter(3, 2, false, dicetest.Fixed(1))
	assert.Equal(t, 3, enemy.AverageLevel(enemies, 1))
}
