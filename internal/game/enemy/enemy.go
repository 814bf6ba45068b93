package enemy

import (
	"fmt"

	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// Boss stat bonuses.
const (
	BossHPMultiplier = 2
	BossACBonus      = 2
	BossMightBonus   = 2
	RageMightBonus   = 2
	AuraAttackBonus  = 1
)

// Enemy is one combatant in a single encounter.
type Enemy struct {
	Name      string
	Type      Type
	Number    int // position in the encounter, from 1
	Level     int // floor the enemy was spawned on
	MaxHP     int
	CurrentHP int
	AC        int
	Might     int
	// DamageDice is the number of DamageDie rolled per hit.
	DamageDice int
	DamageDie  int
	Boss       BossType // zero when not a boss

	Debuffs *debuff.Manager

	// Raged, Summoned and AuraAnnounced guard one-shot boss announcements.
	Raged         bool
	Summoned      bool
	AuraAnnounced bool
}

// Spawn derives a floor-scaled enemy from typ.
//
// HP is floor*5 plus the hit die (two d4 for heavy tiers). AC is 10 + floor
// (floor/2 when heavy) + the type's modifier. Might is floor (floor/2 when
// heavy). A non-zero boss doubles HP and adds 2 AC and 2 might.
//
// Precondition: floor >= 1; number >= 1.
func Spawn(typ Type, floor, number int, boss BossType, src dice.Source) *Enemy {
	scale := floor
	dmgDice := 1
	var hp int
	if typ.Tier.Heavy() {
		scale = floor / 2
		if typ.HPDie == 4 {
			hp = floor*5 + dice.Sum(src, 2, 4)
		} else {
			hp = floor*5 + dice.D(src, typ.HPDie)
		}
		if typ.DamageDie == 4 {
			dmgDice = 2
		}
	} else {
		hp = floor*5 + dice.D(src, typ.HPDie)
	}
	e := &Enemy{
		Type:       typ,
		Number:     number,
		Level:      floor,
		MaxHP:      hp,
		AC:         10 + scale + typ.ACMod,
		Might:      scale,
		DamageDice: dmgDice,
		DamageDie:  typ.DamageDie,
		Boss:       boss,
		Debuffs:    debuff.NewManager(),
	}
	if boss != 0 {
		e.MaxHP *= BossHPMultiplier
		e.AC += BossACBonus
		e.Might += BossMightBonus
		e.Name = fmt.Sprintf("%s %s", boss.Title(), typ.Name)
	} else {
		e.Name = fmt.Sprintf("%s %d", typ.Name, number)
	}
	e.CurrentHP = e.MaxHP
	return e
}

// IsBoss reports whether the enemy carries a boss modifier.
func (e *Enemy) IsBoss() bool { return e.Boss != 0 }

// IsAlive reports whether the enemy has HP left.
func (e *Enemy) IsAlive() bool { return e.CurrentHP > 0 }

// IsBloodied reports whether HP is at or below half of max.
func (e *Enemy) IsBloodied() bool { return e.CurrentHP <= e.MaxHP/2 }

// TakeDamage removes HP, flooring at 0, and reports whether this hit killed the enemy.
func (e *Enemy) TakeDamage(amount int) bool {
	if amount <= 0 || !e.IsAlive() {
		return false
	}
	e.CurrentHP = max(0, e.CurrentHP-amount)
	return e.CurrentHP == 0
}

// Heal restores up to amount HP on a living enemy and returns the HP restored.
func (e *Enemy) Heal(amount int) int {
	if amount <= 0 || !e.IsAlive() {
		return 0
	}
	before := e.CurrentHP
	e.CurrentHP = min(e.MaxHP, e.CurrentHP+amount)
	return e.CurrentHP - before
}

// EffectiveAC is AC plus the debuff AC modifier, floored at 0.
func (e *Enemy) EffectiveAC() int {
	return max(0, e.AC+e.Debuffs.ACModifier())
}

// EffectiveMight is might plus the debuff might and attack modifiers, plus
// the rage bonus once an enraged boss is bloodied.
func (e *Enemy) EffectiveMight() int {
	m := e.Might + e.Debuffs.StatModifier(debuff.Might, true) + e.Debuffs.AttackModifier()
	if e.Boss == Rage && e.Raged {
		m += RageMightBonus
	}
	return m
}

// DamageMight is the damage bonus: might plus debuff might modifiers, floored at 0.
func (e *Enemy) DamageMight() int {
	return max(0, e.Might+e.Debuffs.StatModifier(debuff.Might, false))
}

// RollDamage rolls the enemy's damage dice plus its damage bonus.
func (e *Enemy) RollDamage(src dice.Source) int {
	return dice.Sum(src, e.DamageDice, e.DamageDie) + e.DamageMight()
}

// MaxDamageDice is the highest total the damage dice can show.
func (e *Enemy) MaxDamageDice() int {
	return e.DamageDice * e.DamageDie
}

// Generator builds encounters from a catalog.
type Generator struct {
	Catalog *Catalog
}

// NewGenerator returns a generator over catalog, or the embedded catalog when nil.
func NewGenerator(catalog *Catalog) *Generator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Generator{Catalog: catalog}
}

// Encounter spawns count enemies for floor. In a boss room the first enemy is
// a boss with a random modifier and the rest are minions.
//
// Postcondition: len(result) == max(count, 0).
func (g *Generator) Encounter(floor, count int, boss bool, src dice.Source) []*Enemy {
	if count <= 0 {
		return nil
	}
	types := g.Catalog.Types(floor)
	enemies := make([]*Enemy, 0, count)
	for i := 1; i <= count; i++ {
		typ := types[dice.Pick(src, len(types))]
		var mod BossType
		if boss && i == 1 {
			bosses := BossTypes()
			mod = bosses[dice.Pick(src, len(bosses))]
		}
		enemies = append(enemies, Spawn(typ, floor, i, mod, src))
	}
	return enemies
}

// Living filters enemies to those still standing, preserving order.
func Living(enemies []*Enemy) []*Enemy {
	var out []*Enemy
	for _, e := range enemies {
		if e.IsAlive() {
			out = append(out, e)
		}
	}
	return out
}

// AverageLevel returns the mean level of living enemies, or fallback when none.
func AverageLevel(enemies []*Enemy, fallback int) int {
	living := Living(enemies)
	if len(living) == 0 {
		return fallback
	}
	total := 0
	for _, e := range living {
		total += e.Level
	}
	return total / len(living)
}
