package combat

import (
	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
)

// Damage describes a damage roll: Dice dice of Die sides plus Bonus.
type Damage struct {
	Dice  int
	Die   int
	Bonus int
}

// Roll rolls normal damage.
//
// Postcondition: returns >= 1.
func (d Damage) Roll(src dice.Source) int {
	return max(1, dice.Sum(src, d.Dice, d.Die)+d.Bonus)
}

// Critical rolls critical damage: the dice's maximum plus a fresh roll.
//
// Postcondition: returns >= 1.
func (d Damage) Critical(src dice.Source) int {
	return max(1, d.Dice*d.Die+dice.Sum(src, d.Dice, d.Die)+d.Bonus)
}

// AttackRoll holds the outcome of a single attack.
type AttackRoll struct {
	// Natural is the raw d20 face.
	Natural int
	// Total is Natural plus the attack modifier.
	Total    int
	Hit      bool
	Critical bool
	Fumble   bool
	// Damage is 0 on a miss.
	Damage int
}

// Attack rolls d20 + mod against ac and, on a hit, rolls dmg.
// A natural 20 always hits critically; a natural 1 always misses.
// Damage is only rolled on a hit.
//
// Precondition: src is non-nil; dmg.Die >= 1.
// Postcondition: Critical implies Hit; Fumble implies !Hit; Hit iff Damage >= 1.
func Attack(src dice.Source, mod, ac int, dmg Damage) AttackRoll {
	r := AttackRoll{Natural: dice.D(src, 20)}
	r.Total = r.Natural + mod
	switch {
	case r.Natural == 1:
		r.Fumble = true
	case r.Natural == 20:
		r.Critical = true
		r.Hit = true
	default:
		r.Hit = r.Total >= ac
	}
	switch {
	case r.Critical:
		r.Damage = dmg.Critical(src)
	case r.Hit:
		r.Damage = dmg.Roll(src)
	}
	return r
}

// AttackModifier is a character's melee attack bonus: might modifier plus
// the debuff might and attack penalties.
func AttackModifier(c *character.Character) int {
	return c.Modifier(debuff.Might) + c.Debuffs.StatModifier(debuff.Might, true) + c.Debuffs.AttackModifier()
}

// CharacterDamage is a character's melee damage: the role die plus might
// modifier and debuff might penalties.
func CharacterDamage(c *character.Character) Damage {
	return Damage{
		Dice:  1,
		Die:   c.Role.DamageDie(),
		Bonus: c.Modifier(debuff.Might) + c.Debuffs.StatModifier(debuff.Might, false),
	}
}

// EnemyDamage is an enemy's damage roll with bonus added for aura and rage.
func EnemyDamage(e *enemy.Enemy, bonus int) Damage {
	if e.Boss == enemy.Rage && e.Raged {
		bonus += enemy.RageMightBonus
	}
	return Damage{Dice: e.DamageDice, Die: e.DamageDie, Bonus: e.DamageMight() + bonus}
}
