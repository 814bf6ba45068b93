// Package character defines party members, their vitality state machine, and
// the four-role party that carries them through an expedition.
package character

import (
	"slices"

	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// Stats holds the four base statistics.
type Stats struct {
	Might int
	Grit  int
	Wit   int
	Luck  int
}

// Modifier converts a stat score to its roll modifier: score / 3, floored.
func Modifier(score int) int {
	if score < 0 {
		return (score - 2) / 3
	}
	return score / 3
}

// Get returns the score for stat.
func (s Stats) Get(stat debuff.Stat) int {
	switch stat {
	case debuff.Might:
		return s.Might
	case debuff.Grit:
		return s.Grit
	case debuff.Wit:
		return s.Wit
	case debuff.Luck:
		return s.Luck
	default:
		return 0
	}
}

// Character is one guild member.
//
// Invariant: while Alive, CurrentHP == 0 implies !Conscious.
// Invariant: a dead character never acts, is never healed and is never reset.
type Character struct {
	ID      int64 // storage id; 0 when unsaved
	Name    string
	Role    Role
	GuildID int64
	Stats   Stats

	MaxHP       int
	CurrentHP   int
	Alive       bool
	Conscious   bool
	TimesDowned int
	SpellSlots  int

	KnownSpells    []string
	DisabledSpells map[string]bool

	DamageShield   int
	DeathProtected bool
	RegenRounds    int

	Debuffs *debuff.Manager
}

// DeathTest records the three d20s rolled when a character is downed.
type DeathTest struct {
	Rolls     []int
	Survived  bool
	Protected bool // survival was granted by death protection, no rolls made
}

// DamageResult describes what one TakeDamage call did.
type DamageResult struct {
	Absorbed  int // soaked by the damage shield
	Dealt     int // HP actually removed
	Downed    bool
	DeathTest *DeathTest // non-nil iff Downed
}

// Died reports whether the hit killed the character.
func (r DamageResult) Died() bool {
	return r.DeathTest != nil && !r.DeathTest.Survived
}

// Modifier returns the base roll modifier for stat.
func (c *Character) Modifier(stat debuff.Stat) int {
	return Modifier(c.Stats.Get(stat))
}

// AC returns 10 + grit modifier.
func (c *Character) AC() int {
	return 10 + c.Modifier(debuff.Grit)
}

// EffectiveAC is the AC attackers roll against: AC plus the debuff AC
// modifier, floored at 0.
func (c *Character) EffectiveAC() int {
	return max(0, c.AC()+c.Debuffs.ACModifier())
}

// CanAct reports whether the character is alive and conscious.
func (c *Character) CanAct() bool {
	return c.Alive && c.Conscious
}

// TakeDamage applies amount to the character.
// The damage shield absorbs first. Crossing from conscious to 0 HP downs the
// character and runs a death test: three d20s, survival on at least two rolls
// above 10. Death protection skips the test and the character survives.
//
// Postcondition: 0 <= CurrentHP <= MaxHP; result.Downed iff this call downed the character.
func (c *Character) TakeDamage(amount int, src dice.Source) DamageResult {
	var res DamageResult
	if amount < 0 {
		amount = 0
	}
	if !c.Alive {
		return res
	}
	if c.DamageShield > 0 && amount > 0 {
		res.Absorbed = min(c.DamageShield, amount)
		c.DamageShield -= res.Absorbed
		amount -= res.Absorbed
	}
	res.Dealt = min(amount, c.CurrentHP)
	c.CurrentHP -= res.Dealt

	if c.CurrentHP == 0 && c.Conscious {
		c.Conscious = false
		c.TimesDowned++
		res.Downed = true
		res.DeathTest = c.deathTest(src)
		if !res.DeathTest.Survived {
			c.Alive = false
		}
	}
	return res
}

func (c *Character) deathTest(src dice.Source) *DeathTest {
	if c.DeathProtected {
		c.DeathProtected = false
		return &DeathTest{Survived: true, Protected: true}
	}
	rolls := dice.Rolls(src, 3, 20)
	passes := 0
	for _, r := range rolls {
		if r > 10 {
			passes++
		}
	}
	return &DeathTest{Rolls: rolls, Survived: passes >= 2}
}

// Heal restores up to amount HP and returns the HP actually restored.
// Healing an unconscious character above 0 restores consciousness.
//
// Postcondition: CurrentHP <= MaxHP; returns 0 for the dead.
func (c *Character) Heal(amount int) int {
	if !c.Alive || amount <= 0 {
		return 0
	}
	before := c.CurrentHP
	c.CurrentHP = min(c.MaxHP, c.CurrentHP+amount)
	if before == 0 && c.CurrentHP > 0 {
		c.Conscious = true
	}
	return c.CurrentHP - before
}

// ApplyShield sets the damage shield, keeping the larger of the old and new values.
func (c *Character) ApplyShield(amount int) {
	c.DamageShield = max(c.DamageShield, amount)
}

// ApplyDeathProtection protects the character from the next failed death test.
func (c *Character) ApplyDeathProtection() {
	c.DeathProtected = true
}

// ApplyRegeneration grants one HP per round for the given number of rounds.
func (c *Character) ApplyRegeneration(rounds int) {
	c.RegenRounds = max(c.RegenRounds, rounds)
}

// ProcessRegeneration consumes one regeneration round and returns the HP healed.
func (c *Character) ProcessRegeneration() int {
	if c.RegenRounds <= 0 || !c.Alive {
		return 0
	}
	c.RegenRounds--
	return c.Heal(1)
}

// HPFraction returns CurrentHP / MaxHP.
func (c *Character) HPFraction() float64 {
	if c.MaxHP == 0 {
		return 0
	}
	return float64(c.CurrentHP) / float64(c.MaxHP)
}

// MissingHP returns MaxHP - CurrentHP for the living, 0 for the dead.
func (c *Character) MissingHP() int {
	if !c.Alive {
		return 0
	}
	return c.MaxHP - c.CurrentHP
}

// DisableSpell marks a known spell unusable for the rest of the character's career.
func (c *Character) DisableSpell(name string) {
	if c.DisabledSpells == nil {
		c.DisabledSpells = make(map[string]bool)
	}
	c.DisabledSpells[name] = true
}

// AvailableSpells returns known spells that are not disabled, in learned order.
func (c *Character) AvailableSpells() []string {
	out := make([]string, 0, len(c.KnownSpells))
	for _, s := range c.KnownSpells {
		if !c.DisabledSpells[s] {
			out = append(out, s)
		}
	}
	return out
}

// CanCast reports whether the character is a caster able to act with at least one spell.
func (c *Character) CanCast() bool {
	return c.Role.IsCaster() && c.CanAct() && len(c.AvailableSpells()) > 0
}

// Knows reports whether the character has learned the named spell.
func (c *Character) Knows(name string) bool {
	return slices.Contains(c.KnownSpells, name)
}

// ResetForExpedition restores HP and clears transient effects before a new run.
// times_downed and disabled spells are preserved.
func (c *Character) ResetForExpedition() {
	if !c.Alive {
		return
	}
	c.CurrentHP = c.MaxHP
	c.Conscious = true
	c.DamageShield = 0
	c.DeathProtected = false
	c.RegenRounds = 0
	c.Debuffs.ClearAll()
}
