package enemy

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
)

// Tier groups enemy types by dungeon depth.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
	Tier5
)

// TierForFloor maps a floor to its tier: floors 1-2 tier 1, 3-4 tier 2, and
// so on, with every floor past 8 at tier 5.
func TierForFloor(floor int) Tier {
	switch {
	case floor <= 2:
		return Tier1
	case floor <= 4:
		return Tier2
	case floor <= 6:
		return Tier3
	case floor <= 8:
		return Tier4
	default:
		return Tier5
	}
}

// Heavy reports whether the tier uses the halved floor scaling and doubled d4 dice.
func (t Tier) Heavy() bool {
	return t >= Tier4
}

// Special is an enemy's on-hit ability.
type Special int

const (
	SpecialNone Special = iota
	SpecialPoison
	SpecialSlow
	SpecialWeaken
	SpecialBlind
	SpecialStun
	SpecialFrighten
	SpecialCurse
	SpecialBurn
)

var specialNames = [...]string{"none", "poison", "slow", "weaken", "blind", "stun", "frighten", "curse", "burn"}

// String returns the catalog name of the special.
func (s Special) String() string {
	if s < 0 || int(s) >= len(specialNames) {
		return fmt.Sprintf("special(%d)", int(s))
	}
	return specialNames[s]
}

// UnmarshalText parses a catalog special name.
func (s *Special) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range specialNames {
		if n == name {
			*s = Special(i)
			return nil
		}
	}
	return fmt.Errorf("unknown enemy special %q", name)
}

// Debuff returns the debuff kind the special inflicts. Burn is treated as poison.
func (s Special) Debuff() (debuff.Kind, bool) {
	switch s {
	case SpecialPoison, SpecialBurn:
		return debuff.Poisoned, true
	case SpecialSlow:
		return debuff.Slowed, true
	case SpecialWeaken:
		return debuff.Weakened, true
	case SpecialBlind:
		return debuff.Blinded, true
	case SpecialStun:
		return debuff.Stunned, true
	case SpecialFrighten:
		return debuff.Frightened, true
	case SpecialCurse:
		return debuff.Cursed, true
	case SpecialNone:
		return 0, false
	default:
		return 0, false
	}
}

// BossType is the modifier that turns an enemy into a boss.
type BossType int

const (
	Rage BossType = iota + 1
	Summon
	Aura
	Regenerate
)

// BossTypes returns every boss modifier in table order.
func BossTypes() []BossType {
	return []BossType{Rage, Summon, Aura, Regenerate}
}

// String returns the lower-case modifier name.
func (b BossType) String() string {
	switch b {
	case Rage:
		return "rage"
	case Summon:
		return "summon"
	case Aura:
		return "aura"
	case Regenerate:
		return "regenerate"
	default:
		return fmt.Sprintf("boss(%d)", int(b))
	}
}

// Title returns the modifier as a name prefix, e.g. "Rage".
func (b BossType) Title() string {
	s := b.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Description is the flavor text shown when the boss appears.
func (b BossType) Description() string {
	switch b {
	case Rage:
		return "becomes enraged when wounded"
	case Summon:
		return "calls for reinforcements"
	case Aura:
		return "empowers nearby allies"
	case Regenerate:
		return "regenerates wounds"
	default:
		return ""
	}
}
