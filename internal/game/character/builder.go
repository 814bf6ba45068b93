package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// ErrInvalidCharacter is returned when character inputs violate the model.
var ErrInvalidCharacter = errors.New("invalid character")

// New rolls a fresh character: max HP = grit + one role hit die, spell slots =
// wit / 3 for casters.
//
// Precondition: name non-empty; role valid; src non-nil.
// Postcondition: the character is alive, conscious, at full HP, and knows no spells.
func New(name string, role Role, guildID int64, stats Stats, src dice.Source) (*Character, error) {
	if err := validate(name, role, stats); err != nil {
		return nil, err
	}
	maxHP := stats.Grit + dice.D(src, role.HitDie())
	return build(name, role, guildID, stats, maxHP), nil
}

// Restore rebuilds a persisted character without rolling.
//
// Precondition: maxHP >= 1; 0 <= currentHP <= maxHP.
func Restore(id int64, name string, role Role, guildID int64, stats Stats, maxHP, currentHP, timesDowned int, alive bool) (*Character, error) {
	if err := validate(name, role, stats); err != nil {
		return nil, err
	}
	if maxHP < 1 {
		return nil, fmt.Errorf("%w: %s max HP must be >= 1, got %d", ErrInvalidCharacter, name, maxHP)
	}
	if currentHP < 0 || currentHP > maxHP {
		return nil, fmt.Errorf("%w: %s current HP %d outside [0, %d]", ErrInvalidCharacter, name, currentHP, maxHP)
	}
	c := build(name, role, guildID, stats, maxHP)
	c.ID = id
	c.CurrentHP = currentHP
	c.TimesDowned = timesDowned
	c.Alive = alive
	c.Conscious = alive && currentHP > 0
	return c, nil
}

func validate(name string, role Role, stats Stats) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidCharacter)
	}
	if role < Striker || role > Controller {
		return fmt.Errorf("%w: %s has invalid role %d", ErrInvalidCharacter, name, int(role))
	}
	for _, st := range []debuff.Stat{debuff.Might, debuff.Grit, debuff.Wit, debuff.Luck} {
		if stats.Get(st) < 1 {
			return fmt.Errorf("%w: %s %s must be >= 1", ErrInvalidCharacter, name, st)
		}
	}
	return nil
}

func build(name string, role Role, guildID int64, stats Stats, maxHP int) *Character {
	c := &Character{
		Name:           name,
		Role:           role,
		GuildID:        guildID,
		Stats:          stats,
		MaxHP:          maxHP,
		CurrentHP:      maxHP,
		Alive:          true,
		Conscious:      true,
		DisabledSpells: make(map[string]bool),
		Debuffs:        debuff.NewManager(),
	}
	if role.IsCaster() {
		c.SpellSlots = stats.Wit / 3
	}
	return c
}
