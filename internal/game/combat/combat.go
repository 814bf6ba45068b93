// Package combat resolves one room encounter between a party and a generated
// group of enemies, round by round, until victory, a wipe or the round cap.
package combat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
)

// MaxRounds caps an encounter; reaching it ends combat in a stalemate.
const MaxRounds = 20

// Outcome is how an encounter ended.
type Outcome int

const (
	Victory Outcome = iota + 1
	Wipe
	Stalemate
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Victory:
		return "victory"
	case Wipe:
		return "wipe"
	case Stalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// Survived reports whether the party proceeds after the encounter.
// A stalemate is a non-lethal timeout.
func (o Outcome) Survived() bool {
	return o == Victory || o == Stalemate
}

// Result summarises one encounter.
type Result struct {
	Outcome         Outcome
	Rounds          int
	EnemiesDefeated int
	// Enemies is every enemy spawned for the encounter, dead or alive.
	Enemies []*enemy.Enemy
}

// ReportDamage emits the death test and its consequence when res downed c.
// It emits nothing for a hit that did not down the character.
func ReportDamage(scope *event.Scope, c *character.Character, res character.DamageResult) {
	if !res.Downed || res.DeathTest == nil {
		return
	}
	dt := res.DeathTest
	var desc string
	switch {
	case dt.Protected:
		desc = fmt.Sprintf("%s is spared from death by a protective ward!", c.Name)
	case dt.Survived:
		desc = fmt.Sprintf("%s death test: [%s] - SURVIVES!", c.Name, joinInts(dt.Rolls))
	default:
		desc = fmt.Sprintf("%s death test: [%s] - DIES!", c.Name, joinInts(dt.Rolls))
	}
	scope.Emit(event.CharacterDeathTest, event.Critical, desc, event.DeathTestPayload{
		Character: c.Name,
		Rolls:     dt.Rolls,
		Survived:  dt.Survived,
		Protected: dt.Protected,
	})

	payload := characterPayload(c)
	if dt.Survived {
		scope.Emit(event.CharacterUnconscious, event.High,
			fmt.Sprintf("%s has been knocked unconscious!", c.Name), payload)
		return
	}
	scope.Emit(event.CharacterDies, event.Critical,
		fmt.Sprintf("%s has DIED! They will not return...", c.Name), payload)
}

func characterPayload(c *character.Character) event.CharacterPayload {
	return event.CharacterPayload{
		Character: c.Name,
		Role:      c.Role.String(),
		HP:        c.CurrentHP,
		MaxHP:     c.MaxHP,
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
