// Package trap resolves the single-roll trap check made when a party enters
// a trap-bearing room.
package trap

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/combat"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dungeon"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
)

// ErrNoDetector is returned when no party member can act to face the trap.
var ErrNoDetector = errors.New("no party member can search for traps")

// Outcome is the result tier of a trap check.
type Outcome int

const (
	ExpertDisarm Outcome = iota + 1
	Disarmed
	Triggered
	CriticalFailure
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case ExpertDisarm:
		return "expert_disarm"
	case Disarmed:
		return "disarmed"
	case Triggered:
		return "triggered"
	case CriticalFailure:
		return "critical_failure"
	default:
		return "unknown"
	}
}

// Result describes how a trap check went.
type Result struct {
	Outcome  Outcome
	Detector *character.Character
	// Victim took the damage; nil when the trap was disarmed.
	Victim  *character.Character
	Natural int
	Total   int
	DC      int
	Damage  character.DamageResult
	Rolled  int // damage rolled before shields
	Debuff  debuff.Debuff
	Downed  bool
}

// DC returns the trap difficulty for room, defaulting to 10 + floor.
func DC(room dungeon.Room) int {
	if room.TrapDC > 0 {
		return room.TrapDC
	}
	return 10 + room.Floor
}

// Resolve runs the trap check for room. The Burglar searches when able,
// otherwise a random conscious member. The roll is d20 + luck modifier +
// debuff luck penalty against DC.
//
// A natural 1 is a critical failure: the detector takes 1d6 x floor damage
// and a random debuff. A natural 20 disarms cleanly. A plain failure hits a
// random conscious member for 1d6 x floor.
//
// Precondition: room.Type.HasTrap().
// Postcondition: returns ErrNoDetector iff no member can act.
func Resolve(party *character.Party, room dungeon.Room, src dice.Source, scope *event.Scope) (Result, error) {
	detector := party.Specialist(character.Burglar, src)
	if detector == nil {
		return Result{}, ErrNoDetector
	}
	res := Result{Detector: detector, DC: DC(room), Natural: dice.D(src, 20)}
	res.Total = res.Natural + detector.Modifier(debuff.Luck) + detector.Debuffs.StatModifier(debuff.Luck, false)

	p := event.TrapPayload{Character: detector.Name, Roll: res.Natural, Total: res.Total, DC: res.DC}
	scope.Emit(event.TrapDetected, event.Normal,
		fmt.Sprintf("%s searches the room for traps (DC %d)", detector.Name, res.DC), p)

	switch {
	case res.Natural == 1:
		res.Outcome = CriticalFailure
		res.Victim = detector
		res.Rolled = dice.D(src, 6) * room.Floor
		res.Damage = detector.TakeDamage(res.Rolled, src)
		res.Debuff = debuff.NewTrapDebuff(src)
		if detector.Alive {
			detector.Debuffs.Apply(res.Debuff)
		}
		p.Victim, p.Damage, p.Debuff = detector.Name, res.Rolled, res.Debuff.Kind.String()
		scope.Emit(event.TrapCriticalFail, event.High,
			fmt.Sprintf("%s critically fails! Trap deals %d damage and applies %s!", detector.Name, res.Rolled, res.Debuff.Kind), p)
		if detector.Alive {
			scope.Emit(event.DebuffApplied, event.Normal,
				fmt.Sprintf("%s is %s by the trap! (%d rounds)", detector.Name, res.Debuff.Kind, res.Debuff.Remaining),
				event.DebuffPayload{Target: detector.Name, Debuff: res.Debuff.Kind.String(), Duration: res.Debuff.Remaining, Source: res.Debuff.Source})
		}
	case res.Natural == 20:
		res.Outcome = ExpertDisarm
		scope.Emit(event.TrapDisarmed, event.Normal,
			fmt.Sprintf("%s expertly disarms the trap! (Critical success)", detector.Name), p)
	case res.Total >= res.DC:
		res.Outcome = Disarmed
		scope.Emit(event.TrapDisarmed, event.Normal,
			fmt.Sprintf("%s disarms the trap (rolled %d vs DC %d)", detector.Name, res.Total, res.DC), p)
	default:
		res.Outcome = Triggered
		res.Rolled = dice.D(src, 6) * room.Floor
		alive := party.AliveMembers()
		res.Victim = alive[dice.Pick(src, len(alive))]
		res.Damage = res.Victim.TakeDamage(res.Rolled, src)
		p.Victim, p.Damage = res.Victim.Name, res.Rolled
		scope.Emit(event.TrapTriggered, event.High,
			fmt.Sprintf("Trap springs! %s takes %d damage", res.Victim.Name, res.Rolled), p)
	}

	res.Downed = res.Damage.Downed
	if res.Victim != nil {
		combat.ReportDamage(scope, res.Victim, res.Damage)
	}
	return res, nil
}
