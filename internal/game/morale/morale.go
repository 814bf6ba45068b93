// Package morale decides whether a party presses on or retreats after a room
// or a floor.
package morale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
)

// Result is one morale check.
type Result struct {
	Rolls        []int
	Roll         int // the roll compared against DC; the lower roll under disadvantage
	DC           int
	Success      bool
	Disadvantage bool
}

// DC returns the party's morale difficulty.
func DC(party *character.Party) int {
	return party.MoraleDC()
}

// CheckRoom rolls 1d100 against the morale DC after a cleared room.
//
// Postcondition: on failure the party is marked retreated.
func CheckRoom(party *character.Party, src dice.Source) Result {
	return check(party, dice.Rolls(src, 1, 100), false)
}

// CheckFloor rolls 2d100 and keeps the lower against the morale DC after a
// cleared floor.
//
// Postcondition: on failure the party is marked retreated.
func CheckFloor(party *character.Party, src dice.Source) Result {
	return check(party, dice.Rolls(src, 2, 100), true)
}

func check(party *character.Party, rolls []int, disadvantage bool) Result {
	res := Result{Rolls: rolls, Roll: rolls[0], DC: DC(party), Disadvantage: disadvantage}
	for _, r := range rolls[1:] {
		res.Roll = min(res.Roll, r)
	}
	res.Success = res.Roll >= res.DC
	if !res.Success {
		party.Retreat()
	}
	return res
}

// Report narrates res on scope.
func Report(scope *event.Scope, res Result) {
	p := event.MoralePayload{Rolls: res.Rolls, Roll: res.Roll, DC: res.DC, Success: res.Success, Disadvantage: res.Disadvantage}
	switch {
	case res.Disadvantage && res.Success:
		scope.Emit(event.MoraleSuccess, event.High,
			fmt.Sprintf("Floor complete! Morale check: %s taking %d vs DC %d - Press deeper!", rolled(res.Rolls), res.Roll, res.DC), p)
	case res.Disadvantage:
		scope.Emit(event.MoraleFailure, event.High,
			fmt.Sprintf("Floor complete, but morale breaks! %s taking %d vs DC %d - Time to retreat!", rolled(res.Rolls), res.Roll, res.DC), p)
	case res.Success:
		scope.Emit(event.MoraleSuccess, event.Normal,
			fmt.Sprintf("Morale check: %d vs DC %d - The party steels their resolve!", res.Roll, res.DC), p)
	default:
		scope.Emit(event.MoraleFailure, event.High,
			fmt.Sprintf("Morale breaks! %d vs DC %d - The party retreats from the dungeon!", res.Roll, res.DC), p)
	}
}

func rolled(rolls []int) string {
	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
