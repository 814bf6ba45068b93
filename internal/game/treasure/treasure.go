// Package treasure resolves the search for gold and magic items at the end
// of a room.
package treasure

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dungeon"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
)

// ErrNoSearcher is returned when no party member can act to search.
var ErrNoSearcher = errors.New("no party member can search for treasure")

// Outcome is the result tier of a treasure search.
type Outcome int

const (
	CriticalSuccess Outcome = iota + 1
	Success
	Failure
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case CriticalSuccess:
		return "critical_success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Rarity grades a magic item.
type Rarity int

const (
	Common Rarity = iota + 1
	Uncommon
	Rare
)

// String returns the lower-case rarity name.
func (r Rarity) String() string {
	switch r {
	case Common:
		return "common"
	case Uncommon:
		return "uncommon"
	case Rare:
		return "rare"
	default:
		return fmt.Sprintf("rarity(%d)", int(r))
	}
}

// RarityFor maps a d20 to a rarity band: 1-12 common, 13-18 uncommon, 19-20 rare.
func RarityFor(roll int) Rarity {
	switch {
	case roll <= 12:
		return Common
	case roll <= 18:
		return Uncommon
	default:
		return Rare
	}
}

// Items returns the item table for a rarity.
func (r Rarity) Items() []string {
	switch r {
	case Common:
		return []string{"Rusty Sword", "Cracked Shield", "Faded Cloak", "Bent Wand"}
	case Uncommon:
		return []string{"Silver Blade", "Iron Shield", "Mystic Robe", "Crystal Wand"}
	case Rare:
		return []string{"Flaming Sword", "Dragon Shield", "Archmage Robe", "Staff of Power"}
	default:
		return nil
	}
}

// Item is one unidentified magic item instance.
type Item struct {
	ID     uuid.UUID
	Name   string
	Rarity Rarity
}

// Result describes a treasure search.
type Result struct {
	Outcome  Outcome
	Searcher *character.Character
	Natural  int
	Total    int
	DC       int
	Gold     int
	Item     *Item // set only on a critical success
}

// DC returns the search difficulty: 10 + floor, +1 in a boss room.
func DC(room dungeon.Room) int {
	dc := 10 + room.Floor
	if room.IsBoss() {
		dc++
	}
	return dc
}

// Resolve searches room for treasure. The Burglar searches when able,
// otherwise a random conscious member. The roll is d20 + luck modifier +
// debuff luck penalty against DC. Success finds floor x 1d20 gold; a natural
// 20 also finds a magic item. Gold is added to the party.
//
// Postcondition: returns ErrNoSearcher iff no member can act.
func Resolve(party *character.Party, room dungeon.Room, src dice.Source, scope *event.Scope) (Result, error) {
	searcher := party.Specialist(character.Burglar, src)
	if searcher == nil {
		return Result{}, ErrNoSearcher
	}
	res := Result{Searcher: searcher, DC: DC(room), Natural: dice.D(src, 20)}
	res.Total = res.Natural + searcher.Modifier(debuff.Luck) + searcher.Debuffs.StatModifier(debuff.Luck, false)

	place := "room"
	if room.IsBoss() {
		place = "boss chamber"
	}
	p := event.TreasurePayload{Character: searcher.Name, Roll: res.Natural, Total: res.Total, DC: res.DC}

	switch {
	case res.Natural == 20:
		res.Outcome = CriticalSuccess
		res.Gold = room.Floor * dice.D(src, 20)
		item, err := rollItem(src)
		if err != nil {
			return Result{}, fmt.Errorf("rolling magic item: %w", err)
		}
		res.Item = &item
		party.AddGold(res.Gold)
		p.Gold, p.ItemID, p.Item, p.Rarity = res.Gold, item.ID.String(), item.Name, item.Rarity.String()
		scope.Emit(event.TreasureCritical, event.High,
			fmt.Sprintf("%s finds amazing treasure! %d gold and %s!", searcher.Name, res.Gold, item.Name), p)
		scope.Emit(event.MagicItemFound, event.High,
			fmt.Sprintf("%s recovers a %s item: %s (unidentified)", searcher.Name, item.Rarity, item.Name), p)
	case res.Total >= res.DC:
		res.Outcome = Success
		res.Gold = room.Floor * dice.D(src, 20)
		party.AddGold(res.Gold)
		p.Gold = res.Gold
		scope.Emit(event.TreasureFound, event.Normal,
			fmt.Sprintf("%s finds %d gold in the %s", searcher.Name, res.Gold, place), p)
	default:
		res.Outcome = Failure
		scope.Emit(event.TreasureFound, event.Low,
			fmt.Sprintf("%s searches the %s but finds nothing", searcher.Name, place), p)
	}
	return res, nil
}

func rollItem(src dice.Source) (Item, error) {
	rarity := RarityFor(dice.D(src, 20))
	names := rarity.Items()
	name := names[dice.Pick(src, len(names))]
	id, err := uuid.NewRandomFromReader(sourceReader{src})
	if err != nil {
		return Item{}, err
	}
	return Item{ID: id, Name: name, Rarity: rarity}, nil
}

// sourceReader draws bytes from a dice source so item IDs replay with the seed.
type sourceReader struct {
	src dice.Source
}

func (r sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.src.Intn(256))
	}
	return len(p), nil
}
