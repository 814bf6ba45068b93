// Package dungeon generates seeded floor layouts shared by every party in an
// expedition.
package dungeon

import "fmt"

// RoomType is the content of a room.
type RoomType int

const (
	Combat RoomType = iota + 1
	Trap
	Both
	Boss
	HealingFountain
)

// RoomTypes returns every room type in table order.
func RoomTypes() []RoomType {
	return []RoomType{Combat, Trap, Both, Boss, HealingFountain}
}

// String returns the storage name of the room type.
func (t RoomType) String() string {
	switch t {
	case Combat:
		return "combat"
	case Trap:
		return "trap"
	case Both:
		return "both"
	case Boss:
		return "boss"
	case HealingFountain:
		return "healing_fountain"
	default:
		return fmt.Sprintf("room(%d)", int(t))
	}
}

// HasCombat reports whether the room holds enemies.
func (t RoomType) HasCombat() bool {
	switch t {
	case Combat, Both, Boss:
		return true
	case Trap, HealingFountain:
		return false
	default:
		return false
	}
}

// HasTrap reports whether the room holds a trap.
func (t RoomType) HasTrap() bool {
	switch t {
	case Trap, Both:
		return true
	case Combat, Boss, HealingFountain:
		return false
	default:
		return false
	}
}

// Description is the narrative phrase used when a party enters.
func (t RoomType) Description() string {
	switch t {
	case Combat:
		return "a monster lair"
	case Trap:
		return "a trapped corridor"
	case Both:
		return "a dangerous chamber"
	case Boss:
		return "a boss chamber"
	case HealingFountain:
		return "a healing sanctuary"
	default:
		return "an unknown room"
	}
}

// Room is one generated room. Rooms are values and never change after generation.
type Room struct {
	Floor      int
	Index      int // 1-based position on the floor
	Type       RoomType
	Difficulty int
	EnemyCount int
	TrapDC     int
	IsFinal    bool
}

// IsBoss reports whether the room is a boss encounter.
func (r Room) IsBoss() bool { return r.Type == Boss }

// String renders e.g. "Room 3: boss [FINAL]".
func (r Room) String() string {
	s := fmt.Sprintf("Room %d: %s", r.Index, r.Type)
	if r.IsFinal {
		s += " [FINAL]"
	}
	return s
}
