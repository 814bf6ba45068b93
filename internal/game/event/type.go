// Package event defines the expedition narrative: a closed set of event
// types with typed payloads, and the sinks that receive them.
package event

import "fmt"

// Type is the closed enumeration of narrative events.
type Type int

const (
	ExpeditionStart Type = iota + 1
	ExpeditionRetreat
	ExpeditionWipe
	ExpeditionComplete

	FloorEnter
	RoomEnter
	RoomComplete

	TrapDetected
	TrapDisarmed
	TrapTriggered
	TrapCriticalFail

	CombatStart
	CombatEnd
	AttackHit
	AttackMiss
	AttackCritical
	SpellCast
	SpellFail
	SpellCritical

	EnemyAppears
	EnemyDefeated
	BossAbilityTriggered
	EnemySpecialAttack

	CharacterUnconscious
	CharacterDeathTest
	CharacterDies
	CharacterRevived
	CharacterHealed
	SpellDisabled

	DebuffApplied
	DebuffExpired
	StatusDamage

	TreasureFound
	TreasureCritical
	MagicItemFound

	MoraleCheck
	MoraleSuccess
	MoraleFailure
)

var typeNames = map[Type]string{
	ExpeditionStart:      "expedition_start",
	ExpeditionRetreat:    "expedition_retreat",
	ExpeditionWipe:       "expedition_wipe",
	ExpeditionComplete:   "expedition_complete",
	FloorEnter:           "floor_enter",
	RoomEnter:            "room_enter",
	RoomComplete:         "room_complete",
	TrapDetected:         "trap_detected",
	TrapDisarmed:         "trap_disarmed",
	TrapTriggered:        "trap_triggered",
	TrapCriticalFail:     "trap_critical_fail",
	CombatStart:          "combat_start",
	CombatEnd:            "combat_end",
	AttackHit:            "attack_hit",
	AttackMiss:           "attack_miss",
	AttackCritical:       "attack_critical",
	SpellCast:            "spell_cast",
	SpellFail:            "spell_fail",
	SpellCritical:        "spell_critical",
	EnemyAppears:         "enemy_appears",
	EnemyDefeated:        "enemy_defeated",
	BossAbilityTriggered: "boss_ability_triggered",
	EnemySpecialAttack:   "enemy_special_attack",
	CharacterUnconscious: "character_unconscious",
	CharacterDeathTest:   "character_death_test",
	CharacterDies:        "character_dies",
	CharacterRevived:     "character_revived",
	CharacterHealed:      "character_healed",
	SpellDisabled:        "spell_disabled",
	DebuffApplied:        "debuff_applied",
	DebuffExpired:        "debuff_expired",
	StatusDamage:         "status_damage",
	TreasureFound:        "treasure_found",
	TreasureCritical:     "treasure_critical",
	MagicItemFound:       "magic_item_found",
	MoraleCheck:          "morale_check",
	MoraleSuccess:        "morale_success",
	MoraleFailure:        "morale_failure",
}

// Types returns every event type in declaration order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := ExpeditionStart; t <= MoraleFailure; t++ {
		out = append(out, t)
	}
	return out
}

// String returns the wire name, e.g. "attack_hit".
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// ParseType maps a wire name back to its Type.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("invalid event type %d", int(t))
	}
	return []byte(t.String()), nil
}

// IsCombat reports whether the event belongs to an encounter.
func (t Type) IsCombat() bool {
	switch t {
	case CombatStart, CombatEnd, AttackHit, AttackMiss, AttackCritical,
		SpellCast, SpellFail, SpellCritical,
		EnemyAppears, EnemyDefeated, BossAbilityTriggered, EnemySpecialAttack:
		return true
	default:
		return false
	}
}

// IsDeathRelated reports whether the event concerns downing or death.
func (t Type) IsDeathRelated() bool {
	switch t {
	case CharacterUnconscious, CharacterDeathTest, CharacterDies, CharacterRevived:
		return true
	default:
		return false
	}
}

// IsStatusEffect reports whether the event concerns a debuff.
func (t Type) IsStatusEffect() bool {
	switch t {
	case DebuffApplied, DebuffExpired, StatusDamage:
		return true
	default:
		return false
	}
}

// Priority ranks how prominently a viewer should show an event.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Critical
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Normal:
		return "normal"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
