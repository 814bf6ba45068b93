package event

// Payload is the structured detail attached to an event. The set of payload
// types is closed to this package.
type Payload interface {
	payload()
}

// ExpeditionPayload accompanies expedition_* events.
type ExpeditionPayload struct {
	Seed          int64 `json:"seed,omitempty"`
	MaxFloors     int   `json:"max_floors,omitempty"`
	Parties       int   `json:"parties,omitempty"`
	FloorsCleared int   `json:"floors_cleared"`
	Gold          int   `json:"gold"`
	Floor         int   `json:"floor,omitempty"`
	Morale        int   `json:"morale,omitempty"`
}

// FloorPayload accompanies floor_enter.
type FloorPayload struct {
	Floor int `json:"floor"`
	Rooms int `json:"rooms"`
}

// RoomPayload accompanies room_enter and room_complete.
type RoomPayload struct {
	Floor      int    `json:"floor"`
	Room       int    `json:"room"`
	RoomType   string `json:"room_type"`
	EnemyCount int    `json:"enemy_count,omitempty"`
	TrapDC     int    `json:"trap_dc,omitempty"`
	Healed     int    `json:"healed,omitempty"`
}

// TrapPayload accompanies trap_* events.
type TrapPayload struct {
	Character string `json:"character"`
	Victim    string `json:"victim,omitempty"`
	Roll      int    `json:"roll"`
	Total     int    `json:"total"`
	DC        int    `json:"dc"`
	Damage    int    `json:"damage,omitempty"`
	Debuff    string `json:"debuff,omitempty"`
}

// CombatPayload accompanies combat_start and combat_end.
type CombatPayload struct {
	Enemies  int    `json:"enemies"`
	Boss     bool   `json:"boss"`
	Outcome  string `json:"outcome,omitempty"`
	Rounds   int    `json:"rounds,omitempty"`
	Defeated int    `json:"defeated,omitempty"`
}

// AttackPayload accompanies attack_* and enemy_special_attack events.
type AttackPayload struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	Roll     int    `json:"roll"`
	Total    int    `json:"total"`
	AC       int    `json:"ac"`
	Damage   int    `json:"damage,omitempty"`
	Critical bool   `json:"critical,omitempty"`
	Enemy    bool   `json:"enemy,omitempty"` // attacker is an enemy
	Confused bool   `json:"confused,omitempty"`
}

// SpellPayload accompanies spell_* events.
type SpellPayload struct {
	Caster  string   `json:"caster"`
	Spell   string   `json:"spell"`
	Targets []string `json:"targets,omitempty"`
	Roll    int      `json:"roll"`
	Total   int      `json:"total"`
	DC      int      `json:"dc"`
	Amount  int      `json:"amount,omitempty"`
	Outcome string   `json:"outcome"`
}

// EnemyPayload accompanies enemy_appears and enemy_defeated.
type EnemyPayload struct {
	Enemy string `json:"enemy"`
	Type  string `json:"type"`
	Boss  string `json:"boss,omitempty"`
	HP    int    `json:"hp"`
	AC    int    `json:"ac"`
}

// BossAbilityPayload accompanies boss_ability_triggered.
type BossAbilityPayload struct {
	Enemy   string `json:"enemy"`
	Ability string `json:"ability"`
	Amount  int    `json:"amount,omitempty"`
}

// CharacterPayload accompanies character_unconscious, character_dies,
// character_revived and spell_disabled.
type CharacterPayload struct {
	Character string `json:"character"`
	Role      string `json:"role"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Spell     string `json:"spell,omitempty"`
}

// DeathTestPayload accompanies character_death_test.
type DeathTestPayload struct {
	Character string `json:"character"`
	Rolls     []int  `json:"rolls"`
	Survived  bool   `json:"survived"`
	Protected bool   `json:"protected,omitempty"`
}

// HealPayload accompanies character_healed.
type HealPayload struct {
	Character string `json:"character"`
	Amount    int    `json:"amount"`
	Source    string `json:"source"`
}

// DebuffPayload accompanies debuff_applied and debuff_expired.
type DebuffPayload struct {
	Target   string `json:"target"`
	Debuff   string `json:"debuff"`
	Duration int    `json:"duration,omitempty"`
	Source   string `json:"source,omitempty"`
}

// StatusDamagePayload accompanies status_damage.
type StatusDamagePayload struct {
	Target string `json:"target"`
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

// TreasurePayload accompanies treasure_* and magic_item_found.
type TreasurePayload struct {
	Character string `json:"character"`
	Roll      int    `json:"roll"`
	Total     int    `json:"total"`
	DC        int    `json:"dc"`
	Gold      int    `json:"gold"`
	ItemID    string `json:"item_id,omitempty"`
	Item      string `json:"item,omitempty"`
	Rarity    string `json:"rarity,omitempty"`
}

// MoralePayload accompanies morale_* events.
type MoralePayload struct {
	Rolls        []int `json:"rolls"`
	Roll         int   `json:"roll"`
	DC           int   `json:"dc"`
	Success      bool  `json:"success"`
	Disadvantage bool  `json:"disadvantage,omitempty"`
}

func (ExpeditionPayload) payload()   {}
func (FloorPayload) payload()        {}
func (RoomPayload) payload()         {}
func (TrapPayload) payload()         {}
func (CombatPayload) payload()       {}
func (AttackPayload) payload()       {}
func (SpellPayload) payload()        {}
func (EnemyPayload) payload()        {}
func (BossAbilityPayload) payload()  {}
func (CharacterPayload) payload()    {}
func (DeathTestPayload) payload()    {}
func (HealPayload) payload()         {}
func (DebuffPayload) payload()       {}
func (StatusDamagePayload) payload() {}
func (TreasurePayload) payload()     {}
func (MoralePayload) payload()       {}
