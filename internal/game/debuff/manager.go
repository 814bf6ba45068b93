package debuff

import (
	"sort"

	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// ConfusionChance is the fixed probability that a confused actor strikes an ally.
const ConfusionChance = 0.5

// Debuff is one applied status effect.
type Debuff struct {
	Kind      Kind
	Remaining int // rounds left; removed when it reaches 0
	Severity  int // multiplier for the kind's penalty; treated as 1 when <= 0
	Source    string
}

func (d Debuff) severity() int {
	if d.Severity <= 0 {
		return 1
	}
	return d.Severity
}

// Manager tracks the debuffs currently applied to one actor. It holds at most
// one instance per kind.
// It is not safe for concurrent use; the caller must serialise access.
type Manager struct {
	active map[Kind]*Debuff
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{active: make(map[Kind]*Debuff)}
}

// Apply adds d, replacing any existing debuff of the same kind.
// Severity is never accumulated across applications.
//
// Precondition: d.Kind is valid.
// Postcondition: Has(d.Kind); returns true iff the kind was not already active.
func (m *Manager) Apply(d Debuff) bool {
	_, existed := m.active[d.Kind]
	if d.Severity <= 0 {
		d.Severity = 1
	}
	m.active[d.Kind] = &d
	return !existed
}

// Remove deletes the debuff of the given kind and reports whether it was present.
func (m *Manager) Remove(k Kind) bool {
	_, ok := m.active[k]
	delete(m.active, k)
	return ok
}

// Has reports whether a debuff of kind k is active.
func (m *Manager) Has(k Kind) bool {
	_, ok := m.active[k]
	return ok
}

// Get returns a copy of the active debuff of kind k.
func (m *Manager) Get(k Kind) (Debuff, bool) {
	d, ok := m.active[k]
	if !ok {
		return Debuff{}, false
	}
	return *d, true
}

// TickAll decrements every debuff by one round and removes those that reach zero.
//
// Postcondition: for every kind returned, Has(kind) is false. Returned kinds are in table order.
func (m *Manager) TickAll() []Kind {
	var expired []Kind
	for k, d := range m.active {
		d.Remaining--
		if d.Remaining <= 0 {
			expired = append(expired, k)
			delete(m.active, k)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// StatModifier returns the net penalty applied to checks using stat.
// Frightened only counts when the roll is made against enemies.
//
// Postcondition: returns <= 0.
func (m *Manager) StatModifier(stat Stat, vsEnemies bool) int {
	total := 0
	for k, d := range m.active {
		switch k {
		case Poisoned:
			total -= 2 * d.severity()
		case Weakened:
			if stat == Might {
				total -= 2 * d.severity()
			}
		case Cursed:
			if stat == Luck {
				total -= 2 * d.severity()
			}
		case Frightened:
			if vsEnemies {
				total -= 2 * d.severity()
			}
		case Slowed, Stunned, Confused, Blinded:
		}
	}
	return total
}

// AttackModifier returns the net penalty applied to attack rolls.
//
// Postcondition: returns <= 0.
func (m *Manager) AttackModifier() int {
	total := 0
	for k, d := range m.active {
		switch k {
		case Blinded:
			total -= 4 * d.severity()
		case Slowed:
			total -= 2 * d.severity()
		case Poisoned, Weakened, Stunned, Confused, Cursed, Frightened:
		}
	}
	return total
}

// ACModifier is the armour class adjustment while debuffed: Blinded lowers
// AC by 2 per severity.
func (m *Manager) ACModifier() int {
	if d, ok := m.active[Blinded]; ok {
		return -2 * d.severity()
	}
	return 0
}

// IsStunned reports whether the actor loses its turn.
func (m *Manager) IsStunned() bool { return m.Has(Stunned) }

// IsConfused reports whether the actor's attacks may be redirected.
func (m *Manager) IsConfused() bool { return m.Has(Confused) }

// ConfusionChance returns the redirect probability, or 0 when not confused.
func (m *Manager) ConfusionChance() float64 {
	if !m.IsConfused() {
		return 0
	}
	return ConfusionChance
}

// PoisonDamage returns the damage dealt by poison at the start of a round.
func (m *Manager) PoisonDamage() int {
	d, ok := m.active[Poisoned]
	if !ok {
		return 0
	}
	return d.severity()
}

// ClearAll removes every debuff.
func (m *Manager) ClearAll() {
	clear(m.active)
}

// Len returns the number of active debuffs.
func (m *Manager) Len() int { return len(m.active) }

// Active returns copies of the active debuffs in table order.
func (m *Manager) Active() []Debuff {
	out := make([]Debuff, 0, len(m.active))
	for _, k := range kinds {
		if d, ok := m.active[k]; ok {
			out = append(out, *d)
		}
	}
	return out
}

// NewTrapDebuff rolls the random debuff inflicted by a critically failed trap:
// the kind is chosen with a d8 over the table order and lasts 1d4 rounds.
func NewTrapDebuff(src dice.Source) Debuff {
	k := kinds[dice.D(src, len(kinds))-1]
	return Debuff{Kind: k, Remaining: dice.D(src, 4), Severity: 1, Source: "trap"}
}
