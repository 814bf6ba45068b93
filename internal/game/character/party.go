package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// ErrInvalidParty is returned when a roster is not exactly one member per role.
var ErrInvalidParty = errors.New("invalid party")

// Status is a party's standing within one expedition.
type Status int

const (
	Active Status = iota
	Retreated
	Wiped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Retreated:
		return "retreated"
	case Wiped:
		return "wiped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Morale DC weights.
const (
	DisabledSpellWeight = 5
	UnconsciousWeight   = 20
	TimesDownedWeight   = 10
)

// Party is a guild's four-member team plus its expedition-scoped counters.
type Party struct {
	GuildID   int64
	GuildName string
	// Members is in roster order: Striker, Burglar, Support, Controller.
	Members []*Character

	Gold             int
	RoomsCleared     int
	FloorsCleared    int
	MonstersDefeated int
	Status           Status
}

// NewParty validates composition and orders members by role.
//
// Precondition: exactly four members, one per role, all belonging to guildID.
// Postcondition: returns ErrInvalidParty (wrapped with detail) on any violation.
func NewParty(guildID int64, guildName string, members []*Character) (*Party, error) {
	if len(members) != len(Roles()) {
		return nil, fmt.Errorf("%w: %s has %d members, want %d", ErrInvalidParty, guildName, len(members), len(Roles()))
	}
	byRole := make(map[Role]*Character, len(members))
	for _, m := range members {
		if m == nil {
			return nil, fmt.Errorf("%w: %s has a nil member", ErrInvalidParty, guildName)
		}
		if m.GuildID != guildID {
			return nil, fmt.Errorf("%w: %s belongs to guild %d, not %d", ErrInvalidParty, m.Name, m.GuildID, guildID)
		}
		if prev, dup := byRole[m.Role]; dup {
			return nil, fmt.Errorf("%w: %s and %s are both %s", ErrInvalidParty, prev.Name, m.Name, m.Role)
		}
		byRole[m.Role] = m
	}
	ordered := make([]*Character, 0, len(members))
	for _, r := range Roles() {
		m, ok := byRole[r]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no %s", ErrInvalidParty, guildName, r)
		}
		ordered = append(ordered, m)
	}
	return &Party{GuildID: guildID, GuildName: guildName, Members: ordered}, nil
}

// MemberByRole returns the member filling role.
func (p *Party) MemberByRole(role Role) *Character {
	for _, m := range p.Members {
		if m.Role == role {
			return m
		}
	}
	return nil
}

// Specialist returns the member of role when they can act, otherwise a
// random member who can. It returns nil when nobody can act.
func (p *Party) Specialist(role Role, src dice.Source) *Character {
	if m := p.MemberByRole(role); m != nil && m.CanAct() {
		return m
	}
	alive := p.AliveMembers()
	if len(alive) == 0 {
		return nil
	}
	return alive[dice.Pick(src, len(alive))]
}

// AliveMembers returns members able to act, in roster order.
func (p *Party) AliveMembers() []*Character {
	return p.filter(func(c *Character) bool { return c.CanAct() })
}

// LivingMembers returns members not permanently dead.
func (p *Party) LivingMembers() []*Character {
	return p.filter(func(c *Character) bool { return c.Alive })
}

// UnconsciousMembers returns living members at 0 HP.
func (p *Party) UnconsciousMembers() []*Character {
	return p.filter(func(c *Character) bool { return c.Alive && !c.Conscious })
}

// DeadMembers returns permanently dead members.
func (p *Party) DeadMembers() []*Character {
	return p.filter(func(c *Character) bool { return !c.Alive })
}

func (p *Party) filter(keep func(*Character) bool) []*Character {
	var out []*Character
	for _, m := range p.Members {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// TotalMissingHP sums max - current over living members.
func (p *Party) TotalMissingHP() int {
	total := 0
	for _, m := range p.Members {
		total += m.MissingHP()
	}
	return total
}

// TotalDisabledSpells counts disabled spells across the roster.
func (p *Party) TotalDisabledSpells() int {
	total := 0
	for _, m := range p.Members {
		total += len(m.DisabledSpells)
	}
	return total
}

// TotalTimesDowned sums career times_downed across the roster.
func (p *Party) TotalTimesDowned() int {
	total := 0
	for _, m := range p.Members {
		total += m.TimesDowned
	}
	return total
}

// MoraleDC is the morale difficulty: missing HP + 5 per disabled spell +
// 20 per unconscious member + 10 per career downing.
func (p *Party) MoraleDC() int {
	return p.TotalMissingHP() +
		DisabledSpellWeight*p.TotalDisabledSpells() +
		UnconsciousWeight*len(p.UnconsciousMembers()) +
		TimesDownedWeight*p.TotalTimesDowned()
}

// Morale is the display score 100 - MoraleDC, floored at 0.
func (p *Party) Morale() int {
	return max(0, 100-p.MoraleDC())
}

// IsWiped reports whether no member can act.
func (p *Party) IsWiped() bool {
	return len(p.AliveMembers()) == 0
}

// IsActive reports whether the party is still progressing.
func (p *Party) IsActive() bool {
	return p.Status == Active
}

// AddGold adds a positive amount to the party purse.
func (p *Party) AddGold(amount int) {
	if amount > 0 {
		p.Gold += amount
	}
}

func (p *Party) CompleteRoom()        { p.RoomsCleared++ }
func (p *Party) CompleteFloor()       { p.FloorsCleared++ }
func (p *Party) DefeatMonsters(n int) { p.MonstersDefeated += max(0, n) }
func (p *Party) Retreat()             { p.Status = Retreated }
func (p *Party) MarkWiped()           { p.Status = Wiped }

// HealAll restores every living member to full HP and returns the total healed.
func (p *Party) HealAll() int {
	total := 0
	for _, m := range p.Members {
		total += m.Heal(m.MaxHP)
	}
	return total
}

// ResetForNewExpedition clears counters and transient member state.
// Dead members stay dead; times_downed and disabled spells persist.
func (p *Party) ResetForNewExpedition() {
	p.Gold = 0
	p.RoomsCleared = 0
	p.FloorsCleared = 0
	p.MonstersDefeated = 0
	p.Status = Active
	for _, m := range p.Members {
		m.ResetForExpedition()
	}
}

// Summary is a point-in-time snapshot of party condition.
type Summary struct {
	GuildID          int64
	GuildName        string
	Status           Status
	Alive            int
	Unconscious      int
	Dead             int
	Gold             int
	RoomsCleared     int
	FloorsCleared    int
	MonstersDefeated int
	Morale           int
}

// Summary snapshots the party.
func (p *Party) Summary() Summary {
	return Summary{
		GuildID:          p.GuildID,
		GuildName:        p.GuildName,
		Status:           p.Status,
		Alive:            len(p.AliveMembers()),
		Unconscious:      len(p.UnconsciousMembers()),
		Dead:             len(p.DeadMembers()),
		Gold:             p.Gold,
		RoomsCleared:     p.RoomsCleared,
		FloorsCleared:    p.FloorsCleared,
		MonstersDefeated: p.MonstersDefeated,
		Morale:           p.Morale(),
	}
}
