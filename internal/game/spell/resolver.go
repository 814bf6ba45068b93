package spell

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
)

// LifebloomCriticalRounds is the extra regeneration granted on a critical cast.
const LifebloomCriticalRounds = 3

// Outcome is the result tier of a cast roll.
type Outcome int

const (
	Failure Outcome = iota
	Success
	CriticalSuccess
	CriticalFailure
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Failure:
		return "failure"
	case Success:
		return "success"
	case CriticalSuccess:
		return "critical_success"
	case CriticalFailure:
		return "critical_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Landed reports whether the spell took effect.
func (o Outcome) Landed() bool {
	return o == Success || o == CriticalSuccess
}

// Target is where a spell lands: one enemy, or one or more allies.
type Target struct {
	Enemy  *enemy.Enemy
	Allies []*character.Character
}

// Names lists the target names.
func (t Target) Names() []string {
	if t.Enemy != nil {
		return []string{t.Enemy.Name}
	}
	names := make([]string, 0, len(t.Allies))
	for _, a := range t.Allies {
		names = append(names, a.Name)
	}
	return names
}

// CastResult describes one cast and every effect it applied.
type CastResult struct {
	Spell   *Spell
	Caster  string
	Targets []string
	Outcome Outcome
	Natural int
	Total   int
	DC      int

	Damage      int
	Killed      bool
	Healing     int      // HP actually restored, summed over targets
	Healed      []string // targets that gained HP
	Revived     []string // targets brought back from 0 HP
	Debuff      debuff.Kind
	Duration    int
	Shield      int
	Cured       []debuff.Kind
	Protected   bool
	Regenerates int

	Description string
}

// Resolver selects and casts spells. It owns its dice source.
type Resolver struct {
	Catalog *Catalog
	Src     dice.Source
}

// NewResolver returns a resolver over catalog, or the embedded catalog when nil.
func NewResolver(catalog *Catalog, src dice.Source) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{Catalog: catalog, Src: src}
}

func criticallyWounded(c *character.Character) bool { return c.CurrentHP*10 <= c.MaxHP }
func wounded(c *character.Character) bool           { return c.CurrentHP*4 < c.MaxHP }

// SelectSpell picks the caster's spell for this turn. allies are the
// caster's living party members; enemies are the living enemies.
//
// Priorities, first match wins, ties by catalog order: emergency heal for
// allies at or below 10% HP (single-target for one, area for several), cure
// Confused or Poisoned, death protection for a conscious ally below 25% with
// at most 3 HP, any heal for allies below 25%, a shield while someone is
// unshielded, a debuff while enemies stand, damage while enemies stand, and
// finally the first available spell.
//
// Postcondition: ok is false only when the caster has no available spell.
func (r *Resolver) SelectSpell(caster *character.Character, allies []*character.Character, enemies []*enemy.Enemy) (*Spell, bool) {
	var spells []*Spell
	for _, s := range r.Catalog.All() {
		if caster.Knows(s.Name) && !caster.DisabledSpells[s.Name] {
			spells = append(spells, s)
		}
	}
	if len(spells) == 0 {
		return nil, false
	}

	var critical, hurt, unshielded int
	var confused, poisoned, nearDeath bool
	for _, a := range allies {
		if criticallyWounded(a) {
			critical++
		}
		if wounded(a) {
			hurt++
			if a.Conscious && a.CurrentHP <= 3 && !a.DeathProtected {
				nearDeath = true
			}
		}
		if a.DamageShield == 0 {
			unshielded++
		}
		confused = confused || a.Debuffs.Has(debuff.Confused)
		poisoned = poisoned || a.Debuffs.Has(debuff.Poisoned)
	}
	living := len(enemy.Living(enemies)) > 0

	rules := []func(*Spell) bool{
		func(s *Spell) bool {
			if !s.Emergency || critical == 0 {
				return false
			}
			if critical == 1 {
				return s.Target == SingleAlly
			}
			return s.Target == AllAllies
		},
		func(s *Spell) bool {
			return s.Kind == Cure && ((confused && s.Effect.CuresAny(debuff.Confused)) || (poisoned && s.Effect.CuresAny(debuff.Poisoned)))
		},
		func(s *Spell) bool { return s.Effect.PreventsDeath && nearDeath },
		func(s *Spell) bool { return s.Kind == Heal && hurt > 0 },
		func(s *Spell) bool { return !s.Effect.Shield.IsZero() && unshielded > 0 },
		func(s *Spell) bool { return s.Kind == Debuff && living },
		func(s *Spell) bool { return s.Kind == Damage && living },
	}
	for _, rule := range rules {
		for _, s := range spells {
			if rule(s) {
				return s, true
			}
		}
	}
	return spells[0], true
}

// SelectTarget picks where spell lands.
//
// Heals take the living ally with the lowest HP below max; cures take the
// first ally carrying a curable debuff; shields take the unshielded ally with
// the lowest HP fraction; death protection takes the most wounded unprotected
// conscious ally at or below 30%; other buffs take a random ally. Enemy
// debuffs prefer the highest-HP enemy lacking that debuff, then the
// highest-HP enemy. Area spells take every living ally.
//
// Postcondition: ok is false when no valid target exists.
func (r *Resolver) SelectTarget(spell *Spell, allies []*character.Character, enemies []*enemy.Enemy) (Target, bool) {
	switch spell.Target {
	case SingleEnemy:
		living := enemy.Living(enemies)
		if len(living) == 0 {
			return Target{}, false
		}
		if spell.Effect.Debuff != 0 {
			var fresh []*enemy.Enemy
			for _, e := range living {
				if !e.Debuffs.Has(spell.Effect.Debuff) {
					fresh = append(fresh, e)
				}
			}
			if len(fresh) > 0 {
				return Target{Enemy: highestHP(fresh)}, true
			}
		}
		return Target{Enemy: highestHP(living)}, true

	case AllAllies:
		if len(allies) == 0 {
			return Target{}, false
		}
		return Target{Allies: allies}, true

	case SingleAlly:
		return r.selectAlly(spell, allies)

	default:
		return Target{}, false
	}
}

func (r *Resolver) selectAlly(spell *Spell, allies []*character.Character) (Target, bool) {
	pick := func(c *character.Character) (Target, bool) {
		if c == nil {
			return Target{}, false
		}
		return Target{Allies: []*character.Character{c}}, true
	}
	switch spell.Kind {
	case Heal:
		var best *character.Character
		for _, a := range allies {
			if a.CurrentHP < a.MaxHP && (best == nil || a.CurrentHP < best.CurrentHP) {
				best = a
			}
		}
		return pick(best)

	case Cure:
		for _, a := range allies {
			for _, k := range spell.Effect.Cures {
				if a.Debuffs.Has(k) {
					return pick(a)
				}
			}
		}
		return Target{}, false

	case Buff:
		if !spell.Effect.Shield.IsZero() {
			var best *character.Character
			for _, a := range allies {
				if a.DamageShield == 0 && (best == nil || a.HPFraction() < best.HPFraction()) {
					best = a
				}
			}
			if best != nil {
				return pick(best)
			}
		}
		if spell.Effect.PreventsDeath {
			var best *character.Character
			for _, a := range allies {
				if a.Conscious && !a.DeathProtected && a.CurrentHP*10 <= a.MaxHP*3 &&
					(best == nil || a.CurrentHP < best.CurrentHP) {
					best = a
				}
			}
			if best != nil {
				return pick(best)
			}
		}
		if len(allies) == 0 {
			return Target{}, false
		}
		return pick(allies[dice.Pick(r.Src, len(allies))])

	case Debuff, Damage:
		return Target{}, false

	default:
		return Target{}, false
	}
}

func highestHP(enemies []*enemy.Enemy) *enemy.Enemy {
	best := enemies[0]
	for _, e := range enemies[1:] {
		if e.CurrentHP > best.CurrentHP {
			best = e
		}
	}
	return best
}

// DC is base + floor (when the spell scales with floor) + the average level of
// living enemies (when it scales with enemy level; floor when none stand).
func DC(spell *Spell, floor int, enemies []*enemy.Enemy) int {
	dc := spell.BaseDC
	if spell.UsesFloorLevel {
		dc += floor
	}
	if spell.UsesEnemyLevel {
		dc += enemy.AverageLevel(enemies, floor)
	}
	return dc
}

// Enhance applies the critical-success boost max(2x, x+4).
func Enhance(x int) int {
	return max(2*x, x+4)
}

// Cast rolls d20 + wit modifier + secondary modifier (+ the caster's debuff
// modifiers) against DC. A natural 1 disables the spell for the caster; a
// natural 20 lands with enhanced numbers.
//
// Precondition: target came from SelectTarget for the same spell.
func (r *Resolver) Cast(spell *Spell, caster *character.Character, target Target, floor int, enemies []*enemy.Enemy) CastResult {
	vsEnemies := spell.Target == SingleEnemy
	secondary := caster.Modifier(spell.Secondary)
	bonus := caster.Modifier(debuff.Wit) + secondary +
		caster.Debuffs.StatModifier(debuff.Wit, vsEnemies)

	res := CastResult{
		Spell:   spell,
		Caster:  caster.Name,
		Targets: target.Names(),
		Natural: dice.D(r.Src, 20),
		DC:      DC(spell, floor, enemies),
	}
	res.Total = res.Natural + bonus

	switch {
	case res.Natural == 1:
		res.Outcome = CriticalFailure
		caster.DisableSpell(spell.Name)
		res.Description = fmt.Sprintf("%s critically fails casting %s! Spell disabled.", caster.Name, spell.Name)
		return res
	case res.Natural == 20:
		res.Outcome = CriticalSuccess
	case res.Total >= res.DC:
		res.Outcome = Success
	default:
		res.Outcome = Failure
		res.Description = fmt.Sprintf("%s fails to cast %s (rolled %d vs DC %d)", caster.Name, spell.Name, res.Total, res.DC)
		return res
	}

	r.apply(&res, spell, caster, target, secondary)
	return res
}

func (r *Resolver) apply(res *CastResult, spell *Spell, caster *character.Character, target Target, secondary int) {
	crit := res.Outcome == CriticalSuccess
	boost := func(x int) int {
		if crit {
			return Enhance(x)
		}
		return x
	}
	critText := ""
	if crit {
		critText = " (CRITICAL!)"
	}
	targetName := strings.Join(target.Names(), ", ")
	var granted []string

	eff := spell.Effect
	if !eff.Damage.IsZero() && target.Enemy != nil {
		res.Damage = boost(max(0, eff.Damage.Roll(r.Src)+secondary))
		res.Killed = target.Enemy.TakeDamage(res.Damage)
		res.Description = fmt.Sprintf("%s casts %s dealing %d damage to %s%s!", caster.Name, spell.Name, res.Damage, targetName, critText)
	}

	if !eff.Healing.IsZero() {
		amount := boost(max(0, eff.Healing.Roll(r.Src)+secondary))
		for _, a := range target.Allies {
			wasDown := a.Alive && a.CurrentHP == 0
			if healed := a.Heal(amount); healed > 0 {
				res.Healing += healed
				res.Healed = append(res.Healed, a.Name)
				if wasDown {
					res.Revived = append(res.Revived, a.Name)
				}
			}
		}
		switch {
		case spell.Target == AllAllies && len(res.Healed) > 0:
			res.Description = fmt.Sprintf("%s casts %s healing %d HP to: %s%s", caster.Name, spell.Name, amount, strings.Join(res.Healed, ", "), critText)
		case spell.Target == AllAllies:
			res.Description = fmt.Sprintf("%s casts %s but no one needs healing", caster.Name, spell.Name)
		case res.Healing > 0:
			res.Description = fmt.Sprintf("%s casts %s healing %d HP on %s%s", caster.Name, spell.Name, res.Healing, targetName, critText)
		default:
			res.Description = fmt.Sprintf("%s casts %s on %s but they don't need healing", caster.Name, spell.Name, targetName)
		}
	}

	if eff.Debuff != 0 && target.Enemy != nil {
		res.Debuff = eff.Debuff
		res.Duration = boost(max(1, eff.Duration.Roll(r.Src)+secondary))
		target.Enemy.Debuffs.Apply(debuff.Debuff{
			Kind:      eff.Debuff,
			Remaining: res.Duration,
			Source:    fmt.Sprintf("%s's %s", caster.Name, spell.Name),
		})
		res.Description = fmt.Sprintf("%s casts %s applying %s to %s for %d rounds%s", caster.Name, spell.Name, eff.Debuff, targetName, res.Duration, critText)
	}

	if !eff.Shield.IsZero() {
		res.Shield = boost(eff.Shield.Roll(r.Src) + secondary)
		for _, a := range target.Allies {
			a.ApplyShield(res.Shield)
		}
		granted = append(granted, fmt.Sprintf("%d damage shield", res.Shield))
	}

	if eff.PreventsDeath {
		for _, a := range target.Allies {
			a.ApplyDeathProtection()
		}
		res.Protected = true
		granted = append(granted, "death protection")
	}

	if !eff.Regeneration.IsZero() {
		res.Regenerates = max(1, eff.Regeneration.Roll(r.Src)+secondary)
		if crit {
			res.Regenerates += LifebloomCriticalRounds
		}
		for _, a := range target.Allies {
			a.ApplyRegeneration(res.Regenerates)
		}
		granted = append(granted, fmt.Sprintf("regeneration for %d rounds", res.Regenerates))
	}

	if len(eff.Cures) > 0 {
		for _, a := range target.Allies {
			for _, k := range eff.Cures {
				if a.Debuffs.Remove(k) {
					res.Cured = append(res.Cured, k)
				}
			}
		}
		if len(res.Cured) > 0 {
			names := make([]string, len(res.Cured))
			for i, k := range res.Cured {
				names[i] = k.String()
			}
			res.Description = fmt.Sprintf("%s casts %s on %s, curing: %s", caster.Name, spell.Name, targetName, strings.Join(names, ", "))
		} else {
			res.Description = fmt.Sprintf("%s casts %s on %s but no debuffs to cure", caster.Name, spell.Name, targetName)
		}
	}

	switch {
	case res.Description == "" && len(granted) > 0:
		res.Description = fmt.Sprintf("%s casts %s on %s granting: %s%s", caster.Name, spell.Name, targetName, strings.Join(granted, ", "), critText)
	case res.Description == "":
		res.Description = fmt.Sprintf("%s casts %s on %s%s", caster.Name, spell.Name, targetName, critText)
	case len(granted) > 0:
		res.Description += " granting: " + strings.Join(granted, ", ")
	}
}
