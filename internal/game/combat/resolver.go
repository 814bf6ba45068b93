package combat

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/debuff"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dungeon"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
)

var tracer = otel.Tracer("github.com/cory-johannsen/guildmanager/internal/game/combat")

// Resolver runs encounters for one party. It owns Src for the duration of a
// Resolve call and is not safe for concurrent use.
type Resolver struct {
	Spells  *spell.Resolver
	Enemies *enemy.Generator
	Src     dice.Source
}

// NewResolver wires a combat resolver whose spell resolver shares src.
// A nil generator uses the embedded enemy catalog.
//
// Precondition: src is non-nil.
func NewResolver(spells *spell.Catalog, enemies *enemy.Generator, src dice.Source) *Resolver {
	if enemies == nil {
		enemies = enemy.NewGenerator(nil)
	}
	return &Resolver{
		Spells:  spell.NewResolver(spells, src),
		Enemies: enemies,
		Src:     src,
	}
}

// Resolve fights the encounter of room with party, emitting the narrative
// into scope. On victory the party is credited with the defeated monsters.
// Resolve never cancels mid-encounter; ctx only carries the trace.
//
// Precondition: room.Type.HasCombat(); party and scope are non-nil.
// Postcondition: Result.Rounds <= MaxRounds.
func (r *Resolver) Resolve(ctx context.Context, party *character.Party, room dungeon.Room, scope *event.Scope) Result {
	_, span := tracer.Start(ctx, "combat.encounter", trace.WithAttributes(
		attribute.Int64("guild.id", party.GuildID),
		attribute.Int("dungeon.floor", room.Floor),
		attribute.Int("dungeon.room", room.Index),
	))
	defer span.End()

	enemies := r.Enemies.Encounter(room.Floor, room.EnemyCount, room.IsBoss(), r.Src)
	f := &fight{Resolver: r, party: party, room: room, scope: scope, all: enemies, enemies: enemies}
	f.announce()
	res := f.run()

	span.SetAttributes(
		attribute.String("combat.outcome", res.Outcome.String()),
		attribute.Int("combat.rounds", res.Rounds),
		attribute.Int("combat.defeated", res.EnemiesDefeated),
	)
	return res
}

// fight is the state of one encounter.
type fight struct {
	*Resolver
	party *character.Party
	room  dungeon.Room
	scope *event.Scope

	all      []*enemy.Enemy
	enemies  []*enemy.Enemy // not yet announced as defeated
	defeated int
}

func (f *fight) announce() {
	kind, prio := "Combat", event.Normal
	if f.room.IsBoss() {
		kind, prio = "Boss", event.High
	}
	f.scope.Emit(event.CombatStart, prio,
		fmt.Sprintf("%s encounter! %d enemies appear!", kind, len(f.all)),
		event.CombatPayload{Enemies: len(f.all), Boss: f.room.IsBoss()})

	for _, e := range f.all {
		p := event.EnemyPayload{Enemy: e.Name, Type: e.Type.Name, HP: e.MaxHP, AC: e.AC}
		desc := fmt.Sprintf("%s appears! (%s)", e.Name, e.Type.Description)
		prio := event.Normal
		if e.IsBoss() {
			p.Boss = e.Boss.String()
			desc = fmt.Sprintf("%s appears! (%s; %s)", e.Name, e.Type.Description, e.Boss.Description())
			prio = event.High
		}
		f.scope.Emit(event.EnemyAppears, prio, desc, p)
	}
}

func (f *fight) run() Result {
	rounds := 0
	for len(enemy.Living(f.enemies)) > 0 && !f.party.IsWiped() && rounds < MaxRounds {
		rounds++
		f.startOfRound()
		f.removeDefeated()
		f.partyTurn()
		f.removeDefeated()
		f.bossAbilities()
		if len(f.enemies) > 0 {
			f.enemyTurn()
			f.removeDefeated()
		}
	}

	res := Result{Rounds: rounds, EnemiesDefeated: f.defeated, Enemies: f.all}
	p := event.CombatPayload{Enemies: len(f.all), Boss: f.room.IsBoss(), Rounds: rounds, Defeated: f.defeated}
	switch {
	case len(f.enemies) == 0:
		res.Outcome = Victory
		f.party.DefeatMonsters(len(f.all))
		p.Outcome = res.Outcome.String()
		f.scope.Emit(event.CombatEnd, event.High,
			fmt.Sprintf("Victory! All enemies defeated in %d rounds!", rounds), p)
	case f.party.IsWiped():
		res.Outcome = Wipe
		p.Outcome = res.Outcome.String()
		f.scope.Emit(event.CombatEnd, event.Critical,
			fmt.Sprintf("The party has been wiped out after %d rounds!", rounds), p)
	default:
		res.Outcome = Stalemate
		p.Outcome = res.Outcome.String()
		f.scope.Emit(event.CombatEnd, event.Normal,
			fmt.Sprintf("Combat ends in stalemate after %d rounds", rounds), p)
	}
	return res
}

// startOfRound ends last round's death protection, then processes
// regeneration, poison and debuff expiry for both sides.
func (f *fight) startOfRound() {
	for _, m := range f.party.Members {
		m.DeathProtected = false
	}
	for _, m := range f.party.Members {
		if !m.CanAct() {
			continue
		}
		if healed := m.ProcessRegeneration(); healed > 0 {
			f.scope.Emit(event.CharacterHealed, event.Normal,
				fmt.Sprintf("%s regenerates %d HP!", m.Name, healed),
				event.HealPayload{Character: m.Name, Amount: healed, Source: "regeneration"})
		}
		if dmg := m.Debuffs.PoisonDamage(); dmg > 0 {
			res := m.TakeDamage(dmg, f.Src)
			f.scope.Emit(event.StatusDamage, event.Normal,
				fmt.Sprintf("%s takes %d poison damage!", m.Name, dmg),
				event.StatusDamagePayload{Target: m.Name, Amount: dmg, Source: "poison"})
			ReportDamage(f.scope, m, res)
		}
		f.expire(m.Name, m.Debuffs)
	}
	for _, e := range f.enemies {
		if !e.IsAlive() {
			continue
		}
		if dmg := e.Debuffs.PoisonDamage(); dmg > 0 {
			e.TakeDamage(dmg)
			f.scope.Emit(event.StatusDamage, event.Normal,
				fmt.Sprintf("%s takes %d poison damage!", e.Name, dmg),
				event.StatusDamagePayload{Target: e.Name, Amount: dmg, Source: "poison"})
		}
		f.expire(e.Name, e.Debuffs)
	}
}

func (f *fight) expire(name string, m *debuff.Manager) {
	for _, k := range m.TickAll() {
		f.scope.Emit(event.DebuffExpired, event.Low,
			fmt.Sprintf("%s recovers from %s", name, k),
			event.DebuffPayload{Target: name, Debuff: k.String()})
	}
}

// removeDefeated announces enemies that died since the last call.
func (f *fight) removeDefeated() {
	var living []*enemy.Enemy
	for _, e := range f.enemies {
		if e.IsAlive() {
			living = append(living, e)
			continue
		}
		f.defeated++
		prio := event.Normal
		if e.IsBoss() {
			prio = event.High
		}
		f.scope.Emit(event.EnemyDefeated, prio, fmt.Sprintf("%s has been defeated!", e.Name),
			event.EnemyPayload{Enemy: e.Name, Type: e.Type.Name, Boss: bossName(e), AC: e.AC})
	}
	f.enemies = living
}

func bossName(e *enemy.Enemy) string {
	if !e.IsBoss() {
		return ""
	}
	return e.Boss.String()
}

// partyTurn lets each conscious member act once in roster order.
func (f *fight) partyTurn() {
	for _, m := range f.party.Members {
		if len(enemy.Living(f.enemies)) == 0 {
			return
		}
		if !m.CanAct() {
			continue
		}
		if m.Debuffs.IsStunned() {
			f.scope.Emit(event.AttackMiss, event.Normal,
				fmt.Sprintf("%s is stunned and cannot act!", m.Name),
				event.AttackPayload{Attacker: m.Name})
			continue
		}
		if m.Debuffs.IsConfused() && dice.Chance(f.Src, m.Debuffs.ConfusionChance()) {
			if f.confusedAttack(m) {
				continue
			}
		}
		if m.CanCast() && f.cast(m) {
			continue
		}
		f.melee(m)
	}
}

// confusedAttack strikes a random other conscious ally. It reports false
// when there is no one else to hit.
func (f *fight) confusedAttack(m *character.Character) bool {
	var others []*character.Character
	for _, a := range f.party.AliveMembers() {
		if a != m {
			others = append(others, a)
		}
	}
	if len(others) == 0 {
		return false
	}
	target := others[dice.Pick(f.Src, len(others))]
	dmg := CharacterDamage(m).Roll(f.Src)
	res := target.TakeDamage(dmg, f.Src)
	f.scope.Emit(event.AttackHit, event.High,
		fmt.Sprintf("CONFUSION! %s attacks ally %s for %d damage!", m.Name, target.Name, dmg),
		event.AttackPayload{Attacker: m.Name, Target: target.Name, Damage: dmg, AC: target.EffectiveAC(), Confused: true})
	ReportDamage(f.scope, target, res)
	return true
}

func (f *fight) melee(m *character.Character) {
	foes := enemy.Living(f.enemies)
	if len(foes) == 0 {
		return
	}
	target := foes[dice.Pick(f.Src, len(foes))]
	ac := target.EffectiveAC()
	roll := Attack(f.Src, AttackModifier(m), ac, CharacterDamage(m))
	p := event.AttackPayload{
		Attacker: m.Name, Target: target.Name,
		Roll: roll.Natural, Total: roll.Total, AC: ac,
		Damage: roll.Damage, Critical: roll.Critical,
	}
	switch {
	case roll.Critical:
		target.TakeDamage(roll.Damage)
		f.scope.Emit(event.AttackCritical, event.High,
			fmt.Sprintf("%s lands a CRITICAL HIT on %s for %d damage!", m.Name, target.Name, roll.Damage), p)
	case roll.Fumble:
		f.scope.Emit(event.AttackMiss, event.Normal,
			fmt.Sprintf("%s critically fumbles their attack!", m.Name), p)
	case roll.Hit:
		target.TakeDamage(roll.Damage)
		f.scope.Emit(event.AttackHit, event.Normal,
			fmt.Sprintf("%s attacks %s for %d damage", m.Name, target.Name, roll.Damage), p)
	default:
		f.scope.Emit(event.AttackMiss, event.Normal,
			fmt.Sprintf("%s misses %s (rolled %d vs AC %d)", m.Name, target.Name, roll.Total, ac), p)
	}
}

// cast picks and casts a spell for m. It reports false when no spell or
// target fits, so the caller falls back to melee.
func (f *fight) cast(m *character.Character) bool {
	allies := f.party.LivingMembers()
	foes := enemy.Living(f.enemies)
	sp, ok := f.Spells.SelectSpell(m, allies, foes)
	if !ok {
		return false
	}
	target, ok := f.Spells.SelectTarget(sp, allies, foes)
	if !ok {
		return false
	}
	res := f.Spells.Cast(sp, m, target, f.room.Floor, foes)
	f.reportCast(m, res)
	return true
}

func (f *fight) reportCast(m *character.Character, res spell.CastResult) {
	p := event.SpellPayload{
		Caster:  m.Name,
		Spell:   res.Spell.Name,
		Targets: res.Targets,
		Roll:    res.Natural,
		Total:   res.Total,
		DC:      res.DC,
		Amount:  castAmount(res),
		Outcome: res.Outcome.String(),
	}
	switch res.Outcome {
	case spell.CriticalFailure:
		f.scope.Emit(event.SpellFail, event.High, res.Description, p)
		cp := characterPayload(m)
		cp.Spell = res.Spell.Name
		f.scope.Emit(event.SpellDisabled, event.High,
			fmt.Sprintf("%s can no longer cast %s this expedition", m.Name, res.Spell.Name), cp)
		return
	case spell.Failure:
		f.scope.Emit(event.SpellFail, event.Normal, res.Description, p)
		return
	case spell.CriticalSuccess:
		f.scope.Emit(event.SpellCritical, event.High, "CRITICAL! "+res.Description, p)
	case spell.Success:
		f.scope.Emit(event.SpellCast, event.Normal, res.Description, p)
	}

	if res.Debuff != 0 {
		f.scope.Emit(event.DebuffApplied, event.Normal,
			fmt.Sprintf("%s is %s by %s's %s! (%d rounds)", res.Targets[0], res.Debuff, m.Name, res.Spell.Name, res.Duration),
			event.DebuffPayload{Target: res.Targets[0], Debuff: res.Debuff.String(), Duration: res.Duration, Source: m.Name})
	}
	for _, name := range res.Revived {
		if c := f.member(name); c != nil {
			f.scope.Emit(event.CharacterRevived, event.High,
				fmt.Sprintf("%s is revived by %s!", name, m.Name), characterPayload(c))
		}
	}
}

func castAmount(res spell.CastResult) int {
	for _, v := range []int{res.Damage, res.Healing, res.Shield, res.Duration, res.Regenerates} {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (f *fight) member(name string) *character.Character {
	for _, m := range f.party.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// bossAbilities evaluates each living boss's modifier once per round.
func (f *fight) bossAbilities() {
	for _, e := range f.enemies {
		if e.IsBoss() && e.IsAlive() {
			BossAbility(f.scope, e, f.Src)
		}
	}
}

// BossAbility applies boss e's modifier for one round and reports whether it
// fired. Rage fires once when bloodied, Summon once when bloodied (narrative
// only), Aura once on the first round, and Regenerate heals 1d4 every round
// it is below max.
func BossAbility(scope *event.Scope, e *enemy.Enemy, src dice.Source) bool {
	p := event.BossAbilityPayload{Enemy: e.Name, Ability: e.Boss.String()}
	switch e.Boss {
	case enemy.Rage:
		if e.IsBloodied() && !e.Raged {
			e.Raged = true
			p.Amount = enemy.RageMightBonus
			scope.Emit(event.BossAbilityTriggered, event.High,
				fmt.Sprintf("%s becomes enraged as its health drops!", e.Name), p)
			return true
		}
	case enemy.Summon:
		if e.IsBloodied() && !e.Summoned {
			e.Summoned = true
			p.Amount = dice.D(src, 4)
			scope.Emit(event.BossAbilityTriggered, event.High,
				fmt.Sprintf("%s summons %d minions to aid in battle!", e.Name, p.Amount), p)
			return true
		}
	case enemy.Aura:
		if !e.AuraAnnounced {
			e.AuraAnnounced = true
			p.Amount = enemy.AuraAttackBonus
			scope.Emit(event.BossAbilityTriggered, event.High,
				fmt.Sprintf("%s empowers nearby allies with dark energy!", e.Name), p)
			return true
		}
	case enemy.Regenerate:
		if e.CurrentHP < e.MaxHP {
			if healed := e.Heal(dice.D(src, 4)); healed > 0 {
				p.Amount = healed
				scope.Emit(event.BossAbilityTriggered, event.Normal,
					fmt.Sprintf("%s regenerates %d HP!", e.Name, healed), p)
				return true
			}
		}
	}
	return false
}

func (f *fight) auraBonus() int {
	for _, e := range f.enemies {
		if e.IsAlive() && e.Boss == enemy.Aura {
			return enemy.AuraAttackBonus
		}
	}
	return 0
}

// enemyTurn lets every surviving enemy attack a random conscious member.
func (f *fight) enemyTurn() {
	aura := f.auraBonus()
	for _, e := range f.enemies {
		if !e.IsAlive() {
			continue
		}
		targets := f.party.AliveMembers()
		if len(targets) == 0 {
			return
		}
		if e.Debuffs.IsStunned() {
			f.scope.Emit(event.AttackMiss, event.Normal,
				fmt.Sprintf("%s is stunned and cannot act!", e.Name),
				event.AttackPayload{Attacker: e.Name, Enemy: true})
			continue
		}
		if e.Debuffs.IsConfused() && dice.Chance(f.Src, e.Debuffs.ConfusionChance()) {
			if f.enemyInfighting(e, aura) {
				continue
			}
		}
		target := targets[dice.Pick(f.Src, len(targets))]
		f.enemyAttack(e, target, aura)
	}
}

// enemyInfighting makes a confused enemy strike another living enemy.
func (f *fight) enemyInfighting(e *enemy.Enemy, aura int) bool {
	var others []*enemy.Enemy
	for _, o := range enemy.Living(f.enemies) {
		if o != e {
			others = append(others, o)
		}
	}
	if len(others) == 0 {
		return false
	}
	target := others[dice.Pick(f.Src, len(others))]
	dmg := EnemyDamage(e, aura).Roll(f.Src)
	target.TakeDamage(dmg)
	f.scope.Emit(event.AttackHit, event.High,
		fmt.Sprintf("CONFUSION! %s attacks ally %s for %d damage!", e.Name, target.Name, dmg),
		event.AttackPayload{Attacker: e.Name, Target: target.Name, Damage: dmg, AC: target.EffectiveAC(), Enemy: true, Confused: true})
	return true
}

func (f *fight) enemyAttack(e *enemy.Enemy, target *character.Character, aura int) {
	ac := target.EffectiveAC()
	roll := Attack(f.Src, e.EffectiveMight()+aura, ac, EnemyDamage(e, aura))
	p := event.AttackPayload{
		Attacker: e.Name, Target: target.Name,
		Roll: roll.Natural, Total: roll.Total, AC: ac,
		Damage: roll.Damage, Critical: roll.Critical, Enemy: true,
	}
	if !roll.Hit {
		desc := fmt.Sprintf("%s misses %s", e.Name, target.Name)
		if roll.Fumble {
			desc = fmt.Sprintf("%s fumbles its attack on %s!", e.Name, target.Name)
		}
		f.scope.Emit(event.AttackMiss, event.Normal, desc, p)
		return
	}

	res := target.TakeDamage(roll.Damage, f.Src)
	desc := fmt.Sprintf("%s hits %s for %d damage!", e.Name, target.Name, roll.Damage)
	typ, prio := event.AttackHit, event.Normal
	if roll.Critical {
		desc = fmt.Sprintf("%s lands a CRITICAL HIT on %s for %d damage!", e.Name, target.Name, roll.Damage)
		typ, prio = event.AttackCritical, event.High
	}
	if res.Absorbed > 0 {
		desc += fmt.Sprintf(" (%d absorbed by a ward)", res.Absorbed)
	}
	f.scope.Emit(typ, prio, desc, p)

	if target.Alive {
		f.special(e, target)
	}
	ReportDamage(f.scope, target, res)
}

// special rolls a d4 against the enemy's trigger and, on success, applies
// its debuff for 1d4 rounds.
func (f *fight) special(e *enemy.Enemy, target *character.Character) {
	kind, ok := e.Type.Special.Debuff()
	if !ok {
		return
	}
	if dice.D(f.Src, 4) < e.Type.SpecialTrigger {
		return
	}
	d := debuff.Debuff{Kind: kind, Remaining: dice.D(f.Src, 4), Severity: 1, Source: e.Name}
	target.Debuffs.Apply(d)
	f.scope.Emit(event.EnemySpecialAttack, event.Normal,
		fmt.Sprintf("%s is %s by %s's attack! (%d rounds)", target.Name, kind, e.Name, d.Remaining),
		event.DebuffPayload{Target: target.Name, Debuff: kind.String(), Duration: d.Remaining, Source: e.Name})
}
