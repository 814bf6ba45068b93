// Package expedition drives every participating party through the same
// generated dungeon, room by room, and collects one result per party.
package expedition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/combat"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/dungeon"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/morale"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
	"github.com/cory-johannsen/guildmanager/internal/game/trap"
	"github.com/cory-johannsen/guildmanager/internal/game/treasure"
)

var tracer = otel.Tracer("github.com/cory-johannsen/guildmanager/internal/game/expedition")

// DefaultMaxFloors is the floor cap used when Runner.MaxFloors is unset.
const DefaultMaxFloors = 3

// ErrNoParties is returned when Run is given an empty roster.
var ErrNoParties = errors.New("expedition has no parties")

// Result is one party's expedition record.
type Result struct {
	GuildID          int64
	GuildName        string
	FloorsCleared    int
	RoomsCleared     int
	Gold             int
	MonstersDefeated int
	Retreated        bool
	Wiped            bool
	Survivors        int // living members at the end
	FinalFloor       int
	FinalRoom        int
	Start            time.Time
	End              time.Time
	// Err is set when the party's simulation aborted; the other parties are unaffected.
	Err error
}

// Completed reports whether the party cleared every floor it set out for.
func (r Result) Completed(maxFloors int) bool {
	return r.Err == nil && !r.Retreated && !r.Wiped && r.FloorsCleared >= maxFloors
}

// Outcome names how the party's expedition ended: "failed", "wiped",
// "retreated", "completed", or "incomplete" when it stopped short of
// maxFloors without a terminal event.
func (r Result) Outcome(maxFloors int) string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Wiped:
		return "wiped"
	case r.Retreated:
		return "retreated"
	case r.FloorsCleared >= maxFloors:
		return "completed"
	default:
		return "incomplete"
	}
}

// Runner runs expeditions. The zero value is usable: three floors, sequential,
// events discarded.
type Runner struct {
	Seed      int64
	MaxFloors int
	// Parallel simulates the active parties of a room concurrently. The event
	// log is identical either way.
	Parallel bool
	Logger   *zap.Logger
	Clock    func() time.Time
	Sink     event.Sink

	Spells  *spell.Catalog
	Enemies *enemy.Generator
}

// party is one guild's simulation state. Only the goroutine running its
// current step touches it.
type party struct {
	*character.Party
	src    dice.Source
	scope  *event.Scope
	buf    event.Buffer
	combat *combat.Resolver
	floor  int
	room   int
	err    error
}

// run is the state of one Run call.
type run struct {
	*Runner
	logger  *zap.Logger
	sink    event.Sink
	clock   func() time.Time
	floors  int
	parties []*party
	window  int
}

// Run takes parties through up to MaxFloors floors of the dungeon generated
// from Seed. Parties are reset first. Every room starts a new tick window
// shared by all parties; events are flushed to Sink in roster order after each
// step, so the log does not depend on Parallel.
//
// A party leaves the active set the moment it wipes, retreats or fails.
// A panic inside one party's simulation is recovered into that party's
// Result.Err and the joined party errors are returned.
//
// Postcondition: len(results) == len(parties), in roster order.
func (r *Runner) Run(ctx context.Context, parties []*character.Party) ([]Result, error) {
	if len(parties) == 0 {
		return nil, ErrNoParties
	}
	x := r.prepare(parties)
	ctx, span := tracer.Start(ctx, "expedition.run", trace.WithAttributes(
		attribute.Int64("expedition.seed", r.Seed),
		attribute.Int("expedition.parties", len(parties)),
		attribute.Int("expedition.max_floors", x.floors),
	))
	defer span.End()

	start := x.clock()
	x.logger.Info("expedition starting",
		zap.Int64("seed", r.Seed),
		zap.Int("parties", len(parties)),
		zap.Int("max_floors", x.floors),
	)
	x.step(ctx, x.announce)

	cache := dungeon.NewCache(dungeon.NewGenerator(r.Seed))
	var runErr error
	for n := 1; n <= x.floors && len(x.active()) > 0; n++ {
		rooms, err := cache.Floor(ctx, n)
		if err != nil {
			runErr = fmt.Errorf("generating floor %d: %w", n, err)
			break
		}
		if err := x.floor(ctx, n, rooms); err != nil {
			runErr = err
			break
		}
	}
	if runErr == nil {
		x.step(ctx, x.complete)
	}

	end := x.clock()
	results := make([]Result, len(x.parties))
	var errs []error
	for i, p := range x.parties {
		results[i] = p.result(start, end)
		if p.err != nil {
			errs = append(errs, p.err)
		}
	}
	span.SetAttributes(attribute.Int("expedition.failed_parties", len(errs)))
	x.logger.Info("expedition finished",
		zap.Duration("elapsed", end.Sub(start)),
		zap.Int("failed_parties", len(errs)),
	)
	return results, errors.Join(append([]error{runErr}, errs...)...)
}

func (r *Runner) prepare(parties []*character.Party) *run {
	x := &run{Runner: r, logger: r.Logger, sink: r.Sink, clock: r.Clock, floors: r.MaxFloors}
	if x.logger == nil {
		x.logger = zap.NewNop()
	}
	if x.sink == nil {
		x.sink = event.Discard
	}
	x.sink = event.SafeSink(x.sink, x.logger)
	if x.clock == nil {
		x.clock = time.Now
	}
	if x.floors <= 0 {
		x.floors = DefaultMaxFloors
	}
	spells := r.Spells
	if spells == nil {
		spells = spell.DefaultCatalog()
	}
	enemies := r.Enemies
	if enemies == nil {
		enemies = enemy.NewGenerator(nil)
	}
	for _, cp := range parties {
		stream := "party:" + strconv.FormatInt(cp.GuildID, 10)
		src := dice.NewLoggedRoller(dice.NewSeededSource(dice.DeriveSeed(r.Seed, cp.GuildID)), stream, x.logger)
		p := &party{Party: cp, src: src}
		p.scope = event.NewScope(cp.GuildID, cp.GuildName, &p.buf, x.clock)
		p.combat = combat.NewResolver(spells, enemies, src)
		x.parties = append(x.parties, p)
		x.guard(p, func() error {
			cp.ResetForNewExpedition()
			return nil
		})
	}
	return x
}

func (x *run) active() []*party {
	var out []*party
	for _, p := range x.parties {
		if p.err == nil && p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// step runs fn once for every active party inside a fresh tick window, then
// flushes the buffered events in roster order.
func (x *run) step(ctx context.Context, fn func(context.Context, *party) error) {
	active := x.active()
	one := func(p *party) {
		x.guard(p, func() error {
			p.scope.SetWindow(x.window)
			return fn(ctx, p)
		})
	}
	if x.Parallel && len(active) > 1 {
		var g errgroup.Group
		for _, p := range active {
			g.Go(func() error {
				one(p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, p := range active {
			one(p)
		}
	}
	for _, p := range x.parties {
		p.buf.FlushTo(x.sink)
	}
	x.window++
}

// guard runs fn for p, recording a returned error or a recovered panic as
// the party's failure.
func (x *run) guard(p *party, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.err = fmt.Errorf("guild %d (%s): simulation panicked on floor %d room %d: %v",
				p.GuildID, p.GuildName, p.floor, p.room, rec)
		}
		if p.err != nil {
			x.logger.Error("party aborted",
				zap.Int64("guild_id", p.GuildID),
				zap.Int("floor", p.floor),
				zap.Int("room", p.room),
				zap.Error(p.err),
			)
		}
	}()
	if err := fn(); err != nil {
		p.err = fmt.Errorf("guild %d (%s): %w", p.GuildID, p.GuildName, err)
	}
}

func (x *run) floor(ctx context.Context, n int, rooms []dungeon.Room) error {
	ctx, span := tracer.Start(ctx, "expedition.floor", trace.WithAttributes(
		attribute.Int("dungeon.floor", n),
		attribute.Int("dungeon.rooms", len(rooms)),
	))
	defer span.End()

	x.logger.Info("floor starting",
		zap.Int("floor", n),
		zap.Int("rooms", len(rooms)),
		zap.Int("active_parties", len(x.active())),
	)
	x.step(ctx, func(_ context.Context, p *party) error {
		p.floor, p.room = n, 0
		prio := event.Normal
		if n >= 5 {
			prio = event.High
		}
		p.scope.Emit(event.FloorEnter, prio,
			fmt.Sprintf("Descending to Floor %d (%d rooms await...)", n, len(rooms)),
			event.FloorPayload{Floor: n, Rooms: len(rooms)})
		return nil
	})

	for _, room := range rooms {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(x.active()) == 0 {
			return nil
		}
		x.step(ctx, func(ctx context.Context, p *party) error {
			return x.room(ctx, p, room)
		})
	}

	x.step(ctx, func(_ context.Context, p *party) error {
		p.CompleteFloor()
		res := morale.CheckFloor(p.Party, p.src)
		morale.Report(p.scope, res)
		if !res.Success {
			x.retreat(p)
		}
		return nil
	})
	return nil
}

// room resolves one room for one party: trap, then combat, then treasure,
// then the room morale check. The final room of a floor skips the room check
// because the floor check follows.
func (x *run) room(ctx context.Context, p *party, room dungeon.Room) error {
	p.room = room.Index
	if p.IsWiped() {
		x.wipe(p)
		return nil
	}
	p.scope.Emit(event.RoomEnter, event.Normal,
		fmt.Sprintf("Entering %s (Room %d)", room.Type.Description(), room.Index),
		event.RoomPayload{Floor: room.Floor, Room: room.Index, RoomType: room.Type.String(), EnemyCount: room.EnemyCount, TrapDC: room.TrapDC})

	if room.Type == dungeon.HealingFountain {
		healed := p.HealAll()
		p.scope.Emit(event.RoomEnter, event.Normal,
			fmt.Sprintf("A healing fountain! The party restores %d HP", healed),
			event.RoomPayload{Floor: room.Floor, Room: room.Index, RoomType: room.Type.String(), Healed: healed})
	} else {
		if room.Type.HasTrap() {
			if _, err := trap.Resolve(p.Party, room, p.src, p.scope); err != nil && !errors.Is(err, trap.ErrNoDetector) {
				return fmt.Errorf("resolving trap in room %d: %w", room.Index, err)
			}
			if p.IsWiped() {
				x.wipe(p)
				return nil
			}
		}
		if room.Type.HasCombat() {
			p.combat.Resolve(ctx, p.Party, room, p.scope)
			if p.IsWiped() {
				x.wipe(p)
				return nil
			}
		}
		if _, err := treasure.Resolve(p.Party, room, p.src, p.scope); err != nil {
			return fmt.Errorf("searching room %d: %w", room.Index, err)
		}
	}

	p.CompleteRoom()
	p.scope.Emit(event.RoomComplete, event.Low,
		fmt.Sprintf("Room %d cleared", room.Index),
		event.RoomPayload{Floor: room.Floor, Room: room.Index, RoomType: room.Type.String()})
	if room.IsFinal {
		return nil
	}
	res := morale.CheckRoom(p.Party, p.src)
	morale.Report(p.scope, res)
	if !res.Success {
		x.retreat(p)
	}
	return nil
}

func (x *run) wipe(p *party) {
	p.MarkWiped()
	p.scope.Emit(event.ExpeditionWipe, event.Critical,
		fmt.Sprintf("DISASTER! The %s have been wiped out on Floor %d!", p.GuildName, p.floor),
		event.ExpeditionPayload{FloorsCleared: p.FloorsCleared, Gold: p.Gold, Floor: p.floor})
	x.logger.Info("party wiped",
		zap.Int64("guild_id", p.GuildID),
		zap.Int("floor", p.floor),
		zap.Int("room", p.room),
	)
}

func (x *run) retreat(p *party) {
	p.Retreat()
	p.scope.Emit(event.ExpeditionRetreat, event.High,
		fmt.Sprintf("The %s retreat from the dungeon! (Final morale: %d)", p.GuildName, p.Morale()),
		event.ExpeditionPayload{FloorsCleared: p.FloorsCleared, Gold: p.Gold, Floor: p.floor, Morale: p.Morale()})
	x.logger.Info("party retreated",
		zap.Int64("guild_id", p.GuildID),
		zap.Int("floor", p.floor),
		zap.Int("room", p.room),
	)
}

func (x *run) announce(_ context.Context, p *party) error {
	p.scope.Emit(event.ExpeditionStart, event.High,
		fmt.Sprintf("The %s begin their expedition into the depths!", p.GuildName),
		event.ExpeditionPayload{Seed: x.Seed, MaxFloors: x.floors})
	return nil
}

func (x *run) complete(_ context.Context, p *party) error {
	p.scope.Emit(event.ExpeditionComplete, event.High,
		fmt.Sprintf("The %s complete the dungeon! Floors: %d, Gold: %d", p.GuildName, p.FloorsCleared, p.Gold),
		event.ExpeditionPayload{FloorsCleared: p.FloorsCleared, Gold: p.Gold, Morale: p.Morale()})
	return nil
}

func (p *party) result(start, end time.Time) Result {
	return Result{
		GuildID:          p.GuildID,
		GuildName:        p.GuildName,
		FloorsCleared:    p.FloorsCleared,
		RoomsCleared:     p.RoomsCleared,
		Gold:             p.Gold,
		MonstersDefeated: p.MonstersDefeated,
		Retreated:        p.Status == character.Retreated,
		Wiped:            p.Status == character.Wiped || p.IsWiped(),
		Survivors:        len(p.LivingMembers()),
		FinalFloor:       p.floor,
		FinalRoom:        p.room,
		Start:            start,
		End:              end,
		Err:              p.err,
	}
}
