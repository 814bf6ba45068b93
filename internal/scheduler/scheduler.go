// Package scheduler runs an expedition on a fixed interval: it assembles
// parties from the stored guilds, simulates the dungeon, and persists and
// publishes the outcome.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/enemy"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
	"github.com/cory-johannsen/guildmanager/internal/observability"
	"github.com/cory-johannsen/guildmanager/internal/storage/postgres"
)

var tracer = otel.Tracer("github.com/cory-johannsen/guildmanager/internal/scheduler")

// GuildStore loads rosters and records their career changes.
type GuildStore interface {
	ActiveGuilds(ctx context.Context) ([]postgres.Guild, error)
	Characters(ctx context.Context, guildID int64, availableOnly bool) ([]*character.Character, error)
	UpdateStats(ctx context.Context, guildID int64, gold, floors int) error
	UpdateCharacterStatus(ctx context.Context, c *character.Character) error
}

// ExpeditionStore records expeditions, their results and their event log.
type ExpeditionStore interface {
	LastNumber(ctx context.Context) (int, error)
	Create(ctx context.Context, number int, seed int64, guilds []int64, floors int, start time.Time) (postgres.Expedition, error)
	Complete(ctx context.Context, id int64, status string, end time.Time) error
	SaveResult(ctx context.Context, expeditionID int64, res expedition.Result) error
	SaveEvents(ctx context.Context, expeditionID int64, events []event.Event) error
}

// Feed receives the live event stream and the final results.
type Feed interface {
	event.Sink
	PublishResults(ctx context.Context, number, maxFloors int, results []expedition.Result) error
}

// Report describes one scheduled run.
type Report struct {
	RunID        uuid.UUID
	Number       int
	ExpeditionID int64
	Seed         int64
	Status       string
	Results      []expedition.Result
	Skipped      []string // guilds without a full party
	Events       int
}

// Service is a server.Service running expeditions every cfg.Interval.
type Service struct {
	cfg         config.ExpeditionConfig
	guilds      GuildStore
	expeditions ExpeditionStore
	feed        Feed
	logger      *zap.Logger

	// Clock defaults to time.Now.
	Clock   func() time.Time
	Spells  *spell.Catalog
	Enemies *enemy.Generator
	// Preflight, when set, must succeed before a run touches storage.
	Preflight func(context.Context) error

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler. feed may be nil.
//
// Precondition: guilds, expeditions and logger are non-nil; cfg.Interval > 0.
func New(cfg config.ExpeditionConfig, guilds GuildStore, expeditions ExpeditionStore, feed Feed, logger *zap.Logger) *Service {
	return &Service{
		cfg:         cfg,
		guilds:      guilds,
		expeditions: expeditions,
		feed:        feed,
		logger:      logger,
		Clock:       time.Now,
		Spells:      spell.DefaultCatalog(),
		Enemies:     enemy.NewGenerator(nil),
		stop:        make(chan struct{}),
	}
}

// Start runs expeditions until ctx is cancelled or Stop is called. A failed
// expedition is logged and the schedule continues.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("expedition scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("max_floors", s.cfg.MaxFloors),
		zap.Bool("run_immediately", s.cfg.RunImmediately),
	)
	if s.cfg.RunImmediately {
		s.runLogged(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

// Stop ends the schedule. It is safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Service) runLogged(ctx context.Context) {
	start := time.Now()
	rep, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("expedition failed",
			zap.String("run_id", rep.RunID.String()),
			zap.Int("number", rep.Number),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("expedition finished",
		zap.String("run_id", rep.RunID.String()),
		zap.Int("number", rep.Number),
		zap.Int("parties", len(rep.Results)),
		zap.Int("events", rep.Events),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RunOnce runs a single expedition with every eligible guild.
//
// Postcondition: when at least one party is eligible an expedition record
// exists and is completed as StatusCompleted or StatusFailed; with no
// eligible party nothing is stored and Report.Number is 0.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.New()}
	start := s.Clock()
	rep.Seed = start.Unix()

	ctx, span := tracer.Start(ctx, "scheduler.run", trace.WithAttributes(
		attribute.String("run_id", rep.RunID.String()),
		attribute.Int64("seed", rep.Seed),
	))
	defer span.End()

	if s.Preflight != nil {
		if err := s.Preflight(ctx); err != nil {
			err = fmt.Errorf("preflight: %w", err)
			span.SetStatus(codes.Error, err.Error())
			return rep, err
		}
	}

	parties, skipped, err := s.assemble(ctx, rep.Seed)
	rep.Skipped = skipped
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return rep, err
	}
	if len(parties) == 0 {
		s.logger.Warn("no eligible guilds, skipping expedition", zap.String("run_id", rep.RunID.String()))
		return rep, nil
	}

	last, err := s.expeditions.LastNumber(ctx)
	if err != nil {
		return rep, err
	}
	rep.Number = last + 1
	ids := make([]int64, len(parties))
	for i, p := range parties {
		ids[i] = p.GuildID
	}
	exp, err := s.expeditions.Create(ctx, rep.Number, rep.Seed, ids, s.cfg.MaxFloors, start)
	if err != nil {
		return rep, err
	}
	rep.ExpeditionID = exp.ID
	span.SetAttributes(attribute.Int("number", rep.Number))

	rec := event.NewRecorder()
	sink := event.Sink(rec)
	if s.feed != nil {
		sink = event.Multi(rec, event.SafeSink(s.feed, s.logger))
	}
	sink.Emit(event.Event{
		Timestamp:   start,
		GuildID:     event.SystemGuildID,
		GuildName:   "SYSTEM",
		Type:        event.ExpeditionStart,
		Priority:    event.High,
		Description: fmt.Sprintf("Expedition #%d begins! %d guilds enter the dungeon", rep.Number, len(parties)),
		Payload:     event.ExpeditionPayload{Seed: rep.Seed, MaxFloors: s.cfg.MaxFloors, Parties: len(parties)},
	})

	runner := expedition.Runner{
		Seed:      rep.Seed,
		MaxFloors: s.cfg.MaxFloors,
		Parallel:  s.cfg.Parallel,
		Logger:    observability.ExpeditionLogger(s.logger, rep.RunID, rep.Number, rep.Seed),
		Clock:     s.Clock,
		Sink:      sink,
		Spells:    s.Spells,
		Enemies:   s.Enemies,
	}
	results, runErr := runner.Run(ctx, parties)
	rep.Results = results

	// Persist even when ctx was cancelled mid-run.
	saveCtx := context.WithoutCancel(ctx)
	events := rec.Events()
	rep.Events = len(events)
	saveErr := s.persist(saveCtx, exp.ID, parties, results, events)

	rep.Status = postgres.StatusCompleted
	if runErr != nil || saveErr != nil {
		rep.Status = postgres.StatusFailed
	}
	completeErr := s.expeditions.Complete(saveCtx, exp.ID, rep.Status, s.Clock())

	if s.feed != nil {
		if err := s.feed.PublishResults(saveCtx, rep.Number, s.cfg.MaxFloors, results); err != nil {
			s.logger.Warn("publishing results failed", zap.Int("number", rep.Number), zap.Error(err))
		}
	}

	err = errors.Join(runErr, saveErr, completeErr)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return rep, err
}

// assemble builds one party per active guild from its available members,
// taking the first character of each role. Guilds missing a role are skipped.
func (s *Service) assemble(ctx context.Context, seed int64) ([]*character.Party, []string, error) {
	guilds, err := s.guilds.ActiveGuilds(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		parties []*character.Party
		skipped []string
	)
	for _, g := range guilds {
		chars, err := s.guilds.Characters(ctx, g.ID, true)
		if err != nil {
			return nil, nil, err
		}
		members, missing := pickRoster(chars)
		if len(missing) > 0 {
			s.logger.Warn("guild cannot field a full party",
				zap.Int64("guild_id", g.ID),
				zap.String("guild", g.Name),
				zap.String("missing_roles", strings.Join(missing, ",")),
			)
			skipped = append(skipped, g.Name)
			continue
		}
		for _, c := range members {
			if c.Role.IsCaster() && len(c.KnownSpells) == 0 {
				spell.AssignStartingSpells(c, s.Spells, dice.NewSeededSource(dice.DeriveSeed(seed, c.ID)))
			}
		}
		p, err := character.NewParty(g.ID, g.Name, members)
		if err != nil {
			s.logger.Warn("invalid party", zap.String("guild", g.Name), zap.Error(err))
			skipped = append(skipped, g.Name)
			continue
		}
		parties = append(parties, p)
	}
	return parties, skipped, nil
}

func pickRoster(chars []*character.Character) ([]*character.Character, []string) {
	var (
		members []*character.Character
		missing []string
	)
	for _, role := range character.Roles() {
		var found *character.Character
		for _, c := range chars {
			if c.Role == role && c.Alive {
				found = c
				break
			}
		}
		if found == nil {
			missing = append(missing, role.String())
			continue
		}
		members = append(members, found)
	}
	return members, missing
}

func (s *Service) persist(ctx context.Context, expeditionID int64, parties []*character.Party, results []expedition.Result, events []event.Event) error {
	var errs []error
	if err := s.expeditions.SaveEvents(ctx, expeditionID, events); err != nil {
		errs = append(errs, err)
	}
	for i, res := range results {
		if err := s.expeditions.SaveResult(ctx, expeditionID, res); err != nil {
			errs = append(errs, err)
		}
		if res.Err != nil {
			continue
		}
		if err := s.guilds.UpdateStats(ctx, res.GuildID, res.Gold, res.FloorsCleared); err != nil {
			errs = append(errs, err)
		}
		for _, c := range parties[i].Members {
			if err := s.guilds.UpdateCharacterStatus(ctx, c); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
