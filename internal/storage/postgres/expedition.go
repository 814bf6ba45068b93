package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
)

// ErrExpeditionNotFound is returned when an expedition update matches no row.
var ErrExpeditionNotFound = errors.New("expedition not found")

// Expedition status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Expedition is one scheduled run.
type Expedition struct {
	ID                  int64
	Number              int
	Seed                int64
	StartTime           time.Time
	EndTime             *time.Time // nil while running
	ParticipatingGuilds []int64
	TotalFloors         int
	Status              string
}

// EventRecord is a persisted event log row.
type EventRecord struct {
	ID           int64
	ExpeditionID int64
	GuildID      *int64 // nil for system events
	GuildName    string
	Type         string
	Description  string
	Priority     string
	Details      json.RawMessage
	Tick         int
	OccurredAt   time.Time
}

const expeditionColumns = `id, expedition_number, seed, start_time, end_time,
	participating_guilds, total_floors, status`

// ExpeditionRepository persists expeditions, their results and their event log.
type ExpeditionRepository struct {
	db *pgxpool.Pool
}

// NewExpeditionRepository creates an ExpeditionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewExpeditionRepository(db *pgxpool.Pool) *ExpeditionRepository {
	return &ExpeditionRepository{db: db}
}

// Create inserts a running expedition record.
//
// Precondition: number is unique; floors >= 1.
// Postcondition: Returns the created Expedition with ID set.
func (r *ExpeditionRepository) Create(ctx context.Context, number int, seed int64, guilds []int64, floors int, start time.Time) (Expedition, error) {
	if guilds == nil {
		guilds = []int64{}
	}
	exp, err := scanExpedition(r.db.QueryRow(ctx, `
		INSERT INTO expeditions (expedition_number, seed, start_time, participating_guilds, total_floors, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expeditionColumns,
		number, seed, start, guilds, floors, StatusRunning,
	))
	if err != nil {
		return Expedition{}, fmt.Errorf("inserting expedition %d: %w", number, err)
	}
	return exp, nil
}

// Complete closes an expedition with status and end time.
//
// Precondition: status is StatusCompleted or StatusFailed.
// Postcondition: Returns ErrExpeditionNotFound when no expedition has the id.
func (r *ExpeditionRepository) Complete(ctx context.Context, id int64, status string, end time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE expeditions SET status = $2, end_time = $3 WHERE id = $1`,
		id, status, end,
	)
	if err != nil {
		return fmt.Errorf("completing expedition %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExpeditionNotFound
	}
	return nil
}

// SaveResult stores one party's outcome. Saving twice for the same guild
// overwrites the earlier row.
func (r *ExpeditionRepository) SaveResult(ctx context.Context, expeditionID int64, res expedition.Result) error {
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO expedition_results
			(expedition_id, guild_id, floors_cleared, rooms_cleared, gold_earned, monsters_defeated,
			 retreated, wiped, survivors, final_floor, final_room, error, started_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (expedition_id, guild_id) DO UPDATE SET
			floors_cleared = EXCLUDED.floors_cleared,
			rooms_cleared = EXCLUDED.rooms_cleared,
			gold_earned = EXCLUDED.gold_earned,
			monsters_defeated = EXCLUDED.monsters_defeated,
			retreated = EXCLUDED.retreated,
			wiped = EXCLUDED.wiped,
			survivors = EXCLUDED.survivors,
			final_floor = EXCLUDED.final_floor,
			final_room = EXCLUDED.final_room,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at`,
		expeditionID, res.GuildID, res.FloorsCleared, res.RoomsCleared, res.Gold, res.MonstersDefeated,
		res.Retreated, res.Wiped, res.Survivors, res.FinalFloor, res.FinalRoom, errText, res.Start, res.End,
	)
	if err != nil {
		return fmt.Errorf("saving result for guild %d: %w", res.GuildID, err)
	}
	return nil
}

// SaveEvents appends events to the log in one batch, preserving their order.
//
// Postcondition: either every event is stored or an error is returned.
func (r *ExpeditionRepository) SaveEvents(ctx context.Context, expeditionID int64, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning event batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, e := range events {
		details, err := e.DetailsJSON()
		if err != nil {
			return err
		}
		var guildID *int64
		if e.GuildID != event.SystemGuildID {
			guildID = &e.GuildID
		}
		name := e.GuildName
		if guildID == nil && name == "" {
			name = "SYSTEM"
		}
		batch.Queue(`
			INSERT INTO event_log
				(expedition_id, guild_id, guild_name, event_type, description, priority, details, tick_number, occurred_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			expeditionID, guildID, name, e.Type.String(), e.Description, e.Priority.String(),
			details, e.Tick, e.Timestamp,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting %d events: %w", len(events), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

// Results returns the stored outcomes of an expedition ordered by guild id.
func (r *ExpeditionRepository) Results(ctx context.Context, expeditionID int64) ([]expedition.Result, error) {
	rows, err := r.db.Query(ctx, `
		SELECT res.guild_id, g.name, res.floors_cleared, res.rooms_cleared, res.gold_earned,
		       res.monsters_defeated, res.retreated, res.wiped, res.survivors,
		       res.final_floor, res.final_room, res.error, res.started_at, res.ended_at
		FROM expedition_results res
		JOIN guilds g ON g.id = res.guild_id
		WHERE res.expedition_id = $1
		ORDER BY res.guild_id`,
		expeditionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results for expedition %d: %w", expeditionID, err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (expedition.Result, error) {
		var (
			res     expedition.Result
			errText string
		)
		err := row.Scan(&res.GuildID, &res.GuildName, &res.FloorsCleared, &res.RoomsCleared, &res.Gold,
			&res.MonstersDefeated, &res.Retreated, &res.Wiped, &res.Survivors,
			&res.FinalFloor, &res.FinalRoom, &errText, &res.Start, &res.End)
		if errText != "" {
			res.Err = errors.New(errText)
		}
		return res, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning results: %w", err)
	}
	return results, nil
}

// Events returns the log of an expedition in emission order, optionally
// restricted to one guild.
func (r *ExpeditionRepository) Events(ctx context.Context, expeditionID int64, guildID *int64) ([]EventRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, expedition_id, guild_id, guild_name, event_type, description, priority,
		       details, tick_number, occurred_at
		FROM event_log
		WHERE expedition_id = $1 AND ($2::BIGINT IS NULL OR guild_id = $2)
		ORDER BY id`,
		expeditionID, guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events for expedition %d: %w", expeditionID, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (EventRecord, error) {
		var rec EventRecord
		err := row.Scan(&rec.ID, &rec.ExpeditionID, &rec.GuildID, &rec.GuildName, &rec.Type,
			&rec.Description, &rec.Priority, &rec.Details, &rec.Tick, &rec.OccurredAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning events: %w", err)
	}
	return records, nil
}

// Recent returns the latest expeditions, newest first.
//
// Precondition: limit > 0.
func (r *ExpeditionRepository) Recent(ctx context.Context, limit int) ([]Expedition, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+expeditionColumns+` FROM expeditions ORDER BY expedition_number DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent expeditions: %w", err)
	}
	exps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Expedition, error) {
		return scanExpedition(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning expeditions: %w", err)
	}
	return exps, nil
}

// LastNumber returns the highest expedition number, or 0 when none exist.
func (r *ExpeditionRepository) LastNumber(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(expedition_number), 0) FROM expeditions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("querying last expedition number: %w", err)
	}
	return n, nil
}

func scanExpedition(row pgx.Row) (Expedition, error) {
	var e Expedition
	err := row.Scan(&e.ID, &e.Number, &e.Seed, &e.StartTime, &e.EndTime,
		&e.ParticipatingGuilds, &e.TotalFloors, &e.Status)
	return e, err
}
