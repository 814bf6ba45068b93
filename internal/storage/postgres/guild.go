package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/guildmanager/internal/game/character"
)

// ErrGuildNotFound is returned when a guild lookup or update matches no row.
var ErrGuildNotFound = errors.New("guild not found")

// ErrGuildExists is returned when creating a guild whose name is taken.
var ErrGuildExists = errors.New("guild already exists")

// ErrCharacterNameTaken is returned when a guild already has a member with that name.
var ErrCharacterNameTaken = errors.New("character name already taken")

// ErrCharacterNotFound is returned when a character update matches no row.
var ErrCharacterNotFound = errors.New("character not found")

// ErrInvalidMetric is returned for an unknown leaderboard metric.
var ErrInvalidMetric = errors.New("invalid leaderboard metric")

// Guild is a persisted guild with its career totals.
type Guild struct {
	ID                 int64
	Name               string
	Motto              string
	Treasury           int64
	TotalExpeditions   int
	TotalFloorsCleared int
	TotalGoldEarned    int64
	EstablishedAt      time.Time
	Active             bool
}

// Metric is a leaderboard ranking column.
type Metric string

const (
	MetricTreasury      Metric = "treasury"
	MetricGoldEarned    Metric = "total_gold_earned"
	MetricFloorsCleared Metric = "total_floors_cleared"
	MetricExpeditions   Metric = "total_expeditions"
)

func (m Metric) valid() bool {
	switch m {
	case MetricTreasury, MetricGoldEarned, MetricFloorsCleared, MetricExpeditions:
		return true
	}
	return false
}

const guildColumns = `id, name, motto, treasury, total_expeditions, total_floors_cleared,
	total_gold_earned, established_at, is_active`

const characterColumns = `id, guild_id, name, role, might, grit, wit, luck, max_hp, current_hp,
	is_alive, times_downed, known_spells, disabled_spells`

// GuildRepository persists guilds and their characters.
type GuildRepository struct {
	db *pgxpool.Pool
}

// NewGuildRepository creates a GuildRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGuildRepository(db *pgxpool.Pool) *GuildRepository {
	return &GuildRepository{db: db}
}

// Create inserts an active guild with an empty treasury.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created Guild, or ErrGuildExists if the name is taken.
func (r *GuildRepository) Create(ctx context.Context, name, motto string) (Guild, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO guilds (name, motto) VALUES ($1, $2) RETURNING `+guildColumns,
		name, motto,
	)
	g, err := scanGuild(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Guild{}, ErrGuildExists
		}
		return Guild{}, fmt.Errorf("inserting guild: %w", err)
	}
	return g, nil
}

// GetByID retrieves a guild.
//
// Postcondition: Returns the Guild or ErrGuildNotFound.
func (r *GuildRepository) GetByID(ctx context.Context, id int64) (Guild, error) {
	g, err := scanGuild(r.db.QueryRow(ctx, `SELECT `+guildColumns+` FROM guilds WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Guild{}, ErrGuildNotFound
		}
		return Guild{}, fmt.Errorf("querying guild %d: %w", id, err)
	}
	return g, nil
}

// ActiveGuilds returns every active guild ordered by id, which is the
// expedition roster order.
func (r *GuildRepository) ActiveGuilds(ctx context.Context) ([]Guild, error) {
	rows, err := r.db.Query(ctx, `SELECT `+guildColumns+` FROM guilds WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying active guilds: %w", err)
	}
	return collectGuilds(rows)
}

// Leaderboard returns up to limit guilds ranked by metric, highest first.
//
// Precondition: limit > 0.
// Postcondition: Returns ErrInvalidMetric for an unknown metric.
func (r *GuildRepository) Leaderboard(ctx context.Context, metric Metric, limit int) ([]Guild, error) {
	if !metric.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, string(metric))
	}
	// metric is whitelisted above; column names cannot be bound as parameters.
	rows, err := r.db.Query(ctx,
		`SELECT `+guildColumns+` FROM guilds WHERE is_active ORDER BY `+string(metric)+` DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	return collectGuilds(rows)
}

// UpdateStats records one finished expedition for a guild: gold is added to
// the treasury and to lifetime earnings, floors to the lifetime floor count.
//
// Precondition: gold >= 0; floors >= 0.
// Postcondition: Returns ErrGuildNotFound when no guild has the id.
func (r *GuildRepository) UpdateStats(ctx context.Context, guildID int64, gold, floors int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE guilds
		SET treasury = treasury + $2,
		    total_gold_earned = total_gold_earned + $2,
		    total_floors_cleared = total_floors_cleared + $3,
		    total_expeditions = total_expeditions + 1
		WHERE id = $1`,
		guildID, gold, floors,
	)
	if err != nil {
		return fmt.Errorf("updating guild %d stats: %w", guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGuildNotFound
	}
	return nil
}

// CreateCharacter inserts c and sets c.ID.
//
// Precondition: c.GuildID references an existing guild; c.Name is non-empty.
// Postcondition: Returns ErrCharacterNameTaken on a duplicate name within the guild.
func (r *GuildRepository) CreateCharacter(ctx context.Context, c *character.Character) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO characters
			(guild_id, name, role, might, grit, wit, luck, max_hp, current_hp,
			 is_alive, is_available, times_downed, known_spells, disabled_spells)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10,$11,$12,$13)
		RETURNING id`,
		c.GuildID, c.Name, c.Role.String(),
		c.Stats.Might, c.Stats.Grit, c.Stats.Wit, c.Stats.Luck,
		c.MaxHP, c.CurrentHP, c.Alive, c.TimesDowned,
		nonNil(c.KnownSpells), disabledList(c),
	).Scan(&c.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrCharacterNameTaken
		}
		return fmt.Errorf("inserting character %s: %w", c.Name, err)
	}
	return nil
}

// Characters loads a guild's members ordered by id. With availableOnly,
// dead and unavailable characters are left out.
func (r *GuildRepository) Characters(ctx context.Context, guildID int64, availableOnly bool) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+characterColumns+` FROM characters
		WHERE guild_id = $1 AND (NOT $2 OR (is_alive AND is_available))
		ORDER BY id`,
		guildID, availableOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var out []*character.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters: %w", err)
	}
	return out, nil
}

// UpdateCharacterStatus writes back the state an expedition changes: HP,
// life, times downed and spells. A character that died is marked
// unavailable and its death time is recorded once.
//
// Precondition: c.ID references an existing character.
func (r *GuildRepository) UpdateCharacterStatus(ctx context.Context, c *character.Character) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET current_hp = $2,
		    is_alive = $3,
		    is_available = is_available AND $3,
		    times_downed = $4,
		    known_spells = $5,
		    disabled_spells = $6,
		    death_at = CASE WHEN NOT $3 THEN COALESCE(death_at, NOW()) ELSE death_at END
		WHERE id = $1`,
		c.ID, c.CurrentHP, c.Alive, c.TimesDowned, nonNil(c.KnownSpells), disabledList(c),
	)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

func scanGuild(row pgx.Row) (Guild, error) {
	var g Guild
	err := row.Scan(&g.ID, &g.Name, &g.Motto, &g.Treasury, &g.TotalExpeditions,
		&g.TotalFloorsCleared, &g.TotalGoldEarned, &g.EstablishedAt, &g.Active)
	return g, err
}

func collectGuilds(rows pgx.Rows) ([]Guild, error) {
	guilds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Guild, error) {
		return scanGuild(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning guilds: %w", err)
	}
	return guilds, nil
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var (
		id, guildID                   int64
		name, role                    string
		stats                         character.Stats
		maxHP, currentHP, timesDowned int
		alive                         bool
		known, disabled               []string
	)
	if err := row.Scan(&id, &guildID, &name, &role,
		&stats.Might, &stats.Grit, &stats.Wit, &stats.Luck,
		&maxHP, &currentHP, &alive, &timesDowned, &known, &disabled); err != nil {
		return nil, fmt.Errorf("scanning character: %w", err)
	}
	r, err := character.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("character %d: %w", id, err)
	}
	c, err := character.Restore(id, name, r, guildID, stats, maxHP, currentHP, timesDowned, alive)
	if err != nil {
		return nil, fmt.Errorf("restoring character %d: %w", id, err)
	}
	c.KnownSpells = known
	for _, s := range disabled {
		c.DisableSpell(s)
	}
	return c, nil
}

func disabledList(c *character.Character) []string {
	out := make([]string, 0, len(c.DisabledSpells))
	for _, s := range c.KnownSpells {
		if c.DisabledSpells[s] {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
