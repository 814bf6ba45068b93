// Package redis publishes the live expedition feed to Redis: every event is
// appended to a capped stream, and each finished expedition's results are
// published on a pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
)

// DefaultWriteTimeout bounds each XADD issued from Emit.
const DefaultWriteTimeout = 2 * time.Second

// NewClient builds a client from cfg and checks the connection.
//
// Precondition: cfg.Enabled.
// Postcondition: Returns a reachable client or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// FeedPublisher is an event.Sink writing to a Redis stream.
type FeedPublisher struct {
	client  goredis.UniversalClient
	stream  string
	maxLen  int64
	timeout time.Duration
	logger  *zap.Logger
}

// NewFeedPublisher creates a publisher for cfg.StreamKey capped near cfg.FeedLength entries.
//
// Precondition: client is non-nil; cfg.StreamKey is non-empty.
func NewFeedPublisher(client goredis.UniversalClient, cfg config.RedisConfig, logger *zap.Logger) *FeedPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedPublisher{
		client:  client,
		stream:  cfg.StreamKey,
		maxLen:  cfg.FeedLength,
		timeout: DefaultWriteTimeout,
		logger:  logger,
	}
}

// ResultsChannel is the pub/sub channel carrying expedition results.
func (f *FeedPublisher) ResultsChannel() string {
	return f.stream + ":results"
}

// Emit appends e to the stream. Failures are logged; the simulation is never
// interrupted by the feed.
func (f *FeedPublisher) Emit(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.Append(ctx, e); err != nil {
		f.logger.Warn("feed append failed",
			zap.String("event_type", e.Type.String()),
			zap.Int64("guild_id", e.GuildID),
			zap.Error(err),
		)
	}
}

// Append adds e to the stream with fields type, guild, tick and json,
// trimming the stream to roughly maxLen entries.
func (f *FeedPublisher) Append(ctx context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	err = f.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: f.stream,
		MaxLen: f.maxLen,
		Approx: true,
		Values: []any{
			"type", e.Type.String(),
			"guild", strconv.FormatInt(e.GuildID, 10),
			"tick", strconv.Itoa(e.Tick),
			"json", string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", f.stream, err)
	}
	return nil
}

// ResultMessage is the payload published when an expedition ends.
type ResultMessage struct {
	ExpeditionNumber int           `json:"expedition_number"`
	Results          []ResultEntry `json:"results"`
}

// ResultEntry summarises one party.
type ResultEntry struct {
	GuildID          int64  `json:"guild_id"`
	GuildName        string `json:"guild_name"`
	Outcome          string `json:"outcome"`
	FloorsCleared    int    `json:"floors_cleared"`
	RoomsCleared     int    `json:"rooms_cleared"`
	Gold             int    `json:"gold"`
	MonstersDefeated int    `json:"monsters_defeated"`
	Survivors        int    `json:"survivors"`
	Error            string `json:"error,omitempty"`
}

// NewResultMessage builds the results payload in roster order.
func NewResultMessage(number, maxFloors int, results []expedition.Result) ResultMessage {
	msg := ResultMessage{ExpeditionNumber: number, Results: make([]ResultEntry, 0, len(results))}
	for _, r := range results {
		entry := ResultEntry{
			GuildID:          r.GuildID,
			GuildName:        r.GuildName,
			Outcome:          r.Outcome(maxFloors),
			FloorsCleared:    r.FloorsCleared,
			RoomsCleared:     r.RoomsCleared,
			Gold:             r.Gold,
			MonstersDefeated: r.MonstersDefeated,
			Survivors:        r.Survivors,
		}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		msg.Results = append(msg.Results, entry)
	}
	return msg
}

// PublishResults publishes the expedition summary to ResultsChannel.
func (f *FeedPublisher) PublishResults(ctx context.Context, number, maxFloors int, results []expedition.Result) error {
	body, err := json.Marshal(NewResultMessage(number, maxFloors, results))
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := f.client.Publish(ctx, f.ResultsChannel(), string(body)).Err(); err != nil {
		return fmt.Errorf("publishing results of expedition %d: %w", number, err)
	}
	return nil
}
