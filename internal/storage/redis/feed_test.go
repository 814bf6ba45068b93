package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
	"github.com/cory-johannsen/guildmanager/internal/storage/redis"
)

var cfg = config.RedisConfig{Enabled: true, Addr: "localhost:6379", StreamKey: "guild:events", FeedLength: 500}

func roomCleared() event.Event {
	return event.Event{
		Timestamp:   time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC),
		GuildID:     2,
		GuildName:   "Iron Wolves",
		Type:        event.RoomComplete,
		Description: "Room 3 cleared",
		Priority:    event.Low,
		Tick:        4003,
	}
}

const roomClearedJSON = `{"timestamp":"2026-05-02T18:00:00Z","guild_id":2,"guild_name":"Iron Wolves",` +
	`"event_type":"room_complete","description":"Room 3 cleared","priority":"low","tick_number":4003}`

func xadd(body string) *goredis.XAddArgs {
	return &goredis.XAddArgs{
		Stream: "guild:events",
		MaxLen: 500,
		Approx: true,
		Values: []any{"type", "room_complete", "guild", "2", "tick", "4003", "json", body},
	}
}

func TestFeedPublisher_Append(t *testing.T) {
	client, mock := redismock.NewClientMock()
	feed := redis.NewFeedPublisher(client, cfg, zaptest.NewLogger(t))

	mock.ExpectXAdd(xadd(roomClearedJSON)).SetVal("1746208800000-0")
	require.NoError(t, feed.Append(context.Background(), roomCleared()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPublisher_EmitSwallowsErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	feed := redis.NewFeedPublisher(client, cfg, zaptest.NewLogger(t))

	mock.ExpectXAdd(xadd(roomClearedJSON)).SetErr(errors.New("connection refused"))
	assert.NotPanics(t, func() { feed.Emit(roomCleared()) })
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedPublisher_PublishResults(t *testing.T) {
	client, mock := redismock.NewClientMock()
	feed := redis.NewFeedPublisher(client, cfg, nil)
	assert.Equal(t, "guild:events:results", feed.ResultsChannel())

	results := []expedition.Result{
		{GuildID: 1, GuildName: "Brave Companions", FloorsCleared: 3, RoomsCleared: 14, Gold: 210, MonstersDefeated: 19, Survivors: 4},
		{GuildID: 2, GuildName: "Iron Wolves", Wiped: true, FloorsCleared: 1, RoomsCleared: 6, Gold: 40, MonstersDefeated: 7},
	}
	want := `{"expedition_number":12,"results":[` +
		`{"guild_id":1,"guild_name":"Brave Companions","outcome":"completed","floors_cleared":3,"rooms_cleared":14,"gold":210,"monsters_defeated":19,"survivors":4},` +
		`{"guild_id":2,"guild_name":"Iron Wolves","outcome":"wiped","floors_cleared":1,"rooms_cleared":6,"gold":40,"monsters_defeated":7,"survivors":0}]}`

	mock.ExpectPublish("guild:events:results", want).SetVal(1)
	require.NoError(t, feed.PublishResults(context.Background(), 12, 3, results))

	mock.ExpectPublish("guild:events:results", want).SetErr(errors.New("READONLY"))
	assert.ErrorContains(t, feed.PublishResults(context.Background(), 12, 3, results), "expedition 12")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewResultMessage_RecordsFailures(t *testing.T) {
	msg := redis.NewResultMessage(4, 3, []expedition.Result{
		{GuildID: 3, GuildName: "Silver Hands", Err: errors.New("guild 3 (Silver Hands): simulation panicked")},
	})
	require.Len(t, msg.Results, 1)
	assert.Equal(t, "failed", msg.Results[0].Outcome)
	assert.Contains(t, msg.Results[0].Error, "panicked")
}
