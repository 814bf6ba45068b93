package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
	"github.com/cory-johannsen/guildmanager/internal/storage/postgres"
	"github.com/cory-johannsen/guildmanager/internal/testutil"
)

func TestExpeditionRepository(t *testing.T) {
	pool := testutil.NewPool(t)
	guilds := postgres.NewGuildRepository(pool)
	repo := postgres.NewExpeditionRepository(pool)
	ctx := context.Background()
	start := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

	g, err := guilds.Create(ctx, uniqueName("Brave Companions"), "")
	require.NoError(t, err)

	last, err := repo.LastNumber(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	exp, err := repo.Create(ctx, last+1, 1746208800, []int64{g.ID}, 3, start)
	require.NoError(t, err)
	assert.Equal(t, postgres.StatusRunning, exp.Status)
	assert.Nil(t, exp.EndTime)
	assert.Equal(t, []int64{g.ID}, exp.ParticipatingGuilds)

	t.Run("events keep emission order", func(t *testing.T) {
		events := []event.Event{
			{Timestamp: start, GuildName: "SYSTEM", Type: event.ExpeditionStart, Description: "Expedition #1 begins", Priority: event.High},
			{Timestamp: start, GuildID: g.ID, GuildName: g.Name, Type: event.FloorEnter, Description: "Descending to Floor 1", Priority: event.Normal, Tick: 1000,
				Payload: event.FloorPayload{Floor: 1, Rooms: 5}},
			{Timestamp: start, GuildID: g.ID, GuildName: g.Name, Type: event.RoomComplete, Description: "Room 1 cleared", Priority: event.Low, Tick: 2000},
		}
		require.NoError(t, repo.SaveEvents(ctx, exp.ID, events))
		require.NoError(t, repo.SaveEvents(ctx, exp.ID, nil))

		all, err := repo.Events(ctx, exp.ID, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Nil(t, all[0].GuildID)
		assert.Equal(t, "expedition_start", all[0].Type)
		assert.Equal(t, "high", all[0].Priority)
		assert.Equal(t, "floor_enter", all[1].Type)

		var details map[string]any
		require.NoError(t, json.Unmarshal(all[1].Details, &details))
		assert.EqualValues(t, 5, details["rooms"])

		mine, err := repo.Events(ctx, exp.ID, &g.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, 2000, mine[1].Tick)
	})

	t.Run("results overwrite per guild", func(t *testing.T) {
		res := expedition.Result{GuildID: g.ID, FloorsCleared: 1, RoomsCleared: 4, Gold: 35, Retreated: true,
			Survivors: 4, FinalFloor: 2, FinalRoom: 1, Start: start, End: start.Add(time.Second)}
		require.NoError(t, repo.SaveResult(ctx, exp.ID, res))
		res.Gold = 40
		res.Err = errors.New("guild 1 (Brave Companions): simulation panicked")
		require.NoError(t, repo.SaveResult(ctx, exp.ID, res))

		got, err := repo.Results(ctx, exp.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, g.Name, got[0].GuildName)
		assert.Equal(t, 40, got[0].Gold)
		assert.True(t, got[0].Retreated)
		assert.EqualError(t, got[0].Err, res.Err.Error())
		assert.True(t, got[0].Start.Equal(start))
	})

	t.Run("complete", func(t *testing.T) {
		end := start.Add(time.Minute)
		require.NoError(t, repo.Complete(ctx, exp.ID, postgres.StatusCompleted, end))
		assert.ErrorIs(t, repo.Complete(ctx, 999999, postgres.StatusFailed, end), postgres.ErrExpeditionNotFound)

		recent, err := repo.Recent(ctx, 5)
		require.NoError(t, err)
		require.NotEmpty(t, recent)
		assert.Equal(t, postgres.StatusCompleted, recent[0].Status)
		require.NotNil(t, recent[0].EndTime)
		assert.True(t, recent[0].EndTime.Equal(end))

		n, err := repo.LastNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, exp.Number, n)
	})
}
