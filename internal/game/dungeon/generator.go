package dungeon

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cory-johannsen/guildmanager/internal/game/dice"
)

// FloorSeedStride separates the per-floor seeds derived from the expedition seed.
const FloorSeedStride = 1000

// Room-type buckets on a d100, cumulative.
const (
	combatMax = 40
	trapMax   = 70
	bothMax   = 94
	bossMax   = 99
)

// Generator lays out floors from an expedition seed.
type Generator struct {
	Seed int64
}

// NewGenerator returns a generator for seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{Seed: seed}
}

// Floor generates the rooms of floor n. Calling it twice with the same seed
// and n yields identical rooms.
//
// Precondition: n >= 1.
// Postcondition: 6 <= len(rooms) <= 9; the last room is a Boss room with IsFinal set.
func (g *Generator) Floor(n int) []Room {
	src := dice.NewSeededSource(g.Seed + int64(n)*FloorSeedStride)
	count := 5 + dice.D(src, 4)
	rooms := make([]Room, 0, count)
	for i := 1; i < count; i++ {
		rooms = append(rooms, newRoom(n, i, rollType(src), false, src))
	}
	return append(rooms, newRoom(n, count, Boss, true, src))
}

func rollType(src dice.Source) RoomType {
	roll := dice.D(src, 100)
	switch {
	case roll <= combatMax:
		return Combat
	case roll <= trapMax:
		return Trap
	case roll <= bothMax:
		return Both
	case roll <= bossMax:
		return Boss
	default:
		return HealingFountain
	}
}

func newRoom(floor, index int, typ RoomType, final bool, src dice.Source) Room {
	r := Room{Floor: floor, Index: index, Type: typ, Difficulty: floor, IsFinal: final}
	if typ.HasCombat() {
		r.EnemyCount = dice.D(src, 4) + r.Difficulty
		if typ == Boss {
			r.EnemyCount++
		}
	}
	if typ.HasTrap() {
		r.TrapDC = 10 + r.Difficulty
	}
	return r
}

// FloorSummary tallies a floor's contents.
type FloorSummary struct {
	Floor        int
	Rooms        int
	ByType       map[RoomType]int
	TotalEnemies int
	BossRooms    int
}

// Summarize tallies rooms.
func Summarize(rooms []Room) FloorSummary {
	s := FloorSummary{Rooms: len(rooms), ByType: make(map[RoomType]int)}
	for _, r := range rooms {
		s.Floor = r.Floor
		s.ByType[r.Type]++
		s.TotalEnemies += r.EnemyCount
		if r.IsBoss() {
			s.BossRooms++
		}
	}
	return s
}

// Preview summarizes floors 1..floors.
func (g *Generator) Preview(floors int) []FloorSummary {
	out := make([]FloorSummary, 0, max(floors, 0))
	for n := 1; n <= floors; n++ {
		out = append(out, Summarize(g.Floor(n)))
	}
	return out
}

// Cache memoizes the floors of one expedition. Concurrent callers asking for
// the same floor share one generation.
type Cache struct {
	gen    *Generator
	group  singleflight.Group
	mu     sync.RWMutex
	floors map[int][]Room
}

// NewCache returns an empty cache over gen.
func NewCache(gen *Generator) *Cache {
	return &Cache{gen: gen, floors: make(map[int][]Room)}
}

// Floor returns the rooms of floor n, generating them at most once.
// The returned slice is shared and must not be modified.
func (c *Cache) Floor(ctx context.Context, n int) ([]Room, error) {
	c.mu.RLock()
	rooms, ok := c.floors[n]
	c.mu.RUnlock()
	if ok {
		return rooms, nil
	}
	ch := c.group.DoChan(strconv.Itoa(n), func() (any, error) {
		rooms := c.gen.Floor(n)
		c.mu.Lock()
		c.floors[n] = rooms
		c.mu.Unlock()
		return rooms, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.([]Room), res.Err
	}
}

// Seed returns the expedition seed behind the cache.
func (c *Cache) Seed() int64 { return c.gen.Seed }
