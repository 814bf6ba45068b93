// Package main runs one expedition with the demo guilds and prints the live
// feed. No database is needed; the feed is also streamed to Redis when enabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/game/character"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/event"
	"github.com/cory-johannsen/guildmanager/internal/game/expedition"
	"github.com/cory-johannsen/guildmanager/internal/game/roster"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
	"github.com/cory-johannsen/guildmanager/internal/observability"
	"github.com/cory-johannsen/guildmanager/internal/storage/redis"
)

// printer writes feed lines, pausing between tick windows when pace > 0.
type printer struct {
	pace   time.Duration
	window int
}

func (p *printer) Emit(e event.Event) {
	if w := e.Tick / event.TickWindow; p.pace > 0 && w != p.window {
		p.window = w
		time.Sleep(p.pace)
	}
	fmt.Println(e.String())
}

func main() {
	configPath := flag.String("config", "", "optional configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	seed := flag.Int64("seed", time.Now().Unix(), "expedition seed")
	floors := flag.Int("floors", 0, "floors to descend (0 = configured max_floors)")
	pace := flag.Bool("pace", false, "replay the feed at the configured tick_duration")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maxFloors := cfg.Expedition.MaxFloors
	if *floors > 0 {
		maxFloors = *floors
	}

	catalog := spell.DefaultCatalog()
	src := dice.NewSeededSource(*seed)
	var parties []*character.Party
	for i, g := range roster.Default() {
		p, err := g.Party(int64(i+1), catalog, src)
		if err != nil {
			logger.Fatal("building demo party", zap.String("guild", g.Name), zap.Error(err))
		}
		parties = append(parties, p)
	}

	out := &printer{}
	if *pace {
		out.pace = cfg.Expedition.TickDuration
	}
	sink := event.Sink(out)
	var feed *redis.FeedPublisher
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		feed = redis.NewFeedPublisher(client, cfg.Redis, logger)
		sink = event.Multi(out, event.SafeSink(feed, logger))
	}

	runner := expedition.Runner{
		Seed:      *seed,
		MaxFloors: maxFloors,
		Parallel:  cfg.Expedition.Parallel,
		Logger:    logger,
		Sink:      sink,
		Spells:    catalog,
	}
	fmt.Printf("=== Expedition (seed %d, %d floors) ===\n", *seed, maxFloors)
	results, runErr := runner.Run(ctx, parties)

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GUILD\tOUTCOME\tFLOORS\tROOMS\tGOLD\tKILLS\tSURVIVORS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.GuildName, r.Outcome(maxFloors), r.FloorsCleared, r.RoomsCleared, r.Gold, r.MonstersDefeated, r.Survivors)
	}
	_ = tw.Flush()

	if feed != nil {
		if err := feed.PublishResults(ctx, 0, maxFloors, results); err != nil {
			logger.Warn("publishing results", zap.Error(err))
		}
	}
	if runErr != nil {
		logger.Error("expedition ended with errors", zap.Error(runErr))
		os.Exit(1)
	}
}
