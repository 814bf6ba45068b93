// Package main creates the demo guilds and their characters in PostgreSQL.
// Guilds that already exist are left untouched.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/game/dice"
	"github.com/cory-johannsen/guildmanager/internal/game/roster"
	"github.com/cory-johannsen/guildmanager/internal/game/spell"
	"github.com/cory-johannsen/guildmanager/internal/observability"
	"github.com/cory-johannsen/guildmanager/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	seed := flag.Int64("seed", 0, "seed for rolled HP and spell picks (0 = unseeded)")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "seedguilds")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewGuildRepository(pool.DB())
	catalog := spell.DefaultCatalog()
	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}

	created := 0
	for _, g := range roster.Default() {
		guild, err := repo.Create(ctx, g.Name, g.Motto)
		if errors.Is(err, postgres.ErrGuildExists) {
			logger.Info("guild exists, skipping", zap.String("guild", g.Name))
			continue
		}
		if err != nil {
			logger.Fatal("creating guild", zap.String("guild", g.Name), zap.Error(err))
		}
		members, err := g.Characters(guild.ID, catalog, src)
		if err != nil {
			logger.Fatal("building characters", zap.String("guild", g.Name), zap.Error(err))
		}
		for _, c := range members {
			if err := repo.CreateCharacter(ctx, c); err != nil {
				logger.Fatal("creating character", zap.String("character", c.Name), zap.Error(err))
			}
		}
		created++
		logger.Info("guild seeded",
			zap.Int64("guild_id", guild.ID),
			zap.String("guild", g.Name),
			zap.Int("characters", len(members)),
		)
	}
	logger.Info("seeding complete", zap.Int("guilds_created", created), zap.Duration("elapsed", time.Since(start)))
}
