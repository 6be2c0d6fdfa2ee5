package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/skillswap/internal/adapters/repository"
	"github.com/okian/skillswap/internal/seed"
	"github.com/okian/skillswap/pkg/logger"
)

// Default configuration constants.
const (
	defaultPeople  = 1000
	defaultWorkers = 8
	defaultTimeout = 5 * time.Minute
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("SWAP_DATABASE_URL"), "Postgres connection string")
		people      = flag.Int("people", defaultPeople, "Number of people to generate")
		seedValue   = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed; the same seed yields the same population")
		workers     = flag.Int("workers", defaultWorkers, "Concurrent writes")
		timeout     = flag.Duration("timeout", defaultTimeout, "Overall timeout")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("seed")

	if *databaseURL == "" {
		os.Stderr.WriteString("a database url is required (-database-url or SWAP_DATABASE_URL)\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := repository.NewPostgres(ctx, *databaseURL)
	if err != nil {
		log.Error(ctx, "connecting to postgres failed", logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	population := seed.Generate(seed.Config{People: *people, Seed: *seedValue})
	log.Info(ctx, "generated population", logger.Int("people", len(population)), logger.Any("seed", *seedValue))

	st, err := seed.Load(ctx, store, population, *workers, log)
	if err != nil || st.Failed > 0 {
		log.Error(ctx, "seeding incomplete", logger.Int("failed", st.Failed), logger.Error(err))
		os.Exit(1)
	}
}
