package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/mcdev12/pairmatch/go/internal/game/autoplay"
	"github.com/mcdev12/pairmatch/go/internal/game/clock"
	"github.com/mcdev12/pairmatch/go/internal/game/deck"
	"github.com/mcdev12/pairmatch/go/internal/game/session"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/mcdev12/pairmatch/go/internal/ranking"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := setupStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up ledger store")
	}
	defer closeStore()

	publisher, err := setupPublisher(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up event publisher")
	}
	if publisher != nil {
		defer publisher.Close()
	}

	services, err := setupServices(ctx, cfg, store, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	log.Info().
		Strs("players", cfg.Autoplay.Players).
		Str("strategy", cfg.Autoplay.Strategy).
		Int("symbols", len(cfg.Game.Symbols)).
		Msg("starting pairmatch")

	if err := run(ctx, cfg, services); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted")
			return
		}
		log.Fatal().Err(err).Msg("pairmatch failed")
	}
}

// run plays every configured session, submits the scores, then funds and awards the pool.
func run(ctx context.Context, cfg *Config, services *Services) error {
	realClock := clockwork.NewRealClock()

	for _, name := range cfg.Autoplay.Players {
		player := models.PlayerID(name)
		strat := newStrategy(cfg.Autoplay.Strategy)

		for i := 0; i < cfg.Autoplay.SessionsPerPlayer; i++ {
			engine, err := session.NewEngine(cfg.Game, clock.NewScheduler(realClock), deck.NewRandom())
			if err != nil {
				return err
			}
			services.History.Attach(engine, player)

			result, err := autoplay.NewRunner(engine, strat, realClock, cfg.Autoplay.ThinkTime).Play(ctx)
			if err != nil {
				return err
			}
			if err := services.Ledger.SubmitScore(ctx, player, result.Score); err != nil {
				return err
			}
		}
	}

	owner := services.Ledger.Owner()
	if cfg.Ledger.Fund > 0 {
		if err := services.Ledger.Fund(ctx, owner, cfg.Ledger.Fund); err != nil {
			return err
		}
	}
	if _, err := services.Ledger.Award(ctx, owner); err != nil {
		if !errors.Is(err, ranking.ErrEmptyPool) && !errors.Is(err, ranking.ErrNoEntries) {
			return err
		}
		log.Warn().Err(err).Msg("no award made")
	}

	for i, e := range services.Ledger.TopEntries() {
		log.Info().
			Int("rank", i+1).
			Str("player", string(e.Player)).
			Int("score", e.Score).
			Msg("leaderboard")
	}
	for _, e := range services.History.Recent(len(cfg.Autoplay.Players) * cfg.Autoplay.SessionsPerPlayer) {
		log.Debug().
			Str("player", string(e.Player)).
			Str("session_id", e.Result.SessionID.String()).
			Int("score", e.Result.Score).
			Int("elapsed", e.Result.Elapsed).
			Int("moves", e.Result.Moves).
			Msg("session history")
	}
	return nil
}
