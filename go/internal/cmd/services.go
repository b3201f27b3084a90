package main

import (
	"context"
	"os"

	"github.com/mcdev12/pairmatch/go/internal/events"
	"github.com/mcdev12/pairmatch/go/internal/game/autoplay"
	"github.com/mcdev12/pairmatch/go/internal/history"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/mcdev12/pairmatch/go/internal/ranking"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Ledger    *ranking.Ledger
	History   *history.Recorder
	Publisher *events.Publisher
}

// logTransferrer stands in for a payment rail and records payouts in the log.
type logTransferrer struct{}

func (logTransferrer) Transfer(ctx context.Context, to models.PlayerID, amount int64) error {
	log.Info().Str("player", string(to)).Int64("amount", amount).Msg("reward transferred")
	return nil
}

// setupPublisher connects to NATS when NATS_URL is set.
func setupPublisher(ctx context.Context) (*events.Publisher, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		log.Info().Msg("NATS_URL not set, events will not be published")
		return nil, nil
	}
	jsCfg := events.DefaultJetStreamConfig()
	jsCfg.URL = url
	return events.Connect(ctx, jsCfg)
}

func setupServices(ctx context.Context, cfg *Config, store ranking.Store, publisher *events.Publisher) (*Services, error) {
	opts := []ranking.Option{
		ranking.WithStore(store),
		ranking.WithTransferrer(logTransferrer{}),
	}
	// Leave both interfaces nil when there is no publisher.
	var sessionPublisher history.SessionPublisher
	if publisher != nil {
		opts = append(opts, ranking.WithPublisher(publisher))
		sessionPublisher = publisher
	}

	ledger := ranking.NewLedger(models.PlayerID(cfg.Ledger.Owner), opts...)
	if err := ledger.Load(ctx); err != nil {
		return nil, err
	}

	return &Services{
		Ledger:    ledger,
		History:   history.NewRecorder(getEnvAsInt("HISTORY_CAPACITY", history.DefaultCapacity), sessionPublisher),
		Publisher: publisher,
	}, nil
}

func newStrategy(name string) autoplay.Strategy {
	if name == "random" {
		return autoplay.NewRandomStrategy()
	}
	return autoplay.NewMemoryStrategy()
}
