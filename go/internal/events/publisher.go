package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ledgerAggregate keys ledger events, which are not tied to a session.
const ledgerAggregate = "ledger"

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration // How long to keep messages
	MaxMsgs         int64         // Max number of messages to keep
	Replicas        int
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "PAIRMATCH_EVENTS",
		SubjectPrefix:   "pairmatch.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         -1,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// MsgPublisher is the part of jetstream.JetStream the publisher needs.
type MsgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher writes game and ledger events to a JetStream stream.
type Publisher struct {
	nc     *nats.Conn
	js     MsgPublisher
	config JetStreamConfig
	clock  clockwork.Clock
}

// NewPublisher publishes through an existing JetStream handle.
func NewPublisher(js MsgPublisher, cfg JetStreamConfig, clock clockwork.Clock) *Publisher {
	return &Publisher{js: js, config: cfg, clock: clock}
}

// Connect dials NATS, makes sure the stream exists and returns a publisher that
// owns the connection.
func Connect(ctx context.Context, cfg JetStreamConfig) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("pairmatch"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	p := NewPublisher(js, cfg, clockwork.NewRealClock())
	p.nc = nc
	return p, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	sc := streamConfig(cfg)

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

func streamConfig(cfg JetStreamConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Pair match game and ledger events",
		Subjects:    []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxMsgs:     cfg.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}
}

// SessionCompleted announces a finished game.
func (p *Publisher) SessionCompleted(ctx context.Context, player models.PlayerID, result models.SessionResult) error {
	return p.publish(ctx, EventTypeGameCompleted, result.SessionID.String(), GameCompletedPayload{
		SessionID:   result.SessionID.String(),
		Player:      string(player),
		Score:       result.Score,
		MatchScore:  result.MatchScore,
		TimeBonus:   result.TimeBonus,
		MoveBonus:   result.MoveBonus,
		Elapsed:     result.Elapsed,
		Moves:       result.Moves,
		CompletedAt: result.CompletedAt.UTC(),
	})
}

func (p *Publisher) ScoreSubmitted(ctx context.Context, record models.ScoreRecord, rank int) error {
	return p.publish(ctx, EventTypeScoreSubmitted, ledgerAggregate, ScoreSubmittedPayload{
		Player:      string(record.Player),
		Score:       record.Score,
		Rank:        rank,
		Seq:         record.Seq,
		SubmittedAt: record.SubmittedAt.UTC(),
	})
}

func (p *Publisher) PoolFunded(ctx context.Context, funder models.PlayerID, amount, pool int64) error {
	return p.publish(ctx, EventTypePoolFunded, ledgerAggregate, PoolFundedPayload{
		Funder: string(funder),
		Amount: amount,
		Pool:   pool,
	})
}

func (p *Publisher) RewardAwarded(ctx context.Context, award models.Award) error {
	return p.publishWithID(ctx, award.ID, EventTypeRewardAwarded, ledgerAggregate, RewardAwardedPayload{
		AwardID:   award.ID.String(),
		Winner:    string(award.Winner),
		Amount:    award.Amount,
		AwardedBy: string(award.AwardedBy),
		AwardedAt: award.AwardedAt.UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, eventType, aggregateID string, payload any) error {
	return p.publishWithID(ctx, uuid.New(), eventType, aggregateID, payload)
}

// publishWithID uses eventID as the JetStream message ID so retries of the
// same event are deduplicated by the stream.
func (p *Publisher) publishWithID(ctx context.Context, eventID uuid.UUID, eventType, aggregateID string, payload any) error {
	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, eventType)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		EventID:     eventID.String(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Timestamp:   p.clock.Now().UTC(),
		Payload:     body,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type":   []string{eventType},
			"Aggregate-ID": []string{aggregateID},
			"Event-ID":     []string{env.EventID},
		},
	},
		jetstream.WithMsgID(env.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		Msg("published to JetStream")
	return nil
}

// Envelope wraps every event on the stream.
type Envelope struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

func (p *Publisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
