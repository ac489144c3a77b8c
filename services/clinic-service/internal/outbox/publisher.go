package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
	"github.com/md-rashed-zaman/campusclinic/libs/kafkax"
	otelx "github.com/md-rashed-zaman/campusclinic/libs/otel"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.publishBatch(ctx, writer)
			if err != nil {
				p.logger.Warn("outbox publish failed", "published", n, "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// publishBatch sends the due rows. Rows Kafka rejected are postponed with
// exponential backoff in the same transaction that marks the rest
// published.
func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	var published int
	var writeErr error
	err := p.pool.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.Due(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		writeErr = writer.WriteMessages(ctx, BuildMessages(ctx, records)...)
		ok, failed := partition(records, writeErr)
		now := time.Now().UTC()
		for _, f := range failed {
			retryAt := now.Add(retryDelay(f.record.Attempts+1, p.pollEvery, maxRetryDelay))
			if err := p.repo.Postpone(ctx, tx, f.record.ID, retryAt, f.reason); err != nil {
				return err
			}
		}
		if err := p.repo.MarkPublished(ctx, tx, ok); err != nil {
			return err
		}
		published = len(ok)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, writeErr
}

const maxRetryDelay = 5 * time.Minute

type failure struct {
	record Record
	reason string
}

// partition splits a batch by the outcome of WriteMessages. kafka.WriteErrors
// carries one entry per message; any other error fails the whole batch.
func partition(records []Record, err error) ([]int64, []failure) {
	var ok []int64
	var failed []failure
	var perMessage kafka.WriteErrors
	perRecord := errors.As(err, &perMessage) && len(perMessage) == len(records)
	for i, r := range records {
		var recErr error
		switch {
		case perRecord:
			recErr = perMessage[i]
		case err != nil:
			recErr = err
		}
		if recErr == nil {
			ok = append(ok, r.ID)
			continue
		}
		failed = append(failed, failure{record: r, reason: recErr.Error()})
	}
	return ok, failed
}

// retryDelay doubles base for every attempt after the first, up to max.
func retryDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return min(d, max)
}

// BuildMessages converts outbox rows into Kafka messages keyed by aggregate
// id, restoring each row's stored trace context into the headers.
func BuildMessages(ctx context.Context, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := otelx.TraceContext{Parent: r.Traceparent, State: r.Tracestate}.Attach(ctx)
		msg := kafka.Message{
			Topic:   r.EventType,
			Key:     []byte(r.AggregateID),
			Value:   r.Payload,
			Headers: kafkax.EventMeta{ID: r.EventID, Type: r.EventType, AggregateType: r.AggregateType}.Headers(),
		}
		msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
		msgs = append(msgs, msg)
	}
	return msgs
}
