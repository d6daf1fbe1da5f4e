package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nicoceron/nimble-backend/internal/metrics"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/platform/rabbitmq"
)

type ActivityStore interface {
	Create(ctx context.Context, activity *model.Activity) error
}

// ActivityPersistWorker drains the activity queue into the database.
type ActivityPersistWorker struct {
	conn      *amqp.Connection
	store     ActivityStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewActivityPersistWorker(conn *amqp.Connection, store ActivityStore, queueName string, logger *slog.Logger) *ActivityPersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.With(slog.String("component", "activity_worker")),
	}
}

func (w *ActivityPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.run(workerCtx, deliveries)
	}()

	w.logger.Info("activity worker started", slog.String("queue", w.queueName))
	return nil
}

func (w *ActivityPersistWorker) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks persisted activities and drops (nack without requeue) anything
// that cannot be decoded or stored.
func (w *ActivityPersistWorker) handle(ctx context.Context, d amqp.Delivery) {
	var activity model.Activity
	if err := json.Unmarshal(d.Body, &activity); err != nil {
		metrics.ObserveActivity("persist", metrics.ResultInvalid)
		w.logger.Warn("decode activity failed", slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}
	activity.ID = 0

	if err := w.store.Create(ctx, &activity); err != nil {
		metrics.ObserveActivity("persist", metrics.ResultError)
		w.logger.Error("persist activity failed",
			slog.String("action", activity.Action),
			slog.Uint64("user_id", uint64(activity.UserID)),
			slog.String("error", err.Error()),
		)
		_ = d.Nack(false, false)
		return
	}

	metrics.ObserveActivity("persist", metrics.ResultOK)
	_ = d.Ack(false)
}

func (w *ActivityPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
