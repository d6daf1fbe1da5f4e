package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nicoceron/nimble-backend/internal/model"
)

type fakeAcknowledger struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeStore struct {
	saved []model.Activity
	err   error
}

func (s *fakeStore) Create(_ context.Context, activity *model.Activity) error {
	if s.err != nil {
		return s.err
	}
	activity.ID = uint(len(s.saved) + 1)
	s.saved = append(s.saved, *activity)
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, body any) amqp.Delivery {
	t.Helper()
	raw, ok := body.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: raw}
}

func TestHandlePersistsAndAcks(t *testing.T) {
	store := &fakeStore{}
	ack := &fakeAcknowledger{}
	w := NewActivityPersistWorker(nil, store, "activities", nil)

	taskID := uint(9)
	w.handle(context.Background(), delivery(t, ack, 1, model.Activity{ID: 77, UserID: 3, TaskID: &taskID, Action: model.ActionTaskCreated, CreatedAt: time.Now()}))

	if len(store.saved) != 1 || store.saved[0].UserID != 3 || *store.saved[0].TaskID != 9 {
		t.Fatalf("unexpected saved activities: %+v", store.saved)
	}
	if store.saved[0].ID != 1 {
		t.Fatalf("expected the producer id to be discarded, got %d", store.saved[0].ID)
	}
	if len(ack.acked) != 1 || ack.acked[0] != 1 || len(ack.nacked) != 0 {
		t.Fatalf("expected single ack, got acked=%v nacked=%v", ack.acked, ack.nacked)
	}
}

func TestHandleDropsBadDeliveries(t *testing.T) {
	ack := &fakeAcknowledger{}

	w := NewActivityPersistWorker(nil, &fakeStore{}, "activities", nil)
	w.handle(context.Background(), delivery(t, ack, 1, []byte("{not json")))

	failing := NewActivityPersistWorker(nil, &fakeStore{err: errors.New("db down")}, "activities", nil)
	failing.handle(context.Background(), delivery(t, ack, 2, model.Activity{UserID: 1, Action: model.ActionTaskDeleted}))

	if len(ack.acked) != 0 {
		t.Fatalf("expected no acks, got %v", ack.acked)
	}
	if len(ack.nacked) != 2 || ack.requeue[0] || ack.requeue[1] {
		t.Fatalf("expected two nacks without requeue, got %v %v", ack.nacked, ack.requeue)
	}
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	store := &fakeStore{}
	ack := &fakeAcknowledger{}
	w := NewActivityPersistWorker(nil, store, "activities", nil)

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- delivery(t, ack, 1, model.Activity{UserID: 1, Action: model.ActionUserRegistered})
	deliveries <- delivery(t, ack, 2, model.Activity{UserID: 2, Action: model.ActionUserRegistered})
	close(deliveries)

	done := make(chan struct{})
	go func() {
		w.run(context.Background(), deliveries)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after channel close")
	}
	if len(store.saved) != 2 {
		t.Fatalf("expected 2 saved activities, got %d", len(store.saved))
	}
}
