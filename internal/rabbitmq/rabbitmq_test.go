package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeAck struct {
	mu    sync.Mutex
	acked []uint64
	nack  []uint64
	done  chan struct{}
}

func newFakeAck() *fakeAck { return &fakeAck{done: make(chan struct{}, 10)} }

func (f *fakeAck) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	f.acked = append(f.acked, tag)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeAck) Nack(tag uint64, _ bool, _ bool) error {
	f.mu.Lock()
	f.nack = append(f.nack, tag)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeAck) Reject(uint64, bool) error { return nil }

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "activities")
	event := models.ActivitySubmittedEvent{
		ActivityID:   "a-1",
		UserID:       "u-1",
		UserName:     "Quinn",
		ActivityType: models.ActivityDaily,
	}

	require.NoError(t, p.Publish(context.Background(), event))

	assert.Equal(t, "activities", ch.exchange)
	assert.Equal(t, models.EventActivitySubmitted, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), ch.msg.DeliveryMode)

	var got models.ActivitySubmittedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, event.ActivityID, got.ActivityID)
	assert.Equal(t, event.UserName, got.UserName)
}

func TestPublisher_Errors(t *testing.T) {
	t.Run("broker error", func(t *testing.T) {
		p := NewPublisher(&fakeChannel{err: amqp.ErrClosed}, "activities")
		err := p.Publish(context.Background(), models.ActivitySubmittedEvent{})
		require.Error(t, err)
		assert.ErrorIs(t, err, amqp.ErrClosed)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ch := &fakeChannel{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPublisher(ch, "activities").Publish(ctx, models.ActivitySubmittedEvent{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ch.key)
	})

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}
		err := PublishMessage(&fakeChannel{}, "", "q", badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}

func TestDispatch_AckAndNack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack := newFakeAck()
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("good")}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("bad")}
	close(deliveries)

	handler := func(_ context.Context, body []byte) error {
		if string(body) == "bad" {
			return errors.New("fail")
		}
		return nil
	}

	Dispatch(ctx, newNoopLogger(), deliveries, 0, handler)

	for range 2 {
		select {
		case <-ack.done:
		case <-ctx.Done():
			t.Fatal("timeout waiting for deliveries to be processed")
		}
	}

	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nack)
}

func TestDispatch_DelaysRequeueOfFailedMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack := newFakeAck()
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 9, Body: []byte("bad")}
	close(deliveries)

	const delay = 50 * time.Millisecond
	started := time.Now()
	Dispatch(ctx, newNoopLogger(), deliveries, delay, func(context.Context, []byte) error {
		return errors.New("smtp down")
	})

	select {
	case <-ack.done:
	case <-ctx.Done():
		t.Fatal("timeout waiting for nack")
	}

	assert.GreaterOrEqual(t, time.Since(started), delay)
	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, []uint64{9}, ack.nack)
	assert.Empty(t, ack.acked)
}

func TestDispatch_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan struct{})
	go func() {
		Dispatch(ctx, newNoopLogger(), deliveries, 0, func(context.Context, []byte) error { return nil })
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not stop after cancel")
	}
}

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()
	require.Len(t, queues, 1)
	assert.Equal(t, models.EventActivitySubmitted, queues[0].RoutingKey)
	assert.Equal(t, NotificationQueue, queues[0].QueueName)
}
