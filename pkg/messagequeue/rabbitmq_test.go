package messagequeue

import (
	"context"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type fakeAcknowledger struct {
	acked  []uint64
	nacked []uint64
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestDeliver_AcksAndRejects(t *testing.T) {
	ack := &fakeAcknowledger{}
	msgs := make(chan amqp.Delivery, 3)
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("bad")}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("ok")}
	close(msgs)

	s := &RabbitMQService{logger: zaptest.NewLogger(t), declared: map[string]bool{}}
	var seen []string
	err := s.deliver(context.Background(), "events", msgs, func(_ context.Context, body []byte) error {
		seen = append(seen, string(body))
		if string(body) == "bad" {
			return errors.New("cannot handle")
		}
		return nil
	})

	assert.Error(t, err, "closed delivery channel ends consumption")
	assert.Equal(t, []string{"ok", "bad", "ok"}, seen)
	assert.Equal(t, []uint64{1, 3}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}

func TestDeliver_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &RabbitMQService{logger: zaptest.NewLogger(t)}
	err := s.deliver(ctx, "events", make(chan amqp.Delivery), func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
