package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	msg, err := envelope("booking.created", map[string]string{"booking_id": "b-1"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "booking.created", msg.Type)
	assert.NotEmpty(t, msg.MessageId)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "b-1", body["booking_id"])
}

func TestEnvelope_MarshalError(t *testing.T) {
	_, err := envelope("broken", make(chan int))
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	require.NoError(t, NewLogPublisher(log).Publish(context.Background(), "escrow.status_changed", map[string]string{"status": "FUNDED"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "escrow.status_changed", entry.Data["event"])
	assert.Contains(t, entry.Data["payload"], "FUNDED")
}

type fakeChannel struct {
	published []string
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, _ amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, key)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

// fakeBroker выдаёт новый канал на каждое подключение и позволяет «уронить» текущий.
type fakeBroker struct {
	channels []*fakeChannel
	notify   []chan *amqp.Error
	dialErr  error
}

func (b *fakeBroker) dial() (*session, error) {
	if b.dialErr != nil {
		return nil, b.dialErr
	}
	ch := &fakeChannel{}
	closed := make(chan *amqp.Error, 1)
	b.channels = append(b.channels, ch)
	b.notify = append(b.notify, closed)
	return &session{ch: ch, closed: closed}, nil
}

func (b *fakeBroker) disconnect() {
	b.notify[len(b.notify)-1] <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restart"}
}

func newTestPublisher(t *testing.T, broker *fakeBroker, clock *time.Time) *AMQPPublisher {
	t.Helper()
	log, _ := test.NewNullLogger()
	p, err := newAMQPPublisher(broker.dial, "charter", log)
	require.NoError(t, err)
	p.now = func() time.Time { return *clock }
	p.lastDial = *clock
	return p
}

func TestAMQPPublisher_RedialsAfterDisconnect(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	broker := &fakeBroker{}
	p := newTestPublisher(t, broker, &clock)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "booking.created", map[string]string{"id": "1"}))

	broker.disconnect()
	clock = clock.Add(redialInterval)
	require.NoError(t, p.Publish(ctx, "booking.status_changed", map[string]string{"id": "1"}))

	require.Len(t, broker.channels, 2)
	assert.True(t, broker.channels[0].closed)
	assert.Equal(t, []string{"booking.created"}, broker.channels[0].published)
	assert.Equal(t, []string{"booking.status_changed"}, broker.channels[1].published)
}

func TestAMQPPublisher_ThrottlesRedialWhileBrokerDown(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	broker := &fakeBroker{}
	p := newTestPublisher(t, broker, &clock)
	ctx := context.Background()

	broker.disconnect()
	broker.dialErr = errors.New("connection refused")
	clock = clock.Add(redialInterval)

	err := p.Publish(ctx, "escrow.status_changed", map[string]string{})
	assert.ErrorIs(t, err, ErrBrokerUnavailable)

	// Повторная попытка до истечения интервала не звонит брокеру.
	broker.dialErr = nil
	clock = clock.Add(time.Second)
	err = p.Publish(ctx, "escrow.status_changed", map[string]string{})
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.Len(t, broker.channels, 1)

	clock = clock.Add(redialInterval)
	require.NoError(t, p.Publish(ctx, "escrow.status_changed", map[string]string{}))
	require.Len(t, broker.channels, 2)
	assert.Equal(t, []string{"escrow.status_changed"}, broker.channels[1].published)
}

func TestAMQPPublisher_ClosedChannelOnPublishIsDropped(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	broker := &fakeBroker{}
	p := newTestPublisher(t, broker, &clock)
	ctx := context.Background()

	broker.channels[0].err = amqp.ErrClosed
	assert.Error(t, p.Publish(ctx, "contract.fully_signed", map[string]string{}))

	clock = clock.Add(redialInterval)
	require.NoError(t, p.Publish(ctx, "contract.fully_signed", map[string]string{}))
	require.Len(t, broker.channels, 2)
	assert.Equal(t, []string{"contract.fully_signed"}, broker.channels[1].published)
	assert.NoError(t, p.Close())
	assert.True(t, broker.channels[1].closed)
}
