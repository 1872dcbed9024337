package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/assertjson"

	"winsbygroup.com/custserver/internal/config"
	"winsbygroup.com/custserver/internal/customer"
	"winsbygroup.com/custserver/internal/middleware"
)

var occurred = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func createdChange() customer.Change {
	return customer.Change{
		Kind:     customer.Created,
		ID:       7,
		Customer: &customer.Customer{ID: 7, Firstname: "John", Lastname: "Doe", SocialSecurityNumber: 12345},
		At:       occurred,
	}
}

func TestEvent_JSON(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "req-1")

	body, err := NewEvent(ctx, createdChange()).encode()
	require.NoError(t, err)

	assertjson.Equal(t, []byte(`{
		"type": "customer.created",
		"customer_id": 7,
		"customer": {"firstname": "John", "lastname": "Doe", "socialsecuritynumber": 12345, "id": 7},
		"occurred_at": "2025-03-01T12:00:00Z",
		"request_id": "req-1"
	}`), body)
}

func TestEvent_DeleteOmitsCustomer(t *testing.T) {
	body, err := NewEvent(context.Background(), customer.Change{Kind: customer.Deleted, ID: 3, At: occurred}).encode()
	require.NoError(t, err)

	assertjson.Equal(t, []byte(`{
		"type": "customer.deleted",
		"customer_id": 3,
		"occurred_at": "2025-03-01T12:00:00Z"
	}`), body)
}

func TestKafka_Publish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	p := newKafka(mockProducer, "customer-events")

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "customer-events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "7" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	require.NoError(t, p.Publish(context.Background(), createdChange()))
	require.NoError(t, p.Close())
}

func TestKafka_PublishError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	p := newKafka(mockProducer, "customer-events")

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := p.Publish(context.Background(), createdChange())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQP_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQP(ch, "customers")
	ctx := middleware.WithRequestID(context.Background(), "req-9")

	require.NoError(t, p.Publish(ctx, createdChange()))
	require.NoError(t, p.Close())

	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"customers/customer.created"}, ch.keys)
	assert.True(t, ch.closed)

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "req-9", msg.CorrelationId)

	var e Event
	require.NoError(t, json.Unmarshal(msg.Body, &e))
	assert.Equal(t, int64(7), e.CustomerID)
	assert.Equal(t, "John", e.Customer.Firstname)
}

func TestAMQP_PublishError(t *testing.T) {
	p := newAMQP(&fakeChannel{err: amqp.ErrClosed}, "customers")

	err := p.Publish(context.Background(), createdChange())
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestLog_Publish(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	p := NewLog(logger.WithField("component", "events"))

	require.NoError(t, p.Publish(context.Background(), createdChange()))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, int64(7), entry.Data["customer_id"])
	assert.Equal(t, customer.Created, entry.Data["type"])
}

func TestNew(t *testing.T) {
	p, err := New(config.Events{Driver: config.EventsNone})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)

	p, err = New(config.Events{Driver: config.EventsLog})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, p)

	_, err = New(config.Events{Driver: "nats"})
	assert.Error(t, err)
}
