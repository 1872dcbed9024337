package events

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"winsbygroup.com/custserver/internal/customer"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes events to a durable topic exchange. The routing key is the
// event type, so consumers can bind to "customer.*" or a single kind.
type AMQP struct {
	conn     *amqp.Connection
	exchange string
	logger   *log.Entry

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
	ch channel
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := newAMQP(ch, exchange)
	p.conn = conn
	return p, nil
}

func newAMQP(ch channel, exchange string) *AMQP {
	return &AMQP{
		ch:       ch,
		exchange: exchange,
		logger:   log.WithField("component", "amqp-publisher"),
	}
}

func (p *AMQP) Publish(ctx context.Context, c customer.Change) error {
	e := NewEvent(ctx, c)
	msg, err := newPublishing(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	err = p.ch.Publish(p.exchange, string(e.Type), false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.exchange, err)
	}

	p.logger.WithFields(log.Fields{
		"exchange":    p.exchange,
		"routing_key": e.Type,
		"customer_id": e.CustomerID,
	}).Debug("event sent")
	return nil
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("close amqp publisher: %w", err)
	}
	return nil
}

func newPublishing(e Event) (amqp.Publishing, error) {
	body, err := e.encode()
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     e.OccurredAt,
		Type:          string(e.Type),
		MessageId:     e.Key() + "-" + e.OccurredAt.Format("20060102T150405.000000000"),
		CorrelationId: e.RequestID,
		Body:          body,
	}, nil
}
