package events

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"winsbygroup.com/custserver/internal/config"
	"winsbygroup.com/custserver/internal/customer"
)

// Publisher delivers committed customer changes to a downstream system.
type Publisher interface {
	customer.Notifier
	Close() error
}

// New returns the publisher selected by cfg.Driver.
func New(cfg config.Events) (Publisher, error) {
	switch cfg.Driver {
	case "", config.EventsNone:
		return Nop{}, nil
	case config.EventsLog:
		return NewLog(log.WithField("component", "events")), nil
	case config.EventsKafka:
		p, err := NewKafka(cfg.Brokers, cfg.Topic)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.EventsAMQP:
		p, err := NewAMQP(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// Nop discards every change.
type Nop struct{}

func (Nop) Publish(context.Context, customer.Change) error { return nil }
func (Nop) Close() error                                  { return nil }

// Log writes every change to a logrus entry. Useful in development when no
// broker is running.
type Log struct {
	logger *log.Entry
}

func NewLog(logger *log.Entry) *Log {
	return &Log{logger: logger}
}

func (p *Log) Publish(ctx context.Context, c customer.Change) error {
	e := NewEvent(ctx, c)
	p.logger.WithFields(log.Fields{
		"type":        e.Type,
		"customer_id": e.CustomerID,
		"request_id":  e.RequestID,
	}).Info("customer event")
	return nil
}

func (p *Log) Close() error { return nil }
