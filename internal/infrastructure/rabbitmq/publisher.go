// Package rabbitmq publishes user lifecycle events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/internal/application"
)

// ErrConnectionClosed is returned by Publish while the broker connection is down.
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

const (
	minRedialWait = time.Second
	maxRedialWait = 30 * time.Second
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// connection is the subset of *amqp.Connection the publisher needs.
type connection interface {
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type dialFunc func() (connection, channel, error)

// Publisher sends every event as a persistent JSON message. The routing key
// is the event type, so consumers bind with patterns like "user.*".
// When the broker drops the connection, Publish fails fast and a background
// loop redials with exponential backoff until Close is called.
type Publisher struct {
	mu   sync.RWMutex
	conn connection
	ch   channel
	down bool

	dial      dialFunc
	redial    time.Duration
	done      chan struct{}
	closeOnce sync.Once

	exchange string
	appID    string
	logger   *logrus.Logger
}

// Dial connects and declares a durable topic exchange.
func Dial(url, exchange, appID string, logger *logrus.Logger) (*Publisher, error) {
	dial := func() (connection, channel, error) { return open(url, exchange) }
	conn, ch, err := dial()
	if err != nil {
		return nil, err
	}
	p := newPublisher(ch, exchange, appID, logger)
	p.dial = dial
	p.attach(conn)
	return p, nil
}

func open(url, exchange string) (connection, channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

func newPublisher(ch channel, exchange, appID string, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{
		ch:       ch,
		redial:   minRedialWait,
		done:     make(chan struct{}),
		exchange: exchange,
		appID:    appID,
		logger:   logger,
	}
}

// attach makes conn the live connection and watches it for closure.
func (p *Publisher) attach(conn connection) {
	notify := conn.NotifyClose(make(chan *amqp.Error, 1))
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	go p.watch(notify)
}

func (p *Publisher) watch(notify <-chan *amqp.Error) {
	var reason error = ErrConnectionClosed
	select {
	case <-p.done:
		return
	case amqpErr, ok := <-notify:
		if ok && amqpErr != nil {
			reason = amqpErr
		}
	}
	if p.isClosed() {
		return
	}

	p.mu.Lock()
	p.down = true
	p.mu.Unlock()
	p.logger.WithError(reason).WithField("exchange", p.exchange).Error("rabbitmq connection lost")
	p.reconnect()
}

func (p *Publisher) reconnect() {
	if p.dial == nil {
		return
	}
	wait := p.redial
	for {
		select {
		case <-p.done:
			return
		case <-time.After(wait):
		}

		conn, ch, err := p.dial()
		if err != nil {
			wait = min(wait*2, maxRedialWait)
			p.logger.WithError(err).WithField("retry_in", wait.String()).Error("rabbitmq redial failed")
			continue
		}

		p.mu.Lock()
		if p.isClosed() {
			p.mu.Unlock()
			_ = ch.Close()
			_ = conn.Close()
			return
		}
		old := p.ch
		p.ch, p.down = ch, false
		p.mu.Unlock()
		if old != nil {
			_ = old.Close()
		}

		p.logger.WithField("exchange", p.exchange).Info("rabbitmq reconnected")
		p.attach(conn)
		return
	}
}

func (p *Publisher) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Publisher) Publish(ctx context.Context, evt application.UserEvent) error {
	msg, err := buildMessage(evt, p.appID)
	if err != nil {
		return err
	}
	p.mu.RLock()
	ch, down := p.ch, p.down
	p.mu.RUnlock()
	if down {
		return fmt.Errorf("rabbitmq publish %s: %w", evt.Type, ErrConnectionClosed)
	}
	if err := ch.PublishWithContext(ctx, p.exchange, string(evt.Type), false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", evt.Type, err)
	}
	p.logger.WithFields(logrus.Fields{
		"exchange": p.exchange,
		"event":    evt.Type,
		"user_id":  evt.UserID,
	}).Debug("user event published")
	return nil
}

// Close stops the redial loop and closes the channel and connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.closeOnce.Do(func() { close(p.done) })
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func buildMessage(evt application.UserEvent, appID string) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	ts := evt.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts,
		Type:         string(evt.Type),
		AppId:        appID,
		MessageId:    evt.UserID.String() + ":" + string(evt.Type) + ":" + ts.Format(time.RFC3339Nano),
		Body:         body,
	}, nil
}

var _ application.EventPublisher = (*Publisher)(nil)
