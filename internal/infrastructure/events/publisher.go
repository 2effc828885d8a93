package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
)

// redialInterval ограничивает частоту переподключений, пока брокер недоступен.
const redialInterval = 5 * time.Second

var ErrBrokerUnavailable = errors.New("rabbitmq недоступен")

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session: открытый канал и оповещение о его закрытии брокером или сетью.
type session struct {
	ch        amqpChannel
	closed    <-chan *amqp.Error
	closeConn func() error
}

func (s *session) close() error {
	_ = s.ch.Close()
	if s.closeConn != nil {
		return s.closeConn()
	}
	return nil
}

// AMQPPublisher публикует доменные события в topic-exchange RabbitMQ.
// После обрыва соединения канал переоткрывается при следующей публикации.
type AMQPPublisher struct {
	mu       sync.Mutex
	dial     func() (*session, error)
	sess     *session
	lastDial time.Time
	now      func() time.Time
	exchange string
	log      logrus.FieldLogger
}

var _ repository.EventPublisher = (*AMQPPublisher)(nil)

func NewAMQPPublisher(url, exchange string, log logrus.FieldLogger) (*AMQPPublisher, error) {
	dial := func() (*session, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange: %w", err)
		}
		return &session{
			ch:        ch,
			closed:    ch.NotifyClose(make(chan *amqp.Error, 1)),
			closeConn: conn.Close,
		}, nil
	}
	return newAMQPPublisher(dial, exchange, log)
}

func newAMQPPublisher(dial func() (*session, error), exchange string, log logrus.FieldLogger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{dial: dial, now: time.Now, exchange: exchange, log: log}
	sess, err := dial()
	if err != nil {
		return nil, err
	}
	p.sess = sess
	p.lastDial = p.now()
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, payload any) error {
	msg, err := envelope(key, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sess, err := p.session()
	if err != nil {
		return err
	}
	if err := sess.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			p.drop()
		}
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// session возвращает живой канал, при необходимости переподключаясь. Вызывается под p.mu.
func (p *AMQPPublisher) session() (*session, error) {
	if p.sess != nil {
		select {
		case amqpErr := <-p.sess.closed:
			p.log.WithField("reason", amqpErr).Warn("events: канал RabbitMQ закрыт, переподключаемся")
			p.drop()
		default:
			return p.sess, nil
		}
	}

	now := p.now()
	if now.Sub(p.lastDial) < redialInterval {
		return nil, ErrBrokerUnavailable
	}
	p.lastDial = now
	sess, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	p.log.Info("events: соединение с RabbitMQ восстановлено")
	p.sess = sess
	return sess, nil
}

func (p *AMQPPublisher) drop() {
	if p.sess != nil {
		_ = p.sess.close()
		p.sess = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	return err
}

func envelope(key string, payload any) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         key,
		Body:         body,
	}, nil
}

// LogPublisher используется, когда брокер не настроен: события только пишутся в лог.
type LogPublisher struct {
	log logrus.FieldLogger
}

var _ repository.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	p.log.WithFields(logrus.Fields{
		"event":   key,
		"payload": string(body),
	}).Debug("событие опубликовано")
	return nil
}
