package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrConnect не удалось подключиться к брокеру
	ErrConnect = errors.New("events: failed to connect to broker")

	// ErrPublish не удалось опубликовать событие
	ErrPublish = errors.New("events: failed to publish event")
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Sink получатель событий: Publisher, Nop или Recorder
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Publisher публикует события в topic exchange RabbitMQ.
// Ошибки публикации логируются и не прерывают запрос.
type Publisher struct {
	url      string
	exchange string
	logger   Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher подключается к брокеру и объявляет durable topic exchange
func NewPublisher(url, exchange string, logger Logger) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, logger: logger}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%w: declare exchange %s: %v", ErrConnect, p.exchange, err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// Publish отправляет событие. При разорванном соединении делает одну попытку переподключиться.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if err := p.publish(ctx, event); err != nil {
		p.logger.Warn("events: %s dropped: %v", event.Type, err)
	}
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return err
		}
		p.logger.Info("events: reconnected to broker")
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.ch.PublishWithContext(pubCtx, p.exchange, string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop издатель-заглушка, когда брокер выключен
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder собирает события в памяти (для тестов)
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events копия опубликованных событий
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types типы опубликованных событий по порядку
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
