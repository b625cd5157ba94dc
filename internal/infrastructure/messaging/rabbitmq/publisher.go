package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	DefaultExchange = "user.events"

	// Minimum window to wait for Return / Confirm.
	publishWait = 2 * time.Second
)

// Routing keys consumed by the email worker.
const (
	KeyVerification  = "user.email.verification"
	KeyWelcome       = "user.email.welcome"
	KeyPasswordReset = "user.email.password_reset"
	KeyResetSuccess  = "user.email.reset_success"
)

// EmailEvent is the JSON body of every published email request.
type EmailEvent struct {
	Type       string    `json:"type"`
	Email      string    `json:"email"`
	Code       string    `json:"code,omitempty"`
	Name       string    `json:"name,omitempty"`
	Link       string    `json:"link,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher implements auth.Mailer by publishing email requests to a topic
// exchange in confirm mode with mandatory routing.
type Publisher struct {
	url      string
	exchange string
	lg       zerolog.Logger
	now      func() time.Time

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string, lg zerolog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
		lg:       lg.With().Str("component", "rabbitmq_mailer").Logger(),
		now:      time.Now,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetConn()
	return nil
}

// ---- auth.Mailer ----

func (p *Publisher) SendVerification(ctx context.Context, email, code string) error {
	return p.publishJSON(ctx, KeyVerification, EmailEvent{Type: "verification", Email: email, Code: code, OccurredAt: p.now().UTC()})
}

func (p *Publisher) SendWelcome(ctx context.Context, email, name string) error {
	return p.publishJSON(ctx, KeyWelcome, EmailEvent{Type: "welcome", Email: email, Name: name, OccurredAt: p.now().UTC()})
}

func (p *Publisher) SendPasswordReset(ctx context.Context, email, link string) error {
	return p.publishJSON(ctx, KeyPasswordReset, EmailEvent{Type: "password_reset", Email: email, Link: link, OccurredAt: p.now().UTC()})
}

func (p *Publisher) SendResetSuccess(ctx context.Context, email string) error {
	return p.publishJSON(ctx, KeyResetSuccess, EmailEvent{Type: "reset_success", Email: email, OccurredAt: p.now().UTC()})
}

// ---- internal ----

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	// Declare topic exchange (idempotent).
	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) ensureConnected() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	return p.connect()
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload EmailEvent) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishWait)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}

	// Drain stale confirm / return messages so results are not mixed.
drain:
	for {
		select {
		case <-p.confirmCh:
		case <-p.returnCh:
		default:
			break drain
		}
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.OccurredAt,
			Type:         payload.Type,
			Body:         body,
		},
	); err != nil {
		p.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	// The broker sends basic.return before basic.ack for unroutable mandatory messages.
	select {
	case ret := <-p.returnCh:
		select {
		case <-p.confirmCh:
		case <-ctx.Done():
		}
		return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)

	case conf := <-p.confirmCh:
		select {
		case ret := <-p.returnCh:
			return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		p.lg.Debug().Str("key", routingKey).Uint64("tag", conf.DeliveryTag).Msg("email event published")
		return nil

	case <-ctx.Done():
		return fmt.Errorf("rabbitmq publish timeout: key=%s: %w", routingKey, ctx.Err())
	}
}

func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
