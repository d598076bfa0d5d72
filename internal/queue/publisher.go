// Package queue carries reservation events over RabbitMQ: a publisher used
// as one of the notification sinks and a background consumer that appends
// them to the audit log.
package queue

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/hotel-reservation/internal/notify"
)

// DefaultQueue is the durable queue reservation events are published to.
const DefaultQueue = "reservation.events"

const (
    dialTimeout   = 2 * time.Second
    redialBackoff = 10 * time.Second
)

// Publisher publishes notify events to a durable queue.  The connection is
// opened lazily, reused across publishes and re-dialled after it drops.
// After a failed dial no new attempt is made for redialBackoff, so an
// unreachable broker costs requests at most one bounded dial.
type Publisher struct {
    url   string
    queue string

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time

    dial    func(url string) (*amqp.Connection, error)
    backoff time.Duration
    now     func() time.Time
}

// NewPublisher returns a publisher for url and queue.  An empty queue name
// falls back to DefaultQueue.  Nothing is dialled until the first publish.
func NewPublisher(url, queue string) *Publisher {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Publisher{url: url, queue: queue, dial: dialWithTimeout(dialTimeout), backoff: redialBackoff, now: time.Now}
}

// dialWithTimeout bounds both the TCP connect and the AMQP handshake.
func dialWithTimeout(d time.Duration) func(url string) (*amqp.Connection, error) {
    return func(url string) (*amqp.Connection, error) {
        return amqp.DialConfig(url, amqp.Config{
            Heartbeat: 10 * time.Second,
            Locale:    "en_US",
            Dial:      amqp.DefaultDial(d),
        })
    }
}

// ErrBrokerUnavailable is returned without dialling while a previous dial
// failure is still backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

func (p *Publisher) Name() string { return "rabbitmq" }

// Publish sends the event as a persistent JSON message routed through the
// default exchange.  A failed publish drops the channel so the next call
// reconnects.
func (p *Publisher) Publish(ctx context.Context, ev notify.Event) error {
    body, err := ev.Encode()
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.EmittedAt,
        Type:         ev.Name,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns an open channel with the queue declared, dialling when
// needed.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if p.now().Before(p.retryAt) {
        return nil, ErrBrokerUnavailable
    }

    conn, err := p.dial(p.url)
    if err != nil {
        p.retryAt = p.now().Add(p.backoff)
        log.Printf("rabbitmq: dial failed, retrying after %s: %v", p.backoff, err)
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
