package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/airplane-seat-booking/internal/logging"
    "github.com/iliyamo/airplane-seat-booking/internal/queue"
)

// Publisher queue errors.
var (
    ErrPublisherClosed  = errors.New("event publisher closed")
    ErrPublishQueueFull = errors.New("event publish queue full")
)

const (
    publishBuffer  = 256
    publishTimeout = 3 * time.Second
)

// AMQPPublisher publishes booking events to a durable RabbitMQ queue.
// Publish only enqueues; a single worker goroutine owns the connection,
// dials lazily with a bounded timeout and redials after the broker drops
// it.  Messages are marked as persistent.
type AMQPPublisher struct {
    url     string
    queue   string
    timeout time.Duration
    log     *zap.SugaredLogger

    mu     sync.RWMutex // guards closed and sends on events
    closed bool
    events chan queue.BookingEvent
    done   chan struct{}

    // owned by the worker goroutine
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher starts a publisher for url.  No connection is made
// until the first event is sent.  Close stops the worker.
func NewAMQPPublisher(url string, log *zap.SugaredLogger) *AMQPPublisher {
    p := &AMQPPublisher{
        url:     url,
        queue:   queue.QueueName,
        timeout: publishTimeout,
        log:     logging.Or(log),
        events:  make(chan queue.BookingEvent, publishBuffer),
        done:    make(chan struct{}),
    }
    go p.run()
    return p
}

// Publish hands ev to the worker without waiting for the broker.  It fails
// only when the publisher is closed, the buffer is full or ctx is done.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
    p.mu.RLock()
    defer p.mu.RUnlock()
    if p.closed {
        return ErrPublisherClosed
    }
    if err := ctx.Err(); err != nil {
        return err
    }
    select {
    case p.events <- ev:
        return nil
    default:
        return ErrPublishQueueFull
    }
}

func (p *AMQPPublisher) run() {
    defer close(p.done)
    for ev := range p.events {
        ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
        if err := p.send(ctx, ev); err != nil {
            p.log.Warnw("publish booking event failed", "event", ev.Type, "event_id", ev.ID, "error", err)
        }
        cancel()
    }
    p.closeConn()
}

// send publishes one event synchronously.  The dial, when needed, is
// bounded by ctx's deadline.
func (p *AMQPPublisher) send(ctx context.Context, ev queue.BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent, // store on disk
            MessageId:    ev.ID,
            Type:         ev.Type,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        })
    if err != nil {
        // drop the channel so the next event redials
        p.closeConn()
        return fmt.Errorf("publish %s: %w", ev.Type, err)
    }
    return nil
}

// channel returns an open channel, dialing and declaring the queue when
// needed.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.closeConn()

    timeout := p.timeout
    if dl, ok := ctx.Deadline(); ok {
        timeout = time.Until(dl)
    }
    if timeout <= 0 {
        return nil, fmt.Errorf("rabbitmq dial: %w", context.DeadlineExceeded)
    }
    conn, err := queue.Dial(p.url, timeout)
    if err != nil {
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq channel: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) closeConn() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close stops accepting events, waits for the worker to drain the buffer
// and releases the broker connection.  It is safe to call more than once.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    if !p.closed {
        p.closed = true
        close(p.events)
    }
    p.mu.Unlock()
    <-p.done
    return nil
}
