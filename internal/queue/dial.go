package queue

import (
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds the TCP connect plus the AMQP handshake.
const DefaultDialTimeout = 5 * time.Second

// Dial connects to the broker at url.  timeout covers both the TCP connect
// and the protocol handshake, so a broker that accepts connections but never
// answers fails after timeout instead of amqp091's 30 s default.
func Dial(url string, timeout time.Duration) (*amqp.Connection, error) {
    if timeout <= 0 {
        timeout = DefaultDialTimeout
    }
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
}
