package queue

import (
    "context"
    "errors"
    "net"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/hotel-reservation/internal/notify"
)

func testEvent() notify.Event {
    return notify.Event{Name: notify.ReservationCreated, HotelID: 7, EmittedAt: time.Now()}
}

func TestPublishBacksOffAfterDialFailure(t *testing.T) {
    now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
    dials := 0
    p := NewPublisher("amqp://broker", "")
    p.now = func() time.Time { return now }
    p.dial = func(string) (*amqp.Connection, error) {
        dials++
        return nil, errors.New("connection refused")
    }

    if err := p.Publish(context.Background(), testEvent()); err == nil {
        t.Fatal("expected dial error")
    }
    err := p.Publish(context.Background(), testEvent())
    if !errors.Is(err, ErrBrokerUnavailable) {
        t.Fatalf("expected ErrBrokerUnavailable, got %v", err)
    }
    if dials != 1 {
        t.Fatalf("dials = %d, want 1 while backing off", dials)
    }

    now = now.Add(p.backoff + time.Second)
    _ = p.Publish(context.Background(), testEvent())
    if dials != 2 {
        t.Fatalf("dials = %d, want a fresh attempt after backoff", dials)
    }
}

func TestDialWithTimeoutGivesUpOnSilentBroker(t *testing.T) {
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    if err != nil {
        t.Skipf("listen: %v", err)
    }
    defer ln.Close()
    go func() {
        var held []net.Conn
        defer func() {
            for _, c := range held {
                _ = c.Close()
            }
        }()
        for {
            c, err := ln.Accept()
            if err != nil {
                return
            }
            held = append(held, c)
        }
    }()

    start := time.Now()
    _, err = dialWithTimeout(200 * time.Millisecond)("amqp://guest:guest@" + ln.Addr().String() + "/")
    if err == nil {
        t.Fatal("expected handshake timeout")
    }
    if elapsed := time.Since(start); elapsed > 5*time.Second {
        t.Fatalf("dial took %s", elapsed)
    }
}
