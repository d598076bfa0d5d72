package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events on the hotel's pub/sub channel.  Every API
// instance subscribes per connected client, so a change made on one
// instance reaches clients connected to any other.
type RedisSink struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewRedisSink returns a nil Sink when rdb is nil so the result can be
// handed to NewRelay unconditionally.
func NewRedisSink(rdb *redis.Client) Sink {
	if rdb == nil {
		return nil
	}
	return &RedisSink{rdb: rdb, timeout: 2 * time.Second}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	body, err := ev.Encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.rdb.Publish(ctx, Channel(ev.HotelID), body).Err()
}

// Subscribe opens a subscription to one hotel's channel.  The caller reads
// raw JSON envelopes from the returned channel until ctx is done and must
// call the returned close function.
func Subscribe(ctx context.Context, rdb *redis.Client, hotelID uint64) (<-chan string, func() error, error) {
	sub := rdb.Subscribe(ctx, Channel(hotelID))
	// Wait for the subscription confirmation so no event published right
	// after the client connected is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	out := make(chan string, 16)
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}
