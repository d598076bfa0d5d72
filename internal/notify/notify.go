// Package notify fans reservation and room status changes out to the
// hotel's connected clients (Redis pub/sub) and to the message broker
// (RabbitMQ).  Delivery is best effort: a failing sink is logged and
// counted, never reported back to the request that caused the change.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/metrics"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Event names as seen by clients.
const (
	ReservationCreated = "reservation-created"
	ReservationUpdated = "reservation-updated"
	ReservationDeleted = "reservation-deleted"
	RoomStatusUpdate   = "room-status-update"
)

// Event is the envelope every sink receives.  Payload is marshalled as-is.
type Event struct {
	Name      string    `json:"event"`
	HotelID   uint64    `json:"hotelId"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emittedAt"`
}

// Encode marshals the event as JSON.
func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

// Notifier is what the reservation and room services depend on.
type Notifier interface {
	EmitReservationUpdate(ctx context.Context, hotelID uint64, event string, payload any)
	EmitRoomStatusUpdate(ctx context.Context, hotelID uint64, units []model.RoomUnit)
}

// Sink delivers one event somewhere.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// Relay implements Notifier over any number of sinks.
type Relay struct {
	sinks []Sink
	now   func() time.Time
}

// NewRelay builds a relay; nil sinks are skipped so optional transports
// can be passed unconditionally.
func NewRelay(sinks ...Sink) *Relay {
	r := &Relay{now: func() time.Time { return time.Now().UTC() }}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// EmitReservationUpdate broadcasts a reservation change to the hotel.
func (r *Relay) EmitReservationUpdate(ctx context.Context, hotelID uint64, event string, payload any) {
	r.emit(ctx, Event{Name: event, HotelID: hotelID, Payload: payload})
}

// EmitRoomStatusUpdate broadcasts unit status snapshots to the hotel.
// An empty slice emits nothing.
func (r *Relay) EmitRoomStatusUpdate(ctx context.Context, hotelID uint64, units []model.RoomUnit) {
	if len(units) == 0 {
		return
	}
	r.emit(ctx, Event{Name: RoomStatusUpdate, HotelID: hotelID, Payload: units})
}

func (r *Relay) emit(ctx context.Context, ev Event) {
	ev.EmittedAt = r.now()
	// Request cancellation must not drop the broadcast of a committed change.
	ctx = context.WithoutCancel(ctx)
	for _, s := range r.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			log.Printf("notify: %s publish %s for hotel %d failed: %v", s.Name(), ev.Name, ev.HotelID, err)
			metrics.EventsPublished.WithLabelValues(s.Name(), ev.Name, "error").Inc()
			continue
		}
		metrics.EventsPublished.WithLabelValues(s.Name(), ev.Name, "ok").Inc()
	}
}

// Channel is the Redis pub/sub channel of a hotel.
func Channel(hotelID uint64) string {
	return "hotel:" + strconv.FormatUint(hotelID, 10) + ":events"
}
