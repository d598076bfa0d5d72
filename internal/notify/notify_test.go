package notify

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

type recordSink struct {
    name   string
    err    error
    events []Event
    ctxErr []error
}

func (s *recordSink) Name() string { return s.name }

func (s *recordSink) Publish(ctx context.Context, ev Event) error {
    s.events = append(s.events, ev)
    s.ctxErr = append(s.ctxErr, ctx.Err())
    return s.err
}

func TestRelayFansOutAndSurvivesFailingSink(t *testing.T) {
    bad := &recordSink{name: "bad", err: errors.New("down")}
    good := &recordSink{name: "good"}
    r := NewRelay(bad, nil, good)
    fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    r.now = func() time.Time { return fixed }

    r.EmitReservationUpdate(context.Background(), 5, ReservationCreated, map[string]any{"id": 1})

    if len(bad.events) != 1 || len(good.events) != 1 {
        t.Fatalf("expected one event per sink, got bad=%d good=%d", len(bad.events), len(good.events))
    }
    ev := good.events[0]
    if ev.Name != ReservationCreated || ev.HotelID != 5 || !ev.EmittedAt.Equal(fixed) {
        t.Fatalf("unexpected event %+v", ev)
    }
}

func TestRelayIgnoresRequestCancellation(t *testing.T) {
    s := &recordSink{name: "s"}
    r := NewRelay(s)
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    r.EmitRoomStatusUpdate(ctx, 1, []model.RoomUnit{{ID: 3, Status: model.StatusBooked}})
    if len(s.ctxErr) != 1 || s.ctxErr[0] != nil {
        t.Fatalf("sink saw cancelled context: %v", s.ctxErr)
    }
}

func TestRelaySkipsEmptyUnitUpdate(t *testing.T) {
    s := &recordSink{name: "s"}
    NewRelay(s).EmitRoomStatusUpdate(context.Background(), 1, nil)
    if len(s.events) != 0 {
        t.Fatalf("expected no events, got %d", len(s.events))
    }
}

func TestNilRedisSinkIsSkipped(t *testing.T) {
    r := NewRelay(NewRedisSink(nil))
    if len(r.sinks) != 0 {
        t.Fatalf("expected no sinks, got %d", len(r.sinks))
    }
}

func TestEventEncodeAndChannel(t *testing.T) {
    b, err := Event{Name: RoomStatusUpdate, HotelID: 2, Payload: []int{1}}.Encode()
    if err != nil {
        t.Fatal(err)
    }
    var m map[string]any
    if err := json.Unmarshal(b, &m); err != nil {
        t.Fatal(err)
    }
    if m["event"] != RoomStatusUpdate || m["hotelId"] != float64(2) {
        t.Fatalf("unexpected envelope %s", b)
    }
    if got := Channel(2); got != "hotel:2:events" {
        t.Fatalf("channel = %q", got)
    }
}
