package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/hotel-reservation/internal/metrics"
    "github.com/iliyamo/hotel-reservation/internal/notify"
)

// EventsHandler streams the hotel's reservation and room status events as
// Server-Sent Events.  Each message carries the full relay envelope.
type EventsHandler struct {
    Redis     *redis.Client
    Heartbeat time.Duration
}

func NewEventsHandler(rdb *redis.Client) *EventsHandler {
    return &EventsHandler{Redis: rdb, Heartbeat: 25 * time.Second}
}

// Stream handles GET /v1/events.
func (h *EventsHandler) Stream(c echo.Context) error {
    hotel := hotelID(c)
    if hotel == 0 {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    if h.Redis == nil {
        return fail(c, http.StatusServiceUnavailable, "live updates unavailable")
    }

    ctx := c.Request().Context()
    msgs, closeSub, err := notify.Subscribe(ctx, h.Redis, hotel)
    if err != nil {
        c.Logger().Errorf("events: subscribe hotel %d: %v", hotel, err)
        return fail(c, http.StatusServiceUnavailable, "live updates unavailable")
    }
    defer closeSub()

    metrics.LiveSubscribers.Inc()
    defer metrics.LiveSubscribers.Dec()

    w := c.Response()
    w.Header().Set(echo.HeaderContentType, "text/event-stream")
    w.Header().Set(echo.HeaderCacheControl, "no-cache")
    w.Header().Set(echo.HeaderConnection, "keep-alive")
    w.Header().Set("X-Accel-Buffering", "no")
    w.WriteHeader(http.StatusOK)
    fmt.Fprint(w, ": connected\n\n")
    w.Flush()

    ping := time.NewTicker(h.Heartbeat)
    defer ping.Stop()
    for {
        select {
        case <-ctx.Done():
            return nil
        case <-ping.C:
            if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
                return nil
            }
            w.Flush()
        case msg, open := <-msgs:
            if !open {
                return nil
            }
            if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(msg), msg); err != nil {
                return nil
            }
            w.Flush()
        }
    }
}

// eventName extracts the "event" field of an envelope without decoding
// the payload.
func eventName(raw string) string {
    var head struct {
        Event string `json:"event"`
    }
    if err := json.Unmarshal([]byte(raw), &head); err != nil || head.Event == "" {
        return "message"
    }
    return head.Event
}
