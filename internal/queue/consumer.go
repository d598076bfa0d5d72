package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogFile is the file name the consumer appends to inside its log dir.
const AuditLogFile = "reservation.log"

// auditEvent mirrors notify.Event with the payload left raw so lines can be
// written without knowing every payload shape.
type auditEvent struct {
    Name      string          `json:"event"`
    HotelID   uint64          `json:"hotelId"`
    Payload   json.RawMessage `json:"payload"`
    EmittedAt time.Time       `json:"emittedAt"`
}

// StartAuditConsumer consumes queueName and appends one line per event to
// {logDir}/reservation.log.  It reconnects with exponential backoff (capped
// at 30s) and returns only when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url, queueName, logDir string) error {
    if queueName == "" {
        queueName = DefaultQueue
    }
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := dialWithTimeout(dialTimeout)(url)
        if err != nil {
            log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, queueName, logDir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, logDir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("audit-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := appendAudit(logDir, d.Body); err != nil {
                log.Printf("audit-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // no requeue, a poison message would loop
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// appendAudit writes a single line describing the event to the audit log.
func appendAudit(logDir string, body []byte) error {
    line, err := FormatAuditLine(body)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders one encoded event as a newline-terminated line.
// Reservation events carry the reservation id; room status events list the
// affected unit ids and their new status.
func FormatAuditLine(body []byte) (string, error) {
    var ev auditEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return "", fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Name == "" {
        return "", errors.New("event name missing")
    }
    at := ev.EmittedAt
    if at.IsZero() {
        at = time.Now().UTC()
    }
    detail := describePayload(ev.Payload)
    return fmt.Sprintf("[%s] %s | hotel_id=%d | %s\n", at.Format(time.RFC3339), ev.Name, ev.HotelID, detail), nil
}

func describePayload(raw json.RawMessage) string {
    var units []struct {
        ID         uint64 `json:"id"`
        RoomNumber string `json:"roomNumber"`
        Status     string `json:"status"`
    }
    if err := json.Unmarshal(raw, &units); err == nil {
        s := "units=["
        for i, u := range units {
            if i > 0 {
                s += ","
            }
            s += fmt.Sprintf("%d:%s:%s", u.ID, u.RoomNumber, u.Status)
        }
        return s + "]"
    }
    var res struct {
        ID          uint64  `json:"id"`
        GuestName   string  `json:"guestName"`
        RoomNo      string  `json:"roomNo"`
        TotalAmount float64 `json:"totalAmount"`
    }
    if err := json.Unmarshal(raw, &res); err == nil && res.ID != 0 {
        return fmt.Sprintf("reservation_id=%d | guest=%q | rooms=%q | total=%.2f", res.ID, res.GuestName, res.RoomNo, res.TotalAmount)
    }
    return "payload=" + string(raw)
}
