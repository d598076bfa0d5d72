package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestFormatAuditLineReservation(t *testing.T) {
    body := []byte(`{"event":"reservation-created","hotelId":7,"payload":{"id":42,"guestName":"Ann","roomNo":"101,102","totalAmount":2000},"emittedAt":"2024-01-01T10:00:00Z"}`)
    line, err := FormatAuditLine(body)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    want := `[2024-01-01T10:00:00Z] reservation-created | hotel_id=7 | reservation_id=42 | guest="Ann" | rooms="101,102" | total=2000.00` + "\n"
    if line != want {
        t.Fatalf("got %q\nwant %q", line, want)
    }
}

func TestFormatAuditLineUnits(t *testing.T) {
    body := []byte(`{"event":"room-status-update","hotelId":7,"payload":[{"id":1,"roomNumber":"101","status":"BOOKED"},{"id":2,"roomNumber":"102","status":"BOOKED"}],"emittedAt":"2024-01-01T10:00:00Z"}`)
    line, err := FormatAuditLine(body)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !strings.Contains(line, "units=[1:101:BOOKED,2:102:BOOKED]") {
        t.Fatalf("unexpected line %q", line)
    }
}

func TestFormatAuditLineRejectsGarbage(t *testing.T) {
    if _, err := FormatAuditLine([]byte("not json")); err == nil {
        t.Fatal("expected error for invalid json")
    }
    if _, err := FormatAuditLine([]byte(`{"hotelId":1}`)); err == nil {
        t.Fatal("expected error for missing event name")
    }
}

func TestAppendAuditCreatesAndAppends(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")
    body := []byte(`{"event":"reservation-deleted","hotelId":3,"payload":{"id":9},"emittedAt":"2024-02-02T00:00:00Z"}`)
    for i := 0; i < 2; i++ {
        if err := appendAudit(dir, body); err != nil {
            t.Fatalf("append %d: %v", i, err)
        }
    }
    data, err := os.ReadFile(filepath.Join(dir, AuditLogFile))
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
    }
    if !strings.Contains(lines[0], "reservation_id=9") {
        t.Fatalf("unexpected line %q", lines[0])
    }
}

func TestNewPublisherDefaults(t *testing.T) {
    p := NewPublisher("amqp://localhost", "")
    if p.queue != DefaultQueue {
        t.Fatalf("queue = %q, want %q", p.queue, DefaultQueue)
    }
    if p.Name() != "rabbitmq" {
        t.Fatalf("name = %q", p.Name())
    }
}
