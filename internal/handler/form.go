package handler

import (
    "bytes"
    "encoding/json"
    "fmt"
    "strconv"
    "strings"

    "github.com/iliyamo/hotel-reservation/internal/service"
)

// FlexString accepts a JSON string, number, boolean or null and keeps its
// text, so JSON bodies and multipart forms feed the same parsing.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    switch {
    case bytes.Equal(b, []byte("null")):
        *f = ""
    case len(b) > 0 && b[0] == '"':
        var s string
        if err := json.Unmarshal(b, &s); err != nil {
            return err
        }
        *f = FlexString(s)
    case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
        *f = FlexString(b)
    default:
        var n json.Number
        if err := json.Unmarshal(b, &n); err != nil {
            return fmt.Errorf("expected string or number, got %s", b)
        }
        *f = FlexString(n.String())
    }
    return nil
}

func (f *FlexString) ptr() *string {
    if f == nil {
        return nil
    }
    s := string(*f)
    return &s
}

// RoomNumberList accepts either an array of strings/numbers or a comma
// separated string.  Raw keeps the submitted text for reservations.room_no.
type RoomNumberList struct {
    Items []string
    Raw   string
}

func (l *RoomNumberList) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    if len(b) > 0 && b[0] == '[' {
        var items []FlexString
        if err := json.Unmarshal(b, &items); err != nil {
            return err
        }
        l.Items = make([]string, 0, len(items))
        for _, it := range items {
            l.Items = append(l.Items, string(it))
        }
        l.Raw = strings.Join(service.NormalizeRoomNumbers(l.Items), ",")
        return nil
    }
    var s FlexString
    if err := s.UnmarshalJSON(b); err != nil {
        return err
    }
    l.Raw = string(s)
    l.Items = service.SplitRoomNumbers(l.Raw)
    return nil
}

// parseBool reads checkbox style values: true/1/yes/on.
func parseBool(s string) bool {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "yes", "on", "y":
        return true
    }
    v, _ := strconv.ParseBool(strings.TrimSpace(s))
    return v
}
