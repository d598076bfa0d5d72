package service

import (
    "math"
    "strconv"
    "strings"
    "time"
)

// dateLayouts are tried in order; layouts without a zone are read as UTC.
var dateLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "2006-01-02 15:04:05",
    "2006-01-02",
}

// ParseDate reads a calendar date or timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t.UTC(), true
        }
    }
    return time.Time{}, false
}

// parseFinite parses s as a float and rejects NaN and infinities.
func parseFinite(s string) (float64, bool) {
    f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
    if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
        return 0, false
    }
    return f, true
}

// parseCount parses a non-negative count; fractions are truncated.
func parseCount(field, s string) (int, error) {
    f, ok := parseFinite(s)
    if !ok {
        return 0, ValidationError{Field: field, Msg: "must be a number"}
    }
    if f < 0 {
        return 0, ValidationError{Field: field, Msg: "must not be negative"}
    }
    if f > math.MaxInt32 {
        return 0, ValidationError{Field: field, Msg: "is too large"}
    }
    return int(f), nil
}

// parseAmount parses a finite monetary value.
func parseAmount(field, s string) (float64, error) {
    f, ok := parseFinite(s)
    if !ok {
        return 0, ValidationError{Field: field, Msg: "must be a number"}
    }
    return f, nil
}

// SplitRoomNumbers turns a comma separated list into its parts.
func SplitRoomNumbers(s string) []string {
    if strings.TrimSpace(s) == "" {
        return nil
    }
    return strings.Split(s, ",")
}

// NormalizeRoomNumbers trims each entry, drops empties and keeps the first
// occurrence of duplicates.
func NormalizeRoomNumbers(in []string) []string {
    out := make([]string, 0, len(in))
    seen := make(map[string]bool, len(in))
    for _, n := range in {
        n = strings.TrimSpace(n)
        if n == "" || seen[n] {
            continue
        }
        seen[n] = true
        out = append(out, n)
    }
    return out
}
