package model

import (
	"testing"
	"time"
)

func TestNightsBetween(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if n := NightsBetween(in, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)); n != 3 {
		t.Fatalf("partial day must round up, got %d", n)
	}
	if n := NightsBetween(in, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)); n != 2 {
		t.Fatalf("whole days, got %d", n)
	}
	if n := NightsBetween(in, in); n != 0 {
		t.Fatalf("empty stay, got %d", n)
	}
}

func TestUnitKeyRoundTrip(t *testing.T) {
	u := RoomUnit{Floor: 1, RoomNumber: "101"}
	if u.Key() != "1-101" {
		t.Fatalf("key = %q", u.Key())
	}
	f, n, ok := ParseUnitKey("12-1204")
	if !ok || f != 12 || n != "1204" {
		t.Fatalf("parse = %d %q %v", f, n, ok)
	}
	for _, bad := range []string{"", "101", "-101", "1-", "a-101"} {
		if _, _, ok := ParseUnitKey(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestRoomDeclares(t *testing.T) {
	r := Room{RoomNumbers: []string{"1-101", "1-102"}}
	if !r.Declares("1-102") || r.Declares("2-102") {
		t.Fatalf("declares mismatch")
	}
}
