package model

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to RoomUnitStatus
		changed  bool
		wantErr  bool
	}{
		{StatusAvailable, StatusBooked, true, false},
		{StatusBooked, StatusAvailable, true, false},
		{StatusBooked, StatusBooked, false, false},
		{StatusAvailable, StatusMaintenance, true, false},
		{StatusMaintenance, StatusBooked, false, true},
		{StatusCleaning, StatusBooked, false, true},
		{StatusCleaning, StatusAvailable, true, false},
		{StatusMaintenance, StatusAvailable, true, false},
		{RoomUnitStatus("OCCUPIED"), StatusAvailable, false, true},
		{StatusAvailable, RoomUnitStatus(""), false, true},
	}
	for _, tc := range cases {
		changed, err := Transition(tc.from, tc.to)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s->%s: err=%v wantErr=%v", tc.from, tc.to, err, tc.wantErr)
		}
		if changed != tc.changed {
			t.Fatalf("%s->%s: changed=%v want %v", tc.from, tc.to, changed, tc.changed)
		}
		if err != nil {
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("%s->%s: expected *TransitionError, got %T", tc.from, tc.to, err)
			}
		}
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(StatusBooked)
	if len(got) != 1 || got[0] != StatusAvailable {
		t.Fatalf("only AVAILABLE units can be booked, got %v", got)
	}
	got = SourcesFor(StatusAvailable)
	if len(got) != 3 {
		t.Fatalf("every other status can be released, got %v", got)
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" cleaning ")
	if err != nil || st != StatusCleaning {
		t.Fatalf("got %q, %v", st, err)
	}
	if _, err := ParseStatus("vacant"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
