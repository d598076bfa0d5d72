package model

import (
    "fmt"
    "strings"
)

// RoomUnitStatus is the persisted state of a physical room unit.  The
// set is closed; room_units.status only ever holds one of the constants
// below.
type RoomUnitStatus string

const (
    StatusAvailable   RoomUnitStatus = "AVAILABLE"
    StatusBooked      RoomUnitStatus = "BOOKED"
    StatusMaintenance RoomUnitStatus = "MAINTENANCE"
    StatusCleaning    RoomUnitStatus = "CLEANING"
)

// AllStatuses lists every known status in display order.
var AllStatuses = []RoomUnitStatus{StatusAvailable, StatusBooked, StatusMaintenance, StatusCleaning}

// transitions maps a current status to the statuses it may move to.  A
// move to the same status is always a no-op and is not listed.  A unit
// under maintenance or being cleaned has to become AVAILABLE before it
// can be booked again.
var transitions = map[RoomUnitStatus]map[RoomUnitStatus]bool{
    StatusAvailable: {
        StatusBooked:      true,
        StatusMaintenance: true,
        StatusCleaning:    true,
    },
    StatusBooked: {
        StatusAvailable:   true,
        StatusMaintenance: true,
        StatusCleaning:    true,
    },
    StatusMaintenance: {
        StatusAvailable: true,
        StatusCleaning:  true,
    },
    StatusCleaning: {
        StatusAvailable:   true,
        StatusMaintenance: true,
    },
}

// TransitionError reports a status move the state machine refuses.
type TransitionError struct {
    From RoomUnitStatus
    To   RoomUnitStatus
}

func (e *TransitionError) Error() string {
    if !e.From.Valid() {
        return fmt.Sprintf("unknown room unit status %q", string(e.From))
    }
    if !e.To.Valid() {
        return fmt.Sprintf("unknown room unit status %q", string(e.To))
    }
    return fmt.Sprintf("room unit cannot move from %s to %s", e.From, e.To)
}

// ParseStatus normalizes s (trim + upper case) and checks it against the
// closed set.
func ParseStatus(s string) (RoomUnitStatus, error) {
    st := RoomUnitStatus(strings.ToUpper(strings.TrimSpace(s)))
    if !st.Valid() {
        return "", fmt.Errorf("unknown room unit status %q", s)
    }
    return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s RoomUnitStatus) Valid() bool {
    _, ok := transitions[s]
    return ok
}

func (s RoomUnitStatus) String() string { return string(s) }

// Transition validates a move from one status to another.  It returns
// changed=false for a same-status move and a *TransitionError for unknown
// statuses or moves missing from the table.
func Transition(from, to RoomUnitStatus) (changed bool, err error) {
    if !from.Valid() || !to.Valid() {
        return false, &TransitionError{From: from, To: to}
    }
    if from == to {
        return false, nil
    }
    if !transitions[from][to] {
        return false, &TransitionError{From: from, To: to}
    }
    return true, nil
}

// SourcesFor returns the statuses from which a unit may legally move to
// `to`, excluding `to` itself.  Repositories use it to build conditional
// updates so a concurrent change between read and write is detected.
func SourcesFor(to RoomUnitStatus) []RoomUnitStatus {
    out := make([]RoomUnitStatus, 0, len(AllStatuses))
    for _, from := range AllStatuses {
        if from != to && transitions[from][to] {
            out = append(out, from)
        }
    }
    return out
}
