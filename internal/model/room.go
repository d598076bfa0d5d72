package model

import (
    "strconv"
    "strings"
    "time"
)

// Hotel is the tenant.  Every room, unit, reservation and staff user
// belongs to exactly one hotel.
type Hotel struct {
    ID        uint64    `json:"id"`        // hotels.id
    Name      string    `json:"name"`      // hotels.name
    CreatedAt time.Time `json:"createdAt"` // hotels.created_at
    UpdatedAt time.Time `json:"updatedAt"` // hotels.updated_at
}

// Room is a bookable room type of a hotel.  RoomNumbers declares the
// physical units of the type in "floor-number" form, e.g. "1-101".  It is
// stored as a JSON array in rooms.room_numbers.
type Room struct {
    ID          uint64    `json:"id"`          // rooms.id
    HotelID     uint64    `json:"hotelId"`     // rooms.hotel_id
    Name        string    `json:"name"`        // rooms.name
    RoomType    string    `json:"roomType"`    // rooms.room_type
    BasePrice   float64   `json:"basePrice"`   // rooms.base_price
    RoomNumbers []string  `json:"roomNumbers"` // rooms.room_numbers (JSON)
    CreatedAt   time.Time `json:"createdAt"`   // rooms.created_at
    UpdatedAt   time.Time `json:"updatedAt"`   // rooms.updated_at
}

// Declares reports whether key ("floor-number") is one of the room's
// declared units.
func (r Room) Declares(key string) bool {
    for _, k := range r.RoomNumbers {
        if k == key {
            return true
        }
    }
    return false
}

// RoomUnit is one physical, individually statused instance of a Room.
type RoomUnit struct {
    ID         uint64         `json:"id"`         // room_units.id
    HotelID    uint64         `json:"hotelId"`    // room_units.hotel_id
    RoomID     uint64         `json:"roomId"`     // room_units.room_id
    RoomNumber string         `json:"roomNumber"` // room_units.room_number
    Floor      int            `json:"floor"`      // room_units.floor
    Status     RoomUnitStatus `json:"status"`     // room_units.status
    UpdatedAt  time.Time      `json:"updatedAt"`  // room_units.updated_at
}

// Key returns the unit's "floor-number" identifier as declared on its Room.
func (u RoomUnit) Key() string {
    return UnitKey(u.Floor, u.RoomNumber)
}

// UnitKey formats a floor and room number the way Room.RoomNumbers does.
func UnitKey(floor int, roomNumber string) string {
    return strconv.Itoa(floor) + "-" + roomNumber
}

// ParseUnitKey splits a "floor-number" key.  The floor must be an integer
// and the number non-empty; "2-201" yields (2, "201", true).
func ParseUnitKey(key string) (floor int, roomNumber string, ok bool) {
    i := strings.IndexByte(key, '-')
    if i <= 0 || i == len(key)-1 {
        return 0, "", false
    }
    f, err := strconv.Atoi(strings.TrimSpace(key[:i]))
    if err != nil {
        return 0, "", false
    }
    n := strings.TrimSpace(key[i+1:])
    if n == "" {
        return 0, "", false
    }
    return f, n, true
}
