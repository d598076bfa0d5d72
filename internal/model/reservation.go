package model

import "time"

// Reservation records one guest booking spanning one or more room units
// of a hotel over a date range.  It corresponds to a row in the
// `reservations` table; ConnectedRooms is loaded from the
// reservation_rooms link table.
//
// Fields of note:
//  HotelID        – owning tenant, always taken from the session.
//  Nights         – ceil(checkOut - checkIn) in whole days.
//  RoomNo         – the raw comma separated room list as submitted.
//  TotalAmount    – supplied total, or PerDayRate * Nights * Rooms.
//  RoomUnitID     – first matched unit; released on delete.
//  ConnectedRooms – ids of the Room types backing the reservation.
//  PhotoIDPath    – "/uploads/{file}" when a photo came with the request.
type Reservation struct {
    ID      uint64 `json:"id"`      // reservations.id
    HotelID uint64 `json:"hotelId"` // reservations.hotel_id

    CheckIn  time.Time `json:"checkIn"`  // reservations.check_in
    CheckOut time.Time `json:"checkOut"` // reservations.check_out
    Nights   int       `json:"nights"`   // reservations.nights

    Guests   int    `json:"guests"`   // reservations.guests
    Rooms    int    `json:"rooms"`    // reservations.rooms
    RoomNo   string `json:"roomNo"`   // reservations.room_no
    RoomType string `json:"roomType"` // reservations.room_type
    RateType string `json:"rateType"` // reservations.rate_type

    PerDayRate   float64 `json:"perDayRate"`   // reservations.per_day_rate
    PerDayTax    float64 `json:"perDayTax"`    // reservations.per_day_tax
    TaxInclusive bool    `json:"taxInclusive"` // reservations.tax_inclusive
    TotalAmount  float64 `json:"totalAmount"`  // reservations.total_amount

    GuestName string     `json:"guestName"`     // reservations.guest_name
    Email     string     `json:"email"`         // reservations.email
    Phone     string     `json:"phone"`         // reservations.phone
    DOB       *time.Time `json:"dob,omitempty"` // reservations.dob (nullable)
    Gender    string     `json:"gender"`        // reservations.gender
    Address   string     `json:"address"`       // reservations.address
    City      string     `json:"city"`          // reservations.city
    State     string     `json:"state"`         // reservations.state
    Country   string     `json:"country"`       // reservations.country
    ZipCode   string     `json:"zipCode"`       // reservations.zip_code

    Identity    string  `json:"identity"`              // reservations.identity
    IDDetail    string  `json:"idDetail"`              // reservations.id_detail
    IDProof     string  `json:"idProof"`               // reservations.id_proof
    PhotoIDPath *string `json:"photoIdPath,omitempty"` // reservations.photo_id_path (nullable)

    BookedBy        string `json:"bookedBy"`        // reservations.booked_by
    BusinessSegment string `json:"businessSegment"` // reservations.business_segment
    BillTo          string `json:"billTo"`          // reservations.bill_to
    PaymentMode     string `json:"paymentMode"`     // reservations.payment_mode

    RoomUnitID     *uint64  `json:"roomUnitId"`     // reservations.room_unit_id (nullable)
    ConnectedRooms []uint64 `json:"connectedRooms"` // reservation_rooms.room_id

    CreatedAt time.Time `json:"createdAt"` // reservations.created_at
    UpdatedAt time.Time `json:"updatedAt"` // reservations.updated_at
}

// NightsBetween returns the number of whole days between checkIn and
// checkOut rounded up.  A stay from 2024-01-01T00:00Z to
// 2024-01-03T12:00Z is three nights.  Non-positive spans yield 0.
func NightsBetween(checkIn, checkOut time.Time) int {
    d := checkOut.Sub(checkIn)
    if d <= 0 {
        return 0
    }
    const day = 24 * time.Hour
    n := int(d / day)
    if d%day != 0 {
        n++
    }
    return n
}
