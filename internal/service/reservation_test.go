package service

import (
    "context"
    "regexp"
    "sync"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

type emitted struct {
    event string
    units []model.RoomUnit
}

type fakeNotifier struct {
    mu     sync.Mutex
    events []emitted
}

func (f *fakeNotifier) EmitReservationUpdate(_ context.Context, _ uint64, event string, _ any) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events = append(f.events, emitted{event: event})
}

func (f *fakeNotifier) EmitRoomStatusUpdate(_ context.Context, _ uint64, units []model.RoomUnit) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events = append(f.events, emitted{event: "room-status-update", units: units})
}

const hotelID = uint64(7)

var (
    fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

    unitCols = []string{"id", "hotel_id", "room_id", "room_number", "floor", "status", "updated_at"}
    roomCols = []string{"id", "hotel_id", "name", "room_type", "base_price", "room_numbers", "created_at", "updated_at"}
    resCols  = []string{"id", "hotel_id", "check_in", "check_out", "nights", "guests", "rooms", "room_no", "room_type", "rate_type",
        "per_day_rate", "per_day_tax", "tax_inclusive", "total_amount",
        "guest_name", "email", "phone", "dob", "gender", "address", "city", "state", "country", "zip_code",
        "identity", "id_detail", "id_proof", "photo_id_path",
        "booked_by", "business_segment", "bill_to", "payment_mode",
        "room_unit_id", "created_at", "updated_at"}
)

func newTestService(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *fakeNotifier) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    t.Cleanup(func() { db.Close() })
    n := &fakeNotifier{}
    svc := NewReservationService(db, n)
    svc.now = func() time.Time { return fixedNow }
    return svc, mock, n
}

func q(s string) string { return regexp.QuoteMeta(s) }

func unitRow(rows *sqlmock.Rows, id, roomID uint64, number string, floor int, st model.RoomUnitStatus) *sqlmock.Rows {
    return rows.AddRow(id, hotelID, roomID, number, floor, string(st), fixedNow)
}

// reservationRow returns a stored reservation with primary unit 1.
func reservationRow(id uint64) *sqlmock.Rows {
    in := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
    out := in.Add(48 * time.Hour)
    return sqlmock.NewRows(resCols).AddRow(
        id, hotelID, in, out, 2, 2, 1, "101", "Deluxe", "BAR",
        1000.0, 120.0, false, 2000.0,
        "Ann Lee", "ann@example.com", "555", nil, "F", "1 Main", "Town", "ST", "US", "12345",
        "passport", "X1", "", nil,
        "front desk", "leisure", "guest", "cash",
        int64(1), fixedNow, fixedNow,
    )
}

func validInput() CreateInput {
    return CreateInput{
        HotelID:     hotelID,
        CheckIn:     "2024-01-10",
        CheckOut:    "2024-01-12",
        Guests:      "2",
        NumRooms:    "1",
        PerDayRate:  "1000",
        PerDayTax:   "120",
        RoomNumbers: []string{" 101", "102 ", "101"},
        GuestName:   "Ann Lee",
    }
}

func expectResolve(mock sqlmock.Sqlmock) {
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND room_number IN (?, ?)")).
        WithArgs(hotelID, "101", "102").
        WillReturnRows(unitRow(unitRow(sqlmock.NewRows(unitCols), 1, 10, "101", 1, model.StatusAvailable), 2, 10, "102", 1, model.StatusAvailable))
    mock.ExpectQuery(q("FROM rooms WHERE hotel_id = ? AND id IN (?)")).
        WithArgs(hotelID, uint64(10)).
        WillReturnRows(sqlmock.NewRows(roomCols).AddRow(10, hotelID, "Deluxe", "DLX", 900.0, `["1-101","1-102"]`, fixedNow, fixedNow))
}

func TestCreateBooksAllMatchedUnits(t *testing.T) {
    svc, mock, n := newTestService(t)

    mock.ExpectBegin()
    expectResolve(mock)
    mock.ExpectExec(q("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(55, 1))
    mock.ExpectExec(q("INSERT INTO reservation_rooms (reservation_id, room_id) VALUES (?, ?)")).
        WithArgs(uint64(55), uint64(10)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(q("UPDATE room_units SET status = ? WHERE hotel_id = ? AND id IN (?, ?) AND status IN (?)")).
        WithArgs("BOOKED", hotelID, uint64(1), uint64(2), "AVAILABLE").
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND id IN (?, ?)")).
        WithArgs(hotelID, uint64(1), uint64(2)).
        WillReturnRows(unitRow(unitRow(sqlmock.NewRows(unitCols), 1, 10, "101", 1, model.StatusBooked), 2, 10, "102", 1, model.StatusBooked))
    mock.ExpectCommit()

    res, err := svc.Create(context.Background(), validInput())
    if err != nil {
        t.Fatalf("create: %v", err)
    }
    if res.ID != 55 {
        t.Fatalf("id = %d, want 55", res.ID)
    }
    if res.RoomUnitID == nil || *res.RoomUnitID != 1 {
        t.Fatalf("roomUnitId = %v, want 1", res.RoomUnitID)
    }
    if len(res.ConnectedRooms) != 1 || res.ConnectedRooms[0] != 10 {
        t.Fatalf("connectedRooms = %v", res.ConnectedRooms)
    }
    if res.Nights != 2 || res.TotalAmount != 2000 {
        t.Fatalf("nights=%d total=%v, want 2 and 2000", res.Nights, res.TotalAmount)
    }
    if res.RoomNo != "101,102" {
        t.Fatalf("roomNo = %q", res.RoomNo)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }

    if len(n.events) != 2 || n.events[0].event != "reservation-created" || n.events[1].event != "room-status-update" {
        t.Fatalf("unexpected events %+v", n.events)
    }
    for _, u := range n.events[1].units {
        if u.Status != model.StatusBooked {
            t.Fatalf("unit %d status %s, want BOOKED", u.ID, u.Status)
        }
    }
}

func TestCreateUsesSuppliedTotal(t *testing.T) {
    in := validInput()
    in.TotalAmount = "1750.5"
    res, _, err := buildReservation(in)
    if err != nil {
        t.Fatal(err)
    }
    if res.TotalAmount != 1750.5 {
        t.Fatalf("total = %v", res.TotalAmount)
    }
    in.TotalAmount = "abc"
    res, _, err = buildReservation(in)
    if err != nil {
        t.Fatal(err)
    }
    if res.TotalAmount != 2000 {
        t.Fatalf("fallback total = %v, want 2000", res.TotalAmount)
    }
}

func TestCreateRejectsBeforeAnyWrite(t *testing.T) {
    cases := map[string]func(*CreateInput){
        "checkout before checkin": func(in *CreateInput) { in.CheckOut = "2024-01-09" },
        "checkout equals checkin": func(in *CreateInput) { in.CheckOut = in.CheckIn },
        "bad date":                func(in *CreateInput) { in.CheckIn = "tomorrow" },
        "guests not numeric":      func(in *CreateInput) { in.Guests = "two" },
        "rate infinite":           func(in *CreateInput) { in.PerDayRate = "Inf" },
        "tax missing":             func(in *CreateInput) { in.PerDayTax = "" },
        "no room numbers":         func(in *CreateInput) { in.RoomNumbers = []string{" ", ""} },
        "stay too long":           func(in *CreateInput) { in.CheckOut = "9999-12-31" },
    }
    for name, mutate := range cases {
        t.Run(name, func(t *testing.T) {
            svc, mock, n := newTestService(t)
            in := validInput()
            mutate(&in)
            _, err := svc.Create(context.Background(), in)
            if !IsValidation(err) {
                t.Fatalf("expected validation error, got %v", err)
            }
            if err := mock.ExpectationsWereMet(); err != nil {
                t.Fatalf("unexpected db activity: %v", err)
            }
            if len(n.events) != 0 {
                t.Fatalf("unexpected events %+v", n.events)
            }
        })
    }
}

func TestCreateRequiresTenant(t *testing.T) {
    svc, _, _ := newTestService(t)
    in := validInput()
    in.HotelID = 0
    if _, err := svc.Create(context.Background(), in); !IsUnauthorized(err) {
        t.Fatalf("expected unauthorized, got %v", err)
    }
}

func TestCreateRejectsUnknownRoomNumbers(t *testing.T) {
    svc, mock, _ := newTestService(t)
    mock.ExpectBegin()
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND room_number IN (?)")).
        WithArgs(hotelID, "999").
        WillReturnRows(sqlmock.NewRows(unitCols))
    mock.ExpectRollback()

    in := validInput()
    in.RoomNumbers = []string{"999"}
    _, err := svc.Create(context.Background(), in)
    if !IsValidation(err) || err.Error() != "roomNumbers: no matching room units" {
        t.Fatalf("unexpected error %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestCreateRejectsUndeclaredUnits(t *testing.T) {
    svc, mock, _ := newTestService(t)
    mock.ExpectBegin()
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND room_number IN (?)")).
        WithArgs(hotelID, "101").
        WillReturnRows(unitRow(sqlmock.NewRows(unitCols), 1, 10, "101", 1, model.StatusAvailable))
    mock.ExpectQuery(q("FROM rooms WHERE hotel_id = ? AND id IN (?)")).
        WithArgs(hotelID, uint64(10)).
        WillReturnRows(sqlmock.NewRows(roomCols).AddRow(10, hotelID, "Deluxe", "DLX", 900.0, `["2-101"]`, fixedNow, fixedNow))
    mock.ExpectRollback()

    in := validInput()
    in.RoomNumbers = []string{"101"}
    _, err := svc.Create(context.Background(), in)
    if !IsValidation(err) || err.Error() != "roomNumbers: no verified rooms" {
        t.Fatalf("unexpected error %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestCreateConflictRollsBack(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectResolve(mock)
    mock.ExpectExec(q("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(55, 1))
    mock.ExpectExec(q("INSERT INTO reservation_rooms")).WillReturnResult(sqlmock.NewResult(0, 1))
    // Unit 2 was booked by a concurrent request.
    mock.ExpectExec(q("UPDATE room_units SET status = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectRollback()

    _, err := svc.Create(context.Background(), validInput())
    if !IsConflict(err) {
        t.Fatalf("expected conflict, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 0 {
        t.Fatalf("no events expected on conflict, got %+v", n.events)
    }
}

func expectLoadForUpdate(mock sqlmock.Sqlmock, id uint64) {
    mock.ExpectQuery(q("FROM reservations WHERE hotel_id = ? AND id = ? FOR UPDATE")).
        WithArgs(hotelID, id).
        WillReturnRows(reservationRow(id))
    mock.ExpectQuery(q("SELECT reservation_id, room_id FROM reservation_rooms")).
        WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "room_id"}).AddRow(id, 10).AddRow(id, 11))
}

func expectUnit(mock sqlmock.Sqlmock, id uint64, st model.RoomUnitStatus) {
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND id = ?")).
        WithArgs(hotelID, id).
        WillReturnRows(unitRow(sqlmock.NewRows(unitCols), id, 10, "101", 1, st))
}

func TestDeleteReleasesPrimaryUnitOnly(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    mock.ExpectExec(q("DELETE FROM reservations WHERE hotel_id = ? AND id = ?")).
        WithArgs(hotelID, uint64(55)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusBooked)
    mock.ExpectExec(q("UPDATE room_units SET status = ? WHERE hotel_id = ? AND id = ? AND status = ?")).
        WithArgs("AVAILABLE", hotelID, uint64(1), "BOOKED").
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusAvailable)
    mock.ExpectCommit()

    if err := svc.Delete(context.Background(), hotelID, 55); err != nil {
        t.Fatalf("delete: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 2 || n.events[0].event != "reservation-deleted" {
        t.Fatalf("unexpected events %+v", n.events)
    }
    units := n.events[1].units
    if len(units) != 1 || units[0].ID != 1 || units[0].Status != model.StatusAvailable {
        t.Fatalf("released units = %+v", units)
    }
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    mock.ExpectQuery(q("FROM reservations WHERE hotel_id = ? AND id = ? FOR UPDATE")).
        WithArgs(hotelID, uint64(55)).
        WillReturnRows(sqlmock.NewRows(resCols))
    mock.ExpectRollback()

    if err := svc.Delete(context.Background(), hotelID, 55); !IsNotFound(err) {
        t.Fatalf("expected not found, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 0 {
        t.Fatalf("unexpected events %+v", n.events)
    }
}

func TestUpdatePropagatesStatus(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    mock.ExpectExec(q("UPDATE reservations SET")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusBooked)
    mock.ExpectExec(q("UPDATE room_units SET status = ? WHERE hotel_id = ? AND id = ? AND status = ?")).
        WithArgs("CLEANING", hotelID, uint64(1), "BOOKED").
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusCleaning)
    mock.ExpectCommit()

    name, status := "Ann B. Lee", "cleaning"
    res, err := svc.Update(context.Background(), hotelID, 55, Patch{GuestName: &name, Status: &status})
    if err != nil {
        t.Fatalf("update: %v", err)
    }
    if res.GuestName != name || !res.UpdatedAt.Equal(fixedNow) {
        t.Fatalf("unexpected reservation %+v", res)
    }
    if len(res.ConnectedRooms) != 2 {
        t.Fatalf("connectedRooms = %v", res.ConnectedRooms)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 2 || n.events[0].event != "reservation-updated" || n.events[1].units[0].Status != model.StatusCleaning {
        t.Fatalf("unexpected events %+v", n.events)
    }
}

func TestUpdateRecomputesNights(t *testing.T) {
    svc, mock, _ := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    mock.ExpectExec(q("UPDATE reservations SET")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    out := "2024-01-13T12:00:00Z"
    res, err := svc.Update(context.Background(), hotelID, 55, Patch{CheckOut: &out})
    if err != nil {
        t.Fatalf("update: %v", err)
    }
    if res.Nights != 4 {
        t.Fatalf("nights = %d, want 4", res.Nights)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestUpdateRejectsIllegalMove(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    mock.ExpectExec(q("UPDATE reservations SET")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusMaintenance)
    mock.ExpectRollback()

    status := "BOOKED"
    if _, err := svc.Update(context.Background(), hotelID, 55, Patch{Status: &status}); !IsConflict(err) {
        t.Fatalf("expected conflict, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 0 {
        t.Fatalf("unexpected events %+v", n.events)
    }
}

func TestUpdateOtherHotelIsNotFound(t *testing.T) {
    svc, mock, _ := newTestService(t)
    mock.ExpectBegin()
    mock.ExpectQuery(q("FOR UPDATE")).
        WithArgs(uint64(8), uint64(55)).
        WillReturnRows(sqlmock.NewRows(resCols))
    mock.ExpectRollback()

    name := "x"
    if _, err := svc.Update(context.Background(), 8, 55, Patch{GuestName: &name}); !IsNotFound(err) {
        t.Fatalf("expected not found, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
    svc, mock, _ := newTestService(t)
    status := "OCCUPIED"
    if _, err := svc.Update(context.Background(), hotelID, 55, Patch{Status: &status}); !IsValidation(err) {
        t.Fatalf("expected validation error, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unexpected db activity: %v", err)
    }
}

func TestListRejectsBadBounds(t *testing.T) {
    svc, _, _ := newTestService(t)
    if _, err := svc.List(context.Background(), hotelID, ListQuery{From: "soon"}); !IsValidation(err) {
        t.Fatalf("expected validation error, got %v", err)
    }
}

func TestUpdateUnchangedRowStillPropagatesStatus(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    // MySQL reports no affected rows when every column keeps its value.
    mock.ExpectExec(q("UPDATE reservations SET")).
        WillReturnResult(sqlmock.NewResult(0, 0))
    expectUnit(mock, 1, model.StatusBooked)
    mock.ExpectExec(q("UPDATE room_units SET status = ? WHERE hotel_id = ? AND id = ? AND status = ?")).
        WithArgs("CLEANING", hotelID, uint64(1), "BOOKED").
        WillReturnResult(sqlmock.NewResult(0, 1))
    expectUnit(mock, 1, model.StatusCleaning)
    mock.ExpectCommit()

    status := "CLEANING"
    if _, err := svc.Update(context.Background(), hotelID, 55, Patch{Status: &status}); err != nil {
        t.Fatalf("update: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 2 || n.events[1].units[0].Status != model.StatusCleaning {
        t.Fatalf("unexpected events %+v", n.events)
    }
}

func TestUpdateRejectsOverlongStay(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    expectLoadForUpdate(mock, 55)
    mock.ExpectRollback()

    out := "9999-12-31"
    if _, err := svc.Update(context.Background(), hotelID, 55, Patch{CheckOut: &out}); !IsValidation(err) {
        t.Fatalf("expected validation error, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 0 {
        t.Fatalf("unexpected events %+v", n.events)
    }
}

func TestValidateStayBounds(t *testing.T) {
    in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    if err := validateStay(in, in.AddDate(0, 0, MaxStayNights)); err != nil {
        t.Fatalf("longest stay rejected: %v", err)
    }
    if err := validateStay(in, in.AddDate(0, 0, MaxStayNights+1)); !IsValidation(err) {
        t.Fatalf("expected validation error, got %v", err)
    }
}

func TestCreateSkipsUnitWhoseOwnKeyIsUndeclared(t *testing.T) {
    svc, mock, n := newTestService(t)
    mock.ExpectBegin()
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND room_number IN (?, ?)")).
        WithArgs(hotelID, "101", "102").
        WillReturnRows(unitRow(unitRow(sqlmock.NewRows(unitCols), 1, 10, "101", 1, model.StatusAvailable), 2, 10, "102", 1, model.StatusAvailable))
    // Room 10 declares 1-101 but not its sibling 1-102.
    mock.ExpectQuery(q("FROM rooms WHERE hotel_id = ? AND id IN (?)")).
        WithArgs(hotelID, uint64(10)).
        WillReturnRows(sqlmock.NewRows(roomCols).AddRow(10, hotelID, "Deluxe", "DLX", 900.0, `["1-101"]`, fixedNow, fixedNow))
    mock.ExpectExec(q("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(55, 1))
    mock.ExpectExec(q("INSERT INTO reservation_rooms (reservation_id, room_id) VALUES (?, ?)")).
        WithArgs(uint64(55), uint64(10)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(q("UPDATE room_units SET status = ? WHERE hotel_id = ? AND id IN (?) AND status IN (?)")).
        WithArgs("BOOKED", hotelID, uint64(1), "AVAILABLE").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(q("FROM room_units WHERE hotel_id = ? AND id IN (?)")).
        WithArgs(hotelID, uint64(1)).
        WillReturnRows(unitRow(sqlmock.NewRows(unitCols), 1, 10, "101", 1, model.StatusBooked))
    mock.ExpectCommit()

    res, err := svc.Create(context.Background(), validInput())
    if err != nil {
        t.Fatalf("create: %v", err)
    }
    if res.RoomUnitID == nil || *res.RoomUnitID != 1 {
        t.Fatalf("roomUnitId = %v, want 1", res.RoomUnitID)
    }
    if len(res.ConnectedRooms) != 1 || res.ConnectedRooms[0] != 10 {
        t.Fatalf("connectedRooms = %v", res.ConnectedRooms)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatalf("unmet expectations: %v", err)
    }
    if len(n.events) != 2 || len(n.events[1].units) != 1 || n.events[1].units[0].ID != 1 {
        t.Fatalf("unexpected events %+v", n.events)
    }
}
