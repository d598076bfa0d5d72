package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// links to room types (reservation_rooms).  Every query is scoped by
// hotel_id; a reservation of another hotel behaves as if it did not
// exist.  All timestamps are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the handle for callers that need a transaction.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// reservationColumns lists every column except id, in the order produced
// by reservationArgs.
const reservationColumns = `hotel_id, check_in, check_out, nights, guests, rooms, room_no, room_type, rate_type,
    per_day_rate, per_day_tax, tax_inclusive, total_amount,
    guest_name, email, phone, dob, gender, address, city, state, country, zip_code,
    identity, id_detail, id_proof, photo_id_path,
    booked_by, business_segment, bill_to, payment_mode,
    room_unit_id, created_at, updated_at`

const reservationColumnCount = 34

const reservationUpdateSet = `check_in = ?, check_out = ?, nights = ?, guests = ?, rooms = ?, room_no = ?, room_type = ?, rate_type = ?,
    per_day_rate = ?, per_day_tax = ?, tax_inclusive = ?, total_amount = ?,
    guest_name = ?, email = ?, phone = ?, dob = ?, gender = ?, address = ?, city = ?, state = ?, country = ?, zip_code = ?,
    identity = ?, id_detail = ?, id_proof = ?, photo_id_path = ?,
    booked_by = ?, business_segment = ?, bill_to = ?, payment_mode = ?,
    room_unit_id = ?, updated_at = ?`

func reservationArgs(res *model.Reservation) []any {
    var dob, photo, unit any
    if res.DOB != nil {
        dob = *res.DOB
    }
    if res.PhotoIDPath != nil {
        photo = *res.PhotoIDPath
    }
    if res.RoomUnitID != nil {
        unit = *res.RoomUnitID
    }
    return []any{
        res.HotelID, res.CheckIn, res.CheckOut, res.Nights, res.Guests, res.Rooms, res.RoomNo, res.RoomType, res.RateType,
        res.PerDayRate, res.PerDayTax, res.TaxInclusive, res.TotalAmount,
        res.GuestName, res.Email, res.Phone, dob, res.Gender, res.Address, res.City, res.State, res.Country, res.ZipCode,
        res.Identity, res.IDDetail, res.IDProof, photo,
        res.BookedBy, res.BusinessSegment, res.BillTo, res.PaymentMode,
        unit, res.CreatedAt, res.UpdatedAt,
    }
}

// CreateTx inserts a reservation within an existing transaction and sets
// its generated ID.  CreatedAt/UpdatedAt default to now when zero.  The
// caller must commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    now := time.Now().UTC()
    if res.CreatedAt.IsZero() {
        res.CreatedAt = now
    }
    if res.UpdatedAt.IsZero() {
        res.UpdatedAt = res.CreatedAt
    }
    result, err := tx.ExecContext(ctx,
        `INSERT INTO reservations (`+reservationColumns+`) VALUES (`+placeholders(reservationColumnCount)+`)`,
        reservationArgs(res)...)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// LinkRoomsTx connects a reservation to the room types backing it.
// Passing an empty slice has no effect.
func (r *ReservationRepo) LinkRoomsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, roomIDs []uint64) error {
    if len(roomIDs) == 0 {
        return nil
    }
    query := `INSERT INTO reservation_rooms (reservation_id, room_id) VALUES `
    args := make([]any, 0, len(roomIDs)*2)
    for i, id := range roomIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, reservationID, id)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID loads one reservation of the hotel with its connected rooms.
// ErrNotFound when it does not exist or belongs to another hotel.
func (r *ReservationRepo) GetByID(ctx context.Context, q Querier, hotelID, id uint64) (*model.Reservation, error) {
    return r.get(ctx, q, hotelID, id, "")
}

// GetByIDForUpdateTx is GetByID with a row lock held until the
// transaction ends, so concurrent update/delete of the same reservation
// serialize.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, hotelID, id uint64) (*model.Reservation, error) {
    return r.get(ctx, tx, hotelID, id, " FOR UPDATE")
}

func (r *ReservationRepo) get(ctx context.Context, q Querier, hotelID, id uint64, suffix string) (*model.Reservation, error) {
    row := q.QueryRowContext(ctx,
        `SELECT id, `+reservationColumns+` FROM reservations WHERE hotel_id = ? AND id = ?`+suffix, hotelID, id)
    res, err := scanReservation(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    links, err := r.connectedRooms(ctx, q, []uint64{res.ID})
    if err != nil {
        return nil, err
    }
    res.ConnectedRooms = links[res.ID]
    if res.ConnectedRooms == nil {
        res.ConnectedRooms = []uint64{}
    }
    return res, nil
}

// UpdateTx rewrites every mutable column of res.  The caller must hold the
// row lock from GetByIDForUpdateTx; the affected row count is not checked
// because MySQL reports 0 for an update that changes nothing.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    args := reservationArgs(res)[1:] // hotel_id is not updatable
    args = args[:len(args)-2]        // drop created_at, updated_at
    args = append(args, res.UpdatedAt, res.HotelID, res.ID)
    _, err := tx.ExecContext(ctx,
        `UPDATE reservations SET `+reservationUpdateSet+` WHERE hotel_id = ? AND id = ?`, args...)
    return err
}

// DeleteTx hard-deletes a reservation; reservation_rooms rows go with it
// through ON DELETE CASCADE.  ErrNotFound when nothing was deleted.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, hotelID, id uint64) error {
    result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE hotel_id = ? AND id = ?`, hotelID, id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListFilter narrows ListByHotel.  Zero values mean "no bound".
type ListFilter struct {
    From   time.Time // stays ending after From
    To     time.Time // stays starting before To
    Limit  int
    Offset int
}

// ListByHotel returns the hotel's reservations, most recent check-in first.
func (r *ReservationRepo) ListByHotel(ctx context.Context, hotelID uint64, f ListFilter) ([]model.Reservation, error) {
    query := `SELECT id, ` + reservationColumns + ` FROM reservations WHERE hotel_id = ?`
    args := []any{hotelID}
    if !f.From.IsZero() {
        query += ` AND check_out > ?`
        args = append(args, f.From)
    }
    if !f.To.IsZero() {
        query += ` AND check_in < ?`
        args = append(args, f.To)
    }
    limit := f.Limit
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    offset := f.Offset
    if offset < 0 {
        offset = 0
    }
    query += ` ORDER BY check_in DESC, id DESC LIMIT ? OFFSET ?`
    args = append(args, limit, offset)

    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var (
        out []model.Reservation
        ids []uint64
    )
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
        ids = append(ids, res.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    links, err := r.connectedRooms(ctx, r.db, ids)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].ConnectedRooms = links[out[i].ID]
        if out[i].ConnectedRooms == nil {
            out[i].ConnectedRooms = []uint64{}
        }
    }
    return out, nil
}

func (r *ReservationRepo) connectedRooms(ctx context.Context, q Querier, reservationIDs []uint64) (map[uint64][]uint64, error) {
    out := make(map[uint64][]uint64, len(reservationIDs))
    if len(reservationIDs) == 0 {
        return out, nil
    }
    args := make([]any, 0, len(reservationIDs))
    for _, id := range reservationIDs {
        args = append(args, id)
    }
    rows, err := q.QueryContext(ctx,
        `SELECT reservation_id, room_id FROM reservation_rooms WHERE reservation_id IN (`+
            placeholders(len(reservationIDs))+`) ORDER BY reservation_id, room_id`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var resID, roomID uint64
        if err := rows.Scan(&resID, &roomID); err != nil {
            return nil, err
        }
        out[resID] = append(out[resID], roomID)
    }
    return out, rows.Err()
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
    var (
        res   model.Reservation
        dob   sql.NullTime
        photo sql.NullString
        unit  sql.NullInt64
    )
    err := s.Scan(&res.ID,
        &res.HotelID, &res.CheckIn, &res.CheckOut, &res.Nights, &res.Guests, &res.Rooms, &res.RoomNo, &res.RoomType, &res.RateType,
        &res.PerDayRate, &res.PerDayTax, &res.TaxInclusive, &res.TotalAmount,
        &res.GuestName, &res.Email, &res.Phone, &dob, &res.Gender, &res.Address, &res.City, &res.State, &res.Country, &res.ZipCode,
        &res.Identity, &res.IDDetail, &res.IDProof, &photo,
        &res.BookedBy, &res.BusinessSegment, &res.BillTo, &res.PaymentMode,
        &unit, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if dob.Valid {
        t := dob.Time
        res.DOB = &t
    }
    if photo.Valid {
        p := photo.String
        res.PhotoIDPath = &p
    }
    if unit.Valid {
        u := uint64(unit.Int64)
        res.RoomUnitID = &u
    }
    return &res, nil
}
