package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomUnitRepo encapsulates database operations for room_units, the
// physical rooms whose status the reservation lifecycle drives.
type RoomUnitRepo struct {
    db *sql.DB
}

func NewRoomUnitRepo(db *sql.DB) *RoomUnitRepo { return &RoomUnitRepo{db: db} }

// DB exposes the handle for callers that need a transaction.
func (r *RoomUnitRepo) DB() *sql.DB { return r.db }

const unitColumns = `id, hotel_id, room_id, room_number, floor, status, updated_at`

// CreateBulkTx inserts multiple units in one statement.  Status defaults
// to AVAILABLE when empty.  IDs of the passed values are not populated;
// read them back with ListByRoom.
func (r *RoomUnitRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, units []model.RoomUnit) error {
    if len(units) == 0 {
        return nil
    }
    query := `INSERT INTO room_units (hotel_id, room_id, room_number, floor, status) VALUES `
    args := make([]any, 0, len(units)*5)
    for i, u := range units {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        st := u.Status
        if st == "" {
            st = model.StatusAvailable
        }
        args = append(args, u.HotelID, u.RoomID, u.RoomNumber, u.Floor, string(st))
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// FindByNumbers returns the hotel's units whose room_number is one of
// numbers, ordered by id so "first match" is deterministic.
func (r *RoomUnitRepo) FindByNumbers(ctx context.Context, q Querier, hotelID uint64, numbers []string) ([]model.RoomUnit, error) {
    if len(numbers) == 0 {
        return nil, nil
    }
    args := make([]any, 0, len(numbers)+1)
    args = append(args, hotelID)
    for _, n := range numbers {
        args = append(args, n)
    }
    rows, err := q.QueryContext(ctx,
        `SELECT `+unitColumns+` FROM room_units WHERE hotel_id = ? AND room_number IN (`+placeholders(len(numbers))+`) ORDER BY id`,
        args...)
    if err != nil {
        return nil, err
    }
    return scanUnits(rows)
}

// GetByID loads one unit of the hotel.  ErrNotFound when missing.
func (r *RoomUnitRepo) GetByID(ctx context.Context, q Querier, hotelID, id uint64) (*model.RoomUnit, error) {
    var (
        u      model.RoomUnit
        status string
    )
    err := q.QueryRowContext(ctx,
        `SELECT `+unitColumns+` FROM room_units WHERE hotel_id = ? AND id = ?`, hotelID, id,
    ).Scan(&u.ID, &u.HotelID, &u.RoomID, &u.RoomNumber, &u.Floor, &status, &u.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    u.Status = model.RoomUnitStatus(status)
    return &u, nil
}

// ListByRoom returns the units of one room type, ordered by id.
func (r *RoomUnitRepo) ListByRoom(ctx context.Context, q Querier, hotelID, roomID uint64) ([]model.RoomUnit, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT `+unitColumns+` FROM room_units WHERE hotel_id = ? AND room_id = ? ORDER BY id`, hotelID, roomID)
    if err != nil {
        return nil, err
    }
    return scanUnits(rows)
}

// GetByIDs loads the hotel's units with the given ids, ordered by id.
func (r *RoomUnitRepo) GetByIDs(ctx context.Context, q Querier, hotelID uint64, ids []uint64) ([]model.RoomUnit, error) {
    if len(ids) == 0 {
        return nil, nil
    }
    args := make([]any, 0, len(ids)+1)
    args = append(args, hotelID)
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := q.QueryContext(ctx,
        `SELECT `+unitColumns+` FROM room_units WHERE hotel_id = ? AND id IN (`+placeholders(len(ids))+`) ORDER BY id`,
        args...)
    if err != nil {
        return nil, err
    }
    return scanUnits(rows)
}

// ListByHotel returns all units of a hotel, optionally filtered by status.
func (r *RoomUnitRepo) ListByHotel(ctx context.Context, hotelID uint64, status model.RoomUnitStatus) ([]model.RoomUnit, error) {
    query := `SELECT ` + unitColumns + ` FROM room_units WHERE hotel_id = ?`
    args := []any{hotelID}
    if status != "" {
        query += ` AND status = ?`
        args = append(args, string(status))
    }
    rows, err := r.db.QueryContext(ctx, query+` ORDER BY floor, room_number`, args...)
    if err != nil {
        return nil, err
    }
    return scanUnits(rows)
}

// TransitionTx moves every unit in ids to `to`, but only those currently
// in a state the status machine allows to reach `to`.  If fewer rows
// change than ids were given (a unit is already taken, under maintenance,
// or changed concurrently) ErrConflict is returned and the caller must
// roll back.  ids must not contain duplicates.
func (r *RoomUnitRepo) TransitionTx(ctx context.Context, tx *sql.Tx, hotelID uint64, ids []uint64, to model.RoomUnitStatus) error {
    if len(ids) == 0 {
        return nil
    }
    sources := model.SourcesFor(to)
    if len(sources) == 0 {
        return ErrConflict
    }
    args := make([]any, 0, len(ids)+len(sources)+2)
    args = append(args, string(to), hotelID)
    for _, id := range ids {
        args = append(args, id)
    }
    for _, s := range sources {
        args = append(args, string(s))
    }
    res, err := tx.ExecContext(ctx,
        `UPDATE room_units SET status = ? WHERE hotel_id = ? AND id IN (`+placeholders(len(ids))+
            `) AND status IN (`+placeholders(len(sources))+`)`,
        args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != int64(len(ids)) {
        return ErrConflict
    }
    return nil
}

// SetStatusTx changes a single unit from `from` to `to`.  The WHERE on the
// previous status makes it a compare-and-swap: zero affected rows means
// somebody else moved the unit first and ErrConflict is returned.
func (r *RoomUnitRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, hotelID, id uint64, from, to model.RoomUnitStatus) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE room_units SET status = ? WHERE hotel_id = ? AND id = ? AND status = ?`,
        string(to), hotelID, id, string(from))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != 1 {
        return ErrConflict
    }
    return nil
}

func scanUnits(rows *sql.Rows) ([]model.RoomUnit, error) {
    defer rows.Close()
    var out []model.RoomUnit
    for rows.Next() {
        var (
            u      model.RoomUnit
            status string
        )
        if err := rows.Scan(&u.ID, &u.HotelID, &u.RoomID, &u.RoomNumber, &u.Floor, &status, &u.UpdatedAt); err != nil {
            return nil, err
        }
        u.Status = model.RoomUnitStatus(status)
        out = append(out, u)
    }
    return out, rows.Err()
}
