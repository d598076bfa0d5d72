package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomRepo provides access to room type definitions.  The declared unit
// keys are stored as a JSON array in rooms.room_numbers.
type RoomRepo struct {
    db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the handle for callers that need a transaction.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, hotel_id, name, room_type, base_price, room_numbers, created_at, updated_at`

// CreateTx inserts a room and reads back its ID and timestamps.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
    numbers, err := json.Marshal(room.RoomNumbers)
    if err != nil {
        return fmt.Errorf("encode room numbers: %w", err)
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO rooms (hotel_id, name, room_type, base_price, room_numbers) VALUES (?, ?, ?, ?, ?)`,
        room.HotelID, room.Name, room.RoomType, room.BasePrice, string(numbers))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    room.ID = uint64(id)
    return tx.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM rooms WHERE id = ?`, room.ID,
    ).Scan(&room.CreatedAt, &room.UpdatedAt)
}

// ListByHotel returns every room of a hotel ordered by id.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Room, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+roomColumns+` FROM rooms WHERE hotel_id = ? ORDER BY id`, hotelID)
    if err != nil {
        return nil, err
    }
    return scanRooms(rows)
}

// ListByIDs returns the hotel's rooms whose id is in ids.  Rooms of other
// hotels are never returned even if their ids are passed.
func (r *RoomRepo) ListByIDs(ctx context.Context, q Querier, hotelID uint64, ids []uint64) ([]model.Room, error) {
    if len(ids) == 0 {
        return nil, nil
    }
    args := make([]any, 0, len(ids)+1)
    args = append(args, hotelID)
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := q.QueryContext(ctx,
        `SELECT `+roomColumns+` FROM rooms WHERE hotel_id = ? AND id IN (`+placeholders(len(ids))+`) ORDER BY id`,
        args...)
    if err != nil {
        return nil, err
    }
    return scanRooms(rows)
}

func scanRooms(rows *sql.Rows) ([]model.Room, error) {
    defer rows.Close()
    var out []model.Room
    for rows.Next() {
        var (
            room    model.Room
            numbers []byte
        )
        if err := rows.Scan(&room.ID, &room.HotelID, &room.Name, &room.RoomType, &room.BasePrice,
            &numbers, &room.CreatedAt, &room.UpdatedAt); err != nil {
            return nil, err
        }
        if len(numbers) > 0 {
            if err := json.Unmarshal(numbers, &room.RoomNumbers); err != nil {
                return nil, fmt.Errorf("room %d: decode room_numbers: %w", room.ID, err)
            }
        }
        if room.RoomNumbers == nil {
            room.RoomNumbers = []string{}
        }
        out = append(out, room)
    }
    return out, rows.Err()
}
