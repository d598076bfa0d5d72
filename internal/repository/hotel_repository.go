package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// HotelRepo persists tenants.  Hotels are only created during staff
// registration, together with their first ADMIN user.
type HotelRepo struct {
    db *sql.DB
}

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// DB exposes the handle so callers can open transactions spanning
// several repositories.
func (r *HotelRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a hotel and sets its generated ID.
func (r *HotelRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hotel) error {
    h.Name = strings.TrimSpace(h.Name)
    res, err := tx.ExecContext(ctx, `INSERT INTO hotels (name) VALUES (?)`, h.Name)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    h.ID = uint64(id)
    return nil
}

// GetByID loads one hotel.  ErrNotFound when it does not exist.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
    var h model.Hotel
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, created_at, updated_at FROM hotels WHERE id = ?`, id,
    ).Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &h, nil
}
