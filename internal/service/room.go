package service

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/hotel-reservation/internal/database"
    "github.com/iliyamo/hotel-reservation/internal/metrics"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/notify"
    "github.com/iliyamo/hotel-reservation/internal/repository"
)

// RoomService manages room types, their physical units and manual unit
// status changes such as maintenance or cleaning.
type RoomService struct {
    db       *sql.DB
    Rooms    *repository.RoomRepo
    Units    *repository.RoomUnitRepo
    Notifier notify.Notifier
}

func NewRoomService(db *sql.DB, n notify.Notifier) *RoomService {
    if n == nil {
        n = notify.NewRelay()
    }
    return &RoomService{
        db:       db,
        Rooms:    repository.NewRoomRepo(db),
        Units:    repository.NewRoomUnitRepo(db),
        Notifier: n,
    }
}

// RoomInput describes a new room type.  RoomNumbers are "floor-number"
// keys; one AVAILABLE unit is created per key.
type RoomInput struct {
    Name        string
    RoomType    string
    BasePrice   float64
    RoomNumbers []string
}

// CreateRoom stores the room and its units in one transaction.  A unit
// number already used on the same floor of the hotel is a ConflictError.
func (s *RoomService) CreateRoom(ctx context.Context, hotelID uint64, in RoomInput) (*model.Room, []model.RoomUnit, error) {
    if hotelID == 0 {
        return nil, nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    name := strings.TrimSpace(in.Name)
    if name == "" {
        return nil, nil, ValidationError{Field: "name", Msg: "is required"}
    }
    if in.BasePrice < 0 {
        return nil, nil, ValidationError{Field: "basePrice", Msg: "must not be negative"}
    }
    keys := NormalizeRoomNumbers(in.RoomNumbers)
    if len(keys) == 0 {
        return nil, nil, ValidationError{Field: "roomNumbers", Msg: "at least one room number is required"}
    }
    room := &model.Room{
        HotelID:     hotelID,
        Name:        name,
        RoomType:    strings.TrimSpace(in.RoomType),
        BasePrice:   in.BasePrice,
        RoomNumbers: make([]string, 0, len(keys)),
    }
    units := make([]model.RoomUnit, 0, len(keys))
    declared := make(map[string]bool, len(keys))
    for _, k := range keys {
        floor, number, ok := model.ParseUnitKey(k)
        if !ok {
            return nil, nil, ValidationError{Field: "roomNumbers", Msg: "expected floor-number, got " + k}
        }
        // Re-format so "01-101" and "1-101" declare the same unit.
        key := model.UnitKey(floor, number)
        if declared[key] {
            continue
        }
        declared[key] = true
        room.RoomNumbers = append(room.RoomNumbers, key)
        units = append(units, model.RoomUnit{HotelID: hotelID, RoomNumber: number, Floor: floor, Status: model.StatusAvailable})
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := s.Rooms.CreateTx(ctx, tx, room); err != nil {
        return nil, nil, err
    }
    for i := range units {
        units[i].RoomID = room.ID
    }
    if err := s.Units.CreateBulkTx(ctx, tx, units); err != nil {
        if database.IsDuplicateKey(err) {
            return nil, nil, ConflictError{Resource: "room unit", Msg: "room number already exists on that floor", Err: err}
        }
        return nil, nil, err
    }
    // Read back so the response carries unit ids and timestamps.
    units, err = s.Units.ListByRoom(ctx, tx, hotelID, room.ID)
    if err != nil {
        return nil, nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true
    return room, units, nil
}

// ListRooms returns the hotel's room types.
func (s *RoomService) ListRooms(ctx context.Context, hotelID uint64) ([]model.Room, error) {
    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    rooms, err := s.Rooms.ListByHotel(ctx, hotelID)
    if err != nil {
        return nil, err
    }
    if rooms == nil {
        rooms = []model.Room{}
    }
    return rooms, nil
}

// ListUnits returns the hotel's units, optionally only those in status.
func (s *RoomService) ListUnits(ctx context.Context, hotelID uint64, status string) ([]model.RoomUnit, error) {
    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    var st model.RoomUnitStatus
    if strings.TrimSpace(status) != "" {
        parsed, err := model.ParseStatus(status)
        if err != nil {
            return nil, ValidationError{Field: "status", Msg: err.Error()}
        }
        st = parsed
    }
    units, err := s.Units.ListByHotel(ctx, hotelID, st)
    if err != nil {
        return nil, err
    }
    if units == nil {
        units = []model.RoomUnit{}
    }
    return units, nil
}

// SetUnitStatus moves one unit through the status machine.  Illegal moves
// and concurrent changes are ConflictErrors; a same-status request
// returns the unit unchanged and emits nothing.
func (s *RoomService) SetUnitStatus(ctx context.Context, hotelID, unitID uint64, status string) (*model.RoomUnit, error) {
    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    to, err := model.ParseStatus(status)
    if err != nil {
        return nil, ValidationError{Field: "status", Msg: err.Error()}
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    unit, err := s.Units.GetByID(ctx, tx, hotelID, unitID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Resource: "room unit", Err: err}
        }
        return nil, err
    }
    from := unit.Status
    changed, err := model.Transition(from, to)
    if err != nil {
        return nil, ConflictError{Resource: "room unit", Msg: err.Error(), Err: err}
    }
    if !changed {
        return unit, nil
    }
    if err := s.Units.SetStatusTx(ctx, tx, hotelID, unitID, from, to); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return nil, ConflictError{Resource: "room unit", Msg: "status changed concurrently", Err: err}
        }
        return nil, err
    }
    unit, err = s.Units.GetByID(ctx, tx, hotelID, unitID)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    metrics.UnitTransitions.WithLabelValues(string(from), string(to)).Inc()
    s.Notifier.EmitRoomStatusUpdate(ctx, hotelID, []model.RoomUnit{*unit})
    return unit, nil
}
