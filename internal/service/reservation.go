package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/metrics"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/notify"
    "github.com/iliyamo/hotel-reservation/internal/repository"
)

// ReservationService runs the reservation lifecycle and keeps the status
// of the booked room units in step with it.
type ReservationService struct {
    db           *sql.DB
    Reservations *repository.ReservationRepo
    Rooms        *repository.RoomRepo
    Units        *repository.RoomUnitRepo
    Notifier     notify.Notifier

    now func() time.Time
}

// NewReservationService wires the service.  A nil notifier disables events.
func NewReservationService(db *sql.DB, n notify.Notifier) *ReservationService {
    if n == nil {
        n = notify.NewRelay()
    }
    return &ReservationService{
        db:           db,
        Reservations: repository.NewReservationRepo(db),
        Rooms:        repository.NewRoomRepo(db),
        Units:        repository.NewRoomUnitRepo(db),
        Notifier:     n,
        now:          func() time.Time { return time.Now().UTC() },
    }
}

// CreateInput is the submitted reservation form.  Numeric fields arrive as
// strings the way a multipart form carries them.
type CreateInput struct {
    HotelID uint64

    CheckIn     string
    CheckOut    string
    Guests      string
    NumRooms    string
    PerDayRate  string
    PerDayTax   string
    TotalAmount string // optional, derived when not numeric

    RoomNumbers []string
    RoomNo      string // raw list as submitted; joined RoomNumbers when empty

    RoomType     string
    RateType     string
    TaxInclusive bool

    GuestName string
    Email     string
    Phone     string
    DOB       string
    Gender    string
    Address   string
    City      string
    State     string
    Country   string
    ZipCode   string

    Identity string
    IDDetail string
    IDProof  string

    PhotoIDPath string

    BookedBy        string
    BusinessSegment string
    BillTo          string
    PaymentMode     string
}

// Create validates in, resolves the requested room numbers to units of
// verified rooms, stores the reservation and books the units.  All writes
// share one transaction; a unit that is no longer bookable aborts the
// whole creation with a ConflictError.
func (s *ReservationService) Create(ctx context.Context, in CreateInput) (res *model.Reservation, err error) {
    defer func() { metrics.ReservationOps.WithLabelValues("create", outcome(err)).Inc() }()

    if in.HotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    res, numbers, err := buildReservation(in)
    if err != nil {
        return nil, err
    }
    if len(numbers) == 0 {
        return nil, ValidationError{Field: "roomNumbers", Msg: "no matching room units"}
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

    units, rooms, err := s.resolveUnits(ctx, tx, in.HotelID, numbers)
    if err != nil {
        return nil, err
    }

    unitID := units[0].ID
    res.RoomUnitID = &unitID
    res.ConnectedRooms = make([]uint64, 0, len(rooms))
    for _, r := range rooms {
        res.ConnectedRooms = append(res.ConnectedRooms, r.ID)
    }
    now := s.now()
    res.CreatedAt, res.UpdatedAt = now, now

    if err := s.Reservations.CreateTx(ctx, tx, res); err != nil {
        return nil, err
    }
    if err := s.Reservations.LinkRoomsTx(ctx, tx, res.ID, res.ConnectedRooms); err != nil {
        return nil, err
    }
    ids := make([]uint64, 0, len(units))
    for _, u := range units {
        ids = append(ids, u.ID)
    }
    if err := s.Units.TransitionTx(ctx, tx, in.HotelID, ids, model.StatusBooked); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return nil, ConflictError{Resource: "room unit", Msg: "one or more room units are not available", Err: err}
        }
        return nil, err
    }
    booked, err := s.Units.GetByIDs(ctx, tx, in.HotelID, ids)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    for _, u := range units {
        metrics.UnitTransitions.WithLabelValues(string(u.Status), string(model.StatusBooked)).Inc()
    }
    s.Notifier.EmitReservationUpdate(ctx, in.HotelID, notify.ReservationCreated, res)
    s.Notifier.EmitRoomStatusUpdate(ctx, in.HotelID, booked)
    return res, nil
}

// MaxStayNights bounds a single reservation.
const MaxStayNights = 366

// validateStay requires checkOut after checkIn and at most MaxStayNights
// later.
func validateStay(checkIn, checkOut time.Time) error {
    if !checkOut.After(checkIn) {
        return ValidationError{Field: "checkOutDate", Msg: "must be after check-in"}
    }
    if checkOut.After(checkIn.AddDate(0, 0, MaxStayNights)) {
        return ValidationError{Field: "checkOutDate", Msg: fmt.Sprintf("stay must not exceed %d nights", MaxStayNights)}
    }
    return nil
}

// buildReservation validates the form in order (dates, then numerics) and
// maps it onto a reservation.  It also returns the normalized room numbers.
func buildReservation(in CreateInput) (*model.Reservation, []string, error) {
    checkIn, ok := ParseDate(in.CheckIn)
    if !ok {
        return nil, nil, ValidationError{Field: "checkInDate", Msg: "invalid date"}
    }
    checkOut, ok := ParseDate(in.CheckOut)
    if !ok {
        return nil, nil, ValidationError{Field: "checkOutDate", Msg: "invalid date"}
    }
    if err := validateStay(checkIn, checkOut); err != nil {
        return nil, nil, err
    }

    guests, err := parseCount("numberOfGuests", in.Guests)
    if err != nil {
        return nil, nil, err
    }
    rooms, err := parseCount("numRooms", in.NumRooms)
    if err != nil {
        return nil, nil, err
    }
    rate, err := parseAmount("perDayRate", in.PerDayRate)
    if err != nil {
        return nil, nil, err
    }
    tax, err := parseAmount("perDayTax", in.PerDayTax)
    if err != nil {
        return nil, nil, err
    }

    var dob *time.Time
    if strings.TrimSpace(in.DOB) != "" {
        t, ok := ParseDate(in.DOB)
        if !ok {
            return nil, nil, ValidationError{Field: "dob", Msg: "invalid date"}
        }
        dob = &t
    }

    numbers := NormalizeRoomNumbers(in.RoomNumbers)
    nights := model.NightsBetween(checkIn, checkOut)
    total, ok := parseFinite(in.TotalAmount)
    if !ok {
        total = rate * float64(nights) * float64(rooms)
    }
    roomNo := in.RoomNo
    if roomNo == "" {
        roomNo = strings.Join(numbers, ",")
    }
    var photo *string
    if in.PhotoIDPath != "" {
        p := in.PhotoIDPath
        photo = &p
    }

    return &model.Reservation{
        HotelID:         in.HotelID,
        CheckIn:         checkIn,
        CheckOut:        checkOut,
        Nights:          nights,
        Guests:          guests,
        Rooms:           rooms,
        RoomNo:          roomNo,
        RoomType:        in.RoomType,
        RateType:        in.RateType,
        PerDayRate:      rate,
        PerDayTax:       tax,
        TaxInclusive:    in.TaxInclusive,
        TotalAmount:     total,
        GuestName:       in.GuestName,
        Email:           in.Email,
        Phone:           in.Phone,
        DOB:             dob,
        Gender:          in.Gender,
        Address:         in.Address,
        City:            in.City,
        State:           in.State,
        Country:         in.Country,
        ZipCode:         in.ZipCode,
        Identity:        in.Identity,
        IDDetail:        in.IDDetail,
        IDProof:         in.IDProof,
        PhotoIDPath:     photo,
        BookedBy:        in.BookedBy,
        BusinessSegment: in.BusinessSegment,
        BillTo:          in.BillTo,
        PaymentMode:     in.PaymentMode,
    }, numbers, nil
}

// resolveUnits finds the hotel's units carrying one of numbers and keeps
// those whose parent room declares the unit's "floor-number" key.  Units
// come back in id order; rooms are the verified parents in id order.
func (s *ReservationService) resolveUnits(ctx context.Context, q repository.Querier, hotelID uint64, numbers []string) ([]model.RoomUnit, []model.Room, error) {
    candidates, err := s.Units.FindByNumbers(ctx, q, hotelID, numbers)
    if err != nil {
        return nil, nil, err
    }
    if len(candidates) == 0 {
        return nil, nil, ValidationError{Field: "roomNumbers", Msg: "no matching room units"}
    }

    var roomIDs []uint64
    seen := make(map[uint64]bool)
    for _, u := range candidates {
        if !seen[u.RoomID] {
            seen[u.RoomID] = true
            roomIDs = append(roomIDs, u.RoomID)
        }
    }
    parents, err := s.Rooms.ListByIDs(ctx, q, hotelID, roomIDs)
    if err != nil {
        return nil, nil, err
    }
    byID := make(map[uint64]model.Room, len(parents))
    for _, r := range parents {
        byID[r.ID] = r
    }

    var units []model.RoomUnit
    verified := make(map[uint64]bool)
    for _, u := range candidates {
        r, ok := byID[u.RoomID]
        if !ok || !r.Declares(u.Key()) {
            continue
        }
        units = append(units, u)
        verified[r.ID] = true
    }
    if len(units) == 0 {
        return nil, nil, ValidationError{Field: "roomNumbers", Msg: "no verified rooms"}
    }
    var rooms []model.Room
    for _, r := range parents {
        if verified[r.ID] {
            rooms = append(rooms, r)
        }
    }
    return units, rooms, nil
}

// Patch carries the fields of a partial update; nil means unchanged.
// Status, when set, is applied to the reservation's primary room unit.
type Patch struct {
    CheckIn     *string
    CheckOut    *string
    Guests      *string
    NumRooms    *string
    PerDayRate  *string
    PerDayTax   *string
    TotalAmount *string

    RoomNo       *string
    RoomType     *string
    RateType     *string
    TaxInclusive *bool

    GuestName *string
    Email     *string
    Phone     *string
    DOB       *string
    Gender    *string
    Address   *string
    City      *string
    State     *string
    Country   *string
    ZipCode   *string

    Identity    *string
    IDDetail    *string
    IDProof     *string
    PhotoIDPath *string

    BookedBy        *string
    BusinessSegment *string
    BillTo          *string
    PaymentMode     *string

    Status *string
}

// Update merges p into the hotel's reservation id.  When p carries a
// status and the reservation has a primary unit, the unit is moved through
// the status machine in the same transaction.
func (s *ReservationService) Update(ctx context.Context, hotelID, id uint64, p Patch) (res *model.Reservation, err error) {
    defer func() { metrics.ReservationOps.WithLabelValues("update", outcome(err)).Inc() }()

    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    var target model.RoomUnitStatus
    if p.Status != nil {
        st, perr := model.ParseStatus(*p.Status)
        if perr != nil {
            return nil, ValidationError{Field: "status", Msg: perr.Error()}
        }
        target = st
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

    res, err = s.Reservations.GetByIDForUpdateTx(ctx, tx, hotelID, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Resource: "reservation", Err: err}
        }
        return nil, err
    }
    if err := applyPatch(res, p); err != nil {
        return nil, err
    }
    res.UpdatedAt = s.now()
    if err := s.Reservations.UpdateTx(ctx, tx, res); err != nil {
        return nil, err
    }

    var moved *model.RoomUnit
    var from model.RoomUnitStatus
    if p.Status != nil && res.RoomUnitID != nil {
        moved, from, err = s.moveUnit(ctx, tx, hotelID, *res.RoomUnitID, target)
        if err != nil {
            return nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    s.Notifier.EmitReservationUpdate(ctx, hotelID, notify.ReservationUpdated, res)
    if moved != nil {
        if from != moved.Status {
            metrics.UnitTransitions.WithLabelValues(string(from), string(moved.Status)).Inc()
        }
        s.Notifier.EmitRoomStatusUpdate(ctx, hotelID, []model.RoomUnit{*moved})
    }
    return res, nil
}

// moveUnit applies one status machine move with a compare-and-swap and
// returns the unit as re-read afterwards together with its previous
// status.  A vanished unit yields (nil, "", nil).
func (s *ReservationService) moveUnit(ctx context.Context, tx *sql.Tx, hotelID, unitID uint64, to model.RoomUnitStatus) (*model.RoomUnit, model.RoomUnitStatus, error) {
    unit, err := s.Units.GetByID(ctx, tx, hotelID, unitID)
    if errors.Is(err, repository.ErrNotFound) {
        log.Printf("reservation: room unit %d of hotel %d no longer exists", unitID, hotelID)
        return nil, "", nil
    }
    if err != nil {
        return nil, "", err
    }
    from := unit.Status
    changed, err := model.Transition(from, to)
    if err != nil {
        return nil, "", ConflictError{Resource: "room unit", Msg: err.Error(), Err: err}
    }
    if !changed {
        return unit, from, nil
    }
    if err := s.Units.SetStatusTx(ctx, tx, hotelID, unitID, from, to); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return nil, "", ConflictError{Resource: "room unit", Msg: "status changed concurrently", Err: err}
        }
        return nil, "", err
    }
    unit, err = s.Units.GetByID(ctx, tx, hotelID, unitID)
    if err != nil {
        return nil, "", err
    }
    return unit, from, nil
}

// applyPatch merges p into res.  Dates are re-validated together and the
// night count recomputed when either changes.
func applyPatch(res *model.Reservation, p Patch) error {
    if p.CheckIn != nil || p.CheckOut != nil {
        in, out := res.CheckIn, res.CheckOut
        if p.CheckIn != nil {
            t, ok := ParseDate(*p.CheckIn)
            if !ok {
                return ValidationError{Field: "checkInDate", Msg: "invalid date"}
            }
            in = t
        }
        if p.CheckOut != nil {
            t, ok := ParseDate(*p.CheckOut)
            if !ok {
                return ValidationError{Field: "checkOutDate", Msg: "invalid date"}
            }
            out = t
        }
        if err := validateStay(in, out); err != nil {
            return err
        }
        res.CheckIn, res.CheckOut = in, out
        res.Nights = model.NightsBetween(in, out)
    }
    if p.Guests != nil {
        n, err := parseCount("numberOfGuests", *p.Guests)
        if err != nil {
            return err
        }
        res.Guests = n
    }
    if p.NumRooms != nil {
        n, err := parseCount("numRooms", *p.NumRooms)
        if err != nil {
            return err
        }
        res.Rooms = n
    }
    if p.PerDayRate != nil {
        f, err := parseAmount("perDayRate", *p.PerDayRate)
        if err != nil {
            return err
        }
        res.PerDayRate = f
    }
    if p.PerDayTax != nil {
        f, err := parseAmount("perDayTax", *p.PerDayTax)
        if err != nil {
            return err
        }
        res.PerDayTax = f
    }
    if p.TotalAmount != nil {
        f, err := parseAmount("totalAmount", *p.TotalAmount)
        if err != nil {
            return err
        }
        res.TotalAmount = f
    }
    if p.TaxInclusive != nil {
        res.TaxInclusive = *p.TaxInclusive
    }
    if p.DOB != nil {
        if strings.TrimSpace(*p.DOB) == "" {
            res.DOB = nil
        } else {
            t, ok := ParseDate(*p.DOB)
            if !ok {
                return ValidationError{Field: "dob", Msg: "invalid date"}
            }
            res.DOB = &t
        }
    }
    if p.PhotoIDPath != nil {
        if *p.PhotoIDPath == "" {
            res.PhotoIDPath = nil
        } else {
            v := *p.PhotoIDPath
            res.PhotoIDPath = &v
        }
    }
    for _, f := range []struct {
        src *string
        dst *string
    }{
        {p.RoomNo, &res.RoomNo},
        {p.RoomType, &res.RoomType},
        {p.RateType, &res.RateType},
        {p.GuestName, &res.GuestName},
        {p.Email, &res.Email},
        {p.Phone, &res.Phone},
        {p.Gender, &res.Gender},
        {p.Address, &res.Address},
        {p.City, &res.City},
        {p.State, &res.State},
        {p.Country, &res.Country},
        {p.ZipCode, &res.ZipCode},
        {p.Identity, &res.Identity},
        {p.IDDetail, &res.IDDetail},
        {p.IDProof, &res.IDProof},
        {p.BookedBy, &res.BookedBy},
        {p.BusinessSegment, &res.BusinessSegment},
        {p.BillTo, &res.BillTo},
        {p.PaymentMode, &res.PaymentMode},
    } {
        if f.src != nil {
            *f.dst = *f.src
        }
    }
    return nil
}

// Delete removes the hotel's reservation id and releases its primary
// room unit to AVAILABLE.  Units linked only through connected rooms keep
// their status.
func (s *ReservationService) Delete(ctx context.Context, hotelID, id uint64) (err error) {
    defer func() { metrics.ReservationOps.WithLabelValues("delete", outcome(err)).Inc() }()

    if hotelID == 0 {
        return UnauthorizedError{Msg: "hotel context missing"}
    }
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := s.Reservations.GetByIDForUpdateTx(ctx, tx, hotelID, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return NotFoundError{Resource: "reservation", Err: err}
        }
        return err
    }
    if err := s.Reservations.DeleteTx(ctx, tx, hotelID, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return NotFoundError{Resource: "reservation", Err: err}
        }
        return err
    }

    var released *model.RoomUnit
    var from model.RoomUnitStatus
    if res.RoomUnitID != nil {
        released, from, err = s.moveUnit(ctx, tx, hotelID, *res.RoomUnitID, model.StatusAvailable)
        if err != nil {
            return err
        }
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true

    s.Notifier.EmitReservationUpdate(ctx, hotelID, notify.ReservationDeleted, map[string]uint64{"id": id})
    if released != nil {
        if from != released.Status {
            metrics.UnitTransitions.WithLabelValues(string(from), string(released.Status)).Inc()
        }
        s.Notifier.EmitRoomStatusUpdate(ctx, hotelID, []model.RoomUnit{*released})
    }
    return nil
}

// Get returns one reservation of the hotel.
func (s *ReservationService) Get(ctx context.Context, hotelID, id uint64) (*model.Reservation, error) {
    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    res, err := s.Reservations.GetByID(ctx, s.db, hotelID, id)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, NotFoundError{Resource: "reservation", Err: err}
    }
    return res, err
}

// ListQuery filters List.  From/To are optional dates bounding the stay.
type ListQuery struct {
    From   string
    To     string
    Limit  int
    Offset int
}

// List returns the hotel's reservations, most recent check-in first.
func (s *ReservationService) List(ctx context.Context, hotelID uint64, q ListQuery) ([]model.Reservation, error) {
    if hotelID == 0 {
        return nil, UnauthorizedError{Msg: "hotel context missing"}
    }
    f := repository.ListFilter{Limit: q.Limit, Offset: q.Offset}
    if q.From != "" {
        t, ok := ParseDate(q.From)
        if !ok {
            return nil, ValidationError{Field: "from", Msg: "invalid date"}
        }
        f.From = t
    }
    if q.To != "" {
        t, ok := ParseDate(q.To)
        if !ok {
            return nil, ValidationError{Field: "to", Msg: "invalid date"}
        }
        f.To = t
    }
    out, err := s.Reservations.ListByHotel(ctx, hotelID, f)
    if err != nil {
        return nil, err
    }
    if out == nil {
        out = []model.Reservation{}
    }
    return out, nil
}
