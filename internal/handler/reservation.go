package handler

import (
    "errors"
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/service"
    "github.com/iliyamo/hotel-reservation/internal/storage"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.  The
// tenant always comes from the access token.
type ReservationHandler struct {
    Service *service.ReservationService
    Photos  *storage.PhotoStore
}

func NewReservationHandler(svc *service.ReservationService, photos *storage.PhotoStore) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Service: svc, Photos: photos}
}

// reservationForm is the create payload, as JSON or as form fields with
// the same names.
type reservationForm struct {
    CheckInDate     FlexString     `json:"checkInDate"`
    CheckOutDate    FlexString     `json:"checkOutDate"`
    NumberOfGuests  FlexString     `json:"numberOfGuests"`
    NumRooms        FlexString     `json:"numRooms"`
    PerDayRate      FlexString     `json:"perDayRate"`
    PerDayTax       FlexString     `json:"perDayTax"`
    TotalAmount     FlexString     `json:"totalAmount"`
    RoomNumbers     RoomNumberList `json:"roomNumbers"`
    RoomType        FlexString     `json:"roomType"`
    RateType        FlexString     `json:"rateType"`
    TaxInclusive    FlexString     `json:"taxInclusive"`
    GuestName       FlexString     `json:"guestName"`
    Email           FlexString     `json:"email"`
    Phone           FlexString     `json:"phone"`
    DOB             FlexString     `json:"dob"`
    Gender          FlexString     `json:"gender"`
    Address         FlexString     `json:"address"`
    City            FlexString     `json:"city"`
    State           FlexString     `json:"state"`
    Country         FlexString     `json:"country"`
    ZipCode         FlexString     `json:"zipCode"`
    Identity        FlexString     `json:"identity"`
    IDDetail        FlexString     `json:"idDetail"`
    IDProof         FlexString     `json:"idProof"`
    BookedBy        FlexString     `json:"bookedBy"`
    BusinessSegment FlexString     `json:"businessSegment"`
    BillTo          FlexString     `json:"billTo"`
    PaymentMode     FlexString     `json:"paymentMode"`
}

func (f *reservationForm) fields() map[string]*FlexString {
    return map[string]*FlexString{
        "checkInDate":     &f.CheckInDate,
        "checkOutDate":    &f.CheckOutDate,
        "numberOfGuests":  &f.NumberOfGuests,
        "numRooms":        &f.NumRooms,
        "perDayRate":      &f.PerDayRate,
        "perDayTax":       &f.PerDayTax,
        "totalAmount":     &f.TotalAmount,
        "roomType":        &f.RoomType,
        "rateType":        &f.RateType,
        "taxInclusive":    &f.TaxInclusive,
        "guestName":       &f.GuestName,
        "email":           &f.Email,
        "phone":           &f.Phone,
        "dob":             &f.DOB,
        "gender":          &f.Gender,
        "address":         &f.Address,
        "city":            &f.City,
        "state":           &f.State,
        "country":         &f.Country,
        "zipCode":         &f.ZipCode,
        "identity":        &f.Identity,
        "idDetail":        &f.IDDetail,
        "idProof":         &f.IDProof,
        "bookedBy":        &f.BookedBy,
        "businessSegment": &f.BusinessSegment,
        "billTo":          &f.BillTo,
        "paymentMode":     &f.PaymentMode,
    }
}

// fillValues copies form fields.  roomNumbers may be a single comma
// separated value or repeated.
func (f *reservationForm) fillValues(values url.Values) {
    for name, dst := range f.fields() {
        if v := values[name]; len(v) > 0 {
            *dst = FlexString(v[0])
        }
    }
    rooms := values["roomNumbers"]
    if len(rooms) == 0 {
        rooms = values["roomNumbers[]"]
    }
    switch len(rooms) {
    case 0:
    case 1:
        f.RoomNumbers = RoomNumberList{Items: service.SplitRoomNumbers(rooms[0]), Raw: rooms[0]}
    default:
        f.RoomNumbers = RoomNumberList{Items: rooms, Raw: strings.Join(service.NormalizeRoomNumbers(rooms), ",")}
    }
}

func (f *reservationForm) input(hotelID uint64, photo string) service.CreateInput {
    return service.CreateInput{
        HotelID:         hotelID,
        CheckIn:         string(f.CheckInDate),
        CheckOut:        string(f.CheckOutDate),
        Guests:          string(f.NumberOfGuests),
        NumRooms:        string(f.NumRooms),
        PerDayRate:      string(f.PerDayRate),
        PerDayTax:       string(f.PerDayTax),
        TotalAmount:     string(f.TotalAmount),
        RoomNumbers:     f.RoomNumbers.Items,
        RoomNo:          f.RoomNumbers.Raw,
        RoomType:        string(f.RoomType),
        RateType:        string(f.RateType),
        TaxInclusive:    parseBool(string(f.TaxInclusive)),
        GuestName:       string(f.GuestName),
        Email:           string(f.Email),
        Phone:           string(f.Phone),
        DOB:             string(f.DOB),
        Gender:          string(f.Gender),
        Address:         string(f.Address),
        City:            string(f.City),
        State:           string(f.State),
        Country:         string(f.Country),
        ZipCode:         string(f.ZipCode),
        Identity:        string(f.Identity),
        IDDetail:        string(f.IDDetail),
        IDProof:         string(f.IDProof),
        PhotoIDPath:     photo,
        BookedBy:        string(f.BookedBy),
        BusinessSegment: string(f.BusinessSegment),
        BillTo:          string(f.BillTo),
        PaymentMode:     string(f.PaymentMode),
    }
}

// Create handles POST /v1/reservations with a JSON, urlencoded or
// multipart body.  A multipart body may carry the guest photo as "photo".
func (h *ReservationHandler) Create(c echo.Context) error {
    hotel := hotelID(c)
    if hotel == 0 {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }

    var form reservationForm
    var photo string
    ct := c.Request().Header.Get(echo.HeaderContentType)
    switch {
    case strings.HasPrefix(ct, echo.MIMEMultipartForm), strings.HasPrefix(ct, echo.MIMEApplicationForm):
        values, err := c.FormParams()
        if err != nil {
            return fail(c, http.StatusBadRequest, "invalid form body")
        }
        form.fillValues(values)
        if fh, err := c.FormFile("photo"); err == nil {
            if h.Photos == nil {
                return fail(c, http.StatusBadRequest, "photo uploads are disabled")
            }
            photo, err = h.Photos.Save(fh)
            if err != nil {
                if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrTooLarge) {
                    return fail(c, http.StatusBadRequest, err.Error())
                }
                return respondError(c, err)
            }
        }
    default:
        if err := c.Bind(&form); err != nil {
            return fail(c, http.StatusBadRequest, "invalid body")
        }
    }

    res, err := h.Service.Create(c.Request().Context(), form.input(hotel, photo))
    if err != nil {
        if photo != "" {
            _ = h.Photos.Remove(photo)
        }
        return respondError(c, err)
    }
    return ok(c, http.StatusCreated, res)
}

// reservationPatch is the PUT/PATCH body.  Absent or null fields are kept.
type reservationPatch struct {
    CheckInDate     *FlexString `json:"checkInDate"`
    CheckOutDate    *FlexString `json:"checkOutDate"`
    NumberOfGuests  *FlexString `json:"numberOfGuests"`
    NumRooms        *FlexString `json:"numRooms"`
    PerDayRate      *FlexString `json:"perDayRate"`
    PerDayTax       *FlexString `json:"perDayTax"`
    TotalAmount     *FlexString `json:"totalAmount"`
    RoomNo          *FlexString `json:"roomNo"`
    RoomType        *FlexString `json:"roomType"`
    RateType        *FlexString `json:"rateType"`
    TaxInclusive    *FlexString `json:"taxInclusive"`
    GuestName       *FlexString `json:"guestName"`
    Email           *FlexString `json:"email"`
    Phone           *FlexString `json:"phone"`
    DOB             *FlexString `json:"dob"`
    Gender          *FlexString `json:"gender"`
    Address         *FlexString `json:"address"`
    City            *FlexString `json:"city"`
    State           *FlexString `json:"state"`
    Country         *FlexString `json:"country"`
    ZipCode         *FlexString `json:"zipCode"`
    Identity        *FlexString `json:"identity"`
    IDDetail        *FlexString `json:"idDetail"`
    IDProof         *FlexString `json:"idProof"`
    BookedBy        *FlexString `json:"bookedBy"`
    BusinessSegment *FlexString `json:"businessSegment"`
    BillTo          *FlexString `json:"billTo"`
    PaymentMode     *FlexString `json:"paymentMode"`
    Status          *FlexString `json:"status"`
}

func (p *reservationPatch) patch() service.Patch {
    out := service.Patch{
        CheckIn:         p.CheckInDate.ptr(),
        CheckOut:        p.CheckOutDate.ptr(),
        Guests:          p.NumberOfGuests.ptr(),
        NumRooms:        p.NumRooms.ptr(),
        PerDayRate:      p.PerDayRate.ptr(),
        PerDayTax:       p.PerDayTax.ptr(),
        TotalAmount:     p.TotalAmount.ptr(),
        RoomNo:          p.RoomNo.ptr(),
        RoomType:        p.RoomType.ptr(),
        RateType:        p.RateType.ptr(),
        GuestName:       p.GuestName.ptr(),
        Email:           p.Email.ptr(),
        Phone:           p.Phone.ptr(),
        DOB:             p.DOB.ptr(),
        Gender:          p.Gender.ptr(),
        Address:         p.Address.ptr(),
        City:            p.City.ptr(),
        State:           p.State.ptr(),
        Country:         p.Country.ptr(),
        ZipCode:         p.ZipCode.ptr(),
        Identity:        p.Identity.ptr(),
        IDDetail:        p.IDDetail.ptr(),
        IDProof:         p.IDProof.ptr(),
        BookedBy:        p.BookedBy.ptr(),
        BusinessSegment: p.BusinessSegment.ptr(),
        BillTo:          p.BillTo.ptr(),
        PaymentMode:     p.PaymentMode.ptr(),
        Status:          p.Status.ptr(),
    }
    if p.TaxInclusive != nil {
        v := parseBool(string(*p.TaxInclusive))
        out.TaxInclusive = &v
    }
    return out
}

// Update handles PUT and PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid reservation id")
    }
    var body reservationPatch
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    res, err := h.Service.Update(c.Request().Context(), hotelID(c), id, body.patch())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, res)
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid reservation id")
    }
    if err := h.Service.Delete(c.Request().Context(), hotelID(c), id); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Reservation deleted successfully"})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid reservation id")
    }
    res, err := h.Service.Get(c.Request().Context(), hotelID(c), id)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, res)
}

// List handles GET /v1/reservations?from=&to=&limit=&offset=.
func (h *ReservationHandler) List(c echo.Context) error {
    q := service.ListQuery{From: c.QueryParam("from"), To: c.QueryParam("to")}
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return fail(c, http.StatusBadRequest, "invalid limit")
        }
        q.Limit = n
    }
    if v := c.QueryParam("offset"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return fail(c, http.StatusBadRequest, "invalid offset")
        }
        q.Offset = n
    }
    items, err := h.Service.List(c.Request().Context(), hotelID(c), q)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, items)
}
