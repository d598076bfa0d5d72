package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/service"
)

// RoomHandler serves room types and the physical units behind them.
type RoomHandler struct {
    Service *service.RoomService
}

func NewRoomHandler(svc *service.RoomService) *RoomHandler {
    return &RoomHandler{Service: svc}
}

type createRoomReq struct {
    Name        string   `json:"name" validate:"required,max=100"`
    RoomType    string   `json:"roomType" validate:"max=50"`
    BasePrice   float64  `json:"basePrice" validate:"gte=0"`
    RoomNumbers []string `json:"roomNumbers" validate:"required,min=1,dive,required"`
}

type setStatusReq struct {
    Status string `json:"status" validate:"required"`
}

type roomResp struct {
    Room  *model.Room      `json:"room"`
    Units []model.RoomUnit `json:"units"`
}

// CreateRoom handles POST /v1/rooms.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
    var req createRoomReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    room, units, err := h.Service.CreateRoom(c.Request().Context(), hotelID(c), service.RoomInput{
        Name:        req.Name,
        RoomType:    req.RoomType,
        BasePrice:   req.BasePrice,
        RoomNumbers: req.RoomNumbers,
    })
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusCreated, roomResp{Room: room, Units: units})
}

// ListRooms handles GET /v1/rooms.
func (h *RoomHandler) ListRooms(c echo.Context) error {
    rooms, err := h.Service.ListRooms(c.Request().Context(), hotelID(c))
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, rooms)
}

// ListUnits handles GET /v1/room-units?status=.
func (h *RoomHandler) ListUnits(c echo.Context) error {
    units, err := h.Service.ListUnits(c.Request().Context(), hotelID(c), c.QueryParam("status"))
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, units)
}

// SetUnitStatus handles PATCH /v1/room-units/:id/status.
func (h *RoomHandler) SetUnitStatus(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return fail(c, http.StatusBadRequest, "invalid room unit id")
    }
    var req setStatusReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    unit, err := h.Service.SetUnitStatus(c.Request().Context(), hotelID(c), id, req.Status)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, unit)
}
