package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Hotels *repository.HotelRepo
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
    now    func() time.Time
}

func NewAuthHandler(cfg config.Config, hotels *repository.HotelRepo, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Hotels: hotels, Users: u, Tokens: t, now: func() time.Time { return time.Now().UTC() }}
}

// ----- DTOs -----

type registerReq struct {
    HotelName string `json:"hotel_name" validate:"required,max=150"`
    Email     string `json:"email" validate:"required,email"`
    Password  string `json:"password" validate:"required,min=8"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type createStaffReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=8"`
    Role     string `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID      uint64 `json:"id"`
    HotelID uint64 `json:"hotel_id"`
    Email   string `json:"email"`
    Role    string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair for u and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{UserID: u.ID, HotelID: u.HotelID, Role: u.Role}, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register creates a hotel with its first ADMIN account and returns tokens.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.HotelName = strings.TrimSpace(req.HotelName)
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Users.DB.BeginTx(ctx, nil)
    if err != nil {
        return respondError(c, err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    hotel := &model.Hotel{Name: req.HotelName}
    if err := h.Hotels.CreateTx(ctx, tx, hotel); err != nil {
        return respondError(c, err)
    }
    uid, err := h.Users.CreateTx(ctx, tx, hotel.ID, req.Email, req.Password, model.RoleAdmin, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return fail(c, http.StatusConflict, "email already exists")
        }
        return respondError(c, err)
    }
    if err := tx.Commit(); err != nil {
        return respondError(c, err)
    }
    committed = true

    resp, err := h.issue(ctx, userPart{ID: uid, HotelID: hotel.ID, Email: req.Email, Role: model.RoleAdmin})
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, "invalid credentials")
        }
        return respondError(c, err)
    }
    if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return fail(c, http.StatusUnauthorized, "invalid credentials")
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, HotelID: u.HotelID, Email: u.Email, Role: u.Role})
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, resp)
}

// Refresh rotates a refresh token.  Only the caller that actually revokes
// the old token gets a new pair, so a replayed token fails.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, "refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash, h.now())
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusUnauthorized, "invalid refresh")
        }
        return respondError(c, err)
    }
    revoked, err := h.Tokens.RevokeByHash(ctx, hash)
    if err != nil {
        return respondError(c, err)
    }
    if !revoked {
        return fail(c, http.StatusUnauthorized, "invalid refresh")
    }

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, "invalid refresh")
        }
        return respondError(c, err)
    }
    if !u.IsActive {
        return fail(c, http.StatusUnauthorized, "invalid refresh")
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, HotelID: u.HotelID, Email: u.Email, Role: u.Role})
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if refreshToken != "" {
        if _, err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(refreshToken)); err != nil {
            return respondError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(authHeader, "Bearer ") {
        return fail(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
    }
    claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
    if err != nil {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity and hotel.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    hotel, err := h.Hotels.GetByID(c.Request().Context(), hotelID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return fail(c, http.StatusUnauthorized, "unauthorized")
        }
        return respondError(c, err)
    }
    return ok(c, http.StatusOK, echo.Map{
        "user_id":    uid,
        "hotel_id":   hotel.ID,
        "hotel_name": hotel.Name,
        "role":       middleware.Role(c),
    })
}

// CreateStaff lets an ADMIN add an account to their own hotel.
func (h *AuthHandler) CreateStaff(c echo.Context) error {
    hotel := hotelID(c)
    if hotel == 0 {
        return fail(c, http.StatusUnauthorized, "unauthorized")
    }
    var req createStaffReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, err.Error())
    }
    if req.Role == "" {
        req.Role = model.RoleStaff
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Users.DB.BeginTx(ctx, nil)
    if err != nil {
        return respondError(c, err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    uid, err := h.Users.CreateTx(ctx, tx, hotel, req.Email, req.Password, req.Role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return fail(c, http.StatusConflict, "email already exists")
        }
        return respondError(c, err)
    }
    if err := tx.Commit(); err != nil {
        return respondError(c, err)
    }
    committed = true
    return ok(c, http.StatusCreated, userPart{ID: uid, HotelID: hotel, Email: req.Email, Role: req.Role})
}
