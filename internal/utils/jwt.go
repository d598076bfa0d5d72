package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry.  Access tokens are
// short‑lived and sent in the Authorization header.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is a long‑lived opaque token used to obtain new access
// tokens.  Only HashRefreshRaw(Raw) is stored server side.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Claims is what the API reads back from an access token.  HotelID is the
// tenant every request is scoped to; it is never taken from client input.
type Claims struct {
    UserID  uint64
    HotelID uint64
    Role    string
}

// ErrInvalidToken covers bad signatures, wrong algorithms, expiry and
// missing claims.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT carrying sub, hotel_id,
// role, exp and iat.
func NewAccessToken(secret string, c Claims, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":      strconv.FormatUint(c.UserID, 10),
        "hotel_id": strconv.FormatUint(c.HotelID, 10),
        "role":     c.Role,
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret (HMAC only) and extracts the
// claims.  sub and hotel_id must both be present and non-zero.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }
    uid, ok1 := claimUint(mc["sub"])
    hid, ok2 := claimUint(mc["hotel_id"])
    if !ok1 || !ok2 || uid == 0 || hid == 0 {
        return Claims{}, ErrInvalidToken
    }
    role, _ := mc["role"].(string)
    return Claims{UserID: uid, HotelID: hid, Role: role}, nil
}

// claimUint accepts numeric claims encoded as JSON numbers or strings.
func claimUint(v any) (uint64, bool) {
    switch t := v.(type) {
    case float64:
        if t < 0 {
            return 0, false
        }
        return uint64(t), true
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        return n, err == nil
    }
    return 0, false
}

// NewRefreshToken returns a cryptographically secure random token and its
// expiration time ttlDays from now.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA‑256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
