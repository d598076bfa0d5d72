package model

import "time"

// Staff roles.  ADMIN is created together with the hotel at registration;
// STAFF accounts are added by an admin.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// User represents a hotel staff account as stored in the `users` table.
// The json tags are omitted because handlers expose their own response
// types; PasswordHash must never leave the server.
//
// Fields:
//  ID           – primary key identifier of the user.
//  HotelID      – tenant the account works for; copied into every JWT.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or STAFF.
//  IsActive     – whether the account may log in.
type User struct {
    ID           uint64    // users.id
    HotelID      uint64    // users.hotel_id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token value is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
