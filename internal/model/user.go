package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Bookings reference users by ID; the allocator only
// ever sees that ID.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address used to log in.
//  Name         – display name.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `db:"id"`
    Email        string    `db:"email"`
    Name         string    `db:"name"`
    PasswordHash string    `db:"password_hash"`
    CreatedAt    time.Time `db:"created_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     `db:"id"`
    UserID    uint64     `db:"user_id"`
    TokenHash string     `db:"token_hash"`
    ExpiresAt time.Time  `db:"expires_at"`
    RevokedAt *time.Time `db:"revoked_at"`
    CreatedAt time.Time  `db:"created_at"`
}
