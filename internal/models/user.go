package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserLevel represents the authorization level of a directory user.
type UserLevel string

const (
	LevelAdmin UserLevel = "admin"
	LevelUser  UserLevel = "user"
)

// User represents a directory entry in the users table. Records are soft
// deleted: is_del marks a user invisible to every listing and join.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Code         string    `db:"code" json:"code"`
	Prefix       string    `db:"prefix" json:"prefix"`
	Firstname    string    `db:"firstname" json:"firstname"`
	Lastname     string    `db:"lastname" json:"lastname"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	IsDel        bool      `db:"is_del" json:"-"`
	Level        UserLevel `db:"level" json:"level"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserInfo describes a user in responses, credential hash excluded.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	Prefix    string    `json:"prefix"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Level     UserLevel `json:"level"`
}

// Info projects the user onto its response shape.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Code:      u.Code,
		Prefix:    u.Prefix,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Level:     u.Level,
	}
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the authenticated user; the token itself travels
// in an httpOnly cookie, never in the body.
type LoginResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Level    UserLevel `json:"level"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewID generates a 24-hex-character identifier, the shape all primary
// keys in the system share (filter validation depends on it).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
