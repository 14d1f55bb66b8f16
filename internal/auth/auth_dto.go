package auth

import (
	"time"

	"go-leave/internal/domain"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

// Device describes where a login came from.
type Device struct {
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
	Evicted   int64
}

type IdentityResponse struct {
	Username      string    `json:"username"`
	FullName      string    `json:"full_name"`
	Role          string    `json:"role"`
	Department    string    `json:"department"`
	Position      string    `json:"position"`
	RemainingDays float64   `json:"remaining_days"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      IdentityResponse `json:"user"`
}

type SessionResponse struct {
	IDHint    string    `json:"id_hint"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Current   bool      `json:"current"`
}

func toIdentityResponse(id domain.Identity) IdentityResponse {
	return IdentityResponse{
		Username:      id.Username,
		FullName:      id.FullName,
		Role:          id.Role,
		Department:    id.Department,
		Position:      id.Position,
		RemainingDays: id.RemainingDays.InexactFloat64(),
		ExpiresAt:     id.ExpiresAt,
	}
}
