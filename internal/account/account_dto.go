package account

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateAccountRequest struct {
	Username      string  `json:"username" binding:"required,min=3,max=100"`
	Secret        string  `json:"secret" binding:"required,min=6"`
	Role          string  `json:"role" binding:"omitempty,oneof=employee admin"`
	FullName      string  `json:"full_name" binding:"required"`
	Department    string  `json:"department"`
	Position      string  `json:"position"`
	RemainingDays float64 `json:"remaining_days" binding:"gte=0"`
	DOB           string  `json:"dob"`
	Phone         string  `json:"phone"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1"`
	DOB      *string `json:"dob"`
	Phone    *string `json:"phone"`
}

type AdjustBalanceRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}

type AccountResponse struct {
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Role          string     `json:"role"`
	Department    string     `json:"department"`
	Position      string     `json:"position"`
	RemainingDays float64    `json:"remaining_days"`
	DOB           string     `json:"dob,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AdjustmentResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Delta     float64   `json:"delta"`
	Reference string    `json:"reference,omitempty"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Applied   bool      `json:"applied"`
}

func ToResponse(a Account) AccountResponse {
	resp := AccountResponse{
		Username:      a.Username,
		FullName:      a.FullName,
		Role:          a.Role,
		Department:    a.Department,
		Position:      a.Position,
		RemainingDays: a.RemainingDays.InexactFloat64(),
		Phone:         a.Phone,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
	}
	if a.DOB != nil {
		resp.DOB = a.DOB.Format(dateLayout)
	}
	return resp
}

func mapToListResponse(accounts []Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, ToResponse(a))
	}
	return out
}

func mapAdjustment(a BalanceAdjustment, applied bool) AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:        a.ID.String(),
		Username:  a.Username,
		Delta:     a.Delta.InexactFloat64(),
		Reason:    a.Reason,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		Applied:   applied,
	}
	if a.Reference != nil {
		resp.Reference = *a.Reference
	}
	return resp
}

// IsHalfDayStep reports whether d is a whole multiple of 0.5.
func IsHalfDayStep(d decimal.Decimal) bool {
	return d.Mul(decimal.NewFromInt(2)).IsInteger()
}
