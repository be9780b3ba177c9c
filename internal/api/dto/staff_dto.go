package dto

import (
	"time"

	"github.com/spec-kit/production-booking/internal/domain"
)

// RegisterStaffRequest payload.
type RegisterStaffRequest struct {
	Name  string             `json:"name" validate:"required,max=200"`
	Roles []domain.StaffRole `json:"roles" validate:"required,min=1,dive,required"`
}

// StaffResponse is the wire shape of a crew member.
type StaffResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Roles     []domain.StaffRole `json:"roles"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
