package dto

import (
	"time"

	"it-inventory/internal/entities"
)

type CreateUserDTO struct {
	Username string `json:"username" validate:"required,not_blank,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"required,oneof=admin operator"`
}

type UpdateUserDTO struct {
	Username *string `json:"username,omitempty" validate:"omitempty,not_blank,min=3,max=50"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role,omitempty"     validate:"omitempty,oneof=admin operator"`
}

type ChangeUserStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUserDTO(u *entities.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
