package dto

import "time"

type LoginDTO struct {
	Username string `json:"username" validate:"required,not_blank"`
	Password string `json:"password" validate:"required"`
}

type LoginResponseDTO struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}
