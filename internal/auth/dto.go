package auth

import (
	"time"

	"github.com/angelmondragon/pharmacy-inventory/internal/users"
)

// LoginRequest captures the credentials posted by the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResult carries the signed session token and the signed-in user.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *users.UserDTO `json:"user"`
}
