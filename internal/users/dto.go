package users

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []RoleDTO `json:"roles"`
}

type RoleDTO struct {
	ID   uuid.UUID      `json:"id"`
	Name enums.RoleName `json:"name"`
}

// IsAdmin is used by the user list page.
func (u UserDTO) IsAdmin() bool {
	for _, role := range u.Roles {
		if role.Name == enums.RoleAdmin {
			return true
		}
	}
	return false
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Username     string
	Email        string
	PasswordHash string
	RoleIDs      []uuid.UUID
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	roles := make([]RoleDTO, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, RoleDTO{ID: role.ID, Name: role.Name})
	}
	return &UserDTO{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Roles:    roles,
	}
}

func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Name:         c.Name,
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
	}
}
