package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
)

type Role struct {
	ID   uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name enums.RoleName `gorm:"column:name;not null;uniqueIndex"`
}

func (Role) TableName() string { return "roles" }

// UserRole is a row of the user/role join table.
type UserRole struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	RoleID uuid.UUID `gorm:"column:role_id;type:uuid;primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }
