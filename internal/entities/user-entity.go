package entities

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserDisabled:
		return true
	}
	return false
}

type User struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"-"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Actor - пользователь, от имени которого выполняется операция.
type Actor struct {
	ID       uint64
	Username string
	Role     UserRole
}
