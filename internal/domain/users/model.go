package users

import (
	"time"

	"petcare-backend/internal/ports/auth"
)

// User es una cuenta del sistema. El rol define qué puede hacer (ver policy).
type User struct {
	ID           string
	Email        string // único, siempre en minúsculas
	PasswordHash string
	Role         auth.Role

	Name    string
	Phone   string
	Address string

	// Sólo staff
	Specialization string
	Bio            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsStaff() bool { return u.Role == auth.RoleStaff }

type ListFilter struct {
	Role   auth.Role // vacío = todos
	Offset int
	Limit  int
}
