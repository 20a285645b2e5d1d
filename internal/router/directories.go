package router

import (
	"context"

	"petcare-backend/internal/domain/booking"
	"petcare-backend/internal/domain/users"
)

// staffDirectory adapta users.Service a lo que booking necesita del staff.
type staffDirectory struct {
	users *users.Service
}

func (d staffDirectory) GetStaff(ctx context.Context, id string) (booking.StaffMember, error) {
	u, err := d.users.GetStaff(ctx, id)
	if err != nil {
		return booking.StaffMember{}, err
	}
	return booking.StaffMember{ID: u.ID, Name: u.Name}, nil
}

func (d staffDirectory) ListStaff(ctx context.Context) ([]booking.StaffMember, error) {
	items, err := d.users.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]booking.StaffMember, 0, len(items))
	for _, u := range items {
		out = append(out, booking.StaffMember{ID: u.ID, Name: u.Name})
	}
	return out, nil
}

// authorDirectory resuelve el nombre visible del autor de una noticia.
type authorDirectory struct {
	users *users.Service
}

func (d authorDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	u, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}
