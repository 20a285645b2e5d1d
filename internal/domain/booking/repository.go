package booking

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserta el turno sólo si ningún otro turno vivo ocupa la misma
	// (staff, día, franja). El chequeo y la escritura son una sola operación.
	// Conflicto => ErrSlotTaken.
	Create(ctx context.Context, a Appointment) error

	// Update reescribe el turno con el mismo chequeo, excluyendo a.ID.
	Update(ctx context.Context, a Appointment) error

	GetByID(ctx context.Context, id string) (Appointment, error)

	// GetForUpdate lee el turno bloqueándolo hasta el fin de la transacción en curso.
	GetForUpdate(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, int, error)

	// ListLiveByDate devuelve los turnos no cancelados de un día. staffID vacío = todos.
	ListLiveByDate(ctx context.Context, date time.Time, staffID string) ([]Appointment, error)
}

// PetOwnership resuelve el dueño de una mascota (implementado por pets.Service).
type PetOwnership interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// StaffDirectory expone el staff disponible (implementado sobre users.Service).
type StaffDirectory interface {
	GetStaff(ctx context.Context, id string) (StaffMember, error)
	ListStaff(ctx context.Context) ([]StaffMember, error)
}
