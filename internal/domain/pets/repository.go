package pets

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
	List(ctx context.Context, f ListFilter) ([]Pet, int, error)

	// AddMedicalRecord agrega una entrada al historial sin reescribir el resto del documento.
	AddMedicalRecord(ctx context.Context, petID string, rec MedicalRecord, updatedAt time.Time) error
}
