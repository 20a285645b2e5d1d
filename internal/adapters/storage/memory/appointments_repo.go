package memory

import (
	"context"
	"sort"
	"time"

	"petcare-backend/internal/domain/booking"
)

type appointmentRepo struct{ s *Store }

// conflict se llama con el lock tomado.
func (r appointmentRepo) conflict(a booking.Appointment) bool {
	for _, other := range r.s.appointments {
		if a.ConflictsWith(other) {
			return true
		}
	}
	return false
}

func (r appointmentRepo) Create(ctx context.Context, a booking.Appointment) error {
	defer r.s.lock(ctx)()

	if r.conflict(a) {
		return booking.ErrSlotTaken
	}
	put(ctx, r.s, r.s.appointments, a.ID, a)
	return nil
}

func (r appointmentRepo) Update(ctx context.Context, a booking.Appointment) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.appointments[a.ID]; !ok {
		return booking.ErrNotFound
	}
	if r.conflict(a) {
		return booking.ErrSlotTaken
	}
	put(ctx, r.s, r.s.appointments, a.ID, a)
	return nil
}

func (r appointmentRepo) GetByID(ctx context.Context, id string) (booking.Appointment, error) {
	defer r.s.rlock(ctx)()

	a, ok := r.s.appointments[id]
	if !ok {
		return booking.Appointment{}, booking.ErrNotFound
	}
	return a, nil
}

func (r appointmentRepo) GetForUpdate(ctx context.Context, id string) (booking.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r appointmentRepo) List(ctx context.Context, f booking.ListFilter) ([]booking.Appointment, int, error) {
	defer r.s.rlock(ctx)()

	out := make([]booking.Appointment, 0)
	for _, a := range r.s.appointments {
		switch {
		case f.CustomerID != "" && a.CustomerID != f.CustomerID:
			continue
		case f.StaffID != "" && a.StaffID != f.StaffID:
			continue
		case f.PetID != "" && a.PetID != f.PetID:
			continue
		case f.Status != "" && a.Status != f.Status:
			continue
		case f.From != nil && a.Date.Before(*f.From):
			continue
		case f.To != nil && a.Date.After(*f.To):
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return window(out, f.Offset, f.Limit), len(out), nil
}

func (r appointmentRepo) ListLiveByDate(ctx context.Context, date time.Time, staffID string) ([]booking.Appointment, error) {
	defer r.s.rlock(ctx)()

	out := make([]booking.Appointment, 0)
	for _, a := range r.s.appointments {
		if !a.Live() || !booking.SameDay(a.Date, date) {
			continue
		}
		if staffID != "" && a.StaffID != staffID {
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

// día y franja ascendentes
func sortAppointments(out []booking.Appointment) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].TimeSlot != out[j].TimeSlot {
			return out[i].TimeSlot < out[j].TimeSlot
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
