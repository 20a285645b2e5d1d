package booking

import (
	"context"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/ports/tx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput     = apperr.New(apperr.KindValidation, "invalid input")
	ErrNotFound         = apperr.New(apperr.KindNotFound, "appointment not found")
	ErrSlotTaken        = apperr.New(apperr.KindConflict, "time slot already booked for this staff member")
	ErrPetNotOwned      = apperr.New(apperr.KindValidation, "pet does not belong to this customer")
	ErrNotEditable      = apperr.New(apperr.KindValidation, "appointment can no longer be modified")
	ErrAlreadyCancelled = apperr.New(apperr.KindValidation, "appointment is already cancelled")
	ErrBadTransition    = apperr.New(apperr.KindValidation, "invalid status transition")
)

// transiciones válidas de UpdateStatus
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

type Service struct {
	repo  Repository
	tx    tx.Manager
	pets  PetOwnership
	staff StaffDirectory
	log   logger.Logger
	loc   *time.Location
	now   func() time.Time
}

// NewService: loc es la zona en la que se interpreta "hoy" para rechazar fechas pasadas.
// Los cambios sobre un turno existente leen y escriben dentro de txm con el turno bloqueado.
func NewService(repo Repository, txm tx.Manager, pets PetOwnership, staff StaffDirectory, log logger.Logger, loc *time.Location) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:  repo,
		tx:    txm,
		pets:  pets,
		staff: staff,
		log:   log.With(map[string]any{"module": "booking"}),
		loc:   loc,
		now:   time.Now,
	}
}

type CreateInput struct {
	CustomerID string
	PetID      string
	StaffID    string
	Service    string
	Date       string // YYYY-MM-DD
	TimeSlot   string
	Notes      string
	Price      decimal.Decimal
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return Appointment{}, ErrInvalidInput.With("customer is required")
	}
	service := strings.TrimSpace(in.Service)
	if service == "" {
		return Appointment{}, ErrInvalidInput.With("service is required")
	}
	slot, err := parseSlot(in.TimeSlot)
	if err != nil {
		return Appointment{}, err
	}
	date, err := s.parseBookableDate(in.Date)
	if err != nil {
		return Appointment{}, err
	}
	if in.Price.IsNegative() {
		return Appointment{}, ErrInvalidInput.With("price cannot be negative")
	}

	petID := strings.TrimSpace(in.PetID)
	if err := s.checkPet(ctx, petID, customerID); err != nil {
		return Appointment{}, err
	}

	staffID := strings.TrimSpace(in.StaffID)
	if staffID != "" {
		if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
			return Appointment{}, err
		}
	}

	now := s.now()
	a := Appointment{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		PetID:      petID,
		StaffID:    staffID,
		Service:    service,
		Date:       date,
		TimeSlot:   slot,
		Status:     StatusPending,
		Notes:      strings.TrimSpace(in.Notes),
		Price:      in.Price.Round(2),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}

	s.log.Info("appointment booked", map[string]any{
		"appointment_id": a.ID,
		"staff_id":       a.StaffID,
		"date":           FormatDate(a.Date),
		"slot":           string(a.TimeSlot),
	})
	return a, nil
}

type UpdateInput struct {
	StaffID  *string // "" = quitar staff
	Date     *string
	TimeSlot *string
	Service  *string
	Notes    *string
	Price    *decimal.Decimal
}

// Update modifica un turno pendiente o confirmado. Si cambia staff, día o franja
// el repositorio vuelve a chequear conflicto excluyendo este mismo turno.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	var a Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if a.Status.Terminal() {
			return ErrNotEditable
		}
		if err := s.apply(ctx, &a, in); err != nil {
			return err
		}
		a.UpdatedAt = s.now()
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) apply(ctx context.Context, a *Appointment, in UpdateInput) error {
	if in.StaffID != nil {
		staffID := strings.TrimSpace(*in.StaffID)
		if staffID != "" && staffID != a.StaffID {
			if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
				return err
			}
		}
		a.StaffID = staffID
	}
	if in.Date != nil {
		date, err := s.parseBookableDate(*in.Date)
		if err != nil {
			return err
		}
		a.Date = date
	}
	if in.TimeSlot != nil {
		slot, err := parseSlot(*in.TimeSlot)
		if err != nil {
			return err
		}
		a.TimeSlot = slot
	}
	if in.Service != nil {
		service := strings.TrimSpace(*in.Service)
		if service == "" {
			return ErrInvalidInput.With("service cannot be empty")
		}
		a.Service = service
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return ErrInvalidInput.With("price cannot be negative")
		}
		a.Price = in.Price.Round(2)
	}
	return nil
}

// UpdateStatus (staff/admin): pending -> confirmed|cancelled, confirmed -> completed|cancelled.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Appointment, error) {
	if !next.Valid() {
		return Appointment{}, ErrInvalidInput.With("unknown status")
	}
	if next == StatusCancelled {
		return s.Cancel(ctx, id)
	}

	var a Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if !canTransition(a.Status, next) {
			return ErrBadTransition.With("cannot move appointment from " + string(a.Status) + " to " + string(next))
		}
		a.Status = next
		a.UpdatedAt = s.now()
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return Appointment{}, err
	}

	s.log.Info("appointment status updated", map[string]any{"appointment_id": a.ID, "status": string(next)})
	return a, nil
}

// Cancel es un cambio de estado: el turno queda guardado y libera la franja.
func (s *Service) Cancel(ctx context.Context, id string) (Appointment, error) {
	var a Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		switch a.Status {
		case StatusCancelled:
			return ErrAlreadyCancelled
		case StatusCompleted:
			return ErrNotEditable
		}

		now := s.now()
		a.Status = StatusCancelled
		a.CancelledAt = &now
		a.UpdatedAt = now
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return Appointment{}, err
	}

	s.log.Info("appointment cancelled", map[string]any{"appointment_id": a.ID})
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Params) (pagination.Page[Appointment], error) {
	if f.Status != "" && !f.Status.Valid() {
		return pagination.Page[Appointment]{}, ErrInvalidInput.With("unknown status")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return pagination.Page[Appointment]{}, ErrInvalidInput.With("from cannot be after to")
	}

	p = p.Normalize()
	f.Offset, f.Limit = p.Offset(), p.Limit

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Appointment]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// AvailableSlots recorre las 8 franjas del día.
// Con staffID: libre/ocupada para ese profesional.
// Sin staffID: por franja, qué profesionales están libres.
func (s *Service) AvailableSlots(ctx context.Context, dateStr, staffID string) ([]SlotAvailability, error) {
	date, err := ParseDate(strings.TrimSpace(dateStr))
	if err != nil {
		return nil, ErrInvalidInput.With("date must be YYYY-MM-DD")
	}
	staffID = strings.TrimSpace(staffID)

	if staffID != "" {
		if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
			return nil, err
		}
		live, err := s.repo.ListLiveByDate(ctx, date, staffID)
		if err != nil {
			return nil, err
		}

		taken := map[TimeSlot]string{}
		for _, a := range live {
			taken[a.TimeSlot] = a.ID
		}

		out := make([]SlotAvailability, 0, len(Slots))
		for _, slot := range Slots {
			apptID, busy := taken[slot]
			out = append(out, SlotAvailability{Slot: slot, Available: !busy, AppointmentID: apptID})
		}
		return out, nil
	}

	staff, err := s.staff.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	live, err := s.repo.ListLiveByDate(ctx, date, "")
	if err != nil {
		return nil, err
	}

	busy := map[TimeSlot]map[string]bool{}
	for _, a := range live {
		if a.StaffID == "" {
			continue
		}
		if busy[a.TimeSlot] == nil {
			busy[a.TimeSlot] = map[string]bool{}
		}
		busy[a.TimeSlot][a.StaffID] = true
	}

	out := make([]SlotAvailability, 0, len(Slots))
	for _, slot := range Slots {
		free := make([]StaffMember, 0, len(staff))
		for _, st := range staff {
			if !busy[slot][st.ID] {
				free = append(free, st)
			}
		}
		out = append(out, SlotAvailability{Slot: slot, Available: len(free) > 0, AvailableStaff: free})
	}
	return out, nil
}

func (s *Service) checkPet(ctx context.Context, petID, customerID string) error {
	if petID == "" {
		return ErrInvalidInput.With("pet is required")
	}
	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return err
	}
	if owner != customerID {
		return ErrPetNotOwned
	}
	return nil
}

// parseBookableDate exige YYYY-MM-DD y que no sea anterior a hoy (en s.loc).
func (s *Service) parseBookableDate(v string) (time.Time, error) {
	date, err := ParseDate(strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, ErrInvalidInput.With("date must be YYYY-MM-DD")
	}
	if date.Before(Day(s.now(), s.loc)) {
		return time.Time{}, ErrInvalidInput.With("date cannot be in the past")
	}
	return date, nil
}

func parseSlot(v string) (TimeSlot, error) {
	slot := TimeSlot(strings.TrimSpace(v))
	if !slot.Valid() {
		return "", ErrInvalidInput.With("time_slot must be one of the 8 fixed slots")
	}
	return slot, nil
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
