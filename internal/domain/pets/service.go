package pets

import (
	"context"
	"sort"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/pagination"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = apperr.New(apperr.KindValidation, "invalid input")
	ErrNotFound     = apperr.New(apperr.KindNotFound, "pet not found")
)

const dateLayout = "2006-01-02"

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	WeightKg  float64
	Microchip string
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput.With("owner is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput.With("name is required")
	}

	species := Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if !species.Valid() {
		return Pet{}, ErrInvalidInput.With("species is invalid")
	}
	sex, err := parseSex(in.Sex)
	if err != nil {
		return Pet{}, err
	}
	if in.WeightKg < 0 {
		return Pet{}, ErrInvalidInput.With("weight cannot be negative")
	}

	now := s.now()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return Pet{}, ErrInvalidInput.With("birth_date cannot be in the future")
	}

	p := Pet{
		ID:             uuid.NewString(),
		OwnerUserID:    strings.TrimSpace(ownerUserID),
		Name:           strings.TrimSpace(in.Name),
		Species:        species,
		Breed:          strings.TrimSpace(in.Breed),
		Sex:            sex,
		BirthDate:      in.BirthDate,
		WeightKg:       in.WeightKg,
		Microchip:      strings.TrimSpace(in.Microchip),
		Notes:          strings.TrimSpace(in.Notes),
		MedicalHistory: []MedicalRecord{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// List pagina mascotas; OwnerUserID vacío lista todas (sólo staff/admin llegan así).
func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Params) (pagination.Page[Pet], error) {
	p = p.Normalize()
	f.Offset, f.Limit = p.Offset(), p.Limit
	if f.Species != "" && !f.Species.Valid() {
		return pagination.Page[Pet]{}, ErrInvalidInput.With("species is invalid")
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Pet]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// OptionalDate distingue "no enviado" de "enviado como null" en un PATCH.
type OptionalDate struct {
	Present bool
	Value   *string // YYYY-MM-DD; nil con Present=true => limpiar
}

type UpdateProfileInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string
	Species   *string
	Breed     *string
	Sex       *string
	BirthDate OptionalDate
	WeightKg  *float64
	Microchip *string
	Notes     *string
}

// UpdateProfile aplica un PATCH. El dueño no se puede cambiar.
func (s *Service) UpdateProfile(ctx context.Context, petID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput.With("name cannot be empty")
		}
		p.Name = name
	}
	if in.Species != nil {
		sp := Species(strings.ToLower(strings.TrimSpace(*in.Species)))
		if !sp.Valid() {
			return Pet{}, ErrInvalidInput.With("species is invalid")
		}
		p.Species = sp
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		sex, err := parseSex(*in.Sex)
		if err != nil {
			return Pet{}, err
		}
		p.Sex = sex
	}
	if in.BirthDate.Present {
		if in.BirthDate.Value == nil {
			p.BirthDate = nil
		} else {
			t, err := time.Parse(dateLayout, strings.TrimSpace(*in.BirthDate.Value))
			if err != nil {
				return Pet{}, ErrInvalidInput.With("birth_date must be YYYY-MM-DD or null")
			}
			if t.After(s.now()) {
				return Pet{}, ErrInvalidInput.With("birth_date cannot be in the future")
			}
			p.BirthDate = &t
		}
	}
	if in.WeightKg != nil {
		if *in.WeightKg < 0 {
			return Pet{}, ErrInvalidInput.With("weight cannot be negative")
		}
		p.WeightKg = *in.WeightKg
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, petID string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(petID))
}

type MedicalRecordInput struct {
	Date         string // YYYY-MM-DD
	Type         string
	Description  string
	Veterinarian string
	NextDueDate  string // YYYY-MM-DD opcional
}

func (s *Service) AddMedicalRecord(ctx context.Context, petID, recordedBy string, in MedicalRecordInput) (MedicalRecord, error) {
	petID = strings.TrimSpace(petID)
	if _, err := s.repo.GetByID(ctx, petID); err != nil {
		return MedicalRecord{}, err
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return MedicalRecord{}, ErrInvalidInput.With("date must be YYYY-MM-DD")
	}
	typ := RecordType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return MedicalRecord{}, ErrInvalidInput.With("record type is invalid")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return MedicalRecord{}, ErrInvalidInput.With("description is required")
	}

	var next *time.Time
	if v := strings.TrimSpace(in.NextDueDate); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return MedicalRecord{}, ErrInvalidInput.With("next_due_date must be YYYY-MM-DD")
		}
		if !t.After(date) {
			return MedicalRecord{}, ErrInvalidInput.With("next_due_date must be after date")
		}
		next = &t
	}

	now := s.now()
	rec := MedicalRecord{
		ID:           uuid.NewString(),
		Date:         date,
		Type:         typ,
		Description:  desc,
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		NextDueDate:  next,
		RecordedBy:   recordedBy,
		CreatedAt:    now,
	}

	if err := s.repo.AddMedicalRecord(ctx, petID, rec, now); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

// ListMedicalRecords devuelve el historial, más reciente primero.
func (s *Service) ListMedicalRecords(ctx context.Context, petID string) ([]MedicalRecord, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return nil, err
	}

	out := append([]MedicalRecord(nil), p.MedicalHistory...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Reminders lista vencimientos (vencidos o dentro de windowDays) de las mascotas del owner.
// Por mascota y tipo sólo cuenta la entrada más reciente: una vacuna aplicada
// después reemplaza al vencimiento anterior.
func (s *Service) Reminders(ctx context.Context, ownerUserID string, windowDays int) ([]Reminder, error) {
	if windowDays < 1 {
		return nil, ErrInvalidInput.With("window must be at least 1 day")
	}

	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := today.AddDate(0, 0, windowDays)

	out := make([]Reminder, 0)
	for _, p := range items {
		latest := map[RecordType]MedicalRecord{}
		for _, rec := range p.MedicalHistory {
			cur, ok := latest[rec.Type]
			if !ok || rec.Date.After(cur.Date) || (rec.Date.Equal(cur.Date) && rec.CreatedAt.After(cur.CreatedAt)) {
				latest[rec.Type] = rec
			}
		}

		for _, rec := range latest {
			if rec.NextDueDate == nil {
				continue
			}
			due := *rec.NextDueDate
			if due.After(limit) {
				continue
			}
			out = append(out, Reminder{
				PetID:    p.ID,
				PetName:  p.Name,
				RecordID: rec.ID,
				Type:     rec.Type,
				Due:      due,
				Overdue:  due.Before(today),
				DaysLeft: int(due.Sub(today).Hours() / 24),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Due.Equal(out[j].Due) {
			return out[i].PetName < out[j].PetName
		}
		return out[i].Due.Before(out[j].Due)
	})
	return out, nil
}

func parseSex(v string) (Sex, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return SexUnknown, nil
	}
	sex := Sex(v)
	if !sex.Valid() {
		return "", ErrInvalidInput.With("sex must be male, female or unknown")
	}
	return sex, nil
}
