package pets

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Pet, int, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if f.OwnerUserID != "" && p.OwnerUserID != f.OwnerUserID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *testRepo) AddMedicalRecord(ctx context.Context, petID string, rec MedicalRecord, updatedAt time.Time) error {
	p, ok := r.byID[petID]
	if !ok {
		return ErrNotFound
	}
	p.MedicalHistory = append(p.MedicalHistory, rec)
	p.UpdatedAt = updatedAt
	r.byID[petID] = p
	return nil
}

func newTestService(now time.Time) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: " Milo ", Species: "Dog"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Name != "Milo" || p.Species != SpeciesDog || p.Sex != SexUnknown {
		t.Fatalf("unexpected pet: %+v", p)
	}

	if _, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", Species: "dragon"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for species, got %v", err)
	}
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", Species: "cat", BirthDate: &future}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for future birth date, got %v", err)
	}
	if _, err := svc.Create(ctx, "", CreateInput{Name: "Milo", Species: "cat"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without owner, got %v", err)
	}
}

func TestService_UpdateProfile_BirthDatePatch(t *testing.T) {
	svc, _ := newTestService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	bd := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	p, _ := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", Species: "dog", BirthDate: &bd})

	// no enviado => no toca
	got, err := svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{Name: strPtr("Milo II")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.BirthDate == nil || got.Name != "Milo II" || got.OwnerUserID != "owner-1" {
		t.Fatalf("unexpected pet after patch: %+v", got)
	}

	// null => limpia
	got, err = svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{BirthDate: OptionalDate{Present: true}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.BirthDate != nil {
		t.Fatalf("expected birth date cleared")
	}

	_, err = svc.UpdateProfile(ctx, p.ID, UpdateProfileInput{BirthDate: OptionalDate{Present: true, Value: strPtr("01/02/2020")}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}

	if _, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_MedicalRecords(t *testing.T) {
	svc, _ := newTestService(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	p, _ := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", Species: "dog"})

	_, err := svc.AddMedicalRecord(ctx, p.ID, "staff-1", MedicalRecordInput{
		Date: "2025-01-10", Type: "checkup", Description: "annual check",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err = svc.AddMedicalRecord(ctx, p.ID, "staff-1", MedicalRecordInput{
		Date: "2025-05-10", Type: "vaccination", Description: "rabies", NextDueDate: "2026-05-10",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	recs, err := svc.ListMedicalRecords(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(recs) != 2 || recs[0].Type != RecordVaccination {
		t.Fatalf("expected newest first, got %+v", recs)
	}

	_, err = svc.AddMedicalRecord(ctx, p.ID, "staff-1", MedicalRecordInput{
		Date: "2025-05-10", Type: "vaccination", Description: "x", NextDueDate: "2025-05-01",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when next due is before date, got %v", err)
	}
	_, err = svc.AddMedicalRecord(ctx, p.ID, "staff-1", MedicalRecordInput{Date: "2025-05-10", Type: "magic", Description: "x"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for type, got %v", err)
	}
	if _, err := svc.AddMedicalRecord(ctx, "missing", "staff-1", MedicalRecordInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Reminders(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	milo, _ := svc.Create(ctx, "owner-1", CreateInput{Name: "Milo", Species: "dog"})
	luna, _ := svc.Create(ctx, "owner-1", CreateInput{Name: "Luna", Species: "cat"})
	other, _ := svc.Create(ctx, "owner-2", CreateInput{Name: "Rex", Species: "dog"})

	add := func(petID, date, typ, next string) {
		t.Helper()
		if _, err := svc.AddMedicalRecord(ctx, petID, "vet", MedicalRecordInput{
			Date: date, Type: typ, Description: "x", NextDueDate: next,
		}); err != nil {
			t.Fatalf("add record: %v", err)
		}
	}

	// vencida y reemplazada por una posterior del mismo tipo => no aparece
	add(milo.ID, "2024-01-01", "vaccination", "2025-01-01")
	add(milo.ID, "2025-01-02", "vaccination", "2026-01-02")
	// vence dentro de la ventana
	add(milo.ID, "2025-03-01", "deworming", "2025-06-10")
	// vencida y vigente
	add(luna.ID, "2024-05-01", "vaccination", "2025-05-20")
	// fuera de ventana
	add(luna.ID, "2025-05-01", "checkup", "2025-12-01")
	// de otro owner
	add(other.ID, "2025-05-01", "deworming", "2025-06-05")

	items, err := svc.Reminders(ctx, "owner-1", 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 reminders, got %d: %+v", len(items), items)
	}

	if items[0].PetID != luna.ID || !items[0].Overdue {
		t.Fatalf("expected overdue luna vaccination first, got %+v", items[0])
	}
	if items[1].PetID != milo.ID || items[1].Type != RecordDeworming || items[1].Overdue || items[1].DaysLeft != 9 {
		t.Fatalf("unexpected second reminder: %+v", items[1])
	}

	if _, err := svc.Reminders(ctx, "owner-1", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for window 0, got %v", err)
	}
}
