package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/pagination"

	"github.com/shopspring/decimal"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID map[string]Appointment
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Appointment{}}
}

func (r *testRepo) conflict(a Appointment) bool {
	for _, other := range r.byID {
		if a.ConflictsWith(other) {
			return true
		}
	}
	return false
}

func (r *testRepo) Create(ctx context.Context, a Appointment) error {
	if r.conflict(a) {
		return ErrSlotTaken
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(ctx context.Context, a Appointment) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	if r.conflict(a) {
		return ErrSlotTaken
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) GetForUpdate(ctx context.Context, id string) (Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if f.CustomerID != "" && a.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (r *testRepo) ListLiveByDate(ctx context.Context, date time.Time, staffID string) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if !a.Live() || !SameDay(a.Date, date) {
			continue
		}
		if staffID != "" && a.StaffID != staffID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

var errPetMissing = apperr.New(apperr.KindNotFound, "pet not found")

type testPets map[string]string // petID -> owner

func (p testPets) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := p[petID]
	if !ok {
		return "", errPetMissing
	}
	return owner, nil
}

var errStaffMissing = apperr.New(apperr.KindNotFound, "staff member not found")

type testStaff []StaffMember

func (s testStaff) GetStaff(ctx context.Context, id string) (StaffMember, error) {
	for _, m := range s {
		if m.ID == id {
			return m, nil
		}
	}
	return StaffMember{}, errStaffMissing
}

func (s testStaff) ListStaff(ctx context.Context) ([]StaffMember, error) {
	return s, nil
}

type testTx struct{}

func (testTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	pets := testPets{"pet-1": "cust-1", "pet-2": "cust-2"}
	staff := testStaff{{ID: "d1", Name: "Dr. One"}, {ID: "d2", Name: "Dr. Two"}}

	svc := NewService(repo, testTx{}, pets, staff, nil, time.UTC)
	svc.now = func() time.Time { return time.Date(2025, 5, 30, 15, 0, 0, 0, time.UTC) }
	return svc, repo
}

func baseInput() CreateInput {
	return CreateInput{
		CustomerID: "cust-1",
		PetID:      "pet-1",
		StaffID:    "d1",
		Service:    "grooming",
		Date:       "2025-06-01",
		TimeSlot:   "09:00-10:00",
		Price:      decimal.NewFromInt(25),
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_DoubleBookingThenCancelFreesSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, baseInput())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Status != StatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	// mismo staff/día/franja, otro cliente
	dup := baseInput()
	dup.CustomerID, dup.PetID = "cust-2", "pet-2"
	if _, err := svc.Create(ctx, dup); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	cancelled, err := svc.Cancel(ctx, first.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled appointment: %+v", cancelled)
	}

	if _, err := svc.Create(ctx, dup); err != nil {
		t.Fatalf("expected slot to be free after cancel, got %v", err)
	}

	// el cancelado sigue existiendo
	if _, err := svc.Get(ctx, first.ID); err != nil {
		t.Fatalf("cancelled appointment must not be deleted: %v", err)
	}
}

func TestService_Create_NoConflictAcrossStaffDaysOrWithoutStaff(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, baseInput()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	otherStaff := baseInput()
	otherStaff.StaffID = "d2"
	if _, err := svc.Create(ctx, otherStaff); err != nil {
		t.Fatalf("other staff same slot should be allowed: %v", err)
	}

	otherDay := baseInput()
	otherDay.Date = "2025-06-02"
	if _, err := svc.Create(ctx, otherDay); err != nil {
		t.Fatalf("same staff other day should be allowed: %v", err)
	}

	noStaff := baseInput()
	noStaff.StaffID = ""
	if _, err := svc.Create(ctx, noStaff); err != nil {
		t.Fatalf("unassigned appointment should not conflict: %v", err)
	}
	if _, err := svc.Create(ctx, noStaff); err != nil {
		t.Fatalf("second unassigned appointment should not conflict: %v", err)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		mod  func(*CreateInput)
		want error
	}{
		{"bad slot", func(in *CreateInput) { in.TimeSlot = "12:00-13:00" }, ErrInvalidInput},
		{"bad date", func(in *CreateInput) { in.Date = "01/06/2025" }, ErrInvalidInput},
		{"past date", func(in *CreateInput) { in.Date = "2025-05-29" }, ErrInvalidInput},
		{"no service", func(in *CreateInput) { in.Service = " " }, ErrInvalidInput},
		{"negative price", func(in *CreateInput) { in.Price = decimal.NewFromInt(-1) }, ErrInvalidInput},
		{"foreign pet", func(in *CreateInput) { in.PetID = "pet-2" }, ErrPetNotOwned},
		{"missing pet", func(in *CreateInput) { in.PetID = "ghost" }, errPetMissing},
		{"unknown staff", func(in *CreateInput) { in.StaffID = "nobody" }, errStaffMissing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			tc.mod(&in)
			if _, err := svc.Create(ctx, in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// hoy sí es reservable
	today := baseInput()
	today.Date = "2025-05-30"
	if _, err := svc.Create(ctx, today); err != nil {
		t.Fatalf("today should be bookable: %v", err)
	}
}

func TestService_Update_ExcludesItselfAndDetectsConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, baseInput())

	other := baseInput()
	other.TimeSlot = "10:00-11:00"
	b, err := svc.Create(ctx, other)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// mismo staff/día/franja que ya tiene: no es conflicto consigo mismo
	notes := "bring vaccination card"
	slot := string(a.TimeSlot)
	if _, err := svc.Update(ctx, a.ID, UpdateInput{TimeSlot: &slot, Notes: &notes}); err != nil {
		t.Fatalf("update without moving should succeed: %v", err)
	}

	// mover b a la franja de a => conflicto
	taken := "09:00-10:00"
	if _, err := svc.Update(ctx, b.ID, UpdateInput{TimeSlot: &taken}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// mover b a otro staff en esa franja => ok
	d2 := "d2"
	moved, err := svc.Update(ctx, b.ID, UpdateInput{TimeSlot: &taken, StaffID: &d2})
	if err != nil {
		t.Fatalf("expected move to other staff to succeed: %v", err)
	}
	if moved.StaffID != "d2" || moved.TimeSlot != Slot0900 {
		t.Fatalf("unexpected moved appointment: %+v", moved)
	}

	// cancelado no se edita
	_, _ = svc.Cancel(ctx, a.ID)
	if _, err := svc.Update(ctx, a.ID, UpdateInput{Notes: &notes}); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestService_UpdateStatus_Transitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, baseInput())

	if _, err := svc.UpdateStatus(ctx, a.ID, StatusCompleted); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("pending -> completed must fail, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, a.ID, "archived"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status must fail, got %v", err)
	}

	got, err := svc.UpdateStatus(ctx, a.ID, StatusConfirmed)
	if err != nil || got.Status != StatusConfirmed {
		t.Fatalf("confirm: %v %+v", err, got)
	}
	got, err = svc.UpdateStatus(ctx, a.ID, StatusCompleted)
	if err != nil || got.Status != StatusCompleted {
		t.Fatalf("complete: %v %+v", err, got)
	}

	if _, err := svc.Cancel(ctx, a.ID); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("completed appointment cannot be cancelled, got %v", err)
	}

	b := baseInput()
	b.TimeSlot = "13:00-14:00"
	bb, _ := svc.Create(ctx, b)
	if _, err := svc.UpdateStatus(ctx, bb.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel via status: %v", err)
	}
	if _, err := svc.Cancel(ctx, bb.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestService_AvailableSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, baseInput()) // d1 09:00

	in := baseInput()
	in.StaffID = "d2"
	in.TimeSlot = "09:00-10:00"
	_, _ = svc.Create(ctx, in) // d2 09:00

	in = baseInput()
	in.TimeSlot = "14:00-15:00"
	c, _ := svc.Create(ctx, in) // d1 14:00, luego se cancela
	_, _ = svc.Cancel(ctx, c.ID)

	slots, err := svc.AvailableSlots(ctx, "2025-06-01", "d1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	for _, s := range slots {
		switch s.Slot {
		case Slot0900:
			if s.Available || s.AppointmentID != a.ID {
				t.Fatalf("09:00 should be booked by %s: %+v", a.ID, s)
			}
		default:
			if !s.Available {
				t.Fatalf("slot %s should be free: %+v", s.Slot, s)
			}
		}
	}

	slots, err = svc.AvailableSlots(ctx, "2025-06-01", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, s := range slots {
		switch s.Slot {
		case Slot0900:
			if s.Available || len(s.AvailableStaff) != 0 {
				t.Fatalf("09:00 should have nobody free: %+v", s)
			}
		default:
			if len(s.AvailableStaff) != 2 {
				t.Fatalf("slot %s should have both staff free: %+v", s.Slot, s)
			}
		}
	}

	if _, err := svc.AvailableSlots(ctx, "tomorrow", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.AvailableSlots(ctx, "2025-06-01", "nobody"); !errors.Is(err, errStaffMissing) {
		t.Fatalf("expected staff not found, got %v", err)
	}
}

func TestService_List_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.List(ctx, ListFilter{Status: "bogus"}, pagination.Params{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.List(ctx, ListFilter{From: &from, To: &to}, pagination.Params{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}
