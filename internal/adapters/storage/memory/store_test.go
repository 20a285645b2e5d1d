package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"petcare-backend/internal/adapters/payments/mockpay"
	"petcare-backend/internal/domain/booking"
	"petcare-backend/internal/domain/news"
	"petcare-backend/internal/domain/orders"
	"petcare-backend/internal/domain/pets"
	"petcare-backend/internal/domain/products"
	"petcare-backend/internal/domain/users"
	"petcare-backend/internal/ports/auth"

	"github.com/shopspring/decimal"
)

func seedProduct(t *testing.T, s *Store, id string, stock int) {
	t.Helper()
	err := s.Products().Create(context.Background(), products.Product{
		ID:       id,
		Name:     "Product " + id,
		Category: "food",
		Price:    decimal.NewFromInt(10),
		Stock:    stock,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestProducts_ConcurrentReserveNeverOversells(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", 10)
	repo := s.Products()

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Reserve(context.Background(), "p1", 1); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, products.ErrInsufficientStock) {
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 10 {
		t.Fatalf("successful reservations = %d, want 10", ok.Load())
	}
	p, _ := repo.GetByID(context.Background(), "p1")
	if p.Stock != 0 || p.SoldCount != 10 {
		t.Fatalf("unexpected product state: stock=%d sold=%d", p.Stock, p.SoldCount)
	}
}

func TestProducts_ReserveInactive(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", 5)
	ctx := context.Background()

	p, _ := s.Products().GetByID(ctx, "p1")
	p.IsActive = false
	_ = s.Products().Update(ctx, p)

	if _, err := s.Products().Reserve(ctx, "p1", 1); !errors.Is(err, products.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive product, got %v", err)
	}
	if _, err := s.Products().Reserve(ctx, "missing", 1); !errors.Is(err, products.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithinTx_RollsBackEveryWrite(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "a", 5)
	seedProduct(t, s, "b", 1)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Products().Reserve(ctx, "a", 3); err != nil {
			return err
		}
		if err := s.Orders().Create(ctx, orders.Order{ID: "o1", OrderNumber: "ORD-1"}); err != nil {
			return err
		}
		// anidada: se suma a la externa
		if err := s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.Products().Reserve(ctx, "b", 1)
			return err
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	a, _ := s.Products().GetByID(ctx, "a")
	b, _ := s.Products().GetByID(ctx, "b")
	if a.Stock != 5 || a.SoldCount != 0 || b.Stock != 1 {
		t.Fatalf("stock not restored: a=%+v b=%+v", a, b)
	}
	if _, err := s.Orders().GetByID(ctx, "o1"); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("order must be rolled back, got %v", err)
	}

	// commit
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Products().Reserve(ctx, "a", 2)
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	a, _ = s.Products().GetByID(ctx, "a")
	if a.Stock != 3 {
		t.Fatalf("stock = %d, want 3", a.Stock)
	}
}

func TestWithinTx_PanicRollsBackAndReleasesLock(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "a", 5)
	ctx := context.Background()

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected panic to propagate, got %v", r)
			}
		}()
		_ = s.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.Products().Reserve(ctx, "a", 2); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	// si el lock hubiera quedado tomado esto se bloquea
	a, err := s.Products().GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Stock != 5 || a.SoldCount != 0 {
		t.Fatalf("reserve must be undone: stock=%d sold=%d", a.Stock, a.SoldCount)
	}
}

func TestWithinTx_RestoresDeletes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.Pets().Create(ctx, pets.Pet{ID: "pet-1", OwnerUserID: "u1", Name: "Firulais"})

	_ = s.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Pets().Delete(ctx, "pet-1"); err != nil {
			return err
		}
		return errors.New("abort")
	})

	if _, err := s.Pets().GetByID(ctx, "pet-1"); err != nil {
		t.Fatalf("deleted pet must be restored: %v", err)
	}
}

func TestOrders_DuplicateNumber(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Orders().Create(ctx, orders.Order{ID: "o1", OrderNumber: "ORD-20250601-0001"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := s.Orders().Create(ctx, orders.Order{ID: "o2", OrderNumber: "ORD-20250601-0001"})
	if !errors.Is(err, orders.ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
}

func TestAppointments_SlotConflict(t *testing.T) {
	s := NewStore()
	repo := s.Appointments()
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	base := booking.Appointment{
		ID: "a1", StaffID: "d1", Date: day, TimeSlot: booking.Slot0900, Status: booking.StatusPending,
	}
	if err := repo.Create(ctx, base); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := base
	dup.ID = "a2"
	if err := repo.Create(ctx, dup); !errors.Is(err, booking.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// re-guardar el mismo turno no choca consigo mismo
	base.Notes = "edit"
	if err := repo.Update(ctx, base); err != nil {
		t.Fatalf("self update: %v", err)
	}

	base.Status = booking.StatusCancelled
	_ = repo.Update(ctx, base)
	if err := repo.Create(ctx, dup); err != nil {
		t.Fatalf("slot must be free after cancel: %v", err)
	}

	live, _ := repo.ListLiveByDate(ctx, day, "d1")
	if len(live) != 1 || live[0].ID != "a2" {
		t.Fatalf("unexpected live appointments: %+v", live)
	}
}

func TestAppointments_ConcurrentBookingOneWins(t *testing.T) {
	s := NewStore()
	repo := s.Appointments()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(context.Background(), booking.Appointment{
				ID:       "a" + string(rune('A'+i)),
				StaffID:  "d1",
				Date:     day,
				TimeSlot: booking.Slot1000,
				Status:   booking.StatusPending,
			})
			if err == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Fatalf("bookings accepted = %d, want 1", ok.Load())
	}
}

func TestUsers_EmailUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_ = s.Users().Create(ctx, users.User{ID: "u1", Email: "a@b.com", Role: auth.RoleCustomer})
	if err := s.Users().Create(ctx, users.User{ID: "u2", Email: "a@b.com"}); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	_ = s.Users().Create(ctx, users.User{ID: "u3", Email: "staff@b.com", Role: auth.RoleStaff})

	staff, total, _ := s.Users().List(ctx, users.ListFilter{Role: auth.RoleStaff})
	if total != 1 || staff[0].ID != "u3" {
		t.Fatalf("unexpected staff list: %+v", staff)
	}
}

func TestNews_IncrementViewsOnlyPublished(t *testing.T) {
	s := NewStore()
	repo := s.News()
	ctx := context.Background()

	_ = repo.Create(ctx, news.Article{ID: "n1", IsPublished: true, Status: news.StatusApproved})
	_ = repo.Create(ctx, news.Article{ID: "n2", Status: news.StatusPending})

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.IncrementViews(ctx, "n1")
		}()
	}
	wg.Wait()

	a, _ := repo.GetByID(ctx, "n1")
	if a.Views != 25 {
		t.Fatalf("views = %d, want 25", a.Views)
	}
	if _, err := repo.IncrementViews(ctx, "n2"); !errors.Is(err, news.ErrNotFound) {
		t.Fatalf("unpublished article must not count views, got %v", err)
	}
}

func TestPets_MedicalHistoryIsCopied(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.Pets().Create(ctx, pets.Pet{ID: "p1", OwnerUserID: "u1"})

	now := time.Now()
	_ = s.Pets().AddMedicalRecord(ctx, "p1", pets.MedicalRecord{ID: "r1", Type: pets.RecordVaccination}, now)

	p, _ := s.Pets().GetByID(ctx, "p1")
	if len(p.MedicalHistory) != 1 {
		t.Fatalf("expected 1 record, got %d", len(p.MedicalHistory))
	}
	p.MedicalHistory[0].Description = "mutated"

	again, _ := s.Pets().GetByID(ctx, "p1")
	if again.MedicalHistory[0].Description == "mutated" {
		t.Fatalf("store must not share slices with callers")
	}
}

func newOrdersService(s *Store) *orders.Service {
	return orders.NewService(s.Orders(), products.NewService(s.Products()), s, mockpay.New(1), nil)
}

func placeOrder(t *testing.T, svc *orders.Service, productID string, qty int) orders.Order {
	t.Helper()
	o, err := svc.Create(context.Background(), orders.CreateInput{
		CustomerID:    "u1",
		Items:         []orders.ItemInput{{ProductID: productID, Quantity: qty}},
		Shipping:      orders.Shipping{FullName: "Ana", Phone: "555", Address: "Calle 1", City: "Lima"},
		PaymentMethod: "credit_card",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestOrders_ConcurrentCancelReleasesStockOnce(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", 5)
	svc := newOrdersService(s)
	o := placeOrder(t, svc, "p1", 3)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Cancel(context.Background(), o.ID); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, orders.ErrNotCancellable) {
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Fatalf("successful cancels = %d, want 1", ok.Load())
	}
	p, _ := s.Products().GetByID(context.Background(), "p1")
	if p.Stock != 5 || p.SoldCount != 0 {
		t.Fatalf("stock released more than once: stock=%d sold=%d", p.Stock, p.SoldCount)
	}
}

func TestOrders_ConcurrentPayAndCancelNeverLeavesCancelledPaid(t *testing.T) {
	for round := 0; round < 20; round++ {
		s := NewStore()
		seedProduct(t, s, "p1", 5)
		svc := newOrdersService(s)
		o := placeOrder(t, svc, "p1", 2)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessPayment(context.Background(), o.ID)
			if err != nil && !errors.Is(err, orders.ErrNotPayable) {
				t.Errorf("pay: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.Cancel(context.Background(), o.ID); err != nil {
				t.Errorf("cancel: %v", err)
			}
		}()
		wg.Wait()

		got, _ := svc.Get(context.Background(), o.ID)
		if got.Status != orders.StatusCancelled {
			t.Fatalf("round %d: status = %s, want cancelled", round, got.Status)
		}
		if got.PaymentStatus == orders.PaymentPaid {
			t.Fatalf("round %d: cancelled order left as paid", round)
		}
		p, _ := s.Products().GetByID(context.Background(), "p1")
		if p.Stock != 5 {
			t.Fatalf("round %d: stock = %d, want 5", round, p.Stock)
		}
	}
}

func TestAppointments_ConcurrentConfirmAndCancelEndsCancelled(t *testing.T) {
	for round := 0; round < 20; round++ {
		s := NewStore()
		ctx := context.Background()
		_ = s.Appointments().Create(ctx, booking.Appointment{
			ID:       "a1",
			StaffID:  "d1",
			Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			TimeSlot: booking.Slot0900,
			Status:   booking.StatusPending,
		})
		svc := booking.NewService(s.Appointments(), s, nil, nil, nil, time.UTC)

		var cancels atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = svc.UpdateStatus(ctx, "a1", booking.StatusConfirmed)
			}()
			go func() {
				defer wg.Done()
				if _, err := svc.Cancel(ctx, "a1"); err == nil {
					cancels.Add(1)
				}
			}()
		}
		wg.Wait()

		if cancels.Load() != 1 {
			t.Fatalf("round %d: successful cancels = %d, want 1", round, cancels.Load())
		}
		a, _ := s.Appointments().GetByID(ctx, "a1")
		if a.Status != booking.StatusCancelled {
			t.Fatalf("round %d: status = %s, want cancelled", round, a.Status)
		}
	}
}
