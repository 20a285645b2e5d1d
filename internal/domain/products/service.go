package products

import (
	"context"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput      = apperr.New(apperr.KindValidation, "invalid input")
	ErrNotFound          = apperr.New(apperr.KindNotFound, "product not found")
	ErrInsufficientStock = apperr.New(apperr.KindValidation, "insufficient stock")
)

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
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, ErrInvalidInput.With("name is required")
	}
	category := normalizeCategory(in.Category)
	if category == "" {
		return Product{}, ErrInvalidInput.With("category is required")
	}
	if in.Price.IsNegative() {
		return Product{}, ErrInvalidInput.With("price cannot be negative")
	}
	if in.Stock < 0 {
		return Product{}, ErrInvalidInput.With("stock cannot be negative")
	}

	now := s.now()
	p := Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
	IsActive    *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Product{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Product{}, ErrInvalidInput.With("name cannot be empty")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		c := normalizeCategory(*in.Category)
		if c == "" {
			return Product{}, ErrInvalidInput.With("category cannot be empty")
		}
		p.Category = c
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return Product{}, ErrInvalidInput.With("price cannot be negative")
		}
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return Product{}, ErrInvalidInput.With("stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Deactivate es el borrado lógico (IsActive=false).
func (s *Service) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateInput{IsActive: &inactive})
	return err
}

// Get devuelve el producto; si includeInactive=false un producto inactivo es NotFound.
func (s *Service) Get(ctx context.Context, id string, includeInactive bool) (Product, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive && !includeInactive {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Params) (pagination.Page[Product], error) {
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	if !f.Sort.Valid() {
		return pagination.Page[Product]{}, ErrInvalidInput.With("unknown sort")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return pagination.Page[Product]{}, ErrInvalidInput.With("min_price cannot exceed max_price")
	}
	f.Category = normalizeCategory(f.Category)
	f.Query = strings.TrimSpace(f.Query)

	p = p.Normalize()
	f.Offset, f.Limit = p.Offset(), p.Limit

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Product]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *Service) Categories(ctx context.Context) ([]CategoryCount, error) {
	return s.repo.CategoryCounts(ctx)
}

// Reserve y Release son la API de inventario que consume orders.
func (s *Service) Reserve(ctx context.Context, id string, qty int) (Product, error) {
	if qty < 1 {
		return Product{}, ErrInvalidInput.With("quantity must be at least 1")
	}
	return s.repo.Reserve(ctx, strings.TrimSpace(id), qty)
}

func (s *Service) Release(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return ErrInvalidInput.With("quantity must be at least 1")
	}
	return s.repo.Release(ctx, strings.TrimSpace(id), qty)
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
