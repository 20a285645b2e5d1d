package products

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Category    string

	Price decimal.Decimal
	Stock int
	// SoldCount acumula unidades reservadas por pedidos no cancelados.
	SoldCount int

	ImageURL string

	// IsActive=false es el borrado lógico: deja de verse en el catálogo
	// pero los pedidos existentes lo siguen referenciando.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortPopular   Sort = "popular"
	SortName      Sort = "name"
)

func (s Sort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular, SortName:
		return true
	default:
		return false
	}
}

type ListFilter struct {
	Category        string
	Query           string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	InStockOnly     bool
	IncludeInactive bool
	Sort            Sort

	Offset int
	Limit  int
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
