package products

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"petcare-backend/internal/middleware"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/policy"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Catálogo público
	r.Get("/products", listProductsHandler(svc, false))
	r.Get("/products/categories", categoriesHandler(svc))
	r.Get("/products/{productID}", getProductHandler(svc))

	// Gestión (staff/admin)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		pr.Post("/products", createProductHandler(svc))
		pr.Patch("/products/{productID}", updateProductHandler(svc))
		pr.Delete("/products/{productID}", deleteProductHandler(svc))
		pr.Get("/admin/products", listProductsHandler(svc, true))
	})
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	IsActive    *bool            `json:"is_active"`
}

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SoldCount   int             `json:"sold_count"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// listProductsHandler godoc
// @Summary Catálogo de productos
// @Description Lista productos activos. Filtros opcionales por categoría, texto y rango de precio.
// @Tags products
// @Produce json
// @Param category query string false "Categoría"
// @Param q query string false "Texto libre en nombre/descripción"
// @Param min_price query string false "Precio mínimo"
// @Param max_price query string false "Precio máximo"
// @Param in_stock query bool false "Sólo con stock"
// @Param sort query string false "newest | price_asc | price_desc | popular | name"
// @Param page query int false "Página (1..)"
// @Param limit query int false "Tamaño de página (1-100)"
// @Success 200 {object} respond.Fields
// @Failure 400 {object} respond.Fields "filtros inválidos"
// @Router /products [get]
func listProductsHandler(svc *Service, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if admin {
			actor, _ := middleware.CurrentActor(r.Context())
			if !policy.Can(actor, policy.ActionManageCatalog, policy.Collection(policy.KindProduct)) {
				respond.Forbidden(w)
				return
			}
		}

		q := r.URL.Query()
		f := ListFilter{
			Category:        q.Get("category"),
			Query:           q.Get("q"),
			Sort:            Sort(strings.TrimSpace(q.Get("sort"))),
			InStockOnly:     q.Get("in_stock") == "true",
			IncludeInactive: admin && q.Get("include_inactive") != "false",
		}

		var err error
		if f.MinPrice, err = parseDecimalParam(q.Get("min_price")); err != nil {
			respond.Fail(w, http.StatusBadRequest, "min_price must be a number")
			return
		}
		if f.MaxPrice, err = parseDecimalParam(q.Get("max_price")); err != nil {
			respond.Fail(w, http.StatusBadRequest, "max_price must be a number")
			return
		}

		page, err := svc.List(r.Context(), f, pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "products", pagination.Map(page, toProductResponse))
	}
}

func categoriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Categories(r.Context())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "categories", items)
	}
}

func getProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// El staff ve también productos inactivos.
		actor, _ := middleware.CurrentActor(r.Context())
		includeInactive := policy.Can(actor, policy.ActionManageCatalog, policy.Collection(policy.KindProduct))

		p, err := svc.Get(r.Context(), chi.URLParam(r, "productID"), includeInactive)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "product", toProductResponse(p))
	}
}

func createProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageCatalog, policy.Collection(policy.KindProduct)) {
			respond.Forbidden(w)
			return
		}

		var req createProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusCreated, "product created", respond.Fields{"product": toProductResponse(p)})
	}
}

func updateProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageCatalog, policy.Collection(policy.KindProduct)) {
			respond.Forbidden(w)
			return
		}

		var req updateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "productID"), UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
			IsActive:    req.IsActive,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "product updated", respond.Fields{"product": toProductResponse(p)})
	}
}

func deleteProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageCatalog, policy.Collection(policy.KindProduct)) {
			respond.Forbidden(w)
			return
		}

		if err := svc.Deactivate(r.Context(), chi.URLParam(r, "productID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "product deleted", nil)
	}
}

func parseDecimalParam(v string) (*decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		SoldCount:   p.SoldCount,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
