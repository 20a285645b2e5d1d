package orders

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
	r.Route("/orders", func(or chi.Router) {
		or.Use(middleware.RequireAuth)

		or.Post("/", createOrderHandler(svc))
		or.Get("/", listOrdersHandler(svc))
		or.Get("/{orderID}", getOrderHandler(svc))
		or.Post("/{orderID}/cancel", cancelOrderHandler(svc))
		or.Post("/{orderID}/pay", payOrderHandler(svc))
		or.Patch("/{orderID}/status", updateOrderStatusHandler(svc))
	})
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress Shipping           `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
}

type updateOrderStatusRequest struct {
	Status Status `json:"status"`
}

type orderResponse struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      string          `json:"customer_id"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress Shipping        `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	Status          Status          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// createOrderHandler godoc
// @Summary Crear pedido
// @Description Reserva stock de todas las líneas en una transacción. Si algún producto no tiene stock suficiente no se descuenta nada.
// @Tags orders
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createOrderRequest true "Líneas, dirección de envío y medio de pago"
// @Success 201 {object} orderResponse
// @Failure 400 {object} respond.Fields "validación / insufficient stock"
// @Failure 401 {object} respond.Fields "unauthorized"
// @Failure 404 {object} respond.Fields "product not found"
// @Router /orders [post]
func createOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionCreate, policy.Owned(policy.KindOrder, actor.UserID)) {
			respond.Forbidden(w)
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		items := make([]ItemInput, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		o, err := svc.Create(r.Context(), CreateInput{
			CustomerID:    actor.UserID,
			Items:         items,
			Shipping:      req.ShippingAddress,
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusCreated, "order created", respond.Fields{"order": toOrderResponse(o)})
	}
}

// listOrdersHandler godoc
// @Summary Listar pedidos
// @Description customer: sólo los propios. staff/admin: todos, con filtros.
// @Tags orders
// @Produce json
// @Param status query string false "pending | confirmed | processing | shipped | delivered | cancelled"
// @Param payment_status query string false "pending | paid | failed | refunded"
// @Param customer_id query string false "Cliente (staff/admin)"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} respond.Fields
// @Router /orders [get]
func listOrdersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		q := r.URL.Query()

		f := ListFilter{
			CustomerID:    actor.UserID,
			Status:        Status(strings.TrimSpace(q.Get("status"))),
			PaymentStatus: PaymentStatus(strings.TrimSpace(q.Get("payment_status"))),
		}
		if policy.Can(actor, policy.ActionListAll, policy.Collection(policy.KindOrder)) {
			f.CustomerID = strings.TrimSpace(q.Get("customer_id"))
		}

		page, err := svc.List(r.Context(), f, pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "orders", pagination.Map(page, toOrderResponse))
	}
}

func getOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := loadAuthorized(w, r, svc, policy.ActionRead)
		if !ok {
			return
		}
		respond.OK(w, "order", toOrderResponse(o))
	}
}

func cancelOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionCancel)
		if !ok {
			return
		}

		o, err := svc.Cancel(r.Context(), current.ID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "order cancelled", respond.Fields{"order": toOrderResponse(o)})
	}
}

// payOrderHandler godoc
// @Summary Pagar pedido
// @Description Cobra el total con el proveedor de pagos. Un rechazo deja payment_status=failed y se puede reintentar.
// @Tags orders
// @Produce json
// @Param orderID path string true "ID del pedido"
// @Success 200 {object} orderResponse
// @Failure 400 {object} respond.Fields "payment declined / already paid / cancelled"
// @Failure 403 {object} respond.Fields "forbidden"
// @Failure 404 {object} respond.Fields "order not found"
// @Router /orders/{orderID}/pay [post]
func payOrderHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionUpdate)
		if !ok {
			return
		}

		o, err := svc.ProcessPayment(r.Context(), current.ID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "payment approved", respond.Fields{"order": toOrderResponse(o)})
	}
}

func updateOrderStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionUpdateStatus)
		if !ok {
			return
		}

		var req updateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		o, err := svc.UpdateStatus(r.Context(), current.ID, req.Status)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "order status updated", respond.Fields{"order": toOrderResponse(o)})
	}
}

func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, act policy.Action) (Order, bool) {
	actor, _ := middleware.CurrentActor(r.Context())

	o, err := svc.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond.Error(w, err)
		return Order{}, false
	}
	if !policy.Can(actor, act, policy.Owned(policy.KindOrder, o.CustomerID)) {
		respond.Forbidden(w)
		return Order{}, false
	}
	return o, true
}

func toOrderResponse(o Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Items:           o.Items,
		Total:           o.Total,
		ShippingAddress: o.Shipping,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		PaymentRef:      o.PaymentRef,
		Status:          o.Status,
		Notes:           o.Notes,
		PaidAt:          o.PaidAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
