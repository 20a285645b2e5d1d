package booking

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
	r.Route("/appointments", func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)

		ar.Post("/", createAppointmentHandler(svc))
		ar.Get("/", listAppointmentsHandler(svc))
		ar.Get("/available-slots", availableSlotsHandler(svc))

		ar.Get("/{appointmentID}", getAppointmentHandler(svc))
		ar.Patch("/{appointmentID}", updateAppointmentHandler(svc))
		ar.Post("/{appointmentID}/cancel", cancelAppointmentHandler(svc))
		ar.Patch("/{appointmentID}/status", updateStatusHandler(svc))
	})
}

type createAppointmentRequest struct {
	// Sólo staff/admin reservan a nombre de un cliente.
	CustomerID string          `json:"customer_id"`
	PetID      string          `json:"pet_id"`
	StaffID    string          `json:"staff_id"`
	Service    string          `json:"service"`
	Date       string          `json:"date"` // YYYY-MM-DD
	TimeSlot   string          `json:"time_slot"`
	Notes      string          `json:"notes"`
	Price      decimal.Decimal `json:"price"`
}

type updateAppointmentRequest struct {
	StaffID  *string          `json:"staff_id"`
	Date     *string          `json:"date"`
	TimeSlot *string          `json:"time_slot"`
	Service  *string          `json:"service"`
	Notes    *string          `json:"notes"`
	Price    *decimal.Decimal `json:"price"`
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

type appointmentResponse struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	PetID       string          `json:"pet_id"`
	StaffID     string          `json:"staff_id,omitempty"`
	Service     string          `json:"service"`
	Date        string          `json:"date"`
	TimeSlot    TimeSlot        `json:"time_slot"`
	Status      Status          `json:"status"`
	Notes       string          `json:"notes"`
	Price       decimal.Decimal `json:"price"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// createAppointmentHandler godoc
// @Summary Reservar turno
// @Description Crea un turno pending. Falla con 400 "already booked" si el profesional ya tiene un turno vivo en ese día y franja.
// @Tags appointments
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createAppointmentRequest true "Datos del turno; date YYYY-MM-DD, time_slot una de las 8 franjas"
// @Success 201 {object} appointmentResponse
// @Failure 400 {object} respond.Fields "validación / time slot already booked"
// @Failure 401 {object} respond.Fields "unauthorized"
// @Failure 403 {object} respond.Fields "forbidden"
// @Failure 404 {object} respond.Fields "pet / staff not found"
// @Router /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		var req createAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		customerID := actor.UserID
		if c := strings.TrimSpace(req.CustomerID); c != "" {
			customerID = c
		}
		if !policy.Can(actor, policy.ActionCreate, policy.Owned(policy.KindAppointment, customerID)) {
			respond.Forbidden(w)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput{
			CustomerID: customerID,
			PetID:      req.PetID,
			StaffID:    req.StaffID,
			Service:    req.Service,
			Date:       req.Date,
			TimeSlot:   req.TimeSlot,
			Notes:      req.Notes,
			Price:      req.Price,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusCreated, "appointment booked", respond.Fields{"appointment": toAppointmentResponse(a)})
	}
}

// listAppointmentsHandler godoc
// @Summary Listar turnos
// @Description customer: sólo los propios. staff/admin: todos, filtrables.
// @Tags appointments
// @Produce json
// @Param status query string false "pending | confirmed | completed | cancelled"
// @Param staff_id query string false "Profesional (staff/admin)"
// @Param customer_id query string false "Cliente (staff/admin)"
// @Param pet_id query string false "Mascota"
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} respond.Fields
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		q := r.URL.Query()

		f := ListFilter{
			CustomerID: actor.UserID,
			PetID:      strings.TrimSpace(q.Get("pet_id")),
			Status:     Status(strings.TrimSpace(q.Get("status"))),
		}
		if policy.Can(actor, policy.ActionListAll, policy.Collection(policy.KindAppointment)) {
			f.CustomerID = strings.TrimSpace(q.Get("customer_id"))
			f.StaffID = strings.TrimSpace(q.Get("staff_id"))
			if q.Get("mine") == "true" {
				f.StaffID = actor.UserID
			}
		}

		for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
			v := strings.TrimSpace(q.Get(key))
			if v == "" {
				continue
			}
			d, err := ParseDate(v)
			if err != nil {
				respond.Fail(w, http.StatusBadRequest, key+" must be YYYY-MM-DD")
				return
			}
			*dst = &d
		}

		page, err := svc.List(r.Context(), f, pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "appointments", pagination.Map(page, toAppointmentResponse))
	}
}

// availableSlotsHandler godoc
// @Summary Franjas disponibles
// @Description Con staff_id: libre/ocupada por franja. Sin staff_id: profesionales libres por franja.
// @Tags appointments
// @Produce json
// @Param date query string true "Día (YYYY-MM-DD)"
// @Param staff_id query string false "Profesional"
// @Success 200 {object} respond.Fields
// @Failure 400 {object} respond.Fields "date inválida"
// @Router /appointments/available-slots [get]
func availableSlotsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date := strings.TrimSpace(q.Get("date"))

		slots, err := svc.AvailableSlots(r.Context(), date, q.Get("staff_id"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Fields{
			"date":     date,
			"staff_id": strings.TrimSpace(q.Get("staff_id")),
			"slots":    slots,
		})
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAuthorized(w, r, svc, policy.ActionRead)
		if !ok {
			return
		}
		respond.OK(w, "appointment", toAppointmentResponse(a))
	}
}

func updateAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionUpdate)
		if !ok {
			return
		}

		var req updateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		a, err := svc.Update(r.Context(), current.ID, UpdateInput{
			StaffID:  req.StaffID,
			Date:     req.Date,
			TimeSlot: req.TimeSlot,
			Service:  req.Service,
			Notes:    req.Notes,
			Price:    req.Price,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "appointment updated", respond.Fields{"appointment": toAppointmentResponse(a)})
	}
}

func cancelAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionCancel)
		if !ok {
			return
		}

		a, err := svc.Cancel(r.Context(), current.ID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "appointment cancelled", respond.Fields{"appointment": toAppointmentResponse(a)})
	}
}

func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionUpdateStatus)
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		a, err := svc.UpdateStatus(r.Context(), current.ID, req.Status)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "appointment status updated", respond.Fields{"appointment": toAppointmentResponse(a)})
	}
}

// loadAuthorized busca el turno de la URL y valida la acción contra policy.
func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, act policy.Action) (Appointment, bool) {
	actor, _ := middleware.CurrentActor(r.Context())

	a, err := svc.Get(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		respond.Error(w, err)
		return Appointment{}, false
	}
	if !policy.Can(actor, act, policy.Owned(policy.KindAppointment, a.CustomerID)) {
		respond.Forbidden(w)
		return Appointment{}, false
	}
	return a, true
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		PetID:       a.PetID,
		StaffID:     a.StaffID,
		Service:     a.Service,
		Date:        FormatDate(a.Date),
		TimeSlot:    a.TimeSlot,
		Status:      a.Status,
		Notes:       a.Notes,
		Price:       a.Price,
		CancelledAt: a.CancelledAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
