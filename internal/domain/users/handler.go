package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"petcare-backend/internal/middleware"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/policy"
	"petcare-backend/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Públicas
	r.Post("/auth/register", registerHandler(svc))
	r.Post("/auth/login", loginHandler(svc))

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		pr.Get("/auth/me", meHandler(svc))
		pr.Patch("/auth/me", updateMeHandler(svc))
		pr.Post("/auth/password", changePasswordHandler(svc))

		// Directorio de staff (para elegir profesional al reservar)
		pr.Get("/staff", listStaffHandler(svc))
		pr.Get("/staff/{userID}", getStaffHandler(svc))

		// Administración
		pr.Post("/admin/staff", createStaffHandler(svc))
		pr.Patch("/admin/staff/{userID}", updateStaffHandler(svc))
		pr.Delete("/admin/staff/{userID}", deleteStaffHandler(svc))
		pr.Get("/admin/users", listUsersHandler(svc))
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Bio     *string `json:"bio"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type createStaffRequest struct {
	registerRequest
	Specialization string `json:"specialization"`
	Bio            string `json:"bio"`
}

type updateStaffRequest struct {
	profileRequest
	Specialization *string `json:"specialization"`
}

type userResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// registerHandler godoc
// @Summary Registrar cliente
// @Description Crea una cuenta con rol customer. El email debe ser único.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} userResponse
// @Failure 400 {object} respond.Fields "validación / email already registered"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Phone:    req.Phone,
			Address:  req.Address,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.Success(w, http.StatusCreated, "registration successful", respond.Fields{"user": toUserResponse(u)})
	}
}

// loginHandler godoc
// @Summary Login
// @Description Valida credenciales y devuelve un bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} respond.Fields
// @Failure 401 {object} respond.Fields "invalid credentials"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		u, token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.Success(w, http.StatusOK, "login successful", respond.Fields{
			"user":  toUserResponse(u),
			"token": token,
		})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		u, err := svc.GetByID(r.Context(), actor.UserID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "user", toUserResponse(u))
	}
}

func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), actor.UserID, req.toPatch())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "profile updated", respond.Fields{"user": toUserResponse(u)})
	}
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		if err := svc.ChangePassword(r.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "password updated", nil)
	}
}

func listStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListStaff(r.Context())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "staff", toUserResponses(items))
	}
}

func getStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetStaff(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "staff", toUserResponse(u))
	}
}

// createStaffHandler godoc
// @Summary Alta de staff (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param payload body createStaffRequest true "Datos del profesional"
// @Success 201 {object} userResponse
// @Failure 403 {object} respond.Fields "forbidden"
// @Router /admin/staff [post]
func createStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageStaff, policy.Collection(policy.KindUser)) {
			respond.Forbidden(w)
			return
		}

		var req createStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		u, err := svc.CreateStaff(r.Context(), StaffInput{
			RegisterInput: RegisterInput{
				Email:    req.Email,
				Password: req.Password,
				Name:     req.Name,
				Phone:    req.Phone,
				Address:  req.Address,
			},
			Specialization: req.Specialization,
			Bio:            req.Bio,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusCreated, "staff member created", respond.Fields{"staff": toUserResponse(u)})
	}
}

func updateStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageStaff, policy.Collection(policy.KindUser)) {
			respond.Forbidden(w)
			return
		}

		var req updateStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		u, err := svc.UpdateStaff(r.Context(), chi.URLParam(r, "userID"), StaffPatch{
			ProfilePatch:   req.toPatch(),
			Specialization: req.Specialization,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "staff member updated", respond.Fields{"staff": toUserResponse(u)})
	}
}

func deleteStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageStaff, policy.Collection(policy.KindUser)) {
			respond.Forbidden(w)
			return
		}

		if err := svc.DeleteStaff(r.Context(), chi.URLParam(r, "userID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "staff member deleted", nil)
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionManageStaff, policy.Collection(policy.KindUser)) {
			respond.Forbidden(w)
			return
		}

		role := auth.Role(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role"))))
		page, err := svc.ListUsers(r.Context(), role, pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "users", pagination.Map(page, toUserResponse))
	}
}

func (p profileRequest) toPatch() ProfilePatch {
	return ProfilePatch{Name: p.Name, Phone: p.Phone, Address: p.Address, Bio: p.Bio}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Role:           u.Role,
		Name:           u.Name,
		Phone:          u.Phone,
		Address:        u.Address,
		Specialization: u.Specialization,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toUserResponses(items []User) []userResponse {
	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, toUserResponse(u))
	}
	return out
}
