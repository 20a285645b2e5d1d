package pets

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petcare-backend/internal/middleware"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/policy"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /pets y /me/reminders. reminderWindowDays es el default de ?days=.
func RegisterRoutes(r chi.Router, svc *Service, reminderWindowDays int) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))

		// Historia clínica
		pr.Post("/{petID}/medical-records", addMedicalRecordHandler(svc))
		pr.Get("/{petID}/medical-records", listMedicalRecordsHandler(svc))
	})

	r.With(middleware.RequireAuth).Get("/me/reminders", remindersHandler(svc, reminderWindowDays))
}

type createPetRequest struct {
	// Sólo staff/admin pueden registrar a nombre de otro usuario.
	OwnerUserID string  `json:"owner_user_id"`
	Name        string  `json:"name"`
	Species     string  `json:"species"`
	Breed       string  `json:"breed"`
	Sex         string  `json:"sex"`
	BirthDate   string  `json:"birth_date"` // YYYY-MM-DD opcional
	WeightKg    float64 `json:"weight_kg"`
	Microchip   string  `json:"microchip"`
	Notes       string  `json:"notes"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar. birth_date se resuelve aparte.
	Name      *string  `json:"name"`
	Species   *string  `json:"species"`
	Breed     *string  `json:"breed"`
	Sex       *string  `json:"sex"`
	WeightKg  *float64 `json:"weight_kg"`
	Microchip *string  `json:"microchip"`
	Notes     *string  `json:"notes"`
}

type medicalRecordRequest struct {
	Date         string `json:"date"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Veterinarian string `json:"veterinarian"`
	NextDueDate  string `json:"next_due_date"`
}

type petResponse struct {
	ID             string          `json:"id"`
	OwnerUserID    string          `json:"owner_user_id"`
	Name           string          `json:"name"`
	Species        Species         `json:"species"`
	Breed          string          `json:"breed"`
	Sex            Sex             `json:"sex"`
	BirthDate      *time.Time      `json:"birth_date,omitempty"`
	WeightKg       float64         `json:"weight_kg"`
	Microchip      string          `json:"microchip,omitempty"`
	Notes          string          `json:"notes"`
	MedicalHistory []MedicalRecord `json:"medical_history"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type reminderResponse struct {
	PetID    string     `json:"pet_id"`
	PetName  string     `json:"pet_name"`
	RecordID string     `json:"record_id"`
	Type     RecordType `json:"type"`
	DueDate  string     `json:"due_date"`
	Overdue  bool       `json:"overdue"`
	DaysLeft int        `json:"days_left"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		owner := actor.UserID
		if o := strings.TrimSpace(req.OwnerUserID); o != "" && o != actor.UserID {
			if !policy.Can(actor, policy.ActionCreate, policy.Owned(policy.KindPet, o)) {
				respond.Forbidden(w)
				return
			}
			owner = o
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse(dateLayout, req.BirthDate)
			if err != nil {
				respond.Fail(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), owner, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Microchip: req.Microchip,
			Notes:     req.Notes,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.Success(w, http.StatusCreated, "pet created", respond.Fields{"pet": toPetResponse(p)})
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	// customer: sólo las propias. staff/admin: todas, con ?owner_id opcional.
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		f := ListFilter{
			OwnerUserID: actor.UserID,
			Species:     Species(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("species")))),
		}
		if policy.Can(actor, policy.ActionListAll, policy.Collection(policy.KindPet)) {
			f.OwnerUserID = strings.TrimSpace(r.URL.Query().Get("owner_id"))
		}

		page, err := svc.List(r.Context(), f, pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "pets", pagination.Map(page, toPetResponse))
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorized(w, r, svc, policy.ActionRead)
		if !ok {
			return
		}
		respond.OK(w, "pet", toPetResponse(p))
	}
}

// updatePetHandler: owner o staff/admin. owner_user_id no se acepta.
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadAuthorized(w, r, svc, policy.ActionUpdate)
		if !ok {
			return
		}

		// Para soportar birth_date: null necesitamos detectar presencia del campo,
		// así que decodificamos a map primero.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			respond.BadJSON(w)
			return
		}
		if _, exists := raw["owner_user_id"]; exists {
			respond.Fail(w, http.StatusBadRequest, "owner cannot be changed")
			return
		}

		var req updatePetRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				respond.BadJSON(w)
				return
			}
		}

		bd := OptionalDate{}
		if v, exists := raw["birth_date"]; exists {
			bd.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					respond.Fail(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD or null")
					return
				}
				bd.Value = &s
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), current.ID, UpdateProfileInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			WeightKg:  req.WeightKg,
			Microchip: req.Microchip,
			Notes:     req.Notes,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.Success(w, http.StatusOK, "pet updated", respond.Fields{"pet": toPetResponse(updated)})
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorized(w, r, svc, policy.ActionDelete)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), p.ID); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "pet deleted", nil)
	}
}

// addMedicalRecordHandler godoc
// @Summary Agregar entrada de historia clínica
// @Description El dueño o el staff agregan una entrada. next_due_date alimenta /me/reminders.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body medicalRecordRequest true "Entrada; fechas YYYY-MM-DD"
// @Success 201 {object} MedicalRecord
// @Failure 400 {object} respond.Fields "validación"
// @Failure 403 {object} respond.Fields "forbidden"
// @Failure 404 {object} respond.Fields "pet not found"
// @Router /pets/{petID}/medical-records [post]
func addMedicalRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorized(w, r, svc, policy.ActionUpdate)
		if !ok {
			return
		}
		actor, _ := middleware.CurrentActor(r.Context())

		var req medicalRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		rec, err := svc.AddMedicalRecord(r.Context(), p.ID, actor.UserID, MedicalRecordInput{
			Date:         req.Date,
			Type:         req.Type,
			Description:  req.Description,
			Veterinarian: req.Veterinarian,
			NextDueDate:  req.NextDueDate,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusCreated, "medical record added", respond.Fields{"record": rec})
	}
}

func listMedicalRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadAuthorized(w, r, svc, policy.ActionRead)
		if !ok {
			return
		}
		records, err := svc.ListMedicalRecords(r.Context(), p.ID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "records", records)
	}
}

func remindersHandler(svc *Service, defaultDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		days := defaultDays
		if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				respond.Fail(w, http.StatusBadRequest, "days must be a number")
				return
			}
			days = n
		}

		items, err := svc.Reminders(r.Context(), actor.UserID, days)
		if err != nil {
			respond.Error(w, err)
			return
		}

		out := make([]reminderResponse, 0, len(items))
		for _, it := range items {
			out = append(out, reminderResponse{
				PetID:    it.PetID,
				PetName:  it.PetName,
				RecordID: it.RecordID,
				Type:     it.Type,
				DueDate:  it.Due.Format(dateLayout),
				Overdue:  it.Overdue,
				DaysLeft: it.DaysLeft,
			})
		}
		respond.OK(w, "reminders", out)
	}
}

// loadAuthorized busca la mascota de la URL y valida la acción contra policy.
// Si falla ya escribió la respuesta.
func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, act policy.Action) (Pet, bool) {
	actor, _ := middleware.CurrentActor(r.Context())

	p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
	if err != nil {
		respond.Error(w, err)
		return Pet{}, false
	}
	if !policy.Can(actor, act, policy.Owned(policy.KindPet, p.OwnerUserID)) {
		respond.Forbidden(w)
		return Pet{}, false
	}
	return p, true
}

func toPetResponse(p Pet) petResponse {
	history := p.MedicalHistory
	if history == nil {
		history = []MedicalRecord{}
	}
	return petResponse{
		ID:             p.ID,
		OwnerUserID:    p.OwnerUserID,
		Name:           p.Name,
		Species:        p.Species,
		Breed:          p.Breed,
		Sex:            p.Sex,
		BirthDate:      p.BirthDate,
		WeightKg:       p.WeightKg,
		Microchip:      p.Microchip,
		Notes:          p.Notes,
		MedicalHistory: history,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
