package news

import (
	"encoding/json"
	"net/http"
	"time"

	"petcare-backend/internal/middleware"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/policy"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Público
	r.Get("/news", listPublishedHandler(svc))
	r.Get("/news/{articleID}", getArticleHandler(svc))

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth)

		pr.Post("/news", createArticleHandler(svc))
		pr.Get("/news/mine", listMineHandler(svc))
		pr.Get("/news/pending", listPendingHandler(svc))
		pr.Patch("/news/{articleID}", updateArticleHandler(svc))
		pr.Delete("/news/{articleID}", deleteArticleHandler(svc))
		pr.Post("/news/{articleID}/approve", approveHandler(svc))
		pr.Post("/news/{articleID}/reject", rejectHandler(svc))
	})
}

type createArticleRequest struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

type updateArticleRequest struct {
	Title    *string   `json:"title"`
	Summary  *string   `json:"summary"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	ImageURL *string   `json:"image_url"`
	Tags     *[]string `json:"tags"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type articleResponse struct {
	ID              string     `json:"id"`
	AuthorID        string     `json:"author_id"`
	AuthorName      string     `json:"author_name,omitempty"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	Content         string     `json:"content"`
	Category        string     `json:"category"`
	ImageURL        string     `json:"image_url,omitempty"`
	Tags            []string   `json:"tags"`
	Status          Status     `json:"status"`
	IsPublished     bool       `json:"is_published"`
	Views           int        `json:"views"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// listPublishedHandler godoc
// @Summary Noticias publicadas
// @Tags news
// @Produce json
// @Param category query string false "Categoría"
// @Param q query string false "Texto en título/resumen"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} respond.Fields
// @Router /news [get]
func listPublishedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := svc.ListPublished(r.Context(), q.Get("category"), q.Get("q"), pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "news", pagination.Map(page, toArticleResponse))
	}
}

// getArticleHandler godoc
// @Summary Detalle de noticia
// @Description Cuenta una visita si está publicada. Las no publicadas sólo las ven su autor y el staff.
// @Tags news
// @Produce json
// @Param articleID path string true "ID de la noticia"
// @Success 200 {object} articleResponse
// @Failure 404 {object} respond.Fields "article not found"
// @Router /news/{articleID} [get]
func getArticleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.CurrentActor(r.Context())

		a, err := svc.View(r.Context(), chi.URLParam(r, "articleID"), viewer)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "article", toArticleResponse(a))
	}
}

func createArticleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionCreate, policy.Owned(policy.KindArticle, actor.UserID)) {
			respond.Forbidden(w)
			return
		}

		var req createArticleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		a, err := svc.Create(r.Context(), actor, CreateInput{
			Title:    req.Title,
			Summary:  req.Summary,
			Content:  req.Content,
			Category: req.Category,
			ImageURL: req.ImageURL,
			Tags:     req.Tags,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}

		msg := "article submitted for review"
		if a.IsPublished {
			msg = "article published"
		}
		respond.Success(w, http.StatusCreated, msg, respond.Fields{"article": toArticleResponse(a)})
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())

		page, err := svc.ListByAuthor(r.Context(), actor.UserID, Status(r.URL.Query().Get("status")), pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "news", pagination.Map(page, toArticleResponse))
	}
}

func listPendingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionModerate, policy.Collection(policy.KindArticle)) {
			respond.Forbidden(w)
			return
		}

		page, err := svc.ListPending(r.Context(), pagination.FromRequest(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.OK(w, "news", pagination.Map(page, toArticleResponse))
	}
}

func updateArticleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, current, ok := loadAuthorized(w, r, svc, policy.ActionUpdate)
		if !ok {
			return
		}

		var req updateArticleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		a, err := svc.Update(r.Context(), current.ID, actor, UpdateInput{
			Title:    req.Title,
			Summary:  req.Summary,
			Content:  req.Content,
			Category: req.Category,
			ImageURL: req.ImageURL,
			Tags:     req.Tags,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "article updated", respond.Fields{"article": toArticleResponse(a)})
	}
}

func deleteArticleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, current, ok := loadAuthorized(w, r, svc, policy.ActionDelete)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), current.ID); err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "article deleted", nil)
	}
}

// approveHandler godoc
// @Summary Aprobar noticia (staff/admin)
// @Tags news
// @Produce json
// @Param articleID path string true "ID de la noticia"
// @Success 200 {object} articleResponse
// @Failure 403 {object} respond.Fields "forbidden"
// @Router /news/{articleID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionModerate, policy.Collection(policy.KindArticle)) {
			respond.Forbidden(w)
			return
		}

		a, err := svc.Approve(r.Context(), chi.URLParam(r, "articleID"), actor.UserID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "article approved", respond.Fields{"article": toArticleResponse(a)})
	}
}

func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.CurrentActor(r.Context())
		if !policy.Can(actor, policy.ActionModerate, policy.Collection(policy.KindArticle)) {
			respond.Forbidden(w)
			return
		}

		var req rejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadJSON(w)
			return
		}

		a, err := svc.Reject(r.Context(), chi.URLParam(r, "articleID"), actor.UserID, req.Reason)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, "article rejected", respond.Fields{"article": toArticleResponse(a)})
	}
}

func loadAuthorized(w http.ResponseWriter, r *http.Request, svc *Service, act policy.Action) (policy.Actor, Article, bool) {
	actor, _ := middleware.CurrentActor(r.Context())

	a, err := svc.Get(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		respond.Error(w, err)
		return actor, Article{}, false
	}
	if !policy.Can(actor, act, policy.Owned(policy.KindArticle, a.AuthorID)) {
		respond.Forbidden(w)
		return actor, Article{}, false
	}
	return actor, a, true
}

func toArticleResponse(a Article) articleResponse {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return articleResponse{
		ID:              a.ID,
		AuthorID:        a.AuthorID,
		AuthorName:      a.AuthorName,
		Title:           a.Title,
		Summary:         a.Summary,
		Content:         a.Content,
		Category:        a.Category,
		ImageURL:        a.ImageURL,
		Tags:            tags,
		Status:          a.Status,
		IsPublished:     a.IsPublished,
		Views:           a.Views,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      a.ApprovedAt,
		RejectionReason: a.RejectionReason,
		PublishedAt:     a.PublishedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
