package news

import (
	"context"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/policy"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput     = apperr.New(apperr.KindValidation, "invalid input")
	ErrNotFound         = apperr.New(apperr.KindNotFound, "article not found")
	ErrAlreadyModerated = apperr.New(apperr.KindValidation, "article already has that status")
	ErrReasonRequired   = apperr.New(apperr.KindValidation, "rejection reason is required")
)

const defaultCategory = "general"

type Service struct {
	repo    Repository
	authors AuthorDirectory
	log     logger.Logger
	now     func() time.Time
}

// NewService: authors puede ser nil (AuthorName queda vacío).
func NewService(repo Repository, authors AuthorDirectory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:    repo,
		authors: authors,
		log:     log.With(map[string]any{"module": "news"}),
		now:     time.Now,
	}
}

type CreateInput struct {
	Title    string
	Summary  string
	Content  string
	Category string
	ImageURL string
	Tags     []string
}

// Create: staff/admin publican directo (aprobadas por ellos mismos);
// un customer deja la noticia pendiente de moderación.
func (s *Service) Create(ctx context.Context, author policy.Actor, in CreateInput) (Article, error) {
	if strings.TrimSpace(author.UserID) == "" {
		return Article{}, ErrInvalidInput.With("author is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Article{}, ErrInvalidInput.With("title is required")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Article{}, ErrInvalidInput.With("content is required")
	}

	now := s.now()
	a := Article{
		ID:         uuid.NewString(),
		AuthorID:   author.UserID,
		AuthorName: s.authorName(ctx, author.UserID),
		Title:      title,
		Summary:    strings.TrimSpace(in.Summary),
		Content:    content,
		Category:   normalizeCategory(in.Category),
		ImageURL:   strings.TrimSpace(in.ImageURL),
		Tags:       normalizeTags(in.Tags),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if author.Role.IsStaffOrAdmin() {
		publish(&a, author.UserID, now)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Article{}, err
	}

	s.log.Info("article created", map[string]any{"article_id": a.ID, "status": string(a.Status)})
	return a, nil
}

// View devuelve una noticia para el detalle.
// Publicada: cuenta la visita. No publicada: sólo autor y staff/admin, sin contar.
func (s *Service) View(ctx context.Context, id string, viewer policy.Actor) (Article, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Article{}, err
	}
	if !a.IsPublished {
		if !policy.Can(viewer, policy.ActionRead, policy.Owned(policy.KindArticle, a.AuthorID)) {
			return Article{}, ErrNotFound
		}
		return a, nil
	}
	return s.repo.IncrementViews(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id string) (Article, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListPublished(ctx context.Context, category, query string, p pagination.Params) (pagination.Page[Article], error) {
	return s.list(ctx, ListFilter{
		Category:      normalizeFilterCategory(category),
		Query:         strings.TrimSpace(query),
		PublishedOnly: true,
	}, p)
}

func (s *Service) ListPending(ctx context.Context, p pagination.Params) (pagination.Page[Article], error) {
	return s.list(ctx, ListFilter{Status: StatusPending}, p)
}

// ListByAuthor lista las noticias propias en cualquier estado.
func (s *Service) ListByAuthor(ctx context.Context, authorID string, status Status, p pagination.Params) (pagination.Page[Article], error) {
	if status != "" && !status.Valid() {
		return pagination.Page[Article]{}, ErrInvalidInput.With("unknown status")
	}
	return s.list(ctx, ListFilter{AuthorID: strings.TrimSpace(authorID), Status: status}, p)
}

func (s *Service) list(ctx context.Context, f ListFilter, p pagination.Params) (pagination.Page[Article], error) {
	p = p.Normalize()
	f.Offset, f.Limit = p.Offset(), p.Limit

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Article]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

type UpdateInput struct {
	Title    *string
	Summary  *string
	Content  *string
	Category *string
	ImageURL *string
	Tags     *[]string
}

// Update aplica un PATCH. Si quien edita es un customer (el autor),
// la noticia vuelve a pending y se despublica hasta una nueva aprobación.
func (s *Service) Update(ctx context.Context, id string, editor policy.Actor, in UpdateInput) (Article, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Article{}, err
	}

	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return Article{}, ErrInvalidInput.With("title cannot be empty")
		}
		a.Title = v
	}
	if in.Content != nil {
		v := strings.TrimSpace(*in.Content)
		if v == "" {
			return Article{}, ErrInvalidInput.With("content cannot be empty")
		}
		a.Content = v
	}
	if in.Summary != nil {
		a.Summary = strings.TrimSpace(*in.Summary)
	}
	if in.Category != nil {
		a.Category = normalizeCategory(*in.Category)
	}
	if in.ImageURL != nil {
		a.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Tags != nil {
		a.Tags = normalizeTags(*in.Tags)
	}

	if !editor.Role.IsStaffOrAdmin() {
		a.Status = StatusPending
		a.IsPublished = false
		a.PublishedAt = nil
		a.ApprovedBy = ""
		a.ApprovedAt = nil
		a.RejectionReason = ""
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Article{}, err
	}
	return a, nil
}

func (s *Service) Approve(ctx context.Context, id, approverID string) (Article, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Article{}, err
	}
	if a.Status == StatusApproved {
		return Article{}, ErrAlreadyModerated.With("article is already approved")
	}

	now := s.now()
	publish(&a, approverID, now)
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return Article{}, err
	}

	s.log.Info("article approved", map[string]any{"article_id": a.ID, "approved_by": approverID})
	return a, nil
}

func (s *Service) Reject(ctx context.Context, id, moderatorID, reason string) (Article, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Article{}, ErrReasonRequired
	}

	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Article{}, err
	}
	if a.Status == StatusRejected {
		return Article{}, ErrAlreadyModerated.With("article is already rejected")
	}

	a.Status = StatusRejected
	a.IsPublished = false
	a.PublishedAt = nil
	a.RejectionReason = reason
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Article{}, err
	}

	s.log.Info("article rejected", map[string]any{"article_id": a.ID, "rejected_by": moderatorID})
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(id))
}

func (s *Service) authorName(ctx context.Context, userID string) string {
	if s.authors == nil {
		return ""
	}
	name, err := s.authors.DisplayName(ctx, userID)
	if err != nil {
		s.log.Warn("author name lookup failed", map[string]any{"user_id": userID, "error": err.Error()})
		return ""
	}
	return name
}

func publish(a *Article, approverID string, now time.Time) {
	a.Status = StatusApproved
	a.IsPublished = true
	a.ApprovedBy = approverID
	a.ApprovedAt = &now
	a.PublishedAt = &now
	a.RejectionReason = ""
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return defaultCategory
	}
	return c
}

func normalizeFilterCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func normalizeTags(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
