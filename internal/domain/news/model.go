package news

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Article es una noticia. Sólo se muestra al público si IsPublished;
// IsPublished implica Status=approved.
type Article struct {
	ID         string
	AuthorID   string
	AuthorName string

	Title    string
	Summary  string
	Content  string
	Category string
	ImageURL string
	Tags     []string

	Status          Status
	IsPublished     bool
	Views           int
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string
	PublishedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	AuthorID      string
	Status        Status
	Category      string
	Query         string // título/resumen, case-insensitive
	PublishedOnly bool

	Offset int
	Limit  int
}
