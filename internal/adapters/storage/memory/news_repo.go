package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"petcare-backend/internal/domain/news"
)

type newsRepo struct{ s *Store }

func cloneArticle(a news.Article) news.Article {
	a.Tags = slices.Clone(a.Tags)
	return a
}

func (r newsRepo) Create(ctx context.Context, a news.Article) error {
	defer r.s.lock(ctx)()

	put(ctx, r.s, r.s.news, a.ID, cloneArticle(a))
	return nil
}

func (r newsRepo) Update(ctx context.Context, a news.Article) error {
	defer r.s.lock(ctx)()

	current, ok := r.s.news[a.ID]
	if !ok {
		return news.ErrNotFound
	}
	// Views sólo lo mueve IncrementViews
	a.Views = current.Views
	put(ctx, r.s, r.s.news, a.ID, cloneArticle(a))
	return nil
}

func (r newsRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.news[id]; !ok {
		return news.ErrNotFound
	}
	remove(ctx, r.s, r.s.news, id)
	return nil
}

func (r newsRepo) GetByID(ctx context.Context, id string) (news.Article, error) {
	defer r.s.rlock(ctx)()

	a, ok := r.s.news[id]
	if !ok {
		return news.Article{}, news.ErrNotFound
	}
	return cloneArticle(a), nil
}

func (r newsRepo) List(ctx context.Context, f news.ListFilter) ([]news.Article, int, error) {
	defer r.s.rlock(ctx)()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]news.Article, 0)
	for _, a := range r.s.news {
		switch {
		case f.PublishedOnly && !a.IsPublished:
			continue
		case f.Status != "" && a.Status != f.Status:
			continue
		case f.AuthorID != "" && a.AuthorID != f.AuthorID:
			continue
		case f.Category != "" && a.Category != f.Category:
			continue
		case q != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Summary), q):
			continue
		}
		out = append(out, cloneArticle(a))
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := sortTime(out[i], f.PublishedOnly), sortTime(out[j], f.PublishedOnly)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	return window(out, f.Offset, f.Limit), len(out), nil
}

func sortTime(a news.Article, published bool) time.Time {
	if published && a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

func (r newsRepo) IncrementViews(ctx context.Context, id string) (news.Article, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.news[id]
	if !ok || !a.IsPublished {
		return news.Article{}, news.ErrNotFound
	}
	a.Views++
	put(ctx, r.s, r.s.news, id, a)
	return cloneArticle(a), nil
}
