package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"petcare-backend/internal/domain/news"

	sq "github.com/Masterminds/squirrel"
)

const articleColumns = `id, author_id, author_name, title, summary, content, category, image_url, tags, status, is_published, views, approved_by, approved_at, rejection_reason, published_at, created_at, updated_at`

type NewsRepo struct {
	db *sql.DB
}

func NewNewsRepo(db *sql.DB) *NewsRepo {
	return &NewsRepo{db: db}
}

func (r *NewsRepo) Create(ctx context.Context, a news.Article) error {
	tags, err := marshalJSON(a.Tags, "[]")
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO news (`+articleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		a.ID,
		a.AuthorID,
		a.AuthorName,
		a.Title,
		a.Summary,
		a.Content,
		a.Category,
		a.ImageURL,
		tags,
		a.Status,
		a.IsPublished,
		a.Views,
		a.ApprovedBy,
		nullTime(a.ApprovedAt),
		a.RejectionReason,
		nullTime(a.PublishedAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// Update no toca views: sólo IncrementViews lo mueve.
func (r *NewsRepo) Update(ctx context.Context, a news.Article) error {
	tags, err := marshalJSON(a.Tags, "[]")
	if err != nil {
		return err
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE news
		SET
			title = $2,
			summary = $3,
			content = $4,
			category = $5,
			image_url = $6,
			tags = $7::jsonb,
			status = $8,
			is_published = $9,
			approved_by = $10,
			approved_at = $11,
			rejection_reason = $12,
			published_at = $13,
			updated_at = $14
		WHERE id = $1
	`,
		a.ID,
		a.Title,
		a.Summary,
		a.Content,
		a.Category,
		a.ImageURL,
		tags,
		a.Status,
		a.IsPublished,
		a.ApprovedBy,
		nullTime(a.ApprovedAt),
		a.RejectionReason,
		nullTime(a.PublishedAt),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return news.ErrNotFound
	}
	return nil
}

func (r *NewsRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return news.ErrNotFound
	}
	return nil
}

func (r *NewsRepo) GetByID(ctx context.Context, id string) (news.Article, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+articleColumns+` FROM news WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *NewsRepo) List(ctx context.Context, f news.ListFilter) ([]news.Article, int, error) {
	where := sq.And{}
	if f.PublishedOnly {
		where = append(where, sq.Eq{"is_published": true})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.AuthorID != "" {
		where = append(where, sq.Eq{"author_id": f.AuthorID})
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		where = append(where, sq.Or{sq.ILike{"title": like}, sq.ILike{"summary": like}})
	}

	order := "created_at DESC"
	if f.PublishedOnly {
		order = "published_at DESC"
	}

	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("news").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(articleColumns).From("news").Where(where).
		OrderBy(order, "id ASC"), f.Offset, f.Limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]news.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// IncrementViews suma la visita en la misma sentencia que la lee.
func (r *NewsRepo) IncrementViews(ctx context.Context, id string) (news.Article, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE news
		SET views = views + 1
		WHERE id = $1 AND is_published
		RETURNING `+articleColumns, id)
	return scanArticle(row)
}

func scanArticle(row rowScanner) (news.Article, error) {
	var a news.Article
	var tags []byte
	var approvedAt, publishedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.AuthorID,
		&a.AuthorName,
		&a.Title,
		&a.Summary,
		&a.Content,
		&a.Category,
		&a.ImageURL,
		&tags,
		&a.Status,
		&a.IsPublished,
		&a.Views,
		&a.ApprovedBy,
		&approvedAt,
		&a.RejectionReason,
		&publishedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return news.Article{}, news.ErrNotFound
	}
	if err != nil {
		return news.Article{}, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &a.Tags); err != nil {
			return news.Article{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	a.ApprovedAt = timePtr(approvedAt)
	a.PublishedAt = timePtr(publishedAt)
	return a, nil
}
