package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petcare-backend/internal/domain/users"

	sq "github.com/Masterminds/squirrel"
)

const userColumns = `id, email, password_hash, role, name, phone, address, specialization, bio, created_at, updated_at`

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Name,
		u.Phone,
		u.Address,
		u.Specialization,
		u.Bio,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if isUniqueViolation(err, "users_email_uniq") {
		return users.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET
			email = $2,
			password_hash = $3,
			role = $4,
			name = $5,
			phone = $6,
			address = $7,
			specialization = $8,
			bio = $9,
			updated_at = $10
		WHERE id = $1
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Name,
		u.Phone,
		u.Address,
		u.Specialization,
		u.Bio,
		u.UpdatedAt,
	)
	if isUniqueViolation(err, "users_email_uniq") {
		return users.ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context, f users.ListFilter) ([]users.User, int, error) {
	where := sq.And{}
	if f.Role != "" {
		where = append(where, sq.Eq{"role": f.Role})
	}

	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("users").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(userColumns).From("users").Where(where).
		OrderBy("created_at ASC", "email ASC"), f.Offset, f.Limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Specialization,
		&u.Bio,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}
