package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"petcare-backend/internal/domain/pets"

	sq "github.com/Masterminds/squirrel"
)

const petColumns = `id, owner_user_id, name, species, breed, sex, birth_date, weight_kg, microchip, notes, medical_history, created_at, updated_at`

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	history, err := marshalJSON(p.MedicalHistory, "[]")
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12,$13)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.WeightKg,
		p.Microchip,
		p.Notes,
		history,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update reescribe el perfil; la historia clínica sólo se toca con AddMedicalRecord.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			weight_kg = $7,
			microchip = $8,
			notes = $9,
			updated_at = $10
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.WeightKg,
		p.Microchip,
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	return scanPet(row)
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	items, _, err := r.List(ctx, pets.ListFilter{OwnerUserID: ownerUserID})
	return items, err
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, int, error) {
	where := sq.And{}
	if f.OwnerUserID != "" {
		where = append(where, sq.Eq{"owner_user_id": f.OwnerUserID})
	}
	if f.Species != "" {
		where = append(where, sq.Eq{"species": f.Species})
	}

	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("pets").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(petColumns).From("pets").Where(where).
		OrderBy("created_at ASC", "id ASC"), f.Offset, f.Limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AddMedicalRecord concatena al array JSONB sin leer ni reescribir el resto.
func (r *PetsRepo) AddMedicalRecord(ctx context.Context, petID string, rec pets.MedicalRecord, updatedAt time.Time) error {
	entry, err := marshalJSON([]pets.MedicalRecord{rec}, "[]")
	if err != nil {
		return err
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE pets
		SET medical_history = medical_history || $2::jsonb,
			updated_at = $3
		WHERE id = $1
	`, petID, entry, updatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var bd sql.NullTime
	var history []byte
	err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Sex,
		&bd,
		&p.WeightKg,
		&p.Microchip,
		&p.Notes,
		&history,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	if err != nil {
		return pets.Pet{}, err
	}

	// birth_date es DATE: pgx lo entrega como medianoche UTC
	p.BirthDate = timePtr(bd)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.MedicalHistory); err != nil {
			return pets.Pet{}, fmt.Errorf("decode medical_history: %w", err)
		}
	}
	return p, nil
}

// marshalJSON serializa v para columnas JSONB; nil se guarda como empty.
func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
