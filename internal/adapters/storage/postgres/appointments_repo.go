package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"petcare-backend/internal/domain/booking"

	sq "github.com/Masterminds/squirrel"
)

const (
	appointmentColumns = `id, customer_id, pet_id, staff_id, service, appointment_date, time_slot, status, notes, price, cancelled_at, created_at, updated_at`

	// índice único parcial (staff, día, franja) de turnos vivos
	appointmentSlotIndex = "appointments_staff_slot_uniq"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a booking.Appointment) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		a.ID,
		a.CustomerID,
		a.PetID,
		nullString(a.StaffID),
		a.Service,
		a.Date,
		a.TimeSlot,
		a.Status,
		a.Notes,
		a.Price,
		nullTime(a.CancelledAt),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err, appointmentSlotIndex) {
		return booking.ErrSlotTaken
	}
	return err
}

func (r *AppointmentsRepo) Update(ctx context.Context, a booking.Appointment) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE appointments
		SET
			staff_id = $2,
			service = $3,
			appointment_date = $4,
			time_slot = $5,
			status = $6,
			notes = $7,
			price = $8,
			cancelled_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		a.ID,
		nullString(a.StaffID),
		a.Service,
		a.Date,
		a.TimeSlot,
		a.Status,
		a.Notes,
		a.Price,
		nullTime(a.CancelledAt),
		a.UpdatedAt,
	)
	if isUniqueViolation(err, appointmentSlotIndex) {
		return booking.ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (booking.Appointment, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *AppointmentsRepo) GetForUpdate(ctx context.Context, id string) (booking.Appointment, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	return scanAppointment(row)
}

func (r *AppointmentsRepo) List(ctx context.Context, f booking.ListFilter) ([]booking.Appointment, int, error) {
	where := sq.And{}
	if f.CustomerID != "" {
		where = append(where, sq.Eq{"customer_id": f.CustomerID})
	}
	if f.StaffID != "" {
		where = append(where, sq.Eq{"staff_id": f.StaffID})
	}
	if f.PetID != "" {
		where = append(where, sq.Eq{"pet_id": f.PetID})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"appointment_date": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"appointment_date": *f.To})
	}

	return r.query(ctx, where, f.Offset, f.Limit)
}

func (r *AppointmentsRepo) ListLiveByDate(ctx context.Context, date time.Time, staffID string) ([]booking.Appointment, error) {
	where := sq.And{
		sq.Eq{"appointment_date": date},
		sq.NotEq{"status": booking.StatusCancelled},
	}
	if staffID != "" {
		where = append(where, sq.Eq{"staff_id": staffID})
	}

	items, _, err := r.query(ctx, where, 0, 0)
	return items, err
}

func (r *AppointmentsRepo) query(ctx context.Context, where sq.And, offset, limit int) ([]booking.Appointment, int, error) {
	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("appointments").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(appointmentColumns).From("appointments").Where(where).
		OrderBy("appointment_date ASC", "time_slot ASC", "created_at ASC"), offset, limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]booking.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanAppointment(row rowScanner) (booking.Appointment, error) {
	var a booking.Appointment
	var staffID sql.NullString
	var cancelledAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.PetID,
		&staffID,
		&a.Service,
		&a.Date,
		&a.TimeSlot,
		&a.Status,
		&a.Notes,
		&a.Price,
		&cancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Appointment{}, booking.ErrNotFound
	}
	if err != nil {
		return booking.Appointment{}, err
	}

	a.StaffID = staffID.String
	a.CancelledAt = timePtr(cancelledAt)
	a.Date = a.Date.UTC()
	return a, nil
}
