package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/studio-booking/internal/db"
)

const appointmentColumns = `id, created_at, name, email, COALESCE(message, ''), start_time, end_time, status`

type PgRepository struct {
	conn db.Conn
}

func NewPgRepository(conn db.Conn) *PgRepository {
	return &PgRepository{conn: conn}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.CreatedAt,
		&a.Name,
		&a.Email,
		&a.Message,
		&a.StartTime,
		&a.EndTime,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func (r *PgRepository) queryAppointments(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListByRange(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
		  AND start_time < $2
		  AND end_time > $1
		ORDER BY start_time ASC
	`, from, to)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time ASC
	`)
}

func (r *PgRepository) Create(ctx context.Context, a NewAppointment) (*Appointment, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO appointments (name, email, message, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+appointmentColumns,
		a.Name, a.Email, nullableString(a.Message), a.StartTime, a.EndTime)
	return scanAppointment(row)
}

func (r *PgRepository) ListEndedConfirmed(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'confirmed'
		  AND end_time < $1
	`, now)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))
	return scanAppointment(row)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
