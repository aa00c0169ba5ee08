package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the pool surface the store needs; Begin exposes the
// transaction primitive the engine composes booking steps inside.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists patients, doctors and appointments in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// InsertPatient creates the patient record inside the given querier scope.
func (s *Store) InsertPatient(ctx context.Context, q Querier, p Patient) error {
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO patients (id, name, age, gender, contact_number, email, department)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query, p.ID, p.Name, p.Age, p.Gender, p.ContactNumber, p.Email, p.Department); err != nil {
		return fmt.Errorf("scheduling: insert patient failed: %w", err)
	}
	return nil
}

// DoctorsBySpecialization returns matching doctors in ascending id order.
// The rows are locked for the duration of the transaction so two competing
// bookings for the same specialization serialize on the availability check.
func (s *Store) DoctorsBySpecialization(ctx context.Context, q Querier, specialization string) ([]Doctor, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		SELECT id, name, specialization
		FROM doctors
		WHERE specialization = $1
		ORDER BY id
		FOR UPDATE
	`
	rows, err := q.Query(ctx, query, specialization)
	if err != nil {
		return nil, fmt.Errorf("scheduling: doctor query failed: %w", err)
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization); err != nil {
			return nil, fmt.Errorf("scheduling: doctor scan failed: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: doctor rows failed: %w", err)
	}
	return doctors, nil
}

// HasConflictingAppointment reports whether the doctor already holds a
// non-cancelled appointment at (date, time). excludeID skips one
// appointment, so a reschedule does not conflict with itself.
func (s *Store) HasConflictingAppointment(ctx context.Context, q Querier, doctorID int, date, timeStr, excludeID string) (bool, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time = $3
			  AND status <> 'Cancelled'
			  AND ($4 = '' OR id <> $4::uuid)
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, doctorID, date, timeStr, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("scheduling: conflict check failed: %w", err)
	}
	return exists, nil
}

// InsertAppointment creates the appointment row. The partial unique index
// on (doctor_id, date, time) for non-cancelled rows backstops the engine's
// in-transaction conflict check.
func (s *Store) InsertAppointment(ctx context.Context, q Querier, a Appointment) (string, error) {
	if q == nil {
		q = s.pool
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, department, date, time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.Exec(ctx, query, a.ID, a.PatientID, a.DoctorID, a.Department, a.Date, a.Time, a.Status); err != nil {
		return "", fmt.Errorf("scheduling: insert appointment failed: %w", err)
	}
	return a.ID, nil
}

// FindScheduled locates the Scheduled appointment for a patient name at
// (date, time), locking the row for update. Returns ErrNotFound when absent.
func (s *Store) FindScheduled(ctx context.Context, q Querier, name, date, timeStr string) (*Appointment, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.department, a.date, a.time, a.status
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE p.name = $1 AND a.date = $2 AND a.time = $3 AND a.status = 'Scheduled'
		ORDER BY a.id
		LIMIT 1
		FOR UPDATE OF a
	`
	var a Appointment
	err := q.QueryRow(ctx, query, name, date, timeStr).Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Department, &a.Date, &a.Time, &a.Status,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scheduling: appointment lookup failed: %w", err)
	}
	return &a, nil
}

// UpdateAppointmentSlot moves an appointment to a new date and time.
func (s *Store) UpdateAppointmentSlot(ctx context.Context, q Querier, id, date, timeStr string) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE appointments SET date = $2, time = $3 WHERE id = $1`, id, date, timeStr)
	if err != nil {
		return fmt.Errorf("scheduling: slot update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAppointmentStatus transitions an appointment's status.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, q Querier, id, status string) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("scheduling: status update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAppointments returns every appointment with its patient name, newest
// first.
func (s *Store) ListAppointments(ctx context.Context) ([]Appointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.department, a.date, a.time, a.status, p.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		ORDER BY a.date DESC, a.time DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scheduling: appointment list failed: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Department, &a.Date, &a.Time, &a.Status, &a.PatientName); err != nil {
			return nil, fmt.Errorf("scheduling: appointment scan failed: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: appointment rows failed: %w", err)
	}
	return appointments, nil
}
