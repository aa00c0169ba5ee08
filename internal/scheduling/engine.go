package scheduling

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careloop/clinic-assistant/pkg/logging"
)

// Engine commits bookings, reschedules and cancellations. Every operation
// runs inside one store transaction so the availability check and the write
// it guards cannot be split by a concurrent request.
type Engine struct {
	store  *Store
	logger *logging.Logger
}

func NewEngine(store *Store, logger *logging.Logger) *Engine {
	if store == nil {
		panic("scheduling: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Book creates the patient record, picks the first available doctor for the
// requested department in ascending id order, and inserts a Scheduled
// appointment. Returns ErrNoMatchingSpecialization when no doctor covers
// the department and ErrNoAvailableDoctor when every candidate is busy at
// the slot.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduling: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	patient := Patient{
		ID:            newPatientID(),
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		Department:    req.Department,
	}
	if err := e.store.InsertPatient(ctx, tx, patient); err != nil {
		return nil, err
	}

	doctor, err := e.pickAvailableDoctor(ctx, tx, req.Department, req.Date, req.Time, "")
	if err != nil {
		return nil, err
	}

	appointment := Appointment{
		PatientID:  patient.ID,
		DoctorID:   doctor.ID,
		Department: req.Department,
		Date:       req.Date,
		Time:       req.Time,
		Status:     StatusScheduled,
	}
	id, err := e.store.InsertAppointment(ctx, tx, appointment)
	if err != nil {
		return nil, err
	}
	appointment.ID = id

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("scheduling: commit failed: %w", err)
	}

	e.logger.Info("appointment booked",
		"patient_id", patient.ID,
		"doctor_id", doctor.ID,
		"date", req.Date,
		"time", req.Time,
	)

	return &BookingResult{
		Message:     fmt.Sprintf("Appointment scheduled with Dr. %s", doctor.Name),
		PatientID:   patient.ID,
		DoctorID:    strconv.Itoa(doctor.ID),
		DoctorName:  doctor.Name,
		Appointment: &appointment,
	}, nil
}

// Reschedule moves the patient's Scheduled appointment from the old slot to
// the new one, re-validating the doctor's availability first. A conflict at
// the new slot rolls back and leaves the original appointment untouched.
func (e *Engine) Reschedule(ctx context.Context, name, oldDate, oldTime, newDate, newTime string) (*Appointment, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduling: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appointment, err := e.store.FindScheduled(ctx, tx, name, oldDate, oldTime)
	if err != nil {
		return nil, err
	}

	busy, err := e.store.HasConflictingAppointment(ctx, tx, appointment.DoctorID, newDate, newTime, appointment.ID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrSlotConflict
	}

	if err := e.store.UpdateAppointmentSlot(ctx, tx, appointment.ID, newDate, newTime); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("scheduling: commit failed: %w", err)
	}

	appointment.Date = newDate
	appointment.Time = newTime

	e.logger.Info("appointment rescheduled",
		"appointment_id", appointment.ID,
		"date", newDate,
		"time", newTime,
	)
	return appointment, nil
}

// Cancel transitions the matching Scheduled appointment to Cancelled,
// freeing the slot for future bookings.
func (e *Engine) Cancel(ctx context.Context, name, date, timeStr string) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appointment, err := e.store.FindScheduled(ctx, tx, name, date, timeStr)
	if err != nil {
		return err
	}

	if err := e.store.UpdateAppointmentStatus(ctx, tx, appointment.ID, StatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit failed: %w", err)
	}

	e.logger.Info("appointment cancelled", "appointment_id", appointment.ID)
	return nil
}

// List returns all appointments with patient names.
func (e *Engine) List(ctx context.Context) ([]Appointment, error) {
	return e.store.ListAppointments(ctx)
}

func (e *Engine) pickAvailableDoctor(ctx context.Context, tx pgx.Tx, department, date, timeStr, excludeID string) (*Doctor, error) {
	doctors, err := e.store.DoctorsBySpecialization(ctx, tx, department)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, ErrNoMatchingSpecialization
	}

	for i := range doctors {
		busy, err := e.store.HasConflictingAppointment(ctx, tx, doctors[i].ID, date, timeStr, excludeID)
		if err != nil {
			return nil, err
		}
		if !busy {
			return &doctors[i], nil
		}
	}
	return nil, ErrNoAvailableDoctor
}

// newPatientID generates the short patient identity: the first segment of a
// UUID, 8 hex characters.
func newPatientID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}
