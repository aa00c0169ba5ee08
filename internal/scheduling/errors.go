package scheduling

import "errors"

var (
	// ErrNoMatchingSpecialization is returned when no doctor covers the
	// requested department.
	ErrNoMatchingSpecialization = errors.New("no doctors found for the requested specialization")

	// ErrNoAvailableDoctor is returned when every matching doctor already
	// has an appointment at the requested slot.
	ErrNoAvailableDoctor = errors.New("no doctor available at the given time")

	// ErrNotFound is returned when no Scheduled appointment matches the
	// given patient name, date and time.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotConflict is returned when a reschedule target slot is already
	// taken; the original appointment is left untouched.
	ErrSlotConflict = errors.New("the requested slot is no longer available")
)
