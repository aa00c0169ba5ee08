package scheduling

// Appointment statuses. Appointments are never deleted; cancellation is a
// status transition that frees the (doctor, date, time) slot.
const (
	StatusScheduled = "Scheduled"
	StatusCancelled = "Cancelled"
)

// Patient is created at booking time and immutable afterwards.
type Patient struct {
	ID            string `json:"patient_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
	Department    string `json:"department"`
}

// Doctor is read-only reference data seeded out of band.
type Doctor struct {
	ID             int    `json:"doctor_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// Appointment holds one (doctor, date, time) slot while status is not
// Cancelled.
type Appointment struct {
	ID          string `json:"appointment_id"`
	PatientID   string `json:"patient_id"`
	DoctorID    int    `json:"doctor_id"`
	Department  string `json:"department"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	PatientName string `json:"patient_name,omitempty"`
}

// BookingRequest is a fully collected booking, ready to commit.
type BookingRequest struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
	Department    string `json:"department"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
}

// BookingResult is returned on a successful booking.
type BookingResult struct {
	Message     string `json:"message"`
	PatientID   string `json:"patient_id"`
	DoctorID    string `json:"doctor_id"`
	DoctorName  string `json:"doctor_name"`
	Appointment *Appointment `json:"-"`
}
