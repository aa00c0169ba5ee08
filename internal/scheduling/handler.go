package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/careloop/clinic-assistant/pkg/logging"
)

// Handler exposes the one-shot booking endpoints. The multi-turn chat flow
// drives the same Engine, so required-field rules and conflict handling
// live in exactly one place.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

type bookRequestBody struct {
	Name          string          `json:"name"`
	Age           json.RawMessage `json:"age"`
	Gender        string          `json:"gender"`
	ContactNumber string          `json:"contact_number"`
	Email         string          `json:"email"`
	Department    string          `json:"department"`
	// medical_history is the legacy spelling of department.
	MedicalHistory  string `json:"medical_history"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

// BookAppointment handles POST /api/book-appointment.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var body bookRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	department := body.Department
	if department == "" {
		department = body.MedicalHistory
	}

	age, ageOK := parseAge(body.Age)
	if body.Name == "" || !ageOK || body.Gender == "" || body.ContactNumber == "" ||
		body.Email == "" || department == "" || body.AppointmentDate == "" || body.AppointmentTime == "" {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	result, err := h.engine.Book(r.Context(), BookingRequest{
		Name:          body.Name,
		Age:           age,
		Gender:        body.Gender,
		ContactNumber: body.ContactNumber,
		Email:         body.Email,
		Department:    department,
		Date:          body.AppointmentDate,
		Time:          body.AppointmentTime,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type rescheduleRequestBody struct {
	Name    string `json:"name"`
	OldDate string `json:"old_date"`
	OldTime string `json:"old_time"`
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

// RescheduleAppointment handles POST /api/reschedule-appointment.
func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var body rescheduleRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == "" || body.OldDate == "" || body.OldTime == "" || body.NewDate == "" || body.NewTime == "" {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	if _, err := h.engine.Reschedule(r.Context(), body.Name, body.OldDate, body.OldTime, body.NewDate, body.NewTime); err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment rescheduled"})
}

type cancelRequestBody struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// CancelAppointment handles POST /api/cancel-appointment.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var body cancelRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == "" || body.Date == "" || body.Time == "" {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	if err := h.engine.Cancel(r.Context(), body.Name, body.Date, body.Time); err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment canceled"})
}

// ListAppointments handles GET /api/appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.engine.List(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if appointments == nil {
		appointments = []Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string][]Appointment{"appointments": appointments})
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoMatchingSpecialization),
		errors.Is(err, ErrNoAvailableDoctor),
		errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("scheduling operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseAge accepts both a JSON number and a numeric string, since intake
// forms submit either.
func parseAge(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n > 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, n > 0
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
