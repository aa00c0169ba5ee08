package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

// Turn actions accepted in the structured message form.
const (
	ActionUpdateField     = "update_field"
	ActionCompleteBooking = "complete_booking"
)

// turnRequest is the inbound shape: message is either a plain string or a
// structured turn object.
type turnRequest struct {
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

type structuredTurn struct {
	Action       string            `json:"action"`
	Intent       string            `json:"intent"`
	CurrentState map[string]string `json:"current_state"`
	Field        string            `json:"field"`
	Value        string            `json:"value"`
}

// Handler terminates POST /chat.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleTurn decodes one chat turn and routes it to the dialogue service.
func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Message) == 0 {
		writeError(w, http.StatusBadRequest, "Missing message")
		return
	}

	var (
		resp *TurnResponse
		err  error
	)

	var text string
	if jsonErr := json.Unmarshal(req.Message, &text); jsonErr == nil {
		resp, err = h.service.HandleText(r.Context(), req.SessionID, text)
	} else {
		var turn structuredTurn
		if jsonErr := json.Unmarshal(req.Message, &turn); jsonErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid message")
			return
		}
		switch turn.Action {
		case ActionUpdateField:
			resp, err = h.service.HandleUpdateField(r.Context(), req.SessionID, turn.Intent, turn.CurrentState, turn.Field, turn.Value)
		case ActionCompleteBooking:
			resp, err = h.service.HandleComplete(r.Context(), req.SessionID, turn.Intent, turn.CurrentState)
		default:
			writeError(w, http.StatusBadRequest, "Unknown action")
			return
		}
	}

	if err != nil {
		h.writeTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnrecognized):
		writeError(w, http.StatusBadRequest, "Sorry, I couldn't understand that. Could you rephrase your request?")
	case errors.Is(err, scheduling.ErrNotFound),
		errors.Is(err, scheduling.ErrNoMatchingSpecialization),
		errors.Is(err, scheduling.ErrNoAvailableDoctor):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
