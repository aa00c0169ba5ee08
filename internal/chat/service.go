package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinic-assistant/internal/observability/metrics"
	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

// IntentResolver is the collaborator that classifies free text.
type IntentResolver interface {
	Resolve(ctx context.Context, text string) (*Resolution, error)
}

// SchedulingEngine is the slice of the scheduling engine the dialogue uses.
type SchedulingEngine interface {
	Book(ctx context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error)
	Reschedule(ctx context.Context, name, oldDate, oldTime, newDate, newTime string) (*scheduling.Appointment, error)
	Cancel(ctx context.Context, name, date, timeStr string) error
	List(ctx context.Context) ([]scheduling.Appointment, error)
}

// TurnResponse is the outbound shape for one dialogue turn. While fields
// are still being collected, MissingFields and CurrentState describe what
// is left; once an operation commits, Message and Appointment carry the
// result.
type TurnResponse struct {
	SessionID     string                   `json:"session_id"`
	Intent        string                   `json:"intent,omitempty"`
	MissingFields []string                 `json:"missing_fields,omitempty"`
	CurrentState  map[string]string        `json:"current_state,omitempty"`
	Reply         string                   `json:"reply,omitempty"`
	Message       string                   `json:"message,omitempty"`
	Appointment   *scheduling.BookingResult `json:"appointment,omitempty"`
	Appointments  []scheduling.Appointment `json:"appointments,omitempty"`
}

// Service drives the multi-turn slot-filling loop: resolve intent, collect
// missing fields turn by turn, then hand the completed request to the
// scheduling engine.
type Service struct {
	resolver IntentResolver
	sessions *SessionStore
	engine   SchedulingEngine
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(resolver IntentResolver, sessions *SessionStore, engine SchedulingEngine, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if resolver == nil {
		panic("chat: resolver required")
	}
	if sessions == nil {
		panic("chat: session store required")
	}
	if engine == nil {
		panic("chat: scheduling engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		resolver: resolver,
		sessions: sessions,
		engine:   engine,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleText processes one free-text turn. A session with an in-progress
// request treats the text as the answer to the first missing field; a fresh
// session goes through the intent resolver first.
func (s *Service) HandleText(ctx context.Context, sessionID, text string) (*TurnResponse, error) {
	sessionID = s.ensureSessionID(sessionID)

	pending, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if pending == nil {
		start := s.now()
		resolution, err := s.resolver.Resolve(ctx, text)
		elapsed := s.now().Sub(start).Seconds()
		if err != nil {
			s.metrics.ObserveResolveLatency("error", elapsed)
			s.metrics.ObserveTurn("unknown", "unrecognized")
			return nil, err
		}
		s.metrics.ObserveResolveLatency("ok", elapsed)

		pending = NewPendingRequest(resolution.Intent)
		// Extracted fields are best-effort; only required fields are kept,
		// applied in canonical order so normalization is deterministic.
		for _, field := range RequiredFields(resolution.Intent) {
			if v, ok := resolution.Fields[field]; ok {
				pending.ApplyUpdate(field, v, s.now())
			}
		}
	} else if missing := pending.MissingFields(); len(missing) > 0 {
		pending.ApplyUpdate(missing[0], text, s.now())
	}

	return s.advance(ctx, sessionID, pending)
}

// HandleUpdateField processes a structured update_field turn. The supplied
// state is untrusted and is merged through the same normalization path as
// free text.
func (s *Service) HandleUpdateField(ctx context.Context, sessionID, intentName string, state map[string]string, field, value string) (*TurnResponse, error) {
	sessionID = s.ensureSessionID(sessionID)

	pending, err := s.restorePending(ctx, sessionID, intentName, state)
	if err != nil {
		return nil, err
	}

	pending.ApplyUpdate(field, value, s.now())
	return s.advance(ctx, sessionID, pending)
}

// HandleComplete processes a complete_booking turn. The missing-field check
// always re-runs; an incomplete state goes back to collecting rather than
// erroring.
func (s *Service) HandleComplete(ctx context.Context, sessionID, intentName string, state map[string]string) (*TurnResponse, error) {
	sessionID = s.ensureSessionID(sessionID)

	pending, err := s.restorePending(ctx, sessionID, intentName, state)
	if err != nil {
		return nil, err
	}

	return s.advance(ctx, sessionID, pending)
}

// advance saves or completes the pending request depending on whether any
// required fields are still missing.
func (s *Service) advance(ctx context.Context, sessionID string, pending *PendingRequest) (*TurnResponse, error) {
	missing := pending.MissingFields()
	if len(missing) > 0 {
		if err := s.sessions.Save(ctx, sessionID, pending); err != nil {
			return nil, err
		}
		s.metrics.ObserveTurn(string(pending.Intent), "collecting")
		return &TurnResponse{
			SessionID:     sessionID,
			Intent:        string(pending.Intent),
			MissingFields: missing,
			CurrentState:  pending.Fields,
			Reply:         promptFor(missing[0]),
		}, nil
	}

	resp, err := s.complete(ctx, sessionID, pending)
	if err != nil {
		s.metrics.ObserveTurn(string(pending.Intent), "error")
		return nil, err
	}
	s.metrics.ObserveTurn(string(pending.Intent), "completed")
	return resp, nil
}

func (s *Service) complete(ctx context.Context, sessionID string, pending *PendingRequest) (*TurnResponse, error) {
	resp := &TurnResponse{
		SessionID: sessionID,
		Intent:    string(pending.Intent),
	}

	switch pending.Intent {
	case IntentBook:
		age, _ := strconv.Atoi(strings.TrimSpace(pending.Fields["age"]))
		result, err := s.engine.Book(ctx, scheduling.BookingRequest{
			Name:          pending.Fields["name"],
			Age:           age,
			Gender:        pending.Fields["gender"],
			ContactNumber: pending.Fields["contact_number"],
			Email:         pending.Fields["email"],
			Department:    pending.Fields["department"],
			Date:          pending.Fields["appointment_date"],
			Time:          pending.Fields["appointment_time"],
		})
		if err != nil {
			s.metrics.ObserveBooking("book", "error")
			return nil, err
		}
		s.metrics.ObserveBooking("book", "ok")
		resp.Message = result.Message
		resp.Appointment = result

	case IntentReschedule:
		_, err := s.engine.Reschedule(ctx,
			pending.Fields["name"],
			pending.Fields["old_date"],
			pending.Fields["old_time"],
			pending.Fields["new_date"],
			pending.Fields["new_time"],
		)
		if err != nil {
			s.metrics.ObserveBooking("reschedule", "error")
			return nil, err
		}
		s.metrics.ObserveBooking("reschedule", "ok")
		resp.Message = "Appointment rescheduled"

	case IntentCancel:
		err := s.engine.Cancel(ctx,
			pending.Fields["name"],
			pending.Fields["appointment_date"],
			pending.Fields["appointment_time"],
		)
		if err != nil {
			s.metrics.ObserveBooking("cancel", "error")
			return nil, err
		}
		s.metrics.ObserveBooking("cancel", "ok")
		resp.Message = "Appointment canceled"

	case IntentView:
		appointments, err := s.engine.List(ctx)
		if err != nil {
			return nil, err
		}
		if appointments == nil {
			appointments = []scheduling.Appointment{}
		}
		resp.Appointments = appointments

	default:
		return nil, fmt.Errorf("chat: unsupported intent %q", pending.Intent)
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		// The operation committed; a stale session only costs the user a
		// fresh intent on their next message.
		s.logger.Warn("failed to clear session", "session_id", sessionID, "error", err)
	}

	return resp, nil
}

// restorePending prefers the stored session and otherwise rebuilds state
// from the client-supplied turn.
func (s *Service) restorePending(ctx context.Context, sessionID, intentName string, state map[string]string) (*PendingRequest, error) {
	pending, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return pending, nil
	}

	intent, ok := ParseIntent(intentName)
	if !ok {
		if intentName == "" && state["intent"] != "" {
			intent, ok = ParseIntent(state["intent"])
		}
		if !ok {
			return nil, ErrUnrecognized
		}
	}

	pending = NewPendingRequest(intent)
	for _, field := range RequiredFields(intent) {
		if v, ok := state[field]; ok && v != "" {
			pending.ApplyUpdate(field, v, s.now())
		}
	}
	return pending, nil
}

func (s *Service) ensureSessionID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.New().String()
	}
	return id
}

// prompts maps each field to the question the assistant asks for it.
var prompts = map[string]string{
	"name":             "May I have your full name?",
	"age":              "How old are you?",
	"gender":           "What is your gender?",
	"contact_number":   "What phone number can we reach you on?",
	"email":            "What is your email address?",
	"department":       "Which department or specialty do you need (e.g. Cardiology)?",
	"appointment_date": "What date works for you?",
	"appointment_time": "What time works for you?",
	"old_date":         "What is the date of your existing appointment?",
	"old_time":         "What is the time of your existing appointment?",
	"new_date":         "What new date would you like?",
	"new_time":         "What new time would you like?",
}

func promptFor(field string) string {
	if p, ok := prompts[field]; ok {
		return p
	}
	return fmt.Sprintf("Please provide your %s.", strings.ReplaceAll(field, "_", " "))
}
