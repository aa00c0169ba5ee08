package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

func newTestHandler(t *testing.T, resolver *fakeResolver, engine *fakeEngine) *Handler {
	t.Helper()
	svc, _ := newTestService(t, resolver, engine)
	return NewHandler(svc, logging.Default())
}

func postTurn(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.HandleTurn(rr, req)
	return rr
}

func TestHandleTurnFreeText(t *testing.T) {
	resolver := &fakeResolver{resolution: &Resolution{
		Intent: IntentBook,
		Fields: map[string]string{"name": "John Doe"},
	}}
	h := newTestHandler(t, resolver, &fakeEngine{})

	rr := postTurn(t, h, `{"session_id":"s1","message":"I want to book an appointment"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp TurnResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("session_id = %q, want s1", resp.SessionID)
	}
	if resp.Intent != "book" {
		t.Errorf("intent = %q, want book", resp.Intent)
	}
	if len(resp.MissingFields) == 0 {
		t.Error("expected missing fields in collecting response")
	}
}

func TestHandleTurnStructuredUpdate(t *testing.T) {
	h := newTestHandler(t, &fakeResolver{}, &fakeEngine{})

	body := `{"session_id":"s2","message":{"action":"update_field","intent":"cancel","current_state":{"name":"Jane"},"field":"appointment_date","value":"2025-04-01"}}`
	rr := postTurn(t, h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp TurnResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.MissingFields) != 1 || resp.MissingFields[0] != "appointment_time" {
		t.Errorf("missing = %v, want [appointment_time]", resp.MissingFields)
	}
}

func TestHandleTurnCompleteBooking(t *testing.T) {
	engine := &fakeEngine{}
	h := newTestHandler(t, &fakeResolver{}, engine)

	body := `{"session_id":"s3","message":{"action":"complete_booking","intent":"cancel","current_state":{"name":"Jane","appointment_date":"2025-04-01","appointment_time":"10:00"}}}`
	rr := postTurn(t, h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if engine.cancelArgs == nil {
		t.Fatal("engine cancel was not invoked")
	}

	var resp TurnResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Message != "Appointment canceled" {
		t.Errorf("message = %q, want cancellation confirmation", resp.Message)
	}
}

func TestHandleTurnUnrecognized(t *testing.T) {
	h := newTestHandler(t, &fakeResolver{err: ErrUnrecognized}, &fakeEngine{})

	rr := postTurn(t, h, `{"session_id":"s4","message":"gibberish"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected an error message asking the user to rephrase")
	}
}

func TestHandleTurnEngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no doctor", scheduling.ErrNoAvailableDoctor, http.StatusNotFound},
		{"no specialization", scheduling.ErrNoMatchingSpecialization, http.StatusNotFound},
		{"slot conflict", scheduling.ErrSlotConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{bookErr: tt.err}
			resolver := &fakeResolver{resolution: &Resolution{
				Intent: IntentBook,
				Fields: map[string]string{
					"name": "Jane", "age": "30", "gender": "female",
					"contact_number": "555-0100", "email": "jane@example.com",
					"department": "Cardiology", "appointment_date": "2025-04-01",
					"appointment_time": "10:00",
				},
			}}
			h := newTestHandler(t, resolver, engine)

			rr := postTurn(t, h, `{"session_id":"s5","message":"book everything"}`)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleTurnBadRequests(t *testing.T) {
	h := newTestHandler(t, &fakeResolver{}, &fakeEngine{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing message", `{"session_id":"s6"}`},
		{"unknown action", `{"session_id":"s6","message":{"action":"launch"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := postTurn(t, h, tt.body); rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}
