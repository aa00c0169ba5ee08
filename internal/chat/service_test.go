package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

type fakeResolver struct {
	resolution *Resolution
	err        error
	calls      int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*Resolution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resolution, nil
}

type fakeEngine struct {
	bookReq        *scheduling.BookingRequest
	bookResult     *scheduling.BookingResult
	bookErr        error
	rescheduleArgs []string
	cancelArgs     []string
	listResult     []scheduling.Appointment
}

func (f *fakeEngine) Book(_ context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error) {
	f.bookReq = &req
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	if f.bookResult != nil {
		return f.bookResult, nil
	}
	return &scheduling.BookingResult{Message: "Appointment scheduled with Dr. Smith"}, nil
}

func (f *fakeEngine) Reschedule(_ context.Context, name, oldDate, oldTime, newDate, newTime string) (*scheduling.Appointment, error) {
	f.rescheduleArgs = []string{name, oldDate, oldTime, newDate, newTime}
	return &scheduling.Appointment{}, nil
}

func (f *fakeEngine) Cancel(_ context.Context, name, date, timeStr string) error {
	f.cancelArgs = []string{name, date, timeStr}
	return nil
}

func (f *fakeEngine) List(_ context.Context) ([]scheduling.Appointment, error) {
	return f.listResult, nil
}

func newTestService(t *testing.T, resolver *fakeResolver, engine *fakeEngine) (*Service, *SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sessions := NewSessionStore(client, time.Hour)
	return NewService(resolver, sessions, engine, nil, logging.Default()), sessions
}

func TestHandleTextStartsCollecting(t *testing.T) {
	resolver := &fakeResolver{resolution: &Resolution{
		Intent: IntentBook,
		Fields: map[string]string{"name": "John Doe", "appointment_date": "tomorrow"},
	}}
	engine := &fakeEngine{}
	svc, _ := newTestService(t, resolver, engine)

	resp, err := svc.HandleText(context.Background(), "", "book me in tomorrow, I'm John Doe")
	if err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if resp.Intent != "book" {
		t.Errorf("intent = %q, want book", resp.Intent)
	}
	if len(resp.MissingFields) == 0 || resp.MissingFields[0] != "age" {
		t.Errorf("missing = %v, want age first", resp.MissingFields)
	}
	if resp.Reply != prompts["age"] {
		t.Errorf("reply = %q, want the age prompt", resp.Reply)
	}
	if resp.CurrentState["name"] != "John Doe" {
		t.Errorf("state name = %q, want John Doe", resp.CurrentState["name"])
	}
	if engine.bookReq != nil {
		t.Error("engine should not be called while fields are missing")
	}
}

func TestHandleTextAnswersPendingField(t *testing.T) {
	resolver := &fakeResolver{}
	engine := &fakeEngine{}
	svc, sessions := newTestService(t, resolver, engine)
	ctx := context.Background()

	pending := NewPendingRequest(IntentCancel)
	pending.ApplyUpdate("appointment_date", "2025-04-01", testNow)
	pending.ApplyUpdate("appointment_time", "10:00", testNow)
	if err := sessions.Save(ctx, "sess-1", pending); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	resp, err := svc.HandleText(ctx, "sess-1", "John Doe")
	if err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if resolver.calls != 0 {
		t.Error("resolver should be skipped while a request is in progress")
	}
	if resp.Message != "Appointment canceled" {
		t.Errorf("message = %q, want cancellation confirmation", resp.Message)
	}
	if want := []string{"John Doe", "2025-04-01", "10:00"}; len(engine.cancelArgs) != 3 ||
		engine.cancelArgs[0] != want[0] || engine.cancelArgs[1] != want[1] || engine.cancelArgs[2] != want[2] {
		t.Errorf("cancel args = %v, want %v", engine.cancelArgs, want)
	}

	// The session is cleared once the operation commits.
	if got, err := sessions.Load(ctx, "sess-1"); err != nil || got != nil {
		t.Errorf("session after completion = %v, %v; want nil, nil", got, err)
	}
}

func TestHandleTextUnrecognized(t *testing.T) {
	resolver := &fakeResolver{err: ErrUnrecognized}
	svc, _ := newTestService(t, resolver, &fakeEngine{})

	_, err := svc.HandleText(context.Background(), "", "what's the weather like")
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("err = %v, want ErrUnrecognized", err)
	}
}

func TestHandleTextViewListsImmediately(t *testing.T) {
	resolver := &fakeResolver{resolution: &Resolution{Intent: IntentView, Fields: map[string]string{}}}
	engine := &fakeEngine{}
	svc, _ := newTestService(t, resolver, engine)

	resp, err := svc.HandleText(context.Background(), "", "show my appointments")
	if err != nil {
		t.Fatalf("HandleText failed: %v", err)
	}
	if resp.Appointments == nil {
		t.Error("expected an empty appointments array, not null")
	}
}

func TestHandleUpdateFieldThenComplete(t *testing.T) {
	resolver := &fakeResolver{}
	engine := &fakeEngine{}
	svc, _ := newTestService(t, resolver, engine)
	ctx := context.Background()

	state := map[string]string{
		"name":           "Jane Roe",
		"age":            "34",
		"gender":         "female",
		"contact_number": "555-0100",
		"email":          "jane@example.com",
		"department":     "Cardiology",
	}

	resp, err := svc.HandleUpdateField(ctx, "sess-2", "book", state, "appointment_date", "2025-04-01")
	if err != nil {
		t.Fatalf("HandleUpdateField failed: %v", err)
	}
	if len(resp.MissingFields) != 1 || resp.MissingFields[0] != "appointment_time" {
		t.Errorf("missing = %v, want [appointment_time]", resp.MissingFields)
	}

	resp, err = svc.HandleUpdateField(ctx, "sess-2", "book", nil, "appointment_time", "3pm")
	if err != nil {
		t.Fatalf("HandleUpdateField failed: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("expected booking confirmation, got %+v", resp)
	}
	if engine.bookReq == nil {
		t.Fatal("engine was not called")
	}
	if engine.bookReq.Age != 34 {
		t.Errorf("age = %d, want 34", engine.bookReq.Age)
	}
	if engine.bookReq.Time != "15:00" {
		t.Errorf("time = %q, want normalized 15:00", engine.bookReq.Time)
	}
	if engine.bookReq.Department != "Cardiology" {
		t.Errorf("department = %q, want Cardiology", engine.bookReq.Department)
	}
}

func TestHandleCompleteReturnsToCollecting(t *testing.T) {
	resolver := &fakeResolver{}
	engine := &fakeEngine{}
	svc, _ := newTestService(t, resolver, engine)

	resp, err := svc.HandleComplete(context.Background(), "sess-3", "book", map[string]string{"name": "Jane Roe"})
	if err != nil {
		t.Fatalf("HandleComplete failed: %v", err)
	}
	if len(resp.MissingFields) == 0 {
		t.Error("incomplete state should go back to collecting")
	}
	if engine.bookReq != nil {
		t.Error("engine must not run with fields missing")
	}
}

func TestHandleCompleteUnknownIntent(t *testing.T) {
	svc, _ := newTestService(t, &fakeResolver{}, &fakeEngine{})

	_, err := svc.HandleComplete(context.Background(), "sess-4", "teleport", nil)
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("err = %v, want ErrUnrecognized", err)
	}
}
