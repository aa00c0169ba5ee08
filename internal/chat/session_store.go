package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionStore persists in-progress PendingRequests keyed by session id.
// Sessions expire after the configured TTL; abandoned conversations simply
// age out. Concurrent writers to the same session are last-write-wins.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("clinic.internal.chat.session"),
	}
}

// Save persists the pending request for a session.
func (s *SessionStore) Save(ctx context.Context, sessionID string, pending *PendingRequest) error {
	ctx, span := s.tracer.Start(ctx, "chat.save_session")
	defer span.End()

	data, err := json.Marshal(pending)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist session: %w", err)
	}
	return nil
}

// Load retrieves the pending request for a session, or nil when the session
// has no in-progress request.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*PendingRequest, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load session: %w", err)
	}

	var pending PendingRequest
	if err := json.Unmarshal(data, &pending); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode session: %w", err)
	}
	return &pending, nil
}

// Clear discards the pending request for a session, e.g. after a completed
// booking.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "chat.clear_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to clear session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
