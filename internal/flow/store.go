package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// activeTTL bounds how long an in-progress session may sit idle.
	// Every valid transition refreshes it.
	activeTTL = time.Hour

	// terminalTTL is the grace window after a session completes or is
	// cancelled, so the client can read the final state once before the
	// key disappears.
	terminalTTL = 5 * time.Minute
)

// SessionStore persists flow sessions in Redis as TTL'd JSON blobs.
type SessionStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewSessionStore creates a session store backed by the given client.
func NewSessionStore(redisClient *redis.Client, tracer trace.Tracer) *SessionStore {
	if redisClient == nil {
		panic("flow: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("atendeai.internal.flow.sessions")
	}
	return &SessionStore{
		redis:  redisClient,
		tracer: tracer,
	}
}

// SessionKey builds the composite key for a (clinic, patient) pair.
func SessionKey(clinicID, patientPhone string) string {
	return fmt.Sprintf("flow:%s:%s", clinicID, patientPhone)
}

// Get loads the session for the pair, or nil when none exists.
func (s *SessionStore) Get(ctx context.Context, clinicID, patientPhone string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "flow.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, SessionKey(clinicID, patientPhone)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("flow: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("flow: failed to decode session: %w", err)
	}
	return &sess, nil
}

// Put writes the session with the TTL appropriate to its state: terminal
// sessions get the short grace window, everything else the full TTL.
func (s *SessionStore) Put(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "flow.save_session")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("flow: failed to marshal session: %w", err)
	}

	ttl := activeTTL
	if sess.State.Terminal() {
		ttl = terminalTTL
	}
	if err := s.redis.Set(ctx, SessionKey(sess.ClinicID, sess.PatientPhone), data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("flow: failed to persist session: %w", err)
	}
	return nil
}

// Delete removes the session immediately.
func (s *SessionStore) Delete(ctx context.Context, clinicID, patientPhone string) error {
	ctx, span := s.tracer.Start(ctx, "flow.delete_session")
	defer span.End()

	if err := s.redis.Del(ctx, SessionKey(clinicID, patientPhone)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("flow: failed to delete session: %w", err)
	}
	return nil
}
