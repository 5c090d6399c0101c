package daemon

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// Session is one keyboard session. Each session owns a fresh policy, so a
// new session starts silent until the ringer state is delivered again.
type Session struct {
	ID        string
	StartedAt time.Time

	policy    *feedback.Policy
	performer *feedback.Performer
}

func newSession(settings feedback.SettingsProvider, audio feedback.AudioSink, haptic feedback.HapticSink, logger *slog.Logger) *Session {
	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		id = ulid.Make()
	}

	policy := feedback.NewPolicy()
	return &Session{
		ID:        id.String(),
		StartedAt: now,
		policy:    policy,
		performer: feedback.NewPerformer(policy, settings, audio, haptic, logger.With("session", id.String())),
	}
}
