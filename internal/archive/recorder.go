package archive

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/lookinops/lookin-platform/internal/learn"
)

// RecordResult archives one finished learning session. Failed sessions
// are stored too, with an empty signal and zero signature, so failure
// rates per device stay queryable.
func (s *SessionStorage) RecordResult(ctx context.Context, deviceID, remoteUUID, function string, result *learn.SessionResult) error {
	// A session ID that does not parse gets replaced on insert.
	id, _ := uuid.Parse(result.SessionID)

	session := &Session{
		ID:           id,
		DeviceID:     deviceID,
		RemoteUUID:   remoteUUID,
		Function:     function,
		Outcome:      OutcomeFailed,
		TotalSignals: result.Summary.Captures,
		ClusterCount: len(result.Clusters),
		StartedAt:    result.StartedAt,
		Duration:     result.Duration,
	}

	signature := pgvector.NewVector(make([]float32, SignatureDims))
	if cmd := result.Command; cmd != nil {
		session.Outcome = OutcomeLearned
		session.Signal = cmd.Signal.String()
		session.FrequencyHz = cmd.Signal.FrequencyHz
		session.MatchCount = cmd.MatchCount
		session.TotalSignals = cmd.TotalSignals
		signature = Signature(cmd.Signal)
	}

	return s.CreateSession(ctx, session, signature)
}
