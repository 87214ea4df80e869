package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Session is one archived learning session row.
type Session struct {
	ID           uuid.UUID
	DeviceID     string
	RemoteUUID   string
	Function     string
	Outcome      string
	Signal       string
	FrequencyHz  int
	TotalSignals int
	MatchCount   int
	ClusterCount int
	StartedAt    time.Time
	Duration     time.Duration
	CreatedAt    time.Time
}

// Session outcomes.
const (
	OutcomeLearned = "learned"
	OutcomeFailed  = "failed"
)

// SimilarSession pairs an archived session with its cosine distance to
// a probe signature.
type SimilarSession struct {
	Session  *Session
	Distance float64
}

// SessionStorage provides persistent storage for learning sessions
// using PostgreSQL + pgvector.
type SessionStorage struct {
	db *sql.DB
}

// NewSessionStorage creates a new session storage instance.
func NewSessionStorage(db *sql.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

// Migrate creates the sessions table and vector index when missing.
func (s *SessionStorage) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS learning_sessions (
				id UUID PRIMARY KEY,
				device_id TEXT NOT NULL,
				remote_uuid TEXT NOT NULL DEFAULT '',
				function TEXT NOT NULL DEFAULT '',
				outcome TEXT NOT NULL,
				signal TEXT NOT NULL DEFAULT '',
				frequency_hz INTEGER NOT NULL DEFAULT 0,
				total_signals INTEGER NOT NULL,
				match_count INTEGER NOT NULL,
				cluster_count INTEGER NOT NULL,
				signature vector(%d),
				started_at TIMESTAMPTZ NOT NULL,
				duration_ms BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, SignatureDims),
		`CREATE INDEX IF NOT EXISTS learning_sessions_device_idx
			ON learning_sessions (device_id, started_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run archive migration: %w", err)
		}
	}
	return nil
}

// CreateSession stores a finished learning session. Failed sessions
// carry a zero signature and empty signal.
func (s *SessionStorage) CreateSession(ctx context.Context, session *Session, signature pgvector.Vector) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO learning_sessions (
			id, device_id, remote_uuid, function, outcome, signal,
			frequency_hz, total_signals, match_count, cluster_count,
			signature, started_at, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.DeviceID,
		session.RemoteUUID,
		session.Function,
		session.Outcome,
		session.Signal,
		session.FrequencyHz,
		session.TotalSignals,
		session.MatchCount,
		session.ClusterCount,
		signature,
		session.StartedAt,
		session.Duration.Milliseconds(),
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a learning session by ID.
func (s *SessionStorage) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT
			id, device_id, remote_uuid, function, outcome, signal,
			frequency_hz, total_signals, match_count, cluster_count,
			started_at, duration_ms, created_at
		FROM learning_sessions
		WHERE id = $1
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// RecentSessions returns the latest sessions for a device, newest
// first.
func (s *SessionStorage) RecentSessions(ctx context.Context, deviceID string, limit int) ([]*Session, error) {
	query := `
		SELECT
			id, device_id, remote_uuid, function, outcome, signal,
			frequency_hz, total_signals, match_count, cluster_count,
			started_at, duration_ms, created_at
		FROM learning_sessions
		WHERE device_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// FindSimilar finds learned sessions whose signal signature is close to
// the given one, ordered by cosine distance (most similar first). Only
// successful sessions are considered since failed ones carry no signal.
func (s *SessionStorage) FindSimilar(ctx context.Context, signature pgvector.Vector, limit int) ([]*SimilarSession, error) {
	query := `
		SELECT
			id, device_id, remote_uuid, function, outcome, signal,
			frequency_hz, total_signals, match_count, cluster_count,
			started_at, duration_ms, created_at,
			signature <=> $1 AS distance
		FROM learning_sessions
		WHERE outcome = $2
		ORDER BY signature <=> $1
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, signature, OutcomeLearned, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar sessions: %w", err)
	}
	defer rows.Close()

	var matches []*SimilarSession
	for rows.Next() {
		var (
			session    Session
			durationMS int64
			distance   float64
		)
		err := rows.Scan(
			&session.ID,
			&session.DeviceID,
			&session.RemoteUUID,
			&session.Function,
			&session.Outcome,
			&session.Signal,
			&session.FrequencyHz,
			&session.TotalSignals,
			&session.MatchCount,
			&session.ClusterCount,
			&session.StartedAt,
			&durationMS,
			&session.CreatedAt,
			&distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session.Duration = time.Duration(durationMS) * time.Millisecond
		matches = append(matches, &SimilarSession{Session: &session, Distance: distance})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session    Session
		durationMS int64
	)
	err := row.Scan(
		&session.ID,
		&session.DeviceID,
		&session.RemoteUUID,
		&session.Function,
		&session.Outcome,
		&session.Signal,
		&session.FrequencyHz,
		&session.TotalSignals,
		&session.MatchCount,
		&session.ClusterCount,
		&session.StartedAt,
		&durationMS,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Duration = time.Duration(durationMS) * time.Millisecond
	return &session, nil
}
