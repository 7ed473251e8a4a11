// Package sqlite stores result envelopes and session snapshots in a SQLite
// database through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/mrt/pkg/domain"
)

//go:embed schema.sql
var schemaSQL string

// Backend implements ports.Sink and ports.StateStore on one database.
// Trials are keyed by (session, block, index) so a retried submission
// overwrites instead of duplicating.
type Backend struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Backend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Submit implements ports.Sink.
func (b *Backend) Submit(ctx context.Context, env domain.Envelope) error {
	switch {
	case env.Record != nil:
		return b.insertTrial(ctx, env)
	case env.Summary != nil:
		return b.insertSummary(ctx, env)
	}
	return fmt.Errorf("envelope %q carries neither record nor summary", env.Action)
}

func (b *Backend) insertTrial(ctx context.Context, env domain.Envelope) error {
	r := env.Record
	_, err := b.db.ExecContext(ctx, `INSERT OR REPLACE INTO trials (
		session_id, block, trial_index, participant_id, session_code, version,
		condition, angle, left_angle, left_mirror, right_angle, right_mirror, angle_difference,
		response, correct_response, accuracy, rt_ms, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		env.SessionID, string(r.Block), r.SequenceIndex, env.ParticipantID, env.SessionCode, env.Version,
		string(r.Trial.Condition), r.Trial.Angle, r.Trial.LeftAngle, r.Trial.LeftMirror, r.Trial.RightAngle, r.Trial.RightMirror, r.Trial.AngleDifference,
		string(r.Response), string(r.Trial.ExpectedResponse()), r.Accuracy(), r.ReactionTimeMs, r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trial: %w", err)
	}
	return nil
}

func (b *Backend) insertSummary(ctx context.Context, env domain.Envelope) error {
	s := env.Summary
	_, err := b.db.ExecContext(ctx, `INSERT OR REPLACE INTO summaries (
		session_id, participant_id, session_code, version,
		total_main_trials, answered_main_trials, correct_main_trials, accuracy_percent, mean_rt_ms, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		env.SessionID, env.ParticipantID, env.SessionCode, env.Version,
		s.TotalMainTrials, s.AnsweredMainTrials, s.CorrectMainTrials, s.AccuracyPercent, s.MeanReactionTimeMs, s.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// Records returns the stored trials of a session, practice first, in presentation order.
func (b *Backend) Records(ctx context.Context, sessionID string) ([]domain.TrialRecord, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT
		block, trial_index, condition, angle, left_angle, left_mirror, right_angle, right_mirror,
		angle_difference, response, accuracy, rt_ms, timestamp
		FROM trials WHERE session_id = ?
		ORDER BY CASE block WHEN 'practice' THEN 0 ELSE 1 END, trial_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var out []domain.TrialRecord
	for rows.Next() {
		var (
			r        domain.TrialRecord
			block    string
			cond     string
			resp     string
			accuracy int
			rt       sql.NullInt64
			ts       string
		)
		if err := rows.Scan(&block, &r.SequenceIndex, &cond, &r.Trial.Angle, &r.Trial.LeftAngle, &r.Trial.LeftMirror,
			&r.Trial.RightAngle, &r.Trial.RightMirror, &r.Trial.AngleDifference, &resp, &accuracy, &rt, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		r.Block = domain.Block(block)
		r.Trial.Condition = domain.Condition(cond)
		r.Response = domain.Response(resp)
		r.Correct = accuracy == 1
		if rt.Valid {
			v := rt.Int64
			r.ReactionTimeMs = &v
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("invalid trial timestamp: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary returns the stored summary of a session.
func (b *Backend) Summary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	var (
		s   domain.SessionSummary
		acc sql.NullFloat64
		rt  sql.NullInt64
		ts  string
	)
	err := b.db.QueryRowContext(ctx, `SELECT total_main_trials, answered_main_trials, correct_main_trials,
		accuracy_percent, mean_rt_ms, timestamp FROM summaries WHERE session_id = ?`, sessionID).
		Scan(&s.TotalMainTrials, &s.AnsweredMainTrials, &s.CorrectMainTrials, &acc, &rt, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.ErrSessionNotFound
	}
	if err != nil {
		return s, fmt.Errorf("failed to query summary: %w", err)
	}
	if acc.Valid {
		v := acc.Float64
		s.AccuracyPercent = &v
	}
	if rt.Valid {
		v := rt.Int64
		s.MeanReactionTimeMs = &v
	}
	if s.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return s, fmt.Errorf("invalid summary timestamp: %w", err)
	}
	return s, nil
}

// Save implements ports.StateStore.
func (b *Backend) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO sessions (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		sessionID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load implements ports.StateStore.
func (b *Backend) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	var data string
	err := b.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete implements ports.StateStore.
func (b *Backend) Delete(ctx context.Context, sessionID string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

// List implements ports.StateStore.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
