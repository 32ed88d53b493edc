package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipstudio/internal/services"
)

// SaveDraft upserts the journal for sessionID.
func (s *Store) SaveDraft(ctx context.Context, sessionID, phase string, payload []byte) error {
	if sessionID == "" {
		return services.Wrap(services.ErrValidation, "library", "save draft", "session id required", nil)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO drafts (session_id, phase, payload, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (session_id) DO UPDATE SET phase = excluded.phase, payload = excluded.payload, updated_at = excluded.updated_at`,
		sessionID,
		phase,
		string(payload),
		formatTime(time.Now()),
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "library", "save draft", "", err)
	}
	return nil
}

// LatestDraft returns the most recently saved journal payload.
func (s *Store) LatestDraft(ctx context.Context) ([]byte, bool, error) {
	draft, err := s.latestDraft(ctx)
	if err != nil || draft == nil {
		return nil, false, err
	}
	return draft.Payload, true, nil
}

func (s *Store) latestDraft(ctx context.Context) (*Draft, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT session_id, phase, payload, updated_at FROM drafts ORDER BY updated_at DESC LIMIT 1`)
	var (
		draft     Draft
		payload   string
		updatedAt string
	)
	if err := row.Scan(&draft.SessionID, &draft.Phase, &payload, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest draft: %w", err)
	}
	draft.Payload = []byte(payload)
	draft.UpdatedAt = parseTime(updatedAt)
	return &draft, nil
}

// PruneDrafts removes journals last saved before cutoff, keeping the newest
// one regardless of age. It returns the number of rows removed.
func (s *Store) PruneDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	latest, err := s.latestDraft(ctx)
	if err != nil {
		return 0, err
	}
	keep := ""
	if latest != nil {
		keep = latest.SessionID
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM drafts WHERE updated_at < ? AND session_id <> ?`, formatTime(cutoff), keep)
	if err != nil {
		return 0, fmt.Errorf("prune drafts: %w", err)
	}
	return res.RowsAffected()
}
