package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/services"
)

const videoColumns = `id, session_id, video_url, public_id, title, topic, tone, description, status, clip_count, archive_url, created_at`

const defaultListLimit = 50

type rowScanner interface {
	Scan(dest ...any) error
}

// Insert records video and returns the stored copy. An empty ID is assigned
// a new uuid; status and creation time are always set here.
func (s *Store) Insert(ctx context.Context, video Video) (*Video, error) {
	if strings.TrimSpace(video.VideoURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "library", "insert", "video url required", nil)
	}
	if strings.TrimSpace(video.ID) == "" {
		video.ID = uuid.NewString()
	}
	video.Status = StatusReady
	video.CreatedAt = time.Now().UTC()

	_, err := s.execWithRetry(ctx,
		`INSERT INTO videos (`+videoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID,
		video.SessionID,
		video.VideoURL,
		video.PublicID,
		video.Title,
		video.Topic,
		video.Tone,
		video.Description,
		video.Status,
		video.ClipCount,
		video.ArchiveURL,
		formatTime(video.CreatedAt),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "library", "insert", "", err)
	}
	return &video, nil
}

// Get fetches one video. A missing id returns services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Video, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), strings.TrimSpace(id))
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "library", "get", fmt.Sprintf("video %s", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// Delete removes one video. A missing id returns services.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "library", "delete", "video id required", nil)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "library", "delete", "", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "library", "delete", "rows affected", err)
	}
	if removed == 0 {
		return services.Wrap(services.ErrNotFound, "library", "delete", fmt.Sprintf("video %s", id), nil)
	}
	return nil
}

// List returns videos newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Video, error) {
	ctx = ensureContext(ctx)
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + videoColumns + ` FROM videos`
	args := []any{}
	if sessionID := strings.TrimSpace(opts.SessionID); sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

func scanVideo(row rowScanner) (*Video, error) {
	var (
		video     Video
		createdAt string
	)
	if err := row.Scan(
		&video.ID,
		&video.SessionID,
		&video.VideoURL,
		&video.PublicID,
		&video.Title,
		&video.Topic,
		&video.Tone,
		&video.Description,
		&video.Status,
		&video.ClipCount,
		&video.ArchiveURL,
		&createdAt,
	); err != nil {
		return nil, err
	}
	video.CreatedAt = parseTime(createdAt)
	return &video, nil
}
