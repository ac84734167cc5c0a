package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewClip inserts a new pending clip awaiting ingest.
func (s *Store) NewClip(ctx context.Context, title string, sourceType SourceType, sourceURL string) (*Clip, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (
            id, title, source_type, source_url, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		string(sourceType),
		nullableString(sourceURL),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}

	return s.GetClip(ctx, id)
}

// NewDerivedClip inserts a completed clip derived from a parent's detections.
// Derived clips never re-enter the pipeline; they are created final.
func (s *Store) NewDerivedClip(ctx context.Context, parent *Clip, title string, duration float64) (*Clip, error) {
	if parent == nil {
		return nil, errors.New("parent clip is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (
            id, title, source_type, source_url, video_url, thumbnail_url, duration,
            game_title, parent_id, status, created_at, updated_at, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		string(parent.SourceType),
		nullableString(parent.SourceURL),
		nullableString(parent.VideoURL),
		nullableString(parent.ThumbnailURL),
		duration,
		nullableString(parent.GameTitle),
		parent.ID,
		StatusCompleted,
		timestamp,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert derived clip: %w", err)
	}

	return s.GetClip(ctx, id)
}

// GetClip fetches a clip by identifier. Returns nil when no clip exists.
func (s *Store) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// UpdateClip persists changes to an existing clip. Completed and failed rows
// only accept updates that keep their stored status; moving one back into an
// active status returns ErrTerminalStatus.
func (s *Store) UpdateClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	clip.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE clips
         SET title = ?, source_type = ?, source_url = ?, video_url = ?, thumbnail_url = ?,
             duration = ?, game_title = ?, status = ?, error_message = ?,
             progress_stage = ?, progress_message = ?, last_heartbeat = ?,
             updated_at = ?, completed_at = ?
         WHERE id = ? AND (status = ? OR status NOT IN (?, ?))`,
		clip.Title,
		string(clip.SourceType),
		nullableString(clip.SourceURL),
		nullableString(clip.VideoURL),
		nullableString(clip.ThumbnailURL),
		clip.Duration,
		nullableString(clip.GameTitle),
		clip.Status,
		nullableString(clip.ErrorMessage),
		nullableString(clip.ProgressStage),
		nullableString(clip.ProgressMessage),
		nullableTime(clip.LastHeartbeat),
		clip.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(clip.CompletedAt),
		clip.ID,
		clip.Status,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetClip(ctx, clip.ID)
		if getErr != nil {
			return getErr
		}
		if existing != nil && existing.Status.IsTerminal() && existing.Status != clip.Status {
			return fmt.Errorf("update clip %s from %s to %s: %w", clip.ID, existing.Status, clip.Status, ErrTerminalStatus)
		}
	}
	return nil
}

// ClaimClip atomically moves the oldest clip in `from` into `to` and returns
// it, or nil when nothing is waiting. The guarded UPDATE keeps concurrent
// workers from claiming the same clip twice.
func (s *Store) ClaimClip(ctx context.Context, from, to Status) (*Clip, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := s.db.QueryRowContext(
		ctx,
		`UPDATE clips SET status = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = (
             SELECT id FROM clips WHERE status = ? AND parent_id IS NULL
             ORDER BY created_at LIMIT 1
         )
         RETURNING `+clipColumns,
		to, now, now, from,
	)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim clip: %w", err)
	}
	return clip, nil
}

// ListClips returns clips filtered by status set, newest last. When no status
// is provided every clip is returned.
func (s *Store) ListClips(ctx context.Context, statuses ...Status) ([]*Clip, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + clipColumns + ` FROM clips`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	return collectClips(rows)
}

// ChildClips returns auto-generated clips derived from the given parent.
func (s *Store) ChildClips(ctx context.Context, parentID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+clipColumns+` FROM clips WHERE parent_id = ? ORDER BY created_at`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list child clips: %w", err)
	}
	defer rows.Close()

	return collectClips(rows)
}

// UpdateClipHeartbeat updates the last heartbeat timestamp for an in-flight clip.
func (s *Store) UpdateClipHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE clips SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update clip heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleClips returns processing clips back to pending when heartbeats expire.
func (s *Store) ReclaimStaleClips(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE clips
         SET status = ?, progress_stage = 'Reclaimed from stale processing',
             progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending,
		now,
		StatusProcessing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale clips: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailedClips moves failed clips back to pending for reprocessing.
// With no ids all failed clips are retried.
func (s *Store) RetryFailedClips(ctx context.Context, ids ...string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE clips
             SET status = ?, progress_stage = 'Retry requested', progress_message = NULL,
                 error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusPending, now, StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed clips: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE clips
         SET status = ?, progress_stage = 'Retry requested', progress_message = NULL,
             error_message = NULL, updated_at = ?
         WHERE id IN (`+placeholders+`) AND status = ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected clips: %w", err)
	}
	return res.RowsAffected()
}

// FailProcessingClips marks every processing clip as failed with the given
// reason. Used on daemon shutdown so nothing is left claiming work.
func (s *Store) FailProcessingClips(ctx context.Context, reason string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE clips
         SET status = ?, error_message = ?, progress_stage = 'Failed',
             progress_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ?`,
		StatusFailed, reason, reason, now, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail processing clips: %w", err)
	}
	return res.RowsAffected()
}

// RemoveClip deletes a clip and its detections, captions, derived clips, and
// exports through foreign key cascades.
func (s *Store) RemoveClip(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete clip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompletedClips removes only completed top-level clips.
func (s *Store) ClearCompletedClips(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE status = ? AND parent_id IS NULL`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed clips: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailedClips removes only failed clips.
func (s *Store) ClearFailedClips(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed clips: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all clips and, through cascades, everything attached to them.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips`)
	if err != nil {
		return 0, fmt.Errorf("clear clips: %w", err)
	}
	return res.RowsAffected()
}

const clipColumns = "id, title, source_type, source_url, video_url, thumbnail_url, duration, game_title, parent_id, status, error_message, progress_stage, progress_message, last_heartbeat, created_at, updated_at, completed_at"

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		id              string
		title           string
		sourceType      string
		sourceURL       sql.NullString
		videoURL        sql.NullString
		thumbnailURL    sql.NullString
		duration        float64
		gameTitle       sql.NullString
		parentID        sql.NullString
		statusStr       string
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressMessage sql.NullString
		heartbeatRaw    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&sourceType,
		&sourceURL,
		&videoURL,
		&thumbnailURL,
		&duration,
		&gameTitle,
		&parentID,
		&statusStr,
		&errorMessage,
		&progressStage,
		&progressMessage,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	clip := &Clip{
		ID:              id,
		Title:           title,
		SourceType:      SourceType(sourceType),
		SourceURL:       sourceURL.String,
		VideoURL:        videoURL.String,
		ThumbnailURL:    thumbnailURL.String,
		Duration:        duration,
		GameTitle:       gameTitle.String,
		ParentID:        parentID.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressMessage: progressMessage.String,
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			clip.LastHeartbeat = &heartbeat
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		clip.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		clip.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			clip.CompletedAt = &completed
		}
	}
	return clip, nil
}

func collectClips(rows *sql.Rows) ([]*Clip, error) {
	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}
