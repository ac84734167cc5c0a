package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewExport inserts a new pending export job for a clip. Format and settings
// must be validated by the caller before the record is created.
func (s *Store) NewExport(ctx context.Context, clipID, stylePack, format, settingsJSON, optionsJSON string) (*Export, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO exports (
            id, clip_id, style_pack, format, status, settings_json, options_json,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		clipID,
		stylePack,
		format,
		StatusPending,
		nullableString(settingsJSON),
		nullableString(optionsJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}

	return s.GetExport(ctx, id)
}

// GetExport fetches an export job by identifier. Returns nil when none exists.
func (s *Store) GetExport(ctx context.Context, id string) (*Export, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)
	export, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get export: %w", err)
	}
	return export, nil
}

// UpdateExport persists changes to an existing export job. Terminal rows
// follow the same guard as UpdateClip.
func (s *Store) UpdateExport(ctx context.Context, export *Export) error {
	if export == nil {
		return errors.New("export is nil")
	}
	export.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE exports
         SET style_pack = ?, format = ?, status = ?, settings_json = ?, options_json = ?,
             output_url = ?, output_size = ?, error_message = ?,
             progress_stage = ?, progress_message = ?, last_heartbeat = ?,
             updated_at = ?, completed_at = ?
         WHERE id = ? AND (status = ? OR status NOT IN (?, ?))`,
		export.StylePack,
		export.Format,
		export.Status,
		nullableString(export.SettingsJSON),
		nullableString(export.OptionsJSON),
		nullableString(export.OutputURL),
		export.OutputSize,
		nullableString(export.ErrorMessage),
		nullableString(export.ProgressStage),
		nullableString(export.ProgressMessage),
		nullableTime(export.LastHeartbeat),
		export.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(export.CompletedAt),
		export.ID,
		export.Status,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetExport(ctx, export.ID)
		if getErr != nil {
			return getErr
		}
		if existing != nil && existing.Status.IsTerminal() && existing.Status != export.Status {
			return fmt.Errorf("update export %s from %s to %s: %w", export.ID, existing.Status, export.Status, ErrTerminalStatus)
		}
	}
	return nil
}

// ClaimExport atomically moves the oldest pending export into processing.
func (s *Store) ClaimExport(ctx context.Context) (*Export, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := s.db.QueryRowContext(
		ctx,
		`UPDATE exports SET status = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = (
             SELECT id FROM exports WHERE status = ? ORDER BY created_at LIMIT 1
         )
         RETURNING `+exportColumns,
		StatusProcessing, now, now, StatusPending,
	)
	export, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim export: %w", err)
	}
	return export, nil
}

// ListExports returns export jobs filtered by status set, oldest first.
func (s *Store) ListExports(ctx context.Context, statuses ...Status) ([]*Export, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + exportColumns + ` FROM exports`
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
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	return collectExports(rows)
}

// ExportsForClip returns export jobs attached to a clip, oldest first.
func (s *Store) ExportsForClip(ctx context.Context, clipID string) ([]*Export, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+exportColumns+` FROM exports WHERE clip_id = ? ORDER BY created_at`,
		clipID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exports for clip: %w", err)
	}
	defer rows.Close()

	return collectExports(rows)
}

// UpdateExportHeartbeat updates the last heartbeat timestamp for an in-flight export.
func (s *Store) UpdateExportHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE exports SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update export heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleExports returns processing exports back to pending when heartbeats expire.
func (s *Store) ReclaimStaleExports(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE exports
         SET status = ?, progress_stage = 'Reclaimed from stale processing',
             progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusPending,
		now,
		StatusProcessing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale exports: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailedExports moves failed exports back to pending for reprocessing.
func (s *Store) RetryFailedExports(ctx context.Context, ids ...string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE exports
             SET status = ?, progress_stage = 'Retry requested', progress_message = NULL,
                 error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusPending, now, StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed exports: %w", err)
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
		`UPDATE exports
         SET status = ?, progress_stage = 'Retry requested', progress_message = NULL,
             error_message = NULL, updated_at = ?
         WHERE id IN (`+placeholders+`) AND status = ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected exports: %w", err)
	}
	return res.RowsAffected()
}

// FailProcessingExports marks every processing export as failed with the given reason.
func (s *Store) FailProcessingExports(ctx context.Context, reason string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE exports
         SET status = ?, error_message = ?, progress_stage = 'Failed',
             progress_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ?`,
		StatusFailed, reason, reason, now, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail processing exports: %w", err)
	}
	return res.RowsAffected()
}

const exportColumns = "id, clip_id, style_pack, format, status, settings_json, options_json, output_url, output_size, error_message, progress_stage, progress_message, last_heartbeat, created_at, updated_at, completed_at"

func scanExport(scanner interface{ Scan(dest ...any) error }) (*Export, error) {
	var (
		id              string
		clipID          string
		stylePack       string
		format          string
		statusStr       string
		settings        sql.NullString
		options         sql.NullString
		outputURL       sql.NullString
		outputSize      int64
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
		&clipID,
		&stylePack,
		&format,
		&statusStr,
		&settings,
		&options,
		&outputURL,
		&outputSize,
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

	export := &Export{
		ID:              id,
		ClipID:          clipID,
		StylePack:       stylePack,
		Format:          format,
		Status:          Status(statusStr),
		SettingsJSON:    settings.String,
		OptionsJSON:     options.String,
		OutputURL:       outputURL.String,
		OutputSize:      outputSize,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressMessage: progressMessage.String,
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			export.LastHeartbeat = &heartbeat
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		export.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		export.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			export.CompletedAt = &completed
		}
	}
	return export, nil
}

func collectExports(rows *sql.Rows) ([]*Export, error) {
	var exports []*Export
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}
	return exports, rows.Err()
}
