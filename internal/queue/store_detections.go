package queue

import (
	"context"
	"fmt"
)

// ReplaceDetections swaps the stored detections for a clip inside one
// transaction so re-running detection never leaves partial rows behind.
func (s *Store) ReplaceDetections(ctx context.Context, clipID string, detections []Detection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin detections tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM detections WHERE clip_id = ?`, clipID); err != nil {
		return fmt.Errorf("clear detections: %w", err)
	}

	for _, d := range detections {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO detections (clip_id, category, timestamp, confidence, metadata_json)
             VALUES (?, ?, ?, ?, ?)`,
			clipID,
			d.Category,
			d.Timestamp,
			d.Confidence,
			nullableString(d.MetadataJSON),
		); err != nil {
			return fmt.Errorf("insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit detections: %w", err)
	}
	return nil
}

// DetectionsForClip returns stored detections ordered by timestamp.
func (s *Store) DetectionsForClip(ctx context.Context, clipID string) ([]Detection, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, clip_id, category, timestamp, confidence, COALESCE(metadata_json, '')
         FROM detections WHERE clip_id = ? ORDER BY timestamp`,
		clipID,
	)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	var detections []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ID, &d.ClipID, &d.Category, &d.Timestamp, &d.Confidence, &d.MetadataJSON); err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// ReplaceCaptions swaps the stored transcript segments for a clip.
func (s *Store) ReplaceCaptions(ctx context.Context, clipID string, captions []Caption) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin captions tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM captions WHERE clip_id = ?`, clipID); err != nil {
		return fmt.Errorf("clear captions: %w", err)
	}

	for _, c := range captions {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO captions (clip_id, start_time, end_time, text) VALUES (?, ?, ?, ?)`,
			clipID,
			c.Start,
			c.End,
			c.Text,
		); err != nil {
			return fmt.Errorf("insert caption: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit captions: %w", err)
	}
	return nil
}

// CaptionsForClip returns stored transcript segments ordered by start time.
func (s *Store) CaptionsForClip(ctx context.Context, clipID string) ([]Caption, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, clip_id, start_time, end_time, text FROM captions WHERE clip_id = ? ORDER BY start_time`,
		clipID,
	)
	if err != nil {
		return nil, fmt.Errorf("query captions: %w", err)
	}
	defer rows.Close()

	var captions []Caption
	for rows.Next() {
		var c Caption
		if err := rows.Scan(&c.ID, &c.ClipID, &c.Start, &c.End, &c.Text); err != nil {
			return nil, err
		}
		captions = append(captions, c)
	}
	return captions, rows.Err()
}
