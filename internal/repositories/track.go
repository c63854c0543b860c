package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// TrackRepository implements models.Repository[*models.Track] for canonical
// tracks.
type TrackRepository struct {
	db DBTX
}

// NewTrackRepository creates a new TrackRepository with the given database
// connection.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *TrackRepository) WithTx(tx *sql.Tx) *TrackRepository {
	return &TrackRepository{db: tx}
}

// Create inserts a new [models.Track] with generated ID and sequence.
func (r *TrackRepository) Create(track *models.Track) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetSequence(sequence)
	track.SetID(shared.GenerateID())

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, title, artist, album, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID(),
		track.Sequence(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID.
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `
		SELECT id, sequence, title, artist, album, duration_ms, created_at, updated_at
		FROM tracks
		WHERE id = ?
	`

	return scanTrack(r.db.QueryRow(query, id).Scan)
}

// FindByTitleArtist retrieves the oldest track with exactly the given title
// and artist, case-sensitive as stored. Returns [shared.ErrNotFound] when no
// such track exists.
func (r *TrackRepository) FindByTitleArtist(title, artist string) (*models.Track, error) {
	query := `
		SELECT id, sequence, title, artist, album, duration_ms, created_at, updated_at
		FROM tracks
		WHERE title = ? AND artist = ?
		ORDER BY sequence ASC
		LIMIT 1
	`

	return scanTrack(r.db.QueryRow(query, title, artist).Scan)
}

// Update modifies an existing track in the database.
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, track.ID())
	}

	return nil
}

// Delete removes a track by ID. Links and saved rows cascade.
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria.
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `
		SELECT id, sequence, title, artist, album, duration_ms, created_at, updated_at
		FROM tracks
		WHERE 1 = 1
	`
	args := []any{}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title = ?"
		args = append(args, title)
	}
	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows.Scan)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanTrack reads one track row via the given scan function.
func scanTrack(scan func(dest ...any) error) (*models.Track, error) {
	var (
		id         string
		sequence   int
		title      string
		artist     string
		album      sql.NullString
		durationMS sql.NullInt64
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := scan(&id, &sequence, &title, &artist, &album, &durationMS, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	candidate := models.TrackCandidate{Title: title, Artist: artist}
	if album.Valid {
		candidate.Album = &album.String
	}
	if durationMS.Valid {
		candidate.DurationMS = &durationMS.Int64
	}

	track := models.NewTrack(sequence, candidate)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if durationMS.Valid {
		// preserve stored zero durations as-is rather than "unknown"
		track.SetDurationMS(&durationMS.Int64)
	}

	return track, nil
}
