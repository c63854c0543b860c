package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// SavedTrackRepository persists [models.UserSavedTrack] rows. These are the
// only rows whose lifecycle follows live upstream state: synchronization
// both creates and deletes them.
type SavedTrackRepository struct {
	db DBTX
}

// NewSavedTrackRepository creates a new SavedTrackRepository with the given
// database connection.
func NewSavedTrackRepository(db *sql.DB) *SavedTrackRepository {
	return &SavedTrackRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SavedTrackRepository) WithTx(tx *sql.Tx) *SavedTrackRepository {
	return &SavedTrackRepository{db: tx}
}

// FindOrCreate inserts the saved row unless one already exists for its
// (user, track, platform) triple. The boolean reports whether a row was
// created by this call.
func (r *SavedTrackRepository) FindOrCreate(saved *models.UserSavedTrack) (*models.UserSavedTrack, bool, error) {
	if saved.ID() == "" {
		saved.SetID(shared.GenerateID())
	}
	if err := saved.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO user_saved_tracks (id, user_id, track_id, platform, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, track_id, platform) DO NOTHING
	`

	result, err := r.db.Exec(query,
		saved.ID(),
		saved.UserID(),
		saved.TrackID(),
		saved.Platform(),
		saved.CreatedAt(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert saved track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return saved, true, nil
	}

	existing, err := r.getByTriple(saved.UserID(), saved.TrackID(), saved.Platform())
	if err != nil {
		return nil, false, fmt.Errorf("%w: saved track vanished after conflict", shared.ErrConflict)
	}
	return existing, false, nil
}

// Get retrieves a saved row by ID.
func (r *SavedTrackRepository) Get(id string) (*models.UserSavedTrack, error) {
	query := `
		SELECT id, user_id, track_id, platform, created_at
		FROM user_saved_tracks
		WHERE id = ?
	`
	return scanSaved(r.db.QueryRow(query, id).Scan)
}

func (r *SavedTrackRepository) getByTriple(userID, trackID, platform string) (*models.UserSavedTrack, error) {
	query := `
		SELECT id, user_id, track_id, platform, created_at
		FROM user_saved_tracks
		WHERE user_id = ? AND track_id = ? AND platform = ?
	`
	return scanSaved(r.db.QueryRow(query, userID, trackID, platform).Scan)
}

// Delete removes one saved row by ID (explicit user action).
func (r *SavedTrackRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM user_saved_tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: saved track %s", shared.ErrNotFound, id)
	}

	return nil
}

// DeleteAllForUser removes every saved row for a user (clear-all), returning
// the number of rows removed.
func (r *SavedTrackRepository) DeleteAllForUser(userID string) (int64, error) {
	result, err := r.db.Exec("DELETE FROM user_saved_tracks WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear saved tracks: %w", err)
	}
	return result.RowsAffected()
}

// PlatformIDs returns, for one (user, platform) pair, the platform-side track
// ids currently recorded locally, following saved row → track → platform
// link. The map value is the saved row id, which the sync delete pass needs.
func (r *SavedTrackRepository) PlatformIDs(userID, platform string) (map[string]string, error) {
	query := `
		SELECT l.platform_id, s.id
		FROM user_saved_tracks s
		JOIN track_platform_links l ON l.track_id = s.track_id AND l.platform = s.platform
		WHERE s.user_id = ? AND s.platform = ?
	`

	rows, err := r.db.Query(query, userID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var platformID, savedID string
		if err := rows.Scan(&platformID, &savedID); err != nil {
			return nil, fmt.Errorf("failed to scan platform id: %w", err)
		}
		ids[platformID] = savedID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// DeleteByIDs removes the saved rows with the given ids, returning the number
// of rows removed.
func (r *SavedTrackRepository) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := r.db.Exec("DELETE FROM user_saved_tracks WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete saved tracks: %w", err)
	}
	return result.RowsAffected()
}

// LibraryEntry is one unified-library row for display: the saved association,
// its canonical track, and every platform link the track has.
type LibraryEntry struct {
	Saved *models.UserSavedTrack
	Track *models.Track
	Links []*models.TrackPlatformLink
}

// Library returns the user's unified library, newest saves first.
func (r *SavedTrackRepository) Library(userID string) ([]LibraryEntry, error) {
	query := `
		SELECT s.id, s.user_id, s.track_id, s.platform, s.created_at,
		       t.id, t.sequence, t.title, t.artist, t.album, t.duration_ms, t.created_at, t.updated_at
		FROM user_saved_tracks s
		JOIN tracks t ON t.id = s.track_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	defer rows.Close()

	var entries []LibraryEntry
	for rows.Next() {
		var (
			sID, sUserID, sTrackID, sPlatform string
			sCreatedAt                        time.Time

			tID, tTitle, tArtist string
			tSequence            int
			tAlbum               sql.NullString
			tDurationMS          sql.NullInt64
			tCreatedAt           time.Time
			tUpdatedAt           time.Time
		)

		err := rows.Scan(&sID, &sUserID, &sTrackID, &sPlatform, &sCreatedAt,
			&tID, &tSequence, &tTitle, &tArtist, &tAlbum, &tDurationMS, &tCreatedAt, &tUpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library row: %w", err)
		}

		saved := models.NewUserSavedTrack(sUserID, sTrackID, sPlatform)
		saved.SetID(sID)
		saved.SetCreatedAt(sCreatedAt)

		candidate := models.TrackCandidate{Title: tTitle, Artist: tArtist}
		if tAlbum.Valid {
			candidate.Album = &tAlbum.String
		}
		track := models.NewTrack(tSequence, candidate)
		track.SetID(tID)
		track.SetCreatedAt(tCreatedAt)
		track.SetUpdatedAt(tUpdatedAt)
		if tDurationMS.Valid {
			track.SetDurationMS(&tDurationMS.Int64)
		}

		entries = append(entries, LibraryEntry{Saved: saved, Track: track})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// Attach platform links per entry; the library stays small enough that
	// the extra queries beat a three-way join scan.
	linkRepo := &LinkRepository{db: r.db}
	for i := range entries {
		links, err := linkRepo.ListByTrack(entries[i].Track.ID())
		if err != nil {
			return nil, err
		}
		entries[i].Links = links
	}

	return entries, nil
}

// scanSaved reads one saved row via the given scan function.
func scanSaved(scan func(dest ...any) error) (*models.UserSavedTrack, error) {
	var (
		id        string
		userID    string
		trackID   string
		platform  string
		createdAt time.Time
	)

	err := scan(&id, &userID, &trackID, &platform, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: saved track", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan saved track: %w", err)
	}

	saved := models.NewUserSavedTrack(userID, trackID, platform)
	saved.SetID(id)
	saved.SetCreatedAt(createdAt)

	return saved, nil
}
