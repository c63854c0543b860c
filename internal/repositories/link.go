package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// LinkRepository persists [models.TrackPlatformLink] rows: the mapping from a
// canonical track to its identity on one platform. The (track, platform)
// unique index is the source of truth; FindOrCreate turns a conflicting
// insert into a read.
type LinkRepository struct {
	db DBTX
}

// NewLinkRepository creates a new LinkRepository with the given database
// connection.
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *LinkRepository) WithTx(tx *sql.Tx) *LinkRepository {
	return &LinkRepository{db: tx}
}

// FindOrCreate inserts the link unless one already exists for its
// (track, platform) pair, in which case the existing link is returned
// untouched; the candidate's platform id and URL act only as defaults.
// The boolean reports whether a row was created by this call.
func (r *LinkRepository) FindOrCreate(link *models.TrackPlatformLink) (*models.TrackPlatformLink, bool, error) {
	if link.ID() == "" {
		link.SetID(shared.GenerateID())
	}
	if err := link.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO track_platform_links (id, track_id, platform, platform_id, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (track_id, platform) DO NOTHING
	`

	result, err := r.db.Exec(query,
		link.ID(),
		link.TrackID(),
		link.Platform(),
		link.PlatformID(),
		link.URL(),
		link.CreatedAt(),
		link.UpdatedAt(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return link, true, nil
	}

	existing, err := r.GetByTrackPlatform(link.TrackID(), link.Platform())
	if err != nil {
		return nil, false, fmt.Errorf("%w: link vanished after conflict", shared.ErrConflict)
	}
	return existing, false, nil
}

// GetByTrackPlatform retrieves the link for a (track, platform) pair.
func (r *LinkRepository) GetByTrackPlatform(trackID, platform string) (*models.TrackPlatformLink, error) {
	query := `
		SELECT id, track_id, platform, platform_id, url, created_at, updated_at
		FROM track_platform_links
		WHERE track_id = ? AND platform = ?
	`

	return scanLink(r.db.QueryRow(query, trackID, platform).Scan)
}

// GetByPlatformID retrieves a link by its platform-side identifier.
func (r *LinkRepository) GetByPlatformID(platform, platformID string) (*models.TrackPlatformLink, error) {
	query := `
		SELECT id, track_id, platform, platform_id, url, created_at, updated_at
		FROM track_platform_links
		WHERE platform = ? AND platform_id = ?
		LIMIT 1
	`

	return scanLink(r.db.QueryRow(query, platform, platformID).Scan)
}

// ListByTrack retrieves all platform links for one canonical track, ordered
// by platform.
func (r *LinkRepository) ListByTrack(trackID string) ([]*models.TrackPlatformLink, error) {
	query := `
		SELECT id, track_id, platform, platform_id, url, created_at, updated_at
		FROM track_platform_links
		WHERE track_id = ?
		ORDER BY platform ASC
	`

	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*models.TrackPlatformLink
	for rows.Next() {
		link, err := scanLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return links, nil
}

// scanLink reads one link row via the given scan function.
func scanLink(scan func(dest ...any) error) (*models.TrackPlatformLink, error) {
	var (
		id         string
		trackID    string
		platform   string
		platformID string
		url        string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := scan(&id, &trackID, &platform, &platformID, &url, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: platform link", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}

	link := models.NewTrackPlatformLink(trackID, platform, platformID, url)
	link.SetID(id)
	link.SetCreatedAt(createdAt)
	link.SetUpdatedAt(updatedAt)

	return link, nil
}
