package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mlefebvre/tunesync/internal/match"
	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/platforms"
	"github.com/mlefebvre/tunesync/internal/repositories"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// GatewayProvider resolves platform names to authenticated gateways.
// Satisfied by [platforms.Registry]; tests substitute fakes.
type GatewayProvider interface {
	Names() []string
	Validate(name string) error
	Connect(name string, cred *models.PlatformCredential, notify platforms.TokenUpdateFunc) (platforms.Gateway, error)
}

// FanOutResult records the outcome of propagating one new track to one other
// platform. Skipped means the user holds no credential there.
type FanOutResult struct {
	Platform string
	Linked   bool
	Skipped  bool
	Err      error
}

// ReconcileResult describes what a single-track reconciliation did. Created
// reports whether the (user, track, platform) saved association is new in
// this call, not whether the canonical track itself was inserted.
type ReconcileResult struct {
	Track   *models.Track
	Created bool
	FanOut  []FanOutResult // One entry per other registered platform, new tracks only
}

// SyncFailure records a candidate that could not be reconciled during a sync.
type SyncFailure struct {
	Title  string
	Artist string
	Err    error
}

// SyncResult summarizes a full library synchronization for one platform.
type SyncResult struct {
	Platform string
	Fetched  int
	Added    int
	Removed  int
	Changed  bool
	Failures []SyncFailure
}

// Engine orchestrates reconciliation and synchronization against the local
// database and the registered platform gateways.
type Engine struct {
	db        *sql.DB
	provider  GatewayProvider
	tracks    *repositories.TrackRepository
	links     *repositories.LinkRepository
	saved     *repositories.SavedTrackRepository
	creds     *repositories.CredentialRepository
	actions   *repositories.ActionLogRepository
	logger    *log.Logger
	threshold float64
}

// NewEngine creates an Engine backed by db and provider.
func NewEngine(db *sql.DB, provider GatewayProvider, logger *log.Logger) *Engine {
	return &Engine{
		db:        db,
		provider:  provider,
		tracks:    repositories.NewTrackRepository(db),
		links:     repositories.NewLinkRepository(db),
		saved:     repositories.NewSavedTrackRepository(db),
		creds:     repositories.NewCredentialRepository(db),
		actions:   repositories.NewActionLogRepository(db),
		logger:    logger,
		threshold: match.DefaultThreshold,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Gateway returns an authenticated, action-logged gateway for the user on the
// given platform. Refreshed tokens are persisted back to the credential store.
func (e *Engine) Gateway(ctx context.Context, userID, platform string) (platforms.Gateway, error) {
	if err := e.provider.Validate(platform); err != nil {
		return nil, err
	}

	cred, err := e.creds.GetByUserPlatform(userID, platform)
	if err != nil {
		return nil, err
	}
	if cred.Expired(time.Now()) && cred.RefreshToken() == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrTokenExpired, platform)
	}

	notify := func(accessToken, refreshToken string, expiresAt *time.Time) error {
		cred.SetTokens(accessToken, refreshToken, expiresAt)
		return e.creds.UpdateTokens(cred)
	}

	gateway, err := e.provider.Connect(platform, cred, notify)
	if err != nil {
		return nil, err
	}

	return platforms.NewLoggedGateway(gateway, userID, e.actions, e.logger), nil
}

// Reconcile folds one normalized candidate into the canonical library for the
// given user and platform. Track find-or-create, field merge, platform link
// and saved-track rows all commit in a single transaction; when a brand-new
// track was created, its links are fanned out to the other platforms after
// the commit.
func (e *Engine) Reconcile(ctx context.Context, userID, platform string, c models.TrackCandidate, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if err := e.provider.Validate(platform); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result, trackCreated, err := e.reconcileTx(ctx, userID, platform, c)
	if err != nil {
		return nil, err
	}

	if trackCreated {
		result.FanOut = e.fanOut(ctx, userID, platform, result.Track, progress)
	}

	return result, nil
}

// reconcileTx runs the transactional part of Reconcile. The second return
// value reports whether a brand-new canonical track was inserted, which is
// what gates the fan-out.
func (e *Engine) reconcileTx(ctx context.Context, userID, platform string, c models.TrackCandidate) (*ReconcileResult, bool, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tracks := e.tracks.WithTx(tx)
	links := e.links.WithTx(tx)
	saved := e.saved.WithTx(tx)

	trackCreated := false
	track, err := tracks.FindByTitleArtist(c.Title, c.Artist)
	switch {
	case err == nil:
		if track.MergeFill(c) {
			if err := tracks.Update(track); err != nil {
				return nil, false, fmt.Errorf("failed to merge track fields: %w", err)
			}
		}
	case errors.Is(err, shared.ErrNotFound):
		track = models.NewTrack(0, c)
		if err := tracks.Create(track); err != nil {
			return nil, false, fmt.Errorf("failed to create track: %w", err)
		}
		trackCreated = true
	default:
		return nil, false, fmt.Errorf("failed to look up track: %w", err)
	}

	link := models.NewTrackPlatformLink(track.ID(), platform, c.PlatformID, c.URL)
	if _, _, err := links.FindOrCreate(link); err != nil {
		return nil, false, fmt.Errorf("failed to link track on %s: %w", platform, err)
	}

	entry := models.NewUserSavedTrack(userID, track.ID(), platform)
	_, savedCreated, err := saved.FindOrCreate(entry)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save track for user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	return &ReconcileResult{Track: track, Created: savedCreated}, trackCreated, nil
}

// fanOut searches every other registered platform for the new track, links
// confirmed matches and fills still-missing track fields from the found
// data. Platforms without a credential are skipped silently; failures on one
// platform never affect another. Runs after the reconcile transaction has
// committed: every write here is individually non-failing, so an
// interruption mid fan-out leaves a consistent library that is merely
// missing some links.
func (e *Engine) fanOut(ctx context.Context, userID, origin string, track *models.Track, progress chan<- ProgressUpdate) []FanOutResult {
	var results []FanOutResult

	for _, name := range e.provider.Names() {
		if name == origin {
			continue
		}

		e.sendProgress(progress, fanOutUpdate(name, track.Title()))

		gateway, err := e.Gateway(ctx, userID, name)
		if err != nil {
			if errors.Is(err, shared.ErrNoCredential) {
				results = append(results, FanOutResult{Platform: name, Skipped: true})
				continue
			}
			results = append(results, FanOutResult{Platform: name, Err: err})
			continue
		}

		candidate, err := gateway.SearchTrack(ctx, track.Title(), track.Artist())
		if err != nil {
			e.logger.Warn("fan-out search failed", "platform", name, "title", track.Title(), "error", err)
			results = append(results, FanOutResult{Platform: name, Err: err})
			continue
		}
		if candidate == nil || !match.IsMatch(*candidate, track.Title(), track.Artist(), e.threshold) {
			results = append(results, FanOutResult{Platform: name})
			continue
		}

		link := models.NewTrackPlatformLink(track.ID(), name, candidate.PlatformID, candidate.URL)
		if _, _, err := e.links.FindOrCreate(link); err != nil {
			results = append(results, FanOutResult{Platform: name, Err: err})
			continue
		}

		if track.MergeFill(*candidate) {
			if err := e.tracks.Update(track); err != nil {
				e.logger.Warn("failed to fill track fields from fan-out match", "platform", name, "title", track.Title(), "error", err)
				results = append(results, FanOutResult{Platform: name, Linked: true, Err: err})
				continue
			}
		}

		results = append(results, FanOutResult{Platform: name, Linked: true})
	}

	return results
}

// Sync makes the local saved-track library for one platform mirror what the
// platform reports. Fetched tracks not yet saved are reconciled in; saved
// tracks the platform no longer reports are removed. An empty fetch is
// treated as unreliable and changes nothing.
func (e *Engine) Sync(ctx context.Context, userID, platform string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	gateway, err := e.Gateway(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchLibraryUpdate(platform))

	fetched, err := gateway.FetchSavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s library: %w", platform, err)
	}

	e.sendProgress(progress, fetchedLibraryUpdate(platform, len(fetched)))

	result := &SyncResult{Platform: platform, Fetched: len(fetched)}
	if len(fetched) == 0 {
		return result, nil
	}

	current, err := e.saved.PlatformIDs(userID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to load current library: %w", err)
	}

	fetchedIDs := make(map[string]struct{}, len(fetched))
	for i, c := range fetched {
		fetchedIDs[c.PlatformID] = struct{}{}

		if _, ok := current[c.PlatformID]; ok {
			continue
		}

		e.sendProgress(progress, reconcileUpdate(i+1, len(fetched), c.Title, c.Artist))

		if _, err := e.Reconcile(ctx, userID, platform, c, progress); err != nil {
			e.logger.Warn("failed to reconcile track", "platform", platform, "title", c.Title, "artist", c.Artist, "error", err)
			result.Failures = append(result.Failures, SyncFailure{Title: c.Title, Artist: c.Artist, Err: err})
			continue
		}
		result.Added++
	}

	var stale []string
	for platformID, savedID := range current {
		if _, ok := fetchedIDs[platformID]; !ok {
			stale = append(stale, savedID)
		}
	}
	if len(stale) > 0 {
		e.sendProgress(progress, removeTracksUpdate(len(stale)))

		removed, err := e.saved.DeleteByIDs(stale)
		if err != nil {
			return nil, fmt.Errorf("failed to remove stale tracks: %w", err)
		}
		result.Removed = int(removed)
	}

	result.Changed = result.Added > 0 || result.Removed > 0
	return result, nil
}

// Library returns the user's saved tracks with their platform links, newest
// first.
func (e *Engine) Library(userID string) ([]repositories.LibraryEntry, error) {
	return e.saved.Library(userID)
}

// RemoveSavedTrack deletes one saved-track entry by ID.
func (e *Engine) RemoveSavedTrack(id string) error {
	return e.saved.Delete(id)
}

// ClearLibrary deletes every saved-track entry for the user and returns the
// number removed. Canonical tracks and platform links stay untouched.
func (e *Engine) ClearLibrary(userID string) (int64, error) {
	return e.saved.DeleteAllForUser(userID)
}

// Disconnect removes the user's stored credential for one platform.
func (e *Engine) Disconnect(userID, platform string) error {
	if err := e.provider.Validate(platform); err != nil {
		return err
	}
	return e.creds.Delete(userID, platform)
}

// ActionLog returns the audit trail of platform calls for the user, newest
// first. platform may be empty to list all platforms.
func (e *Engine) ActionLog(userID, platform string) ([]*models.PlatformActionLog, error) {
	return e.actions.List(userID, platform)
}
