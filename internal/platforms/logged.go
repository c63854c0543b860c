package platforms

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mlefebvre/tunesync/internal/models"
)

// ActionRecorder persists an audit trail of platform calls. Satisfied by
// repositories.ActionLogRepository.
type ActionRecorder interface {
	Append(entry *models.PlatformActionLog) error
}

// LoggedGateway wraps a [Gateway] and records every call as a
// [models.PlatformActionLog] row. Audit failures are logged and swallowed so
// a broken audit trail never blocks a platform operation.
type LoggedGateway struct {
	inner    Gateway
	userID   string
	recorder ActionRecorder
	logger   *log.Logger
}

// NewLoggedGateway wraps inner with action logging for the given user.
func NewLoggedGateway(inner Gateway, userID string, recorder ActionRecorder, logger *log.Logger) *LoggedGateway {
	return &LoggedGateway{inner: inner, userID: userID, recorder: recorder, logger: logger}
}

func (g *LoggedGateway) Platform() string {
	return g.inner.Platform()
}

func (g *LoggedGateway) FetchSavedTracks(ctx context.Context) ([]models.TrackCandidate, error) {
	candidates, err := g.inner.FetchSavedTracks(ctx)

	meta := map[string]any{"count": len(candidates)}
	if err != nil {
		meta["error"] = err.Error()
	}
	g.record("fetch_saved_tracks", meta)

	return candidates, err
}

func (g *LoggedGateway) SearchTrack(ctx context.Context, title, artist string) (*models.TrackCandidate, error) {
	candidate, err := g.inner.SearchTrack(ctx, title, artist)

	meta := map[string]any{"title": title, "artist": artist, "found": candidate != nil}
	if err != nil {
		meta["error"] = err.Error()
	}
	g.record("search_track", meta)

	return candidate, err
}

func (g *LoggedGateway) record(action string, metadata map[string]any) {
	entry := models.NewPlatformActionLog(g.userID, g.inner.Platform(), action, metadata)
	if err := g.recorder.Append(entry); err != nil {
		g.logger.Warn("failed to record platform action", "platform", g.inner.Platform(), "action", action, "error", err)
	}
}
