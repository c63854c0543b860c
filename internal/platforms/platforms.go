// package platforms defines the capability interfaces for talking to
// streaming platforms and the static registry that binds platform names to
// implementations.
//
// Two states exist per platform, modeled as two types: an [Authenticator]
// can only run the authorization-code flow, while a [Gateway] holds usable
// credential material and performs authenticated calls. A caller can never
// observe a half-authenticated client.
package platforms

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
)

// Platform identifiers known to this build.
const (
	Spotify = "spotify"
	YouTube = "youtube"
)

// Authenticator runs the authorization-code flow for one platform. It is the
// unauthenticated state of a platform client.
type Authenticator interface {
	// AuthURL returns the consent-page URL for the given CSRF state token.
	AuthURL(state string) string

	// Exchange trades an authorization code for a credential.
	Exchange(ctx context.Context, userID, code string) (*models.PlatformCredential, error)
}

// Gateway performs authenticated calls against one platform on behalf of one
// user. It is the authenticated state of a platform client and internally
// manages token refresh.
type Gateway interface {
	// FetchSavedTracks returns the user's saved tracks, already normalized.
	// Records the platform's normalizer rejects are dropped, not errors.
	FetchSavedTracks(ctx context.Context) ([]models.TrackCandidate, error)

	// SearchTrack looks up a track by title and artist, best effort.
	// Returns (nil, nil) when the platform has no plausible result.
	SearchTrack(ctx context.Context, title, artist string) (*models.TrackCandidate, error)

	// Platform returns the platform identifier this gateway talks to.
	Platform() string
}

// Normalizer converts one raw platform record into a canonical candidate.
// The boolean is false when the record does not denote music content; a
// malformed record degrades to unknown fields instead of failing.
type Normalizer interface {
	Normalize(raw json.RawMessage) (models.TrackCandidate, bool)
}

// TokenUpdateFunc is invoked by a gateway after a silent token refresh so the
// caller can persist the new token material.
type TokenUpdateFunc func(accessToken, refreshToken string, expiresAt *time.Time) error
