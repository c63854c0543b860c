package platforms

import (
	"fmt"
	"sort"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// ConnectFunc builds an authenticated gateway for one user's credential.
// notify may be nil when the caller does not persist refreshed tokens.
type ConnectFunc func(cred *models.PlatformCredential, notify TokenUpdateFunc) (Gateway, error)

type entry struct {
	auth    Authenticator
	connect ConnectFunc
}

// Registry maps platform names to their implementations. It is populated
// once at startup from configuration and read-only afterwards, so lookups
// need no locking.
type Registry struct {
	entries map[string]entry
	names   []string
}

// NewRegistry builds the registry from configuration. Only platforms with
// complete OAuth app settings are registered; an empty registry is an error
// because nothing downstream could work.
func NewRegistry(cfg *shared.Config) (*Registry, error) {
	r := &Registry{entries: make(map[string]entry)}

	if cfg.Platforms.Spotify.Configured() {
		app := cfg.Platforms.Spotify
		r.entries[Spotify] = entry{
			auth: NewSpotifyAuthenticator(app),
			connect: func(cred *models.PlatformCredential, notify TokenUpdateFunc) (Gateway, error) {
				return NewSpotifyGateway(app, cred, notify)
			},
		}
	}

	if cfg.Platforms.YouTube.Configured() {
		app := cfg.Platforms.YouTube
		r.entries[YouTube] = entry{
			auth: NewYouTubeAuthenticator(app),
			connect: func(cred *models.PlatformCredential, notify TokenUpdateFunc) (Gateway, error) {
				return NewYouTubeGateway(app, cred, notify)
			},
		}
	}

	if len(r.entries) == 0 {
		return nil, fmt.Errorf("%w: no platform is configured", shared.ErrMissingConfig)
	}

	for name := range r.entries {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// Names returns the registered platform names in sorted order.
func (r *Registry) Names() []string {
	return r.names
}

// Has reports whether name is a registered platform.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Validate returns ErrInvalidPlatform unless name is registered.
func (r *Registry) Validate(name string) error {
	if !r.Has(name) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidPlatform, name)
	}
	return nil
}

// Authenticator returns the authorization-flow handle for name.
func (r *Registry) Authenticator(name string) (Authenticator, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidPlatform, name)
	}
	return e.auth, nil
}

// Connect builds an authenticated gateway for name using cred. The credential
// must carry a usable or refreshable token.
func (r *Registry) Connect(name string, cred *models.PlatformCredential, notify TokenUpdateFunc) (Gateway, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidPlatform, name)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCredential, name)
	}
	return e.connect(cred, notify)
}
