// Spotify implementation of [Authenticator], [Gateway] and [Normalizer].
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageSize = 50
)

var spotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-library-read",
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SpotifyArtist     `json:"artists"`
	Album        SpotifyAlbum        `json:"album"`
	DurationMS   int64               `json:"duration_ms"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	IsLocal      bool                `json:"is_local"`
	URI          string              `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type spotifySavedTracksPage struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
	Next  *string           `json:"next"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []json.RawMessage `json:"items"`
	} `json:"tracks"`
}

// SpotifyNormalizer converts Spotify track records into canonical candidates.
// It accepts both the saved-track envelope ({"track": {...}}) and bare track
// objects as returned by the search endpoint.
type SpotifyNormalizer struct{}

func (SpotifyNormalizer) Normalize(raw json.RawMessage) (models.TrackCandidate, bool) {
	var saved SpotifySavedTrack
	if err := json.Unmarshal(raw, &saved); err == nil && saved.Track.ID != "" {
		return candidateFromSpotifyTrack(saved.Track)
	}

	var track SpotifyTrack
	if err := json.Unmarshal(raw, &track); err != nil {
		return models.TrackCandidate{}, false
	}
	return candidateFromSpotifyTrack(track)
}

func candidateFromSpotifyTrack(t SpotifyTrack) (models.TrackCandidate, bool) {
	// Local files carry no stable platform ID and cannot be reconciled.
	if t.ID == "" || t.IsLocal {
		return models.TrackCandidate{}, false
	}

	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	c := models.TrackCandidate{
		Title:      t.Name,
		Artist:     strings.Join(names, models.ArtistDelimiter),
		PlatformID: t.ID,
		URL:        t.ExternalURLs.Spotify,
	}
	if c.URL == "" {
		c.URL = "https://open.spotify.com/track/" + t.ID
	}
	if t.Album.Name != "" {
		album := t.Album.Name
		c.Album = &album
	}
	if t.DurationMS > 0 {
		ms := t.DurationMS
		c.DurationMS = &ms
	}

	return c, true
}

func spotifyOAuthConfig(app shared.OAuthAppConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  app.RedirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// SpotifyAuthenticator runs the Spotify authorization-code flow.
type SpotifyAuthenticator struct {
	config *oauth2.Config
}

// NewSpotifyAuthenticator creates the unauthenticated Spotify client.
func NewSpotifyAuthenticator(app shared.OAuthAppConfig) *SpotifyAuthenticator {
	return &SpotifyAuthenticator{config: spotifyOAuthConfig(app)}
}

// AuthURL returns the Spotify consent-page URL for the given state token.
func (a *SpotifyAuthenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a stored credential.
func (a *SpotifyAuthenticator) Exchange(ctx context.Context, userID, code string) (*models.PlatformCredential, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return credentialFromToken(userID, Spotify, token, spotifyScopes), nil
}

// SpotifyGateway performs authenticated Spotify API calls for one user.
type SpotifyGateway struct {
	config     *oauth2.Config
	source     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	norm       Normalizer
	notify     TokenUpdateFunc
	lastAccess string
}

// NewSpotifyGateway creates an authenticated Spotify client from a stored
// credential. notify, when non-nil, is called after silent token refreshes.
func NewSpotifyGateway(app shared.OAuthAppConfig, cred *models.PlatformCredential, notify TokenUpdateFunc) (*SpotifyGateway, error) {
	config := spotifyOAuthConfig(app)
	token, err := tokenFromCredential(cred)
	if err != nil {
		return nil, err
	}

	return &SpotifyGateway{
		config:     config,
		source:     config.TokenSource(context.Background(), token),
		httpClient: http.DefaultClient,
		limiter:    newAPILimiter(app.RateLimit),
		norm:       SpotifyNormalizer{},
		notify:     notify,
		lastAccess: token.AccessToken,
	}, nil
}

func (g *SpotifyGateway) Platform() string {
	return Spotify
}

// doRequest performs an authenticated, rate-limited GET against the Spotify API.
func (g *SpotifyGateway) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := g.source.Token()
	if err != nil {
		return fmt.Errorf("%w: spotify: %v", shared.ErrRefreshFailed, err)
	}
	if g.notify != nil && token.AccessToken != g.lastAccess {
		g.lastAccess = token.AccessToken
		expiry := token.Expiry
		if err := g.notify(token.AccessToken, token.RefreshToken, &expiry); err != nil {
			return fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: spotify: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrUpstream, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchSavedTracks retrieves the full saved-track library, paginating until
// the API reports no further page.
func (g *SpotifyGateway) FetchSavedTracks(ctx context.Context) ([]models.TrackCandidate, error) {
	var candidates []models.TrackCandidate
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", spotifyPageSize, offset)

		var page spotifySavedTracksPage
		if err := g.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Items {
			if c, ok := g.norm.Normalize(raw); ok {
				candidates = append(candidates, c)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += spotifyPageSize
	}

	return candidates, nil
}

// SearchTrack looks up a track by title and artist. Returns (nil, nil) when
// Spotify has no usable result.
func (g *SpotifyGateway) SearchTrack(ctx context.Context, title, artist string) (*models.TrackCandidate, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=5", url.QueryEscape(query))

	var response spotifySearchResponse
	if err := g.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	for _, raw := range response.Tracks.Items {
		if c, ok := g.norm.Normalize(raw); ok {
			return &c, nil
		}
	}

	return nil, nil
}
