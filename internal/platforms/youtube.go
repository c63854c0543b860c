// YouTube implementation of [Authenticator], [Gateway] and [Normalizer].
//
// Talks to the YouTube Data API v3 directly. A user's "saved tracks" are
// their liked videos; the normalizer keeps only music-category videos and
// recovers artist/title from the video metadata, since YouTube has no
// first-class track object.
//
// Response types based on https://developers.google.com/youtube/v3/docs/videos
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
	youtubeAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	youtubeTokenURL = "https://oauth2.googleapis.com/token"
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"

	youtubePageSize = 50

	// YouTube's category ID for music content.
	youtubeMusicCategory = "10"
)

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
}

// YouTubeSnippet carries the video metadata this package cares about.
type YouTubeSnippet struct {
	Title                string `json:"title"`
	ChannelTitle         string `json:"channelTitle"`
	CategoryID           string `json:"categoryId"`
	LiveBroadcastContent string `json:"liveBroadcastContent"`
}

// YouTubeContentDetails carries the video's ISO-8601 duration.
type YouTubeContentDetails struct {
	Duration string `json:"duration"`
}

// YouTubeVideo represents one item of a videos.list response.
type YouTubeVideo struct {
	ID             string                `json:"id"`
	Snippet        YouTubeSnippet        `json:"snippet"`
	ContentDetails YouTubeContentDetails `json:"contentDetails"`
}

type youtubeVideosPage struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

type youtubeSearchID struct {
	VideoID string `json:"videoId"`
}

type youtubeSearchItem struct {
	ID youtubeSearchID `json:"id"`
}

type youtubeSearchPage struct {
	Items []youtubeSearchItem `json:"items"`
}

// YouTubeNormalizer converts YouTube video records into canonical candidates.
//
// Video titles in the wild look like "Artist - Title (Official Video)"; the
// normalizer splits on the first hyphen and strips parenthesized decorations.
// Without a delimiter the whole title stands as the track title and the
// channel name, minus any " - Topic" suffix, stands in for the artist.
type YouTubeNormalizer struct{}

func (YouTubeNormalizer) Normalize(raw json.RawMessage) (models.TrackCandidate, bool) {
	var video YouTubeVideo
	if err := json.Unmarshal(raw, &video); err != nil || video.ID == "" {
		return models.TrackCandidate{}, false
	}

	// Non-music categories are dropped entirely. Search results carry no
	// category, so an empty value passes through.
	if video.Snippet.CategoryID != "" && video.Snippet.CategoryID != youtubeMusicCategory {
		return models.TrackCandidate{}, false
	}

	title := video.Snippet.Title
	artist := strings.TrimSuffix(video.Snippet.ChannelTitle, " - Topic")
	if a, t, ok := SplitArtistTitle(title); ok {
		artist, title = a, t
	}
	title = CleanTitle(title)

	c := models.TrackCandidate{
		Title:      title,
		Artist:     strings.TrimSpace(artist),
		PlatformID: video.ID,
		URL:        "https://www.youtube.com/watch?v=" + video.ID,
	}

	// Live streams and premieres report no playable length. A zero duration
	// records that the platform answered but the length is unknown.
	if video.Snippet.LiveBroadcastContent != "" && video.Snippet.LiveBroadcastContent != "none" {
		zero := int64(0)
		c.DurationMS = &zero
	} else if video.ContentDetails.Duration != "" {
		if ms, ok := ParseISODuration(video.ContentDetails.Duration); ok {
			c.DurationMS = &ms
		}
	}

	return c, true
}

func youtubeOAuthConfig(app shared.OAuthAppConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  app.RedirectURI,
		Scopes:       youtubeScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  youtubeAuthURL,
			TokenURL: youtubeTokenURL,
		},
	}
}

// YouTubeAuthenticator runs the Google authorization-code flow.
type YouTubeAuthenticator struct {
	config *oauth2.Config
}

// NewYouTubeAuthenticator creates the unauthenticated YouTube client.
func NewYouTubeAuthenticator(app shared.OAuthAppConfig) *YouTubeAuthenticator {
	return &YouTubeAuthenticator{config: youtubeOAuthConfig(app)}
}

// AuthURL returns the Google consent-page URL for the given state token.
func (a *YouTubeAuthenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a stored credential.
func (a *YouTubeAuthenticator) Exchange(ctx context.Context, userID, code string) (*models.PlatformCredential, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return credentialFromToken(userID, YouTube, token, youtubeScopes), nil
}

// YouTubeGateway performs authenticated YouTube Data API calls for one user.
type YouTubeGateway struct {
	config     *oauth2.Config
	source     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	norm       Normalizer
	notify     TokenUpdateFunc
	lastAccess string
}

// NewYouTubeGateway creates an authenticated YouTube client from a stored
// credential. notify, when non-nil, is called after silent token refreshes.
func NewYouTubeGateway(app shared.OAuthAppConfig, cred *models.PlatformCredential, notify TokenUpdateFunc) (*YouTubeGateway, error) {
	config := youtubeOAuthConfig(app)
	token, err := tokenFromCredential(cred)
	if err != nil {
		return nil, err
	}

	return &YouTubeGateway{
		config:     config,
		source:     config.TokenSource(context.Background(), token),
		httpClient: http.DefaultClient,
		limiter:    newAPILimiter(app.RateLimit),
		norm:       YouTubeNormalizer{},
		notify:     notify,
		lastAccess: token.AccessToken,
	}, nil
}

func (g *YouTubeGateway) Platform() string {
	return YouTube
}

func (g *YouTubeGateway) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := g.source.Token()
	if err != nil {
		return fmt.Errorf("%w: youtube: %v", shared.ErrRefreshFailed, err)
	}
	if g.notify != nil && token.AccessToken != g.lastAccess {
		g.lastAccess = token.AccessToken
		expiry := token.Expiry
		if err := g.notify(token.AccessToken, token.RefreshToken, &expiry); err != nil {
			return fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: youtube: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: youtube", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: youtube API status %d", shared.ErrUpstream, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchSavedTracks retrieves the user's liked videos, paginating until the
// API returns no further page token. Non-music videos are dropped by the
// normalizer.
func (g *YouTubeGateway) FetchSavedTracks(ctx context.Context) ([]models.TrackCandidate, error) {
	var candidates []models.TrackCandidate
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/videos?part=snippet,contentDetails&myRating=like&maxResults=%d", youtubePageSize)
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page youtubeVideosPage
		if err := g.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Items {
			if c, ok := g.norm.Normalize(raw); ok {
				candidates = append(candidates, c)
			}
		}

		if page.NextPageToken == "" || len(page.Items) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}

	return candidates, nil
}

// SearchTrack looks up a music video by title and artist. The search endpoint
// returns only IDs, so a second call fetches full metadata for normalization.
// Returns (nil, nil) when nothing usable matches.
func (g *YouTubeGateway) SearchTrack(ctx context.Context, title, artist string) (*models.TrackCandidate, error) {
	query := url.QueryEscape(artist + " " + title)
	endpoint := fmt.Sprintf("/search?part=snippet&type=video&videoCategoryId=%s&maxResults=5&q=%s", youtubeMusicCategory, query)

	var search youtubeSearchPage
	if err := g.doRequest(ctx, endpoint, &search); err != nil {
		return nil, err
	}
	if len(search.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	endpoint = fmt.Sprintf("/videos?part=snippet,contentDetails&id=%s", url.QueryEscape(strings.Join(ids, ",")))

	var page youtubeVideosPage
	if err := g.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	for _, raw := range page.Items {
		if c, ok := g.norm.Normalize(raw); ok {
			return &c, nil
		}
	}

	return nil, nil
}
