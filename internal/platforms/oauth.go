package platforms

import (
	"fmt"
	"strings"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// defaultRateLimit caps outbound API calls per second when the platform's
// configuration does not set one.
const defaultRateLimit = 4.0

func newAPILimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = defaultRateLimit
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func credentialFromToken(userID, platform string, token *oauth2.Token, scopes []string) *models.PlatformCredential {
	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		expiresAt = &expiry
	}
	return models.NewPlatformCredential(userID, platform, token.AccessToken, token.RefreshToken, strings.Join(scopes, " "), expiresAt)
}

func tokenFromCredential(cred *models.PlatformCredential) (*oauth2.Token, error) {
	if cred.AccessToken() == "" && cred.RefreshToken() == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCredential, cred.Platform())
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken(),
		RefreshToken: cred.RefreshToken(),
	}
	if expiresAt := cred.ExpiresAt(); expiresAt != nil {
		token.Expiry = *expiresAt
	}
	return token, nil
}
