package models

import (
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/shared"
)

// User is a local account that links one or more platform accounts.
type User struct {
	id          string
	sequence    int
	email       string
	displayName string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewUser creates a new User with the given sequence, email and display name.
func NewUser(sequence int, email, displayName string) *User {
	now := time.Now()
	return &User{
		sequence:    sequence,
		email:       email,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (u *User) ID() string           { return u.id }
func (u *User) Sequence() int        { return u.sequence }
func (u *User) Email() string        { return u.email }
func (u *User) DisplayName() string  { return u.displayName }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) SetID(id string)           { u.id = id }
func (u *User) SetSequence(sequence int)  { u.sequence = sequence }
func (u *User) SetCreatedAt(ts time.Time) { u.createdAt = ts }
func (u *User) SetUpdatedAt(ts time.Time) { u.updatedAt = ts }

// Validate checks the user's mandatory fields.
func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingField)
	}
	return nil
}

// PlatformCredential holds per (user, platform) token material. The sync core
// treats it as an opaque capability consumed through the gateway layer.
type PlatformCredential struct {
	id           string
	userID       string
	platform     string
	accessToken  string
	refreshToken string
	expiresAt    *time.Time
	scope        string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPlatformCredential creates a credential for a (user, platform) pair.
func NewPlatformCredential(userID, platform, accessToken, refreshToken, scope string, expiresAt *time.Time) *PlatformCredential {
	now := time.Now()
	return &PlatformCredential{
		userID:       userID,
		platform:     platform,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
		scope:        scope,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (c *PlatformCredential) ID() string            { return c.id }
func (c *PlatformCredential) UserID() string        { return c.userID }
func (c *PlatformCredential) Platform() string      { return c.platform }
func (c *PlatformCredential) AccessToken() string   { return c.accessToken }
func (c *PlatformCredential) RefreshToken() string  { return c.refreshToken }
func (c *PlatformCredential) ExpiresAt() *time.Time { return c.expiresAt }
func (c *PlatformCredential) Scope() string         { return c.scope }
func (c *PlatformCredential) CreatedAt() time.Time  { return c.createdAt }
func (c *PlatformCredential) UpdatedAt() time.Time  { return c.updatedAt }

func (c *PlatformCredential) SetID(id string)           { c.id = id }
func (c *PlatformCredential) SetCreatedAt(ts time.Time) { c.createdAt = ts }
func (c *PlatformCredential) SetUpdatedAt(ts time.Time) { c.updatedAt = ts }

// SetTokens replaces the token material after a refresh.
func (c *PlatformCredential) SetTokens(accessToken, refreshToken string, expiresAt *time.Time) {
	c.accessToken = accessToken
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
	c.expiresAt = expiresAt
}

// Expired reports whether the access token has passed its expiry.
// Credentials without an expiry never expire locally.
func (c *PlatformCredential) Expired(now time.Time) bool {
	return c.expiresAt != nil && !now.Before(*c.expiresAt)
}

// Usable reports whether the credential can still authenticate requests,
// directly or through a refresh.
func (c *PlatformCredential) Usable(now time.Time) bool {
	return !c.Expired(now) || c.refreshToken != ""
}

// Validate checks the credential's mandatory fields.
func (c *PlatformCredential) Validate() error {
	switch {
	case c.userID == "":
		return fmt.Errorf("%w: user_id", shared.ErrMissingField)
	case c.platform == "":
		return fmt.Errorf("%w: platform", shared.ErrMissingField)
	case c.accessToken == "":
		return fmt.Errorf("%w: access_token", shared.ErrMissingField)
	}
	return nil
}

// PlatformActionLog is one append-only record of an action taken against a
// platform on behalf of a user. Written by the gateway layer around every
// external call; read by nothing in the sync core.
type PlatformActionLog struct {
	id        string
	userID    string
	platform  string
	action    string
	metadata  map[string]any
	createdAt time.Time
}

// NewPlatformActionLog creates an action log entry.
func NewPlatformActionLog(userID, platform, action string, metadata map[string]any) *PlatformActionLog {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &PlatformActionLog{
		userID:    userID,
		platform:  platform,
		action:    action,
		metadata:  metadata,
		createdAt: time.Now(),
	}
}

func (a *PlatformActionLog) ID() string               { return a.id }
func (a *PlatformActionLog) UserID() string           { return a.userID }
func (a *PlatformActionLog) Platform() string         { return a.platform }
func (a *PlatformActionLog) Action() string           { return a.action }
func (a *PlatformActionLog) Metadata() map[string]any { return a.metadata }
func (a *PlatformActionLog) CreatedAt() time.Time     { return a.createdAt }

// UpdatedAt returns the creation time; log entries are append-only.
func (a *PlatformActionLog) UpdatedAt() time.Time { return a.createdAt }

func (a *PlatformActionLog) SetID(id string)           { a.id = id }
func (a *PlatformActionLog) SetCreatedAt(ts time.Time) { a.createdAt = ts }

// Validate checks the log entry's mandatory fields.
func (a *PlatformActionLog) Validate() error {
	switch {
	case a.userID == "":
		return fmt.Errorf("%w: user_id", shared.ErrMissingField)
	case a.platform == "":
		return fmt.Errorf("%w: platform", shared.ErrMissingField)
	case a.action == "":
		return fmt.Errorf("%w: action", shared.ErrMissingField)
	}
	return nil
}
