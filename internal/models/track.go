package models

import (
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/shared"
)

// TrackCandidate is the platform-agnostic normalized form of a raw platform
// record, produced by a platform normalizer before reconciliation.
//
// Album and DurationMS are nil when the platform did not report them; a
// DurationMS of zero means the platform reported a length it cannot know
// (live or otherwise unplayable-length content) and is treated as unknown by
// consumers.
type TrackCandidate struct {
	Title      string
	Artist     string
	Album      *string
	DurationMS *int64
	PlatformID string
	URL        string
}

// Validate checks that the candidate carries every mandatory field.
func (c TrackCandidate) Validate() error {
	switch {
	case c.Title == "":
		return fmt.Errorf("%w: title", shared.ErrMissingField)
	case c.Artist == "":
		return fmt.Errorf("%w: artist", shared.ErrMissingField)
	case c.PlatformID == "":
		return fmt.Errorf("%w: platform_id", shared.ErrMissingField)
	}
	if c.DurationMS != nil && *c.DurationMS < 0 {
		return fmt.Errorf("%w: negative duration", shared.ErrInvalidInput)
	}
	return nil
}

// KnownDuration reports whether the candidate carries a usable duration.
// Platform-reported zero counts as unknown.
func (c TrackCandidate) KnownDuration() bool {
	return c.DurationMS != nil && *c.DurationMS > 0
}

// Track is one canonical song, independent of platform. Identity is not a
// natural key: two rows may legitimately describe the same real song.
type Track struct {
	id         string
	sequence   int
	title      string
	artist     string
	album      *string
	durationMS *int64
	createdAt  time.Time
	updatedAt  time.Time
}

// NewTrack creates a canonical Track from a candidate's descriptive fields.
func NewTrack(sequence int, c TrackCandidate) *Track {
	now := time.Now()
	t := &Track{
		sequence:  sequence,
		title:     c.Title,
		artist:    c.Artist,
		album:     c.Album,
		createdAt: now,
		updatedAt: now,
	}
	if c.KnownDuration() {
		t.durationMS = c.DurationMS
	}
	return t
}

func (t *Track) ID() string           { return t.id }
func (t *Track) Sequence() int        { return t.sequence }
func (t *Track) Title() string        { return t.title }
func (t *Track) Artist() string       { return t.artist }
func (t *Track) Album() *string       { return t.album }
func (t *Track) DurationMS() *int64   { return t.durationMS }
func (t *Track) CreatedAt() time.Time { return t.createdAt }
func (t *Track) UpdatedAt() time.Time { return t.updatedAt }

func (t *Track) SetID(id string)             { t.id = id }
func (t *Track) SetCreatedAt(ts time.Time)   { t.createdAt = ts }
func (t *Track) SetUpdatedAt(ts time.Time)   { t.updatedAt = ts }
func (t *Track) SetAlbum(album *string)      { t.album = album }
func (t *Track) SetDurationMS(ms *int64)     { t.durationMS = ms }
func (t *Track) SetSequence(sequence int)    { t.sequence = sequence }
func (t *Track) SetTitleArtist(title, a string) { t.title = title; t.artist = a }

// Validate checks the track's mandatory fields.
func (t *Track) Validate() error {
	if t.title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingField)
	}
	if t.artist == "" {
		return fmt.Errorf("%w: artist", shared.ErrMissingField)
	}
	if t.durationMS != nil && *t.durationMS < 0 {
		return fmt.Errorf("%w: negative duration", shared.ErrInvalidInput)
	}
	return nil
}

// MergeFill copies album and duration from the candidate into any field the
// track does not already have. Present values are never overwritten.
// Returns true when at least one field changed.
func (t *Track) MergeFill(c TrackCandidate) bool {
	changed := false
	if t.album == nil && c.Album != nil && *c.Album != "" {
		album := *c.Album
		t.album = &album
		changed = true
	}
	if (t.durationMS == nil || *t.durationMS == 0) && c.KnownDuration() {
		ms := *c.DurationMS
		t.durationMS = &ms
		changed = true
	}
	return changed
}

// TrackPlatformLink associates one canonical Track with one platform plus the
// platform's opaque track identifier and canonical URL. At most one link
// exists per (track, platform) pair; links are never automatically deleted.
type TrackPlatformLink struct {
	id         string
	trackID    string
	platform   string
	platformID string
	url        string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewTrackPlatformLink creates a link between a track and its identity on a platform.
func NewTrackPlatformLink(trackID, platform, platformID, url string) *TrackPlatformLink {
	now := time.Now()
	return &TrackPlatformLink{
		trackID:    trackID,
		platform:   platform,
		platformID: platformID,
		url:        url,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (l *TrackPlatformLink) ID() string           { return l.id }
func (l *TrackPlatformLink) TrackID() string      { return l.trackID }
func (l *TrackPlatformLink) Platform() string     { return l.platform }
func (l *TrackPlatformLink) PlatformID() string   { return l.platformID }
func (l *TrackPlatformLink) URL() string          { return l.url }
func (l *TrackPlatformLink) CreatedAt() time.Time { return l.createdAt }
func (l *TrackPlatformLink) UpdatedAt() time.Time { return l.updatedAt }

func (l *TrackPlatformLink) SetID(id string)           { l.id = id }
func (l *TrackPlatformLink) SetCreatedAt(ts time.Time) { l.createdAt = ts }
func (l *TrackPlatformLink) SetUpdatedAt(ts time.Time) { l.updatedAt = ts }

// Validate checks the link's mandatory fields.
func (l *TrackPlatformLink) Validate() error {
	switch {
	case l.trackID == "":
		return fmt.Errorf("%w: track_id", shared.ErrMissingField)
	case l.platform == "":
		return fmt.Errorf("%w: platform", shared.ErrMissingField)
	case l.platformID == "":
		return fmt.Errorf("%w: platform_id", shared.ErrMissingField)
	}
	return nil
}

// UserSavedTrack associates one user, one canonical Track and the platform
// through which the user saved it. At most one row exists per
// (user, track, platform) triple. Unlike links, saved rows follow live
// upstream state: synchronization deletes them when the platform no longer
// reports the track as saved.
type UserSavedTrack struct {
	id        string
	userID    string
	trackID   string
	platform  string
	createdAt time.Time
}

// NewUserSavedTrack creates a saved-track association.
func NewUserSavedTrack(userID, trackID, platform string) *UserSavedTrack {
	return &UserSavedTrack{
		userID:    userID,
		trackID:   trackID,
		platform:  platform,
		createdAt: time.Now(),
	}
}

func (s *UserSavedTrack) ID() string           { return s.id }
func (s *UserSavedTrack) UserID() string       { return s.userID }
func (s *UserSavedTrack) TrackID() string      { return s.trackID }
func (s *UserSavedTrack) Platform() string     { return s.platform }
func (s *UserSavedTrack) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the creation time; saved rows are never updated in place.
func (s *UserSavedTrack) UpdatedAt() time.Time { return s.createdAt }

func (s *UserSavedTrack) SetID(id string)           { s.id = id }
func (s *UserSavedTrack) SetCreatedAt(ts time.Time) { s.createdAt = ts }

// Validate checks the saved row's mandatory fields.
func (s *UserSavedTrack) Validate() error {
	switch {
	case s.userID == "":
		return fmt.Errorf("%w: user_id", shared.ErrMissingField)
	case s.trackID == "":
		return fmt.Errorf("%w: track_id", shared.ErrMissingField)
	case s.platform == "":
		return fmt.Errorf("%w: platform", shared.ErrMissingField)
	}
	return nil
}
