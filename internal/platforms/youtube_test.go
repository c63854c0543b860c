package platforms

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestYouTubeNormalizer(t *testing.T) {
	norm := YouTubeNormalizer{}

	t.Run("Music Video With Split Title", func(t *testing.T) {
		raw := json.RawMessage(`{
			"id": "dQw4w9WgXcQ",
			"snippet": {
				"title": "Rick Astley - Never Gonna Give You Up (Official Video)",
				"channelTitle": "RickAstleyVEVO",
				"categoryId": "10",
				"liveBroadcastContent": "none"
			},
			"contentDetails": {"duration": "PT3M33S"}
		}`)

		c, ok := norm.Normalize(raw)
		if !ok {
			t.Fatal("expected record to normalize")
		}
		if c.Artist != "Rick Astley" {
			t.Errorf("unexpected artist %q", c.Artist)
		}
		if c.Title != "Never Gonna Give You Up" {
			t.Errorf("unexpected title %q", c.Title)
		}
		if c.DurationMS == nil || *c.DurationMS != (3*60+33)*1000 {
			t.Errorf("unexpected duration %v", c.DurationMS)
		}
		if c.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
			t.Errorf("unexpected URL %q", c.URL)
		}
	})

	t.Run("Topic Channel As Artist", func(t *testing.T) {
		raw := json.RawMessage(`{
			"id": "vid1",
			"snippet": {
				"title": "Around the World",
				"channelTitle": "Daft Punk - Topic",
				"categoryId": "10"
			}
		}`)

		c, ok := norm.Normalize(raw)
		if !ok {
			t.Fatal("expected record to normalize")
		}
		if c.Artist != "Daft Punk" {
			t.Errorf("unexpected artist %q", c.Artist)
		}
		if c.Title != "Around the World" {
			t.Errorf("unexpected title %q", c.Title)
		}
		if c.DurationMS != nil {
			t.Errorf("expected absent duration, got %v", *c.DurationMS)
		}
	})

	t.Run("Non-Music Category Rejected", func(t *testing.T) {
		raw := json.RawMessage(`{
			"id": "vid2",
			"snippet": {"title": "Cooking Pasta", "channelTitle": "Chef", "categoryId": "26"}
		}`)

		if _, ok := norm.Normalize(raw); ok {
			t.Error("expected non-music video to be rejected")
		}
	})

	t.Run("Missing Category Accepted", func(t *testing.T) {
		// Search results carry no categoryId.
		raw := json.RawMessage(`{
			"id": "vid3",
			"snippet": {"title": "Band - Song", "channelTitle": "Band"}
		}`)

		if _, ok := norm.Normalize(raw); !ok {
			t.Error("expected record without category to be accepted")
		}
	})

	t.Run("Live Content Has Zero Duration", func(t *testing.T) {
		raw := json.RawMessage(`{
			"id": "vid4",
			"snippet": {
				"title": "Band - Live Session",
				"channelTitle": "Band",
				"categoryId": "10",
				"liveBroadcastContent": "live"
			}
		}`)

		c, ok := norm.Normalize(raw)
		if !ok {
			t.Fatal("expected record to normalize")
		}
		if c.DurationMS == nil || *c.DurationMS != 0 {
			t.Errorf("expected zero duration for live content, got %v", c.DurationMS)
		}
	})

	t.Run("Missing ID Rejected", func(t *testing.T) {
		raw := json.RawMessage(`{"snippet": {"title": "Band - Song"}}`)

		if _, ok := norm.Normalize(raw); ok {
			t.Error("expected record without ID to be rejected")
		}
	})
}

func TestYouTubeAuthenticator(t *testing.T) {
	auth := NewYouTubeAuthenticator(testOAuthApp())

	authURL := auth.AuthURL("test_state")
	if !strings.Contains(authURL, "accounts.google.com") {
		t.Error("auth URL should contain Google domain")
	}
	if !strings.Contains(authURL, "test_state") {
		t.Error("auth URL should contain state")
	}
}
