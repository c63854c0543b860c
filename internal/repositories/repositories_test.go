package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()

	user := models.NewUser(0, "listener@example.com", "Listener")
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestTrack(t *testing.T, db *sql.DB, title, artist string) *models.Track {
	t.Helper()

	track := models.NewTrack(0, models.TrackCandidate{Title: title, Artist: artist, PlatformID: "x"})
	if err := NewTrackRepository(db).Create(track); err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	return track
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create Assigns ID And Sequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		first := models.NewTrack(0, models.TrackCandidate{Title: "One", Artist: "Band", PlatformID: "a"})
		second := models.NewTrack(0, models.TrackCandidate{Title: "Two", Artist: "Band", PlatformID: "b"})

		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if first.ID() == "" {
			t.Error("track ID should be set after creation")
		}
		if second.Sequence() <= first.Sequence() {
			t.Error("sequence should increase monotonically")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		album := "The Album"
		duration := int64(180000)
		repo := NewTrackRepository(db)
		track := models.NewTrack(0, models.TrackCandidate{
			Title: "Song", Artist: "Band", Album: &album, DurationMS: &duration, PlatformID: "a",
		})
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Title() != "Song" || got.Artist() != "Band" {
			t.Errorf("unexpected track %s - %s", got.Artist(), got.Title())
		}
		if got.Album() == nil || *got.Album() != "The Album" {
			t.Errorf("unexpected album %v", got.Album())
		}
		if got.DurationMS() == nil || *got.DurationMS() != 180000 {
			t.Errorf("unexpected duration %v", got.DurationMS())
		}
	})

	t.Run("Get Preserves Stored Zero Duration", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		zero := int64(0)
		repo := NewTrackRepository(db)
		track := models.NewTrack(0, models.TrackCandidate{
			Title: "Live Set", Artist: "Band", DurationMS: &zero, PlatformID: "a",
		})
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.DurationMS() == nil || *got.DurationMS() != 0 {
			t.Errorf("expected stored zero duration, got %v", got.DurationMS())
		}
	})

	t.Run("FindByTitleArtist Returns Oldest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		first := createTestTrack(t, db, "Song", "Band")
		createTestTrack(t, db, "Song", "Band")

		got, err := repo.FindByTitleArtist("Song", "Band")
		if err != nil {
			t.Fatalf("failed to find track: %v", err)
		}
		if got.ID() != first.ID() {
			t.Error("expected the oldest matching track")
		}
	})

	t.Run("FindByTitleArtist Is Case Sensitive", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		createTestTrack(t, db, "Song", "Band")

		if _, err := repo.FindByTitleArtist("song", "band"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := createTestTrack(t, db, "Song", "Band")

		album := "Late Album"
		track.SetAlbum(&album)
		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Album() == nil || *got.Album() != "Late Album" {
			t.Errorf("unexpected album %v", got.Album())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := createTestTrack(t, db, "Song", "Band")

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLinkRepository(t *testing.T) {
	t.Run("FindOrCreate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		track := createTestTrack(t, db, "Song", "Band")

		link, created, err := repo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp1", "https://example.com/sp1"))
		if err != nil {
			t.Fatalf("failed to create link: %v", err)
		}
		if !created {
			t.Error("expected link to be created")
		}

		again, created, err := repo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp-other", "https://example.com/other"))
		if err != nil {
			t.Fatalf("failed on second find-or-create: %v", err)
		}
		if created {
			t.Error("expected existing link to be found, not created")
		}
		if again.ID() != link.ID() || again.PlatformID() != "sp1" {
			t.Error("second call must return the original link unchanged")
		}
	})

	t.Run("One Link Per Platform", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		track := createTestTrack(t, db, "Song", "Band")

		if _, _, err := repo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp1", "")); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}
		if _, _, err := repo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "youtube", "yt1", "")); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}

		links, err := repo.ListByTrack(track.ID())
		if err != nil {
			t.Fatalf("failed to list links: %v", err)
		}
		if len(links) != 2 {
			t.Errorf("expected 2 links, got %d", len(links))
		}
	})

	t.Run("GetByPlatformID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		track := createTestTrack(t, db, "Song", "Band")
		if _, _, err := repo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp1", "")); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}

		got, err := repo.GetByPlatformID("spotify", "sp1")
		if err != nil {
			t.Fatalf("failed to get link: %v", err)
		}
		if got.TrackID() != track.ID() {
			t.Error("link should point at the created track")
		}

		if _, err := repo.GetByPlatformID("spotify", "absent"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSavedTrackRepository(t *testing.T) {
	t.Run("FindOrCreate Is Idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSavedTrackRepository(db)
		user := createTestUser(t, db)
		track := createTestTrack(t, db, "Song", "Band")

		saved, created, err := repo.FindOrCreate(models.NewUserSavedTrack(user.ID(), track.ID(), "spotify"))
		if err != nil {
			t.Fatalf("failed to save track: %v", err)
		}
		if !created {
			t.Error("expected entry to be created")
		}

		again, created, err := repo.FindOrCreate(models.NewUserSavedTrack(user.ID(), track.ID(), "spotify"))
		if err != nil {
			t.Fatalf("failed on second find-or-create: %v", err)
		}
		if created || again.ID() != saved.ID() {
			t.Error("repeated save must return the existing entry")
		}
	})

	t.Run("PlatformIDs Maps Platform ID To Entry", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		linkRepo := NewLinkRepository(db)
		savedRepo := NewSavedTrackRepository(db)
		user := createTestUser(t, db)
		track := createTestTrack(t, db, "Song", "Band")

		if _, _, err := linkRepo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp1", "")); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}
		saved, _, err := savedRepo.FindOrCreate(models.NewUserSavedTrack(user.ID(), track.ID(), "spotify"))
		if err != nil {
			t.Fatalf("failed to save track: %v", err)
		}

		ids, err := savedRepo.PlatformIDs(user.ID(), "spotify")
		if err != nil {
			t.Fatalf("failed to map platform IDs: %v", err)
		}
		if ids["sp1"] != saved.ID() {
			t.Errorf("expected sp1 to map to saved entry, got %v", ids)
		}
	})

	t.Run("DeleteByIDs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSavedTrackRepository(db)
		user := createTestUser(t, db)
		a := createTestTrack(t, db, "A", "Band")
		b := createTestTrack(t, db, "B", "Band")

		savedA, _, err := repo.FindOrCreate(models.NewUserSavedTrack(user.ID(), a.ID(), "spotify"))
		if err != nil {
			t.Fatalf("failed to save track: %v", err)
		}
		if _, _, err := repo.FindOrCreate(models.NewUserSavedTrack(user.ID(), b.ID(), "spotify")); err != nil {
			t.Fatalf("failed to save track: %v", err)
		}

		removed, err := repo.DeleteByIDs([]string{savedA.ID()})
		if err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removal, got %d", removed)
		}
		if _, err := repo.Get(savedA.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteAllForUser", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSavedTrackRepository(db)
		user := createTestUser(t, db)
		track := createTestTrack(t, db, "Song", "Band")

		if _, _, err := repo.FindOrCreate(models.NewUserSavedTrack(user.ID(), track.ID(), "spotify")); err != nil {
			t.Fatalf("failed to save track: %v", err)
		}

		removed, err := repo.DeleteAllForUser(user.ID())
		if err != nil {
			t.Fatalf("failed to clear library: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removal, got %d", removed)
		}
	})

	t.Run("Library Joins Tracks And Links", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		linkRepo := NewLinkRepository(db)
		savedRepo := NewSavedTrackRepository(db)
		user := createTestUser(t, db)
		track := createTestTrack(t, db, "Song", "Band")

		if _, _, err := linkRepo.FindOrCreate(models.NewTrackPlatformLink(track.ID(), "spotify", "sp1", "")); err != nil {
			t.Fatalf("failed to create link: %v", err)
		}
		if _, _, err := savedRepo.FindOrCreate(models.NewUserSavedTrack(user.ID(), track.ID(), "spotify")); err != nil {
			t.Fatalf("failed to save track: %v", err)
		}

		library, err := savedRepo.Library(user.ID())
		if err != nil {
			t.Fatalf("failed to list library: %v", err)
		}
		if len(library) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(library))
		}
		if library[0].Track.Title() != "Song" {
			t.Errorf("unexpected track %q", library[0].Track.Title())
		}
		if len(library[0].Links) != 1 || library[0].Links[0].PlatformID() != "sp1" {
			t.Errorf("unexpected links %v", library[0].Links)
		}
	})
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Upsert Then Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		user := createTestUser(t, db)

		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		cred := models.NewPlatformCredential(user.ID(), "spotify", "access", "refresh", "user-library-read", &expiry)
		if err := repo.Upsert(cred); err != nil {
			t.Fatalf("failed to upsert credential: %v", err)
		}

		got, err := repo.GetByUserPlatform(user.ID(), "spotify")
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.AccessToken() != "access" || got.RefreshToken() != "refresh" {
			t.Error("unexpected token material")
		}
		if got.ExpiresAt() == nil || !got.ExpiresAt().Equal(expiry) {
			t.Errorf("unexpected expiry %v", got.ExpiresAt())
		}
	})

	t.Run("Upsert Replaces Existing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		user := createTestUser(t, db)

		if err := repo.Upsert(models.NewPlatformCredential(user.ID(), "spotify", "old", "old-refresh", "", nil)); err != nil {
			t.Fatalf("failed to upsert credential: %v", err)
		}
		if err := repo.Upsert(models.NewPlatformCredential(user.ID(), "spotify", "new", "new-refresh", "", nil)); err != nil {
			t.Fatalf("failed to upsert credential: %v", err)
		}

		got, err := repo.GetByUserPlatform(user.ID(), "spotify")
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.AccessToken() != "new" {
			t.Errorf("expected replaced token, got %q", got.AccessToken())
		}
	})

	t.Run("Missing Credential", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		user := createTestUser(t, db)

		if _, err := repo.GetByUserPlatform(user.ID(), "spotify"); !errors.Is(err, shared.ErrNoCredential) {
			t.Errorf("expected ErrNoCredential, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCredentialRepository(db)
		user := createTestUser(t, db)

		if err := repo.Upsert(models.NewPlatformCredential(user.ID(), "spotify", "access", "refresh", "", nil)); err != nil {
			t.Fatalf("failed to upsert credential: %v", err)
		}
		if err := repo.Delete(user.ID(), "spotify"); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}
		if _, err := repo.GetByUserPlatform(user.ID(), "spotify"); !errors.Is(err, shared.ErrNoCredential) {
			t.Errorf("expected ErrNoCredential, got %v", err)
		}
	})
}

func TestUserRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.Email() != "test@example.com" {
			t.Errorf("unexpected email %q", got.Email())
		}
	})

	t.Run("FindOrCreateByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)

		first, err := repo.FindOrCreateByEmail("test@example.com", "Test User")
		if err != nil {
			t.Fatalf("failed to find or create user: %v", err)
		}
		second, err := repo.FindOrCreateByEmail("test@example.com", "Other Name")
		if err != nil {
			t.Fatalf("failed on second find-or-create: %v", err)
		}
		if first.ID() != second.ID() {
			t.Error("expected the same user for the same email")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if _, err := repo.Get("absent"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestActionLogRepository(t *testing.T) {
	t.Run("Append And List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewActionLogRepository(db)
		user := createTestUser(t, db)

		entry := models.NewPlatformActionLog(user.ID(), "spotify", "fetch_saved_tracks", map[string]any{"count": 12})
		if err := repo.Append(entry); err != nil {
			t.Fatalf("failed to append log entry: %v", err)
		}

		entries, err := repo.List(user.ID(), "spotify")
		if err != nil {
			t.Fatalf("failed to list log entries: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Action() != "fetch_saved_tracks" {
			t.Errorf("unexpected action %q", entries[0].Action())
		}
		if entries[0].Metadata()["count"] != float64(12) {
			t.Errorf("unexpected metadata %v", entries[0].Metadata())
		}
	})

	t.Run("List All Platforms", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewActionLogRepository(db)
		user := createTestUser(t, db)

		if err := repo.Append(models.NewPlatformActionLog(user.ID(), "spotify", "search_track", nil)); err != nil {
			t.Fatalf("failed to append log entry: %v", err)
		}
		if err := repo.Append(models.NewPlatformActionLog(user.ID(), "youtube", "search_track", nil)); err != nil {
			t.Fatalf("failed to append log entry: %v", err)
		}

		entries, err := repo.List(user.ID(), "")
		if err != nil {
			t.Fatalf("failed to list log entries: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(entries))
		}
	})
}
