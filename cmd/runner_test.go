package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mlefebvre/tunesync/internal/shared"
	tu "github.com/mlefebvre/tunesync/internal/testing"
	"github.com/urfave/cli/v3"
)

func setupTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	config := shared.DefaultConfig()
	config.Platforms.Spotify.ClientID = "client-id"
	config.Platforms.Spotify.ClientSecret = "client-secret"

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		DB:     db,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	return runner, output
}

func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "tunesync",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"tunesync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Fatalf("expected 5 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "sync", "library", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("ensure", func(t *testing.T) {
		t.Run("wires engine from injected database", func(t *testing.T) {
			runner, _ := setupTestRunner(t)

			if err := runner.ensure(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.engine == nil {
				t.Error("expected engine to be wired")
			}
			if runner.registry == nil {
				t.Error("expected registry to be wired")
			}

			engine := runner.engine
			if err := runner.ensure(); err != nil {
				t.Fatalf("expected no error on second call, got %v", err)
			}
			if runner.engine != engine {
				t.Error("expected second ensure call to be a no-op")
			}
		})

		t.Run("fails without configured platforms", func(t *testing.T) {
			db, err := sql.Open("sqlite3", ":memory:")
			if err != nil {
				t.Fatalf("failed to open test database: %v", err)
			}
			t.Cleanup(func() { db.Close() })

			runner := NewRunner(RunnerOpts{
				Config: shared.DefaultConfig(),
				DB:     db,
				Logger: shared.NewLogger(&bytes.Buffer{}),
			})

			if err := runner.ensure(); err == nil {
				t.Fatal("expected error when no platforms are configured")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("list resolves the default user", func(t *testing.T) {
		runner, output := setupTestRunner(t)

		if err := runApp(t, runner, "library", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Saved tracks: 0") {
			t.Errorf("expected empty library listing, got %q", output.String())
		}

		user, err := runner.users.GetByEmail(defaultUserEmail)
		if err != nil {
			t.Fatalf("expected default user to be created: %v", err)
		}
		if user.Email() != defaultUserEmail {
			t.Errorf("expected default user email, got %s", user.Email())
		}
	})

	t.Run("list outputs JSON", func(t *testing.T) {
		runner, output := setupTestRunner(t)

		if err := runApp(t, runner, "library", "list", "--json", "--pretty=false"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if strings.TrimSpace(output.String()) != "[]" {
			t.Errorf("expected empty JSON array, got %q", output.String())
		}
	})

	t.Run("list honors the user flag", func(t *testing.T) {
		runner, _ := setupTestRunner(t)

		if err := runApp(t, runner, "library", "list", "--user", "other@example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := runner.users.GetByEmail("other@example.com"); err != nil {
			t.Fatalf("expected flagged user to be created: %v", err)
		}
	})

	t.Run("clear refuses without confirmation", func(t *testing.T) {
		runner, _ := setupTestRunner(t)

		err := runApp(t, runner, "library", "clear")
		if err == nil {
			t.Fatal("expected error without --yes")
		}
	})

	t.Run("clear removes saved tracks", func(t *testing.T) {
		runner, output := setupTestRunner(t)

		if err := runApp(t, runner, "library", "clear", "--yes"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Removed 0 saved tracks") {
			t.Errorf("expected clear summary, got %q", output.String())
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		runner, _ := setupTestRunner(t)

		err := runApp(t, runner, "library", "export", "--format", "xml")
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
		if !strings.Contains(err.Error(), "unknown format") {
			t.Errorf("expected format error, got %v", err)
		}
	})

	t.Run("export writes markdown", func(t *testing.T) {
		runner, output := setupTestRunner(t)
		path := filepath.Join(t.TempDir(), "library.md")

		if err := runApp(t, runner, "library", "export", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Library exported to") {
			t.Errorf("expected export summary, got %q", output.String())
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		origDir := tu.MustGetwd(t)
		tmpDir := t.TempDir()
		tu.MustChdir(t, tmpDir)
		defer tu.MustChdir(t, origDir)

		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(&bytes.Buffer{}),
			Output: &bytes.Buffer{},
		})

		if err := runApp(t, runner, "setup", "--config", "config.toml"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(tmpDir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(tmpDir, "tunesync.db"))
	})
}

func TestSyncCommand(t *testing.T) {
	t.Run("requires a platform argument", func(t *testing.T) {
		runner, _ := setupTestRunner(t)

		err := runApp(t, runner, "sync")
		if err == nil {
			t.Fatal("expected error without platform argument")
		}
	})

	t.Run("fails without a stored credential", func(t *testing.T) {
		runner, _ := setupTestRunner(t)

		err := runApp(t, runner, "sync", "spotify")
		if err == nil {
			t.Fatal("expected error without credential")
		}
	})
}
