package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mlefebvre/tunesync/internal/formatter"
	"github.com/mlefebvre/tunesync/internal/repositories"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList lists the account's saved tracks.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	entries, err := r.engine.Library(user.ID())
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	if useJSON {
		return r.writeJSON(libraryRows(entries), pretty)
	}

	r.writePlain("Saved tracks: %d\n\n", len(entries))
	for i, entry := range entries {
		r.writePlain("%d. %s - %s", i+1, entry.Track.Artist(), entry.Track.Title())
		if album := entry.Track.Album(); album != nil {
			r.writePlain(" (%s)", *album)
		}
		if ms := entry.Track.DurationMS(); ms != nil {
			r.writePlain(" [%s]", shared.FormatDurationMS(*ms))
		}
		r.writePlain("\n")
		r.writePlain("   ID: %s\n", entry.Saved.ID())
		if names := linkNames(entry); len(names) > 0 {
			r.writePlain("   Platforms: %s\n", strings.Join(names, ", "))
		}
	}

	return nil
}

// LibraryExport writes the library to disk in the requested format.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	entries, err := r.engine.Library(user.ID())
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	switch format {
	case "csv":
		base := strings.TrimSuffix(output, ".csv")
		result, err := formatter.WriteLibraryExport(entries, base)
		if err != nil {
			return fmt.Errorf("failed to export library: %w", err)
		}
		r.writePlain("✓ Library exported\n")
		r.writePlain("  Tracks:   %s\n", result.TracksFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
		return nil

	case "markdown", "md":
		data, err := formatter.ExportLibraryToMarkdown(entries, "Library")
		if err != nil {
			return fmt.Errorf("failed to export library: %w", err)
		}
		return r.writeExportFile(output, "library.md", data, len(entries))

	case "text", "txt":
		data, err := formatter.ExportLibraryToText(entries)
		if err != nil {
			return fmt.Errorf("failed to export library: %w", err)
		}
		return r.writeExportFile(output, "library.txt", data, len(entries))

	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, markdown or text)", shared.ErrInvalidInput, format)
	}
}

// LibraryRemove removes one saved track by its saved-entry ID.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id argument is required", shared.ErrInvalidInput)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	if err := r.engine.RemoveSavedTrack(id); err != nil {
		return fmt.Errorf("failed to remove saved track: %w", err)
	}

	r.writePlain("✓ Removed saved track %s\n", id)
	return nil
}

// LibraryClear removes every saved track for the account.
func (r *Runner) LibraryClear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: refusing to clear the library without --yes", shared.ErrInvalidInput)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd)
	if err != nil {
		return err
	}

	removed, err := r.engine.ClearLibrary(user.ID())
	if err != nil {
		return fmt.Errorf("failed to clear library: %w", err)
	}

	r.writePlain("✓ Removed %d saved tracks\n", removed)
	return nil
}

func (r *Runner) writeExportFile(output, fallback string, data []byte, count int) error {
	if output == "" {
		output = fallback
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	r.writePlain("✓ Library exported to %s\n", output)
	r.writePlain("  Tracks: %d\n", count)
	return nil
}

func libraryRows(entries []repositories.LibraryEntry) []map[string]any {
	rows := make([]map[string]any, len(entries))
	for i, entry := range entries {
		row := map[string]any{
			"id":       entry.Saved.ID(),
			"title":    entry.Track.Title(),
			"artist":   entry.Track.Artist(),
			"saved_at": entry.Saved.CreatedAt().Format(time.RFC3339),
		}
		if album := entry.Track.Album(); album != nil {
			row["album"] = *album
		}
		if ms := entry.Track.DurationMS(); ms != nil {
			row["duration_ms"] = *ms
		}
		if names := linkNames(entry); len(names) > 0 {
			row["platforms"] = names
		}
		rows[i] = row
	}
	return rows
}

func linkNames(entry repositories.LibraryEntry) []string {
	names := make([]string, 0, len(entry.Links))
	for _, link := range entry.Links {
		names = append(names, link.Platform())
	}
	return names
}
