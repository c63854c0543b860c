// package formatter provides functions to export library and sync data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mlefebvre/tunesync/internal/repositories"
	"github.com/mlefebvre/tunesync/internal/shared"
	"github.com/mlefebvre/tunesync/internal/tasks"
)

func trackDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return shared.FormatDurationMS(*ms)
}

func trackAlbum(album *string) string {
	if album == nil {
		return ""
	}
	return *album
}

func entryPlatforms(entry repositories.LibraryEntry) string {
	names := make([]string, 0, len(entry.Links))
	for _, link := range entry.Links {
		names = append(names, link.Platform())
	}
	return strings.Join(names, ";")
}

// ExportLibraryToCSV converts a library listing to CSV with columns: ID, Title, Artist, Album, Duration, Platforms, SavedAt
func ExportLibraryToCSV(entries []repositories.LibraryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Platforms", "SavedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.Track.ID(),
			entry.Track.Title(),
			entry.Track.Artist(),
			trackAlbum(entry.Track.Album()),
			trackDuration(entry.Track.DurationMS()),
			entryPlatforms(entry),
			entry.Saved.CreatedAt().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportLibraryToMarkdown converts a library listing to Markdown
func ExportLibraryToMarkdown(entries []repositories.LibraryEntry, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Library"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(entries)))

	buf.WriteString("## Tracks\n\n")
	for i, entry := range entries {
		albumPart := ""
		if album := entry.Track.Album(); album != nil {
			albumPart = fmt.Sprintf(" (%s)", *album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n",
			i+1, entry.Track.Artist(), entry.Track.Title(), albumPart, trackDuration(entry.Track.DurationMS())))
	}

	return buf.Bytes(), nil
}

// ExportLibraryToText converts a library listing to plain text
func ExportLibraryToText(entries []repositories.LibraryEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Saved tracks: %d\n\n", len(entries)))
	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s", i+1, entry.Track.Artist(), entry.Track.Title()))
		if platforms := entryPlatforms(entry); platforms != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", platforms))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// FormatSyncResult renders a sync summary for terminal display
func FormatSyncResult(result *tasks.SyncResult) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Sync with %s\n", result.Platform))
	buf.WriteString(fmt.Sprintf("  Fetched: %d\n", result.Fetched))

	if result.Fetched == 0 {
		buf.WriteString("  Platform returned no tracks; library left unchanged.\n")
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("  Added:   %d\n", result.Added))
	buf.WriteString(fmt.Sprintf("  Removed: %d\n", result.Removed))

	if len(result.Failures) > 0 {
		buf.WriteString(fmt.Sprintf("  Failed:  %d\n", len(result.Failures)))
		for _, failure := range result.Failures {
			buf.WriteString(fmt.Sprintf("    %s - %s: %v\n", failure.Artist, failure.Title, failure.Err))
		}
	}
	if !result.Changed {
		buf.WriteString("  Library already in sync.\n")
	}

	return buf.String()
}

// LibraryExportResult contains the paths of files created by WriteLibraryExport
type LibraryExportResult struct {
	TracksFile   string
	MetadataFile string
}

type libraryMetadata struct {
	ExportedAt time.Time `json:"exported_at"`
	TrackCount int       `json:"track_count"`
}

// WriteLibraryExport exports a library listing to CSV with an accompanying metadata JSON file.
//
// Creates {base}_tracks.csv and {base}_metadata.json
func WriteLibraryExport(entries []repositories.LibraryEntry, baseFilepath string) (*LibraryExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "library"
	}

	csvData, err := ExportLibraryToCSV(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(libraryMetadata{
		ExportedAt: time.Now().UTC(),
		TrackCount: len(entries),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &LibraryExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}
