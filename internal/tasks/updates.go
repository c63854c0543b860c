package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	ReconcileTracks
	FanOutLinks
	RemoveTracks
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case ReconcileTracks:
		return "reconcile_tracks"
	case FanOutLinks:
		return "fan_out_links"
	case RemoveTracks:
		return "remove_tracks"
	default:
		return ""
	}
}

func fetchLibraryUpdate(platform string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching saved tracks from %s...", platform),
	}
}

func fetchedLibraryUpdate(platform string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d tracks from %s", count, platform),
	}
}

func reconcileUpdate(step, total int, title, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, title),
	}
}

func fanOutUpdate(platform, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FanOutLinks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching %s for %q...", platform, title),
	}
}

func removeTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removing %d tracks no longer in the platform library", count),
	}
}
