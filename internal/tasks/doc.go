// Package tasks orchestrates library reconciliation and synchronization
// across music platforms with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] exposes two primary operations:
//
//  1. [Engine.Reconcile] : Fold one normalized candidate into the library
//     - Finds or creates the canonical track by exact title and artist
//     - Fills missing album/duration fields, never overwriting known values
//     - Records the platform link and the user's saved-track entry
//     - All writes commit in a single transaction
//     - Brand-new tracks fan out to the other platforms: a similarity-checked
//       search result yields a link there; platforms without a credential are
//       skipped silently and one platform's failure never affects another
//
//  2. [Engine.Sync] : Mirror a platform's saved-track library locally
//     - Fetches the full library through the platform gateway
//     - Reconciles fetched tracks that are not yet saved locally
//     - Removes saved entries the platform no longer reports
//     - An empty fetch is treated as unreliable and changes nothing
//
// Supporting operations cover library listing, per-entry and bulk removal,
// credential disconnect, and the platform action audit trail.
//
// # Progress Reporting
//
// Long-running operations accept an optional channel of [ProgressUpdate].
// Updates are sent non-blocking: a slow or absent consumer never stalls the
// operation.
package tasks
