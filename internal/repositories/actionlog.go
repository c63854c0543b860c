package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// ActionLogRepository appends [models.PlatformActionLog] rows. The log is
// write-only from the core's point of view; List exists for operators and
// tests.
type ActionLogRepository struct {
	db DBTX
}

// NewActionLogRepository creates a new ActionLogRepository with the given
// database connection.
func NewActionLogRepository(db *sql.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Append inserts one action log entry. Metadata is stored as JSON.
func (r *ActionLogRepository) Append(entry *models.PlatformActionLog) error {
	if entry.ID() == "" {
		entry.SetID(shared.GenerateID())
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	metadata, err := json.Marshal(entry.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO platform_action_logs (id, user_id, platform, action, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query,
		entry.ID(),
		entry.UserID(),
		entry.Platform(),
		entry.Action(),
		string(metadata),
		entry.CreatedAt(),
	); err != nil {
		return fmt.Errorf("failed to insert action log: %w", err)
	}

	return nil
}

// List retrieves a user's action log entries, newest first. An empty platform
// lists entries across all platforms.
func (r *ActionLogRepository) List(userID, platform string) ([]*models.PlatformActionLog, error) {
	query := `
		SELECT id, user_id, platform, action, metadata, created_at
		FROM platform_action_logs
		WHERE user_id = ?
	`
	args := []any{userID}

	if platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query action logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.PlatformActionLog
	for rows.Next() {
		var (
			id        string
			uid       string
			plat      string
			action    string
			metaJSON  string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &uid, &plat, &action, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan action log: %w", err)
		}

		metadata := map[string]any{}
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}

		entry := models.NewPlatformActionLog(uid, plat, action, metadata)
		entry.SetID(id)
		entry.SetCreatedAt(createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
