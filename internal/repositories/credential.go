package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// CredentialRepository persists [models.PlatformCredential] rows. The sync
// core only reads credentials through the gateway layer; writes happen on
// link, relink, refresh and disconnect.
type CredentialRepository struct {
	db DBTX
}

// NewCredentialRepository creates a new CredentialRepository with the given
// database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *CredentialRepository) WithTx(tx *sql.Tx) *CredentialRepository {
	return &CredentialRepository{db: tx}
}

// Upsert stores the credential, replacing any existing credential for the
// same (user, platform) pair. Relinking a platform overwrites the old token
// material.
func (r *CredentialRepository) Upsert(cred *models.PlatformCredential) error {
	if cred.ID() == "" {
		cred.SetID(shared.GenerateID())
	}
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO platform_credentials (id, user_id, platform, access_token, refresh_token, expires_at, scope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		cred.ID(),
		cred.UserID(),
		cred.Platform(),
		cred.AccessToken(),
		cred.RefreshToken(),
		cred.ExpiresAt(),
		cred.Scope(),
		cred.CreatedAt(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// GetByUserPlatform retrieves the credential for a (user, platform) pair.
// Returns [shared.ErrNoCredential] when the user never linked the platform.
func (r *CredentialRepository) GetByUserPlatform(userID, platform string) (*models.PlatformCredential, error) {
	query := `
		SELECT id, user_id, platform, access_token, refresh_token, expires_at, scope, created_at, updated_at
		FROM platform_credentials
		WHERE user_id = ? AND platform = ?
	`

	var (
		id           string
		uid          string
		plat         string
		accessToken  string
		refreshToken string
		expiresAt    sql.NullTime
		scope        string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := r.db.QueryRow(query, userID, platform).Scan(
		&id, &uid, &plat, &accessToken, &refreshToken, &expiresAt, &scope, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCredential, platform)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	var expiry *time.Time
	if expiresAt.Valid {
		expiry = &expiresAt.Time
	}

	cred := models.NewPlatformCredential(uid, plat, accessToken, refreshToken, scope, expiry)
	cred.SetID(id)
	cred.SetCreatedAt(createdAt)
	cred.SetUpdatedAt(updatedAt)

	return cred, nil
}

// UpdateTokens persists refreshed token material for an existing credential.
func (r *CredentialRepository) UpdateTokens(cred *models.PlatformCredential) error {
	query := `
		UPDATE platform_credentials
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE user_id = ? AND platform = ?
	`

	result, err := r.db.Exec(query,
		cred.AccessToken(),
		cred.RefreshToken(),
		cred.ExpiresAt(),
		time.Now(),
		cred.UserID(),
		cred.Platform(),
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNoCredential, cred.Platform())
	}

	return nil
}

// Delete removes the credential for a (user, platform) pair (disconnect).
func (r *CredentialRepository) Delete(userID, platform string) error {
	result, err := r.db.Exec("DELETE FROM platform_credentials WHERE user_id = ? AND platform = ?", userID, platform)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNoCredential, platform)
	}

	return nil
}
