package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mlefebvre/tunesync/internal/models"
	"github.com/mlefebvre/tunesync/internal/shared"
)

// UserRepository implements models.Repository[*models.User].
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository with the given database
// connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new [models.User] with generated ID and sequence.
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	user.SetSequence(sequence)
	user.SetID(shared.GenerateID())

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, email, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		user.ID(),
		user.Sequence(),
		user.Email(),
		user.DisplayName(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `
		SELECT id, sequence, email, display_name, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return scanUser(r.db.QueryRow(query, id).Scan)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, sequence, email, display_name, created_at, updated_at
		FROM users
		WHERE email = ?
	`
	return scanUser(r.db.QueryRow(query, email).Scan)
}

// FindOrCreateByEmail retrieves the user with the given email, creating one
// when none exists. Used by the CLI to resolve its local account.
func (r *UserRepository) FindOrCreateByEmail(email, displayName string) (*models.User, error) {
	user, err := r.GetByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user = models.NewUser(0, email, displayName)
	if err := r.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE users
		SET email = ?, display_name = ?, updated_at = ?
		WHERE id = ?
	`, user.Email(), user.DisplayName(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, user.ID())
	}

	return nil
}

// Delete removes a user by ID. Saved tracks and credentials cascade.
func (r *UserRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves all users matching the given criteria.
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `
		SELECT id, sequence, email, display_name, created_at, updated_at
		FROM users
		WHERE 1 = 1
	`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// scanUser reads one user row via the given scan function.
func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var (
		id          string
		sequence    int
		email       string
		displayName string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := scan(&id, &sequence, &email, &displayName, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(sequence, email, displayName)
	user.SetID(id)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)

	return user, nil
}
