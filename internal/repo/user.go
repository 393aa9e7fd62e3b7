package repo

import (
	"context"
	"errors"
	"fmt"

	"agileboard-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound indicates the username does not exist
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository handles database reads for user accounts. Account creation
// and authentication live outside this service; rows appear here through the
// external identity system.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, created_at
		FROM users
		WHERE username = $1
	`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// ExistingUsernames filters the given usernames down to those with a user
// row, in one round trip. The reconciler uses this to validate a whole
// desired-state map at once.
func (r *UserRepository) ExistingUsernames(ctx context.Context, usernames []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(usernames))
	if len(usernames) == 0 {
		return existing, nil
	}

	query := `
		SELECT username
		FROM users
		WHERE username = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, usernames)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		existing[username] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}
	return existing, nil
}

// ListUsernamesExcluding retrieves all usernames not in the given set, sorted.
// Used to synthesize the implicit-viewer entries of a workspace's user table.
func (r *UserRepository) ListUsernamesExcluding(ctx context.Context, exclude []string) ([]string, error) {
	query := `
		SELECT username
		FROM users
		WHERE NOT (username = ANY($1))
		ORDER BY username
	`

	if exclude == nil {
		exclude = []string{}
	}

	rows, err := r.pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		usernames = append(usernames, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}
	return usernames, nil
}
