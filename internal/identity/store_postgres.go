package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "membergate/pkg/domain"
	txcontext "membergate/pkg/platform/tx"
)

// PostgresDirectory implements Directory on the shared users table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *PostgresDirectory) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return d.db
}

func (d *PostgresDirectory) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	query := `
		SELECT id, email, display_name, role, updated_at
		FROM users
		WHERE id = $1
	`
	var (
		u      User
		rawID  string
		role   string
	)
	err := d.execer(ctx).QueryRowContext(ctx, query, userID.String()).
		Scan(&rawID, &u.Email, &u.DisplayName, &role, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	parsed, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", rawID, err)
	}
	u.ID = parsed
	u.Role = Role(role)
	return &u, nil
}

// ElevateToVettedMember promotes a member in place. Roles at or above
// vetted member are untouched; the WHERE clause makes the update idempotent
// under the store's row lock.
func (d *PostgresDirectory) ElevateToVettedMember(ctx context.Context, userID id.UserID) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1 AND role NOT IN ($2, $3)
	`
	res, err := d.execer(ctx).ExecContext(ctx, query,
		userID.String(), string(RoleVettedMember), string(RoleAdministrator))
	if err != nil {
		return fmt.Errorf("elevate user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("elevate user: %w", err)
	}
	if affected == 0 {
		// Either already elevated or missing; distinguish the two.
		if _, err := d.FindByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
