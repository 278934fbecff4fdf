// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/account-service/internal/core"
)

// ProfilePatch carries the optional profile fields of a partial update.
// Nil fields are left untouched.
type ProfilePatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil &&
		p.LastName == nil && p.Role == nil
}

// Repository is the persistence collaborator for user records. The
// service owns timestamps and ids; the repository only stores what it
// is given and reports row counts faithfully.
type Repository interface {
	Insert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	Update(
		ctx context.Context,
		id string,
		patch ProfilePatch,
		updatedAt time.Time,
	) (*User, error)
	UpdatePassword(
		ctx context.Context,
		id, passwordHash string,
		updatedAt time.Time,
	) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role,
	       created_at, updated_at`

func (r *repository) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name,
		                   role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE id = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &user, nil
}

func (r *repository) FindByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE email = $1`,
		userColumns,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) FindAll(ctx context.Context) ([]User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users ORDER BY created_at`,
		userColumns,
	)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch ProfilePatch,
	updatedAt time.Time,
) (*User, error) {
	assignments := []string{"updated_at = $2"}
	args := []any{id, updatedAt}
	argIdx := 3

	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		assignments = append(
			assignments,
			fmt.Sprintf("%s = $%d", column, argIdx),
		)
		args = append(args, *value)
		argIdx++
	}

	appendSet("email", patch.Email)
	appendSet("first_name", patch.FirstName)
	appendSet("last_name", patch.LastName)
	appendSet("role", patch.Role)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $1
		RETURNING %s`,
		strings.Join(assignments, ", "), userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
	updatedAt time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
