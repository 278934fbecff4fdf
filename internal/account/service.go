// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/account-service/internal/core"
	"github.com/carterperez-dev/account-service/internal/credential"
)

var (
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid password")
)

// TokenIssuer mints a signed bearer token for an authenticated user.
type TokenIssuer interface {
	IssueToken(userID, role string) (string, error)
}

// Service owns the user-record lifecycle. Persistence and token
// issuance are injected collaborators; password hashing is delegated
// to the credential package.
type Service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

type CreateParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
}

type AuthResult struct {
	User  *User
	Token string
}

// Create registers a new account. The email-existence check and the
// insert are two separate steps; a unique index on email backstops the
// race at the storage level.
func (s *Service) Create(
	ctx context.Context,
	params CreateParams,
) (*User, error) {
	email := strings.ToLower(params.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("create account: %w", ErrAlreadyExists)
	}

	passwordHash, err := credential.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("create account: %w", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(email))
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.FindAll(ctx)
}

// Authenticate verifies the password for the account registered under
// email and mints a token carrying the user's id and role. The returned
// user view has the password hash stripped. Unknown email and wrong
// password are distinct failures; neither mutates anything.
func (s *Service) Authenticate(
	ctx context.Context,
	email, password string,
) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	if !credential.VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	token, err := s.tokens.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	view := *user
	view.PasswordHash = ""

	return &AuthResult{User: &view, Token: token}, nil
}

// UpdateProfile applies only the supplied fields and refreshes
// UpdatedAt. The password is not updatable through this path.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	params UpdateParams,
) (*User, error) {
	patch := ProfilePatch{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      params.Role,
	}

	if params.Email != nil {
		email := strings.ToLower(*params.Email)
		patch.Email = &email
	}

	user, err := s.repo.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("update profile: %w", ErrAlreadyExists)
		}
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the stored hash and refreshes UpdatedAt.
// It reports false when no record with id exists.
func (s *Service) ChangePassword(
	ctx context.Context,
	id, newPassword string,
) (bool, error) {
	passwordHash, err := credential.HashPassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, passwordHash, time.Now().UTC())
}

// Delete removes the record permanently. It reports false when the
// record did not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}
