// AngelaMos | 2026
// service_test.go

package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/account-service/internal/core"
	"github.com/carterperez-dev/account-service/internal/credential"
)

// memoryRepository is an in-memory stand-in for the persistence
// backend, mirroring single-record document-store semantics.
type memoryRepository struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Insert(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("insert user: %w", core.ErrDuplicateKey)
		}
	}

	r.users[user.ID] = *user
	return nil
}

func (r *memoryRepository) FindByID(
	_ context.Context,
	id string,
) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (r *memoryRepository) FindByEmail(
	_ context.Context,
	email string,
) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("find user by email: %w", core.ErrNotFound)
}

func (r *memoryRepository) FindAll(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *memoryRepository) Update(
	_ context.Context,
	id string,
	patch ProfilePatch,
	updatedAt time.Time,
) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	u.UpdatedAt = updatedAt

	r.users[id] = u
	return &u, nil
}

func (r *memoryRepository) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
	updatedAt time.Time,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return false, nil
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	r.users[id] = u
	return true, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *memoryRepository) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type stubIssuer struct{}

func (stubIssuer) IssueToken(userID, role string) (string, error) {
	return "token:" + userID + ":" + role, nil
}

func newTestService() (*Service, *memoryRepository) {
	repo := newMemoryRepository()
	return NewService(repo, stubIssuer{}), repo
}

func TestCreate_HashesPasswordAndAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateParams{
		Email:    "A@X.com",
		Password: "pw1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	found, err := svc.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, "pw1", found.PasswordHash)
	assert.True(t, credential.VerifyPassword("pw1", found.PasswordHash))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Email: "a@x.com", Password: "pw2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	assert.Equal(t, 1, repo.count())
}

func TestCreate_ExplicitRoleKept(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Create(context.Background(), CreateParams{
		Email:    "admin@x.com",
		Password: "pw1",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, user.Role)
	assert.True(t, user.IsAdmin())
}

func TestAuthenticate_Success(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	assert.Equal(t, created.ID, result.User.ID)
	assert.Empty(t, result.User.PasswordHash)
	assert.Equal(t, "token:"+created.ID+":"+RoleUser, result.Token)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@x.com", "bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// failed attempt mutates nothing
	user, err := svc.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Authenticate(context.Background(), "nobody@x.com", "pw1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestUpdateProfile_AppliesOnlySuppliedFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Email:     "a@x.com",
		Password:  "pw1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	firstName := "X"
	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateParams{
		FirstName: &firstName,
	})
	require.NoError(t, err)

	assert.Equal(t, "X", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.Role, updated.Role)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc, _ := newTestService()

	firstName := "X"
	_, err := svc.UpdateProfile(
		context.Background(),
		"missing-id",
		UpdateParams{FirstName: &firstName},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestChangePassword_ReplacesHash(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.NoError(t, err)

	ok, err := svc.ChangePassword(ctx, created.ID, "pw2")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Authenticate(ctx, "a@x.com", "pw1")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	result, err := svc.Authenticate(ctx, "a@x.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.User.ID)

	user, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, user.UpdatedAt.After(created.UpdatedAt))
}

func TestChangePassword_MissingUser(t *testing.T) {
	svc, _ := newTestService()

	ok, err := svc.ChangePassword(context.Background(), "missing-id", "pw2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_RemovesRecordPermanently(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	ok, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_ReturnsAllRecords(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := svc.Create(ctx, CreateParams{Email: email, Password: "pw"})
		require.NoError(t, err)
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestAccountLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Authenticate(ctx, "a@x.com", "bad")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	ok, err := svc.ChangePassword(ctx, created.ID, "pw2")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Authenticate(ctx, "a@x.com", "pw1")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Authenticate(ctx, "a@x.com", "pw2")
	require.NoError(t, err)

	ok, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
