package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/repository"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
	updateErr error
	deleted   []string
	passwords map[string]string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*models.User), passwords: make(map[string]string)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "generated-id"
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwords[id] = passwordHash
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestUserServiceCreateDefaultsRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "novo@example.com",
		Password: "secret123",
		FullName: "Novo Usuario",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = repository.ErrDuplicate
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dup@example.com",
		Password: "secret123",
		FullName: "Duplicada",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateRejectsBadRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "x@example.com",
		Password: "secret123",
		FullName: "X",
		Role:     "superuser",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateMergesFields(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "a@example.com", FullName: "Antes", Role: models.RoleUser}
	repo := newMockUserRepo(existing)
	svc := NewUserService(repo, nil, nil)

	name := "Depois"
	role := "admin"
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{FullName: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Depois", user.FullName)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "a@example.com", user.Email)
}

func TestUserServiceUpdateNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	name := "Qualquer"
	_, err := svc.Update(context.Background(), "missing", UpdateUserRequest{FullName: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceResetPassword(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "a@example.com", FullName: "Ana", Role: models.RoleUser}
	repo := newMockUserRepo(existing)
	svc := NewUserService(repo, nil, nil)

	err := svc.ResetPassword(context.Background(), "u1", ResetPasswordRequest{Password: "newsecret"})
	require.NoError(t, err)
	require.Contains(t, repo.passwords, "u1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u1"]), []byte("newsecret")))
}

func TestUserServiceResetPasswordTooShort(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	err := svc.ResetPassword(context.Background(), "u1", ResetPasswordRequest{Password: "abc"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDelete(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "a@example.com", FullName: "Ana", Role: models.RoleUser}
	repo := newMockUserRepo(existing)
	svc := NewUserService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)

	err := svc.Delete(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
