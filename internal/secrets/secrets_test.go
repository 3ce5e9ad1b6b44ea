package secrets

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"segreta/internal/models"
	"segreta/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSecretStore struct{ mock.Mock }

func (m *mockSecretStore) SaveSecret(ctx context.Context, s models.Secret) (models.Secret, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(models.Secret), args.Error(1)
}
func (m *mockSecretStore) Secrets(ctx context.Context) ([]models.Secret, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Secret), args.Error(1)
}

type mockUserProvider struct{ mock.Mock }

func (m *mockUserProvider) UserByID(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) IsVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newService(store *mockSecretStore, users *mockUserProvider, verifier *mockVerifier) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, users, verifier)
}

// --- List ---

func TestList_MasksAnonymousAuthors(t *testing.T) {
	store := &mockSecretStore{}

	store.On("Secrets", mock.Anything).Return([]models.Secret{
		{ID: 2, Title: "second", Author: "bob", IsAnonymous: true},
		{ID: 1, Title: "first", Author: "alice", IsAnonymous: false},
	}, nil)

	svc := newService(store, &mockUserProvider{}, &mockVerifier{})
	list, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Anonymous", list[0].Author)
	assert.Equal(t, "alice", list[1].Author)
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	store := &mockSecretStore{}
	users := &mockUserProvider{}
	verifier := &mockVerifier{}

	users.On("UserByID", mock.Anything, int64(1)).
		Return(models.User{ID: 1, Email: "a@x.com", Username: "alice"}, nil)
	verifier.On("IsVerified", mock.Anything, "a@x.com").Return(true, nil)
	store.On("SaveSecret", mock.Anything, mock.MatchedBy(func(s models.Secret) bool {
		return s.Title == "title" && s.UserID == 1 && !s.IsAnonymous
	})).Return(models.Secret{ID: 10, Title: "title", Content: "content", UserID: 1}, nil)

	svc := newService(store, users, verifier)
	saved, err := svc.Create(context.Background(), 1, "title", "content", false)

	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ID)
	assert.Equal(t, "alice", saved.Author)
}

func TestCreate_AnonymousHidesAuthor(t *testing.T) {
	store := &mockSecretStore{}
	users := &mockUserProvider{}
	verifier := &mockVerifier{}

	users.On("UserByID", mock.Anything, int64(1)).
		Return(models.User{ID: 1, Email: "a@x.com", Username: "alice"}, nil)
	verifier.On("IsVerified", mock.Anything, "a@x.com").Return(true, nil)
	store.On("SaveSecret", mock.Anything, mock.Anything).
		Return(models.Secret{ID: 11, Title: "title", UserID: 1, IsAnonymous: true}, nil)

	svc := newService(store, users, verifier)
	saved, err := svc.Create(context.Background(), 1, "title", "content", true)

	require.NoError(t, err)
	assert.Equal(t, "Anonymous", saved.Author)
}

func TestCreate_UnverifiedRejected(t *testing.T) {
	store := &mockSecretStore{}
	users := &mockUserProvider{}
	verifier := &mockVerifier{}

	users.On("UserByID", mock.Anything, int64(1)).
		Return(models.User{ID: 1, Email: "a@x.com", Username: "alice"}, nil)
	verifier.On("IsVerified", mock.Anything, "a@x.com").Return(false, nil)

	svc := newService(store, users, verifier)
	_, err := svc.Create(context.Background(), 1, "title", "content", false)

	require.ErrorIs(t, err, ErrNotVerified)
	store.AssertNotCalled(t, "SaveSecret", mock.Anything, mock.Anything)
}

func TestCreate_UnknownUser(t *testing.T) {
	users := &mockUserProvider{}

	users.On("UserByID", mock.Anything, int64(9)).
		Return(models.User{}, storage.ErrUserNotFound)

	svc := newService(&mockSecretStore{}, users, &mockVerifier{})
	_, err := svc.Create(context.Background(), 9, "title", "content", false)

	require.ErrorIs(t, err, ErrUserNotFound)
}
