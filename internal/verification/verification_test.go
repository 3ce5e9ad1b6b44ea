package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"segreta/internal/models"
	"segreta/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) SaveCode(ctx context.Context, rec models.VerificationCode) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockCodeStore) LatestCode(ctx context.Context, email string) (models.VerificationCode, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.VerificationCode), args.Error(1)
}
func (m *mockCodeStore) DeleteUnverifiedCodes(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockCodeStore) MarkCodeVerified(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockCodeStore) EmailVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) SendMessage(ctx context.Context, msg models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func newService(codes *mockCodeStore, pub *mockPublisher, policy Policy) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, codes, pub, policy, 15*time.Minute, time.Minute)
}

var codeRe = regexp.MustCompile(`^[1-9]\d{5}$`)

// --- IssueCode ---

func TestIssueCode_PurgesPreviousAndSaves(t *testing.T) {
	codes := &mockCodeStore{}
	pub := &mockPublisher{}

	var saved models.VerificationCode

	codes.On("DeleteUnverifiedCodes", mock.Anything, "a@x.com").Return(nil)
	codes.On("SaveCode", mock.Anything, mock.MatchedBy(func(rec models.VerificationCode) bool {
		saved = rec
		return rec.Email == "a@x.com"
	})).Return(nil)
	pub.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	svc := newService(codes, pub, Policy{})
	err := svc.IssueCode(context.Background(), "a@x.com")

	require.NoError(t, err)
	codes.AssertCalled(t, "DeleteUnverifiedCodes", mock.Anything, "a@x.com")

	assert.Regexp(t, codeRe, saved.Code)
	assert.False(t, saved.Verified)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), saved.ExpiresAt, 2*time.Second)

	pub.AssertCalled(t, "SendMessage", mock.Anything, mock.MatchedBy(func(msg models.Message) bool {
		return msg.Email == "a@x.com" && msg.Code == saved.Code && msg.Purpose == "verification"
	}))
}

func TestIssueCode_InvalidEmail(t *testing.T) {
	svc := newService(&mockCodeStore{}, &mockPublisher{}, Policy{})

	err := svc.IssueCode(context.Background(), "not-an-email")

	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestIssueCode_PublishFailureIsNotFatal(t *testing.T) {
	codes := &mockCodeStore{}
	pub := &mockPublisher{}

	codes.On("DeleteUnverifiedCodes", mock.Anything, "a@x.com").Return(nil)
	codes.On("SaveCode", mock.Anything, mock.Anything).Return(nil)
	pub.On("SendMessage", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := newService(codes, pub, Policy{})
	err := svc.IssueCode(context.Background(), "a@x.com")

	require.NoError(t, err)
	codes.AssertCalled(t, "SaveCode", mock.Anything, mock.Anything)
}

// --- ResendCode ---

func TestResendCode_RateLimited(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-30 * time.Second),
		ExpiresAt: time.Now().Add(14 * time.Minute),
	}, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.ResendCode(context.Background(), "a@x.com")

	require.ErrorIs(t, err, ErrRateLimited)
	codes.AssertNotCalled(t, "SaveCode", mock.Anything, mock.Anything)
}

func TestResendCode_AfterWindowIssuesNewCode(t *testing.T) {
	codes := &mockCodeStore{}
	pub := &mockPublisher{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		ExpiresAt: time.Now().Add(13 * time.Minute),
	}, nil)
	codes.On("DeleteUnverifiedCodes", mock.Anything, "a@x.com").Return(nil)
	codes.On("SaveCode", mock.Anything, mock.Anything).Return(nil)
	pub.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	svc := newService(codes, pub, Policy{})
	err := svc.ResendCode(context.Background(), "a@x.com")

	require.NoError(t, err)
	codes.AssertCalled(t, "SaveCode", mock.Anything, mock.Anything)
}

func TestResendCode_NoPriorCodeIssues(t *testing.T) {
	codes := &mockCodeStore{}
	pub := &mockPublisher{}

	codes.On("LatestCode", mock.Anything, "a@x.com").
		Return(models.VerificationCode{}, storage.ErrCodeNotFound)
	codes.On("DeleteUnverifiedCodes", mock.Anything, "a@x.com").Return(nil)
	codes.On("SaveCode", mock.Anything, mock.Anything).Return(nil)
	pub.On("SendMessage", mock.Anything, mock.Anything).Return(nil)

	svc := newService(codes, pub, Policy{})
	err := svc.ResendCode(context.Background(), "a@x.com")

	require.NoError(t, err)
}

// --- Validate ---

func TestValidate_Success(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        7,
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(14 * time.Minute),
	}, nil)
	codes.On("MarkCodeVerified", mock.Anything, int64(7)).Return(true, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.NoError(t, err)
	codes.AssertCalled(t, "MarkCodeVerified", mock.Anything, int64(7))
}

func TestValidate_WrongCode(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        7,
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(14 * time.Minute),
	}, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "654321")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
	codes.AssertNotCalled(t, "MarkCodeVerified", mock.Anything, mock.Anything)
}

// Сверка идет только с последним выданным кодом: старый код не проходит,
// даже если по времени он еще действителен.
func TestValidate_OlderCodeRejectedAfterReissue(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        8,
		Email:     "a@x.com",
		Code:      "777777",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestValidate_Expired(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        7,
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-20 * time.Minute),
		ExpiresAt: time.Now().Add(-5 * time.Minute),
	}, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestValidate_AlreadyVerified(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        7,
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(14 * time.Minute),
		Verified:  true,
	}, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestValidate_NoCode(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").
		Return(models.VerificationCode{}, storage.ErrCodeNotFound)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

// Из двух конкурентных проверок одного кода выигрывает одна: проигравшая
// видит, что CAS в хранилище не прошел.
func TestValidate_ConcurrentLoserFails(t *testing.T) {
	codes := &mockCodeStore{}

	codes.On("LatestCode", mock.Anything, "a@x.com").Return(models.VerificationCode{
		ID:        7,
		Email:     "a@x.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(14 * time.Minute),
	}, nil)
	codes.On("MarkCodeVerified", mock.Anything, int64(7)).Return(false, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})
	err := svc.Validate(context.Background(), "a@x.com", "123456")

	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

// --- IsVerified ---

func TestIsVerified_Bypass(t *testing.T) {
	codes := &mockCodeStore{}

	svc := newService(codes, &mockPublisher{}, Policy{Bypass: true})

	verified, err := svc.IsVerified(context.Background(), "whoever@x.com")

	require.NoError(t, err)
	assert.True(t, verified)
	codes.AssertNotCalled(t, "EmailVerified", mock.Anything, mock.Anything)
}

func TestIsVerified_ConsultsStore(t *testing.T) {
	codes := &mockCodeStore{}
	codes.On("EmailVerified", mock.Anything, "a@x.com").Return(true, nil)

	svc := newService(codes, &mockPublisher{}, Policy{})

	verified, err := svc.IsVerified(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.True(t, verified)
}

func TestIsVerified_EmptyEmail(t *testing.T) {
	svc := newService(&mockCodeStore{}, &mockPublisher{}, Policy{})

	verified, err := svc.IsVerified(context.Background(), "")

	require.NoError(t, err)
	assert.False(t, verified)
}
