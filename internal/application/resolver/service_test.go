package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-classifieds/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Get(ctx context.Context, token string) (*domain.TelegramVerification, error) {
	args := m.Called(ctx, token)
	if v, _ := args.Get(0).(*domain.TelegramVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) MarkResolved(ctx context.Context, token, username, tgUserID, avatarURL string, resolvedAt time.Time) error {
	return m.Called(ctx, token, username, tgUserID, avatarURL, resolvedAt).Error(0)
}

type mockMessenger struct{ mock.Mock }

func (m *mockMessenger) Reply(ctx context.Context, chatID int64, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

type mockAvatarFetcher struct{ mock.Mock }

func (m *mockAvatarFetcher) ProfilePhotoURL(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func pendingRecord() *domain.TelegramVerification {
	return &domain.TelegramVerification{
		Token:    "tok",
		Code:     "654321",
		Kind:     domain.KindRegistration,
		State:    domain.VerificationPending,
		Username: domain.UnresolvedUsername,
	}
}

func TestHandleStart_NoArg_RepliesInstruction(t *testing.T) {
	vs := &mockVerificationStore{}
	msg := &mockMessenger{}
	msg.On("Reply", mock.Anything, int64(7), replyNoToken).Return(nil)

	svc := NewService(vs, msg, &mockAvatarFetcher{})
	err := svc.HandleStart(context.Background(), StartCommand{ChatID: 7, UserID: 42})

	require.NoError(t, err)
	msg.AssertExpectations(t)
	vs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestHandleStart_UnknownToken_RepliesInvalid(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	msg := &mockMessenger{}
	msg.On("Reply", mock.Anything, int64(7), replyInvalidToken).Return(nil)

	svc := NewService(vs, msg, &mockAvatarFetcher{})
	err := svc.HandleStart(context.Background(), StartCommand{ChatID: 7, UserID: 42, Arg: "missing"})

	require.NoError(t, err)
	msg.AssertExpectations(t)
	vs.AssertNotCalled(t, "MarkResolved", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStart_ResolvesAndRepliesCode(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "tok").Return(pendingRecord(), nil)
	vs.On("MarkResolved", mock.Anything, "tok", "alice", "42", "https://cdn.example/a.jpg", mock.Anything).Return(nil)

	av := &mockAvatarFetcher{}
	av.On("ProfilePhotoURL", mock.Anything, int64(42)).Return("https://cdn.example/a.jpg", nil)

	msg := &mockMessenger{}
	msg.On("Reply", mock.Anything, int64(7), "Ваш код подтверждения: <b>654321</b>\nВведите его на сайте, чтобы завершить регистрацию.").Return(nil)

	svc := NewService(vs, msg, av)
	err := svc.HandleStart(context.Background(), StartCommand{ChatID: 7, UserID: 42, Handle: "alice", Arg: "tok"})

	require.NoError(t, err)
	vs.AssertExpectations(t)
	msg.AssertExpectations(t)
}

func TestHandleStart_AvatarFailureIsNonFatal(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "tok").Return(pendingRecord(), nil)
	vs.On("MarkResolved", mock.Anything, "tok", "alice", "42", "", mock.Anything).Return(nil)

	av := &mockAvatarFetcher{}
	av.On("ProfilePhotoURL", mock.Anything, int64(42)).Return("", errors.New("flood wait"))

	msg := &mockMessenger{}
	msg.On("Reply", mock.Anything, int64(7), mock.Anything).Return(nil)

	svc := NewService(vs, msg, av)
	err := svc.HandleStart(context.Background(), StartCommand{ChatID: 7, UserID: 42, Handle: "alice", Arg: "tok"})

	require.NoError(t, err)
	vs.AssertExpectations(t)
}

func TestHandleStart_ConsumedBetweenLookupAndWrite(t *testing.T) {
	vs := &mockVerificationStore{}
	vs.On("Get", mock.Anything, "tok").Return(pendingRecord(), nil)
	vs.On("MarkResolved", mock.Anything, "tok", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrNotFound)

	av := &mockAvatarFetcher{}
	av.On("ProfilePhotoURL", mock.Anything, int64(42)).Return("", nil)

	msg := &mockMessenger{}
	msg.On("Reply", mock.Anything, int64(7), replyInvalidToken).Return(nil)

	svc := NewService(vs, msg, av)
	err := svc.HandleStart(context.Background(), StartCommand{ChatID: 7, UserID: 42, Handle: "alice", Arg: "tok"})

	require.NoError(t, err)
	msg.AssertExpectations(t)
}

func TestCandidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		handle   string
		first    string
		last     string
		userID   int64
		expected string
	}{
		{"handle wins", "alice", "Anna", "K", 1, "alice"},
		{"falls back to names", "", "Anna", "Karenina", 1, "AnnaKarenina"},
		{"first name only", "", "Anna", "", 1, "Anna"},
		{"numeric fallback", "", "", "", 12345, "user12345"},
		{"spaces become underscores", "", "Mary Jane", "", 1, "Mary_Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CandidateUsername(tt.handle, tt.first, tt.last, tt.userID))
		})
	}
}
