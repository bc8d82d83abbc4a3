package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-classifieds/internal/domain"
)

// Bot replies. The flow is Russian-facing, like the site it serves.
const (
	replyNoToken      = "Здравствуйте! Отправьте ссылку из сайта с параметром, чтобы подтвердить регистрацию."
	replyInvalidToken = "Ссылка недействительна или устарела. Начните регистрацию заново на сайте."
	replyCodeFmt      = "Ваш код подтверждения: <b>%s</b>\nВведите его на сайте, чтобы завершить регистрацию."
)

// StartCommand is one inbound /start command from the Telegram update stream.
type StartCommand struct {
	ChatID    int64
	UserID    int64
	Handle    string // Telegram @username, may be empty
	FirstName string
	LastName  string
	Arg       string // the deep-link token, may be empty
}

// VerificationStore is the minimal interface the resolver requires from
// the shared verification record store.
type VerificationStore interface {
	Get(ctx context.Context, token string) (*domain.TelegramVerification, error)
	MarkResolved(ctx context.Context, token, username, tgUserID, avatarURL string, resolvedAt time.Time) error
}

// Messenger replies to the user in the originating chat.
type Messenger interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// AvatarFetcher fetches the user's current profile photo URL, "" when none.
type AvatarFetcher interface {
	ProfilePhotoURL(ctx context.Context, userID int64) (string, error)
}

type Service interface {
	// HandleStart resolves a verification token to the sender's Telegram
	// identity and replies with the numeric code. Idempotent per token:
	// re-invocation re-sends the code and may refresh the avatar, but
	// never creates a second record or moves the expiry anchor.
	HandleStart(ctx context.Context, cmd StartCommand) error
}

type service struct {
	verifications VerificationStore
	messenger     Messenger
	avatars       AvatarFetcher
	now           func() time.Time
}

func NewService(verifications VerificationStore, messenger Messenger, avatars AvatarFetcher) Service {
	return &service{
		verifications: verifications,
		messenger:     messenger,
		avatars:       avatars,
		now:           time.Now,
	}
}

func (s *service) HandleStart(ctx context.Context, cmd StartCommand) error {
	if cmd.Arg == "" {
		return s.messenger.Reply(ctx, cmd.ChatID, replyNoToken)
	}

	v, err := s.verifications.Get(ctx, cmd.Arg)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.messenger.Reply(ctx, cmd.ChatID, replyInvalidToken)
		}
		return fmt.Errorf("lookup verification: %w", err)
	}

	username := CandidateUsername(cmd.Handle, cmd.FirstName, cmd.LastName, cmd.UserID)

	// Best-effort: a missing photo, rate limit, or network failure must
	// never abort the resolution. Fetched before the record write so a
	// slow call cannot sit inside the store mutation.
	avatarURL, err := s.avatars.ProfilePhotoURL(ctx, cmd.UserID)
	if err != nil {
		slog.Warn("avatar fetch failed", "tg_user_id", cmd.UserID, "err", err)
		avatarURL = ""
	}

	tgUserID := strconv.FormatInt(cmd.UserID, 10)
	if err := s.verifications.MarkResolved(ctx, v.Token, username, tgUserID, avatarURL, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Consumed or swept between lookup and write.
			return s.messenger.Reply(ctx, cmd.ChatID, replyInvalidToken)
		}
		return fmt.Errorf("resolve verification: %w", err)
	}

	return s.messenger.Reply(ctx, cmd.ChatID, fmt.Sprintf(replyCodeFmt, v.Code))
}

// CandidateUsername derives a username candidate from the Telegram
// identity: the @handle when present, otherwise first+last name, otherwise
// user<id>. Spaces are replaced with underscores. Collisions are resolved
// later, at consumption time, because multiple unresolved records could
// race on the same candidate.
func CandidateUsername(handle, firstName, lastName string, userID int64) string {
	candidate := strings.TrimSpace(handle)
	if candidate == "" {
		candidate = strings.TrimSpace(strings.TrimSpace(firstName) + strings.TrimSpace(lastName))
	}
	if candidate == "" {
		candidate = fmt.Sprintf("user%d", userID)
	}
	return strings.ReplaceAll(candidate, " ", "_")
}
