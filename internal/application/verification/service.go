package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-classifieds/internal/domain"
	"github.com/go-classifieds/internal/pkg/id"
	pkgtoken "github.com/go-classifieds/internal/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// maxCodeAttempts bounds brute force over the 6-digit code space within
// the expiry window. The record is not invalidated by a wrong guess, only
// locked out once the cap is reached.
const maxCodeAttempts = 5

// maxSuffixProbes bounds the username collision probe before falling back
// to a random suffix, so adversarial pre-registration of many suffixes
// cannot force a long linear scan.
const maxSuffixProbes = 50

// VerificationStore is the minimal interface the service requires from the
// shared verification record store.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.TelegramVerification) error
	Get(ctx context.Context, token string) (*domain.TelegramVerification, error)
	IncrementAttempts(ctx context.Context, token string) (int, error)
	ConsumeIfCode(ctx context.Context, token, code string) (*domain.TelegramVerification, error)
	Delete(ctx context.Context, token string) error
}

// UserStore is the minimal interface the service requires from the account store.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// SessionStore persists the session established on successful consumption.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// JWTSigner issues the bearer token for the established session.
type JWTSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

// IssueResult is what the web layer returns to the browser after issuance.
type IssueResult struct {
	Token    string
	DeepLink string // empty when no bot username is configured
}

// CompleteResult is the authenticated session created by consumption.
type CompleteResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	// Issue creates a Pending verification record and returns its token
	// and, when a bot username is configured, the t.me deep link.
	Issue(ctx context.Context, kind domain.VerificationKind) (*IssueResult, error)
	// Complete consumes a resolved record: validates expiry and code,
	// creates or finds the account, and establishes a session. Single-use
	// per token, atomically.
	Complete(ctx context.Context, token, code string) (*CompleteResult, error)
}

type service struct {
	verifications VerificationStore
	users         UserStore
	sessions      SessionStore
	signer        JWTSigner

	botUsername     string
	adminTgID       string
	verificationTTL time.Duration
	refreshTokenDur time.Duration

	now func() time.Time
}

// ServiceDeps bundles the service's collaborators.
type ServiceDeps struct {
	Verifications VerificationStore
	Users         UserStore
	Sessions      SessionStore
	Signer        JWTSigner

	BotUsername     string
	AdminTgID       string
	VerificationTTL time.Duration
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.VerificationTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &service{
		verifications:   deps.Verifications,
		users:           deps.Users,
		sessions:        deps.Sessions,
		signer:          deps.Signer,
		botUsername:     deps.BotUsername,
		adminTgID:       deps.AdminTgID,
		verificationTTL: ttl,
		refreshTokenDur: deps.RefreshTokenDur,
		now:             time.Now,
	}
}

func (s *service) Issue(ctx context.Context, kind domain.VerificationKind) (*IssueResult, error) {
	tok, err := pkgtoken.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	code, err := pkgtoken.NewCode()
	if err != nil {
		return nil, err
	}
	// The throwaway credential makes the account usable for password login
	// later, even though nobody ever sees the password itself.
	pw, err := pkgtoken.NewThrowawayPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := &domain.TelegramVerification{
		Token:        tok,
		Code:         code,
		Kind:         kind,
		State:        domain.VerificationPending,
		Username:     domain.UnresolvedUsername,
		PasswordHash: string(hash),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.verificationTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("store verification: %w", err)
	}

	res := &IssueResult{Token: tok}
	if s.botUsername != "" {
		res.DeepLink = fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, tok)
	}
	return res, nil
}

func (s *service) Complete(ctx context.Context, token, code string) (*CompleteResult, error) {
	v, err := s.verifications.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if v.ExpiredAt(s.now(), s.verificationTTL) {
		// Lazy reclaim; the TTL sweep would get it eventually anyway.
		if err := s.verifications.Delete(ctx, token); err != nil {
			slog.Warn("failed to delete expired verification", "err", err)
		}
		return nil, domain.ErrExpired
	}

	if v.Attempts >= maxCodeAttempts {
		return nil, domain.ErrTooManyAttempts
	}
	if v.Code != code {
		if _, err := s.verifications.IncrementAttempts(ctx, token); err != nil {
			slog.Warn("failed to count code attempt", "err", err)
		}
		return nil, domain.ErrInvalidCode
	}

	if v.Kind == domain.KindLogin && !v.Resolved() {
		return nil, domain.ErrNotYetResolved
	}

	// Atomic read-check-delete: of two concurrent submissions with the
	// correct code, exactly one wins the conditional delete.
	consumed, err := s.verifications.ConsumeIfCode(ctx, token, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.resolveAccount(ctx, consumed)
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, user)
}

// resolveAccount maps the consumed record onto a local account: login
// flows reuse (or lazily create) the account named by the resolved
// username, registration flows always create a fresh one.
func (s *service) resolveAccount(ctx context.Context, v *domain.TelegramVerification) (*domain.User, error) {
	base := v.Username
	if base == "" || base == domain.UnresolvedUsername {
		base = "user"
	}

	var user *domain.User
	if v.Kind == domain.KindLogin {
		existing, err := s.users.GetByUsername(ctx, base)
		switch {
		case err == nil:
			user = existing
		case errors.Is(err, domain.ErrNotFound):
			// First-time login for a bot-verified identity: the identity
			// is authoritative, so the account is created on the spot.
			user, err = s.createAccount(ctx, v, base)
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	} else {
		created, err := s.createAccount(ctx, v, base)
		if err != nil {
			return nil, err
		}
		user = created
	}

	if err := s.applyPromotionAndAvatar(ctx, user, v); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) createAccount(ctx context.Context, v *domain.TelegramVerification, base string) (*domain.User, error) {
	username, err := s.uniqueUsername(ctx, base)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     username,
		PasswordHash: v.PasswordHash,
		Role:         domain.RoleUser,
		TgUserID:     v.TgUserID,
		AvatarURL:    v.AvatarURL,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return u, nil
}

// uniqueUsername probes candidate, candidate1, candidate2, ... and falls
// back to a random suffix after maxSuffixProbes.
func (s *service) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i <= maxSuffixProbes; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		_, err := s.users.GetByUsername(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *service) applyPromotionAndAvatar(ctx context.Context, user *domain.User, v *domain.TelegramVerification) error {
	updates := map[string]interface{}{}

	if s.adminTgID != "" && v.TgUserID == s.adminTgID && user.Role != domain.RoleAdmin {
		user.Role = domain.RoleAdmin
		updates["role"] = domain.RoleAdmin
	}
	// Keep the avatar fresh on repeat logins.
	if v.AvatarURL != "" && user.AvatarURL != v.AvatarURL {
		user.AvatarURL = v.AvatarURL
		updates["avatar_url"] = v.AvatarURL
	}
	if len(updates) == 0 {
		return nil
	}
	return s.users.Update(ctx, user.UserID, updates)
}

func (s *service) establishSession(ctx context.Context, user *domain.User) (*CompleteResult, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           user.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(user.UserID, user.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = user
	return &CompleteResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}
