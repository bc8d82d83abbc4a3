package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-classifieds/internal/domain"
	pkgtoken "github.com/go-classifieds/internal/pkg/token"
)

// SessionStore is the minimal interface the service requires from the session store.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

// UserStore loads the account attached to a session.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// JWTSigner issues bearer tokens on refresh.
type JWTSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type Service interface {
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type service struct {
	sessions        SessionStore
	users           UserStore
	signer          JWTSigner
	refreshTokenDur time.Duration
}

func NewService(sessions SessionStore, users UserStore, signer JWTSigner, refreshTokenDur time.Duration) Service {
	return &service{
		sessions:        sessions,
		users:           users,
		signer:          signer,
		refreshTokenDur: refreshTokenDur,
	}
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if u, err := s.users.Get(ctx, sess.UserID); err == nil {
		sess.User = u
	}
	return sess, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}

	bearer, err := s.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}
