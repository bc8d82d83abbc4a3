package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-classifieds/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerificationEnvelope wraps verification-init responses.
type VerificationEnvelope struct {
	Token    string `json:"token"`
	DeepLink string `json:"deep_link,omitempty"`
}

// AuthEnvelope wraps verification-complete and refresh responses.
type AuthEnvelope struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	User         *domain.User    `json:"user,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
}

// PaginatedPostsEnvelope wraps channel post listing responses.
type PaginatedPostsEnvelope struct {
	Data       []domain.ChannelPost `json:"data"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
