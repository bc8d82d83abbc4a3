package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-classifieds/internal/application/verification"
	"github.com/go-classifieds/internal/domain"
	"github.com/go-classifieds/internal/pkg/validate"
)

// VerificationHandler handles the Telegram verification flow endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type completeRequest struct {
	Token string `json:"token" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// Init issues a new verification token for the flow named in the path
// ("register" or "login") and returns the bot deep link.
func (h *VerificationHandler) Init(w http.ResponseWriter, r *http.Request) {
	kind, ok := flowKind(chi.URLParam(r, "flow"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown flow")
		return
	}
	res, err := h.svc.Issue(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not start verification")
		return
	}
	writeJSON(w, http.StatusOK, VerificationEnvelope{Token: res.Token, DeepLink: res.DeepLink})
}

// Complete consumes a token+code pair and logs the resolved account in.
func (h *VerificationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Complete(r.Context(), req.Token, req.Code)
	if err != nil {
		status, msg := completeErrorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken:  res.Bearer,
		RefreshToken: res.RefreshToken,
		Session:      res.Session,
		User:         res.Session.User,
	})
}

func flowKind(flow string) (domain.VerificationKind, bool) {
	switch flow {
	case "register":
		return domain.KindRegistration, true
	case "login":
		return domain.KindLogin, true
	default:
		return "", false
	}
}

func completeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, "invalid_token"
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest, "invalid_code"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	case errors.Is(err, domain.ErrNotYetResolved):
		return http.StatusBadRequest, "not_verified_in_bot"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
