package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-classifieds/internal/domain"
	"github.com/go-classifieds/internal/pkg/hashtag"
)

// PostStore is the minimal interface the handler requires from the channel post store.
type PostStore interface {
	ScanPage(ctx context.Context, limit int32, cursor, country string) ([]domain.ChannelPost, string, error)
}

// PostHandler serves imported channel posts.
type PostHandler struct {
	posts PostStore
}

func NewPostHandler(posts PostStore) *PostHandler {
	return &PostHandler{posts: posts}
}

// List returns a page of posts, optionally filtered by canonical country name.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(20)
	if v := r.URL.Query().Get("per"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = int32(n)
		}
	}
	country := r.URL.Query().Get("country")
	cursor := r.URL.Query().Get("cursor")

	posts, next, err := h.posts.ScanPage(r.Context(), limit, cursor, country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list posts")
		return
	}
	if posts == nil {
		posts = []domain.ChannelPost{}
	}
	writeJSON(w, http.StatusOK, PaginatedPostsEnvelope{Data: posts, NextCursor: next})
}

// Countries returns the supported country taxonomy for the frontend filter.
func (h *PostHandler) Countries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"countries": hashtag.Countries})
}
