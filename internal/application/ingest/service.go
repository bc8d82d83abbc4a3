package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-classifieds/internal/domain"
	"github.com/go-classifieds/internal/pkg/hashtag"
)

// Message is one raw channel message handed to the ingestor. Photo is nil
// when the message carries no image; otherwise it opens the image content
// and is invoked at most once per message.
type Message struct {
	ID    int64
	Date  time.Time
	Text  string
	Photo MediaOpener
}

// MediaOpener lazily opens a message's image attachment.
type MediaOpener func(ctx context.Context) (io.ReadCloser, error)

// Source streams a channel's message history. ForEach returns an error only
// when the channel itself cannot be read; per-message problems are the
// ingestor's to swallow.
type Source interface {
	Channel() string
	ForEach(ctx context.Context, fn func(Message) error) error
}

// PostStore is the minimal interface the ingestor requires from the post store.
type PostStore interface {
	Upsert(ctx context.Context, p *domain.ChannelPost) error
}

// MediaStore persists downloaded channel media.
type MediaStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
}

type Service interface {
	// IngestAll walks the whole source and upserts every classifiable
	// message, returning the number of posts inserted or updated.
	// Safe to re-run: posts are keyed by the immutable message id.
	IngestAll(ctx context.Context, src Source) (int, error)
	// IngestOne processes a single live message from the named channel.
	// Returns true when a post was stored.
	IngestOne(ctx context.Context, channel string, m Message) (bool, error)
}

type service struct {
	posts        PostStore
	media        MediaStore
	mediaBaseURL string
}

func NewService(posts PostStore, media MediaStore, mediaBaseURL string) Service {
	return &service{
		posts:        posts,
		media:        media,
		mediaBaseURL: strings.TrimSuffix(mediaBaseURL, "/"),
	}
}

func (s *service) IngestAll(ctx context.Context, src Source) (int, error) {
	count := 0
	err := src.ForEach(ctx, func(m Message) error {
		stored, err := s.IngestOne(ctx, src.Channel(), m)
		if err != nil {
			// A bad row must not abort the whole import.
			slog.Error("skipping channel message", "tg_message_id", m.ID, "err", err)
			return nil
		}
		if stored {
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("walk channel history: %w", err)
	}
	return count, nil
}

func (s *service) IngestOne(ctx context.Context, channel string, m Message) (bool, error) {
	if strings.TrimSpace(m.Text) == "" {
		return false, nil
	}
	countries := hashtag.Classify(m.Text)
	if len(countries) == 0 {
		// Unclassifiable content is dropped, not stored with an empty taxonomy.
		return false, nil
	}

	var mediaURLs []string
	if m.Photo != nil {
		url, err := s.storeMedia(ctx, m)
		if err != nil {
			// Fail soft: the post is stored without media and a later
			// re-import backfills it.
			slog.Warn("media download failed", "tg_message_id", m.ID, "err", err)
		} else {
			mediaURLs = append(mediaURLs, url)
		}
	}

	post := &domain.ChannelPost{
		TgMessageID: m.ID,
		PublishedAt: m.Date,
		Text:        m.Text,
		Countries:   countries,
		MediaURLs:   mediaURLs,
		SourceLink:  fmt.Sprintf("https://t.me/%s/%d", channel, m.ID),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.posts.Upsert(ctx, post); err != nil {
		return false, fmt.Errorf("upsert post: %w", err)
	}
	return true, nil
}

// storeMedia downloads the message image once and uploads it under a path
// derived from the immutable message id, so re-imports overwrite in place.
func (s *service) storeMedia(ctx context.Context, m Message) (string, error) {
	rc, err := m.Photo(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	rel := fmt.Sprintf("%04d/%02d/%d.jpg", m.Date.Year(), int(m.Date.Month()), m.ID)
	if err := s.media.Upload(ctx, "tg/"+rel, rc, "image/jpeg"); err != nil {
		return "", err
	}
	return s.mediaBaseURL + "/" + rel, nil
}
