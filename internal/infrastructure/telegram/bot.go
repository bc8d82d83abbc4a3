package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-classifieds/internal/application/ingest"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram Bot API client. It serves two consumers: the
// identity resolver (replies, profile photos) and live channel ingestion
// (message stream, media download).
type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

func NewBot(botToken string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Bot{
		api:        api,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Username returns the bot's own username as reported by Telegram.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Updates returns the long-polling update channel.
func (b *Bot) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return b.api.GetUpdatesChan(u)
}

// StopUpdates stops the long-polling loop.
func (b *Bot) StopUpdates() {
	b.api.StopReceivingUpdates()
}

// Reply sends an HTML-formatted text message to the chat.
func (b *Bot) Reply(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// ProfilePhotoURL fetches the direct URL of the user's largest current
// profile photo. Returns "" without error when the user has none.
func (b *Bot) ProfilePhotoURL(ctx context.Context, userID int64) (string, error) {
	cfg := tgbotapi.NewUserProfilePhotos(userID)
	cfg.Limit = 1
	photos, err := b.api.GetUserProfilePhotos(cfg)
	if err != nil {
		return "", fmt.Errorf("get profile photos: %w", err)
	}
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", nil
	}
	sizes := photos.Photos[0]
	largest := sizes[len(sizes)-1]
	url, err := b.api.GetFileDirectURL(largest.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve photo file: %w", err)
	}
	return url, nil
}

// ChannelMessage converts a live channel post into an ingestable message.
// The photo opener downloads the largest size through the Bot API file
// endpoint; it is invoked at most once, by the ingestor.
func (b *Bot) ChannelMessage(post *tgbotapi.Message) ingest.Message {
	m := ingest.Message{
		ID:   int64(post.MessageID),
		Date: post.Time(),
		Text: post.Text,
	}
	if m.Text == "" {
		m.Text = post.Caption
	}
	if len(post.Photo) > 0 {
		fileID := post.Photo[len(post.Photo)-1].FileID
		m.Photo = func(ctx context.Context) (io.ReadCloser, error) {
			return b.downloadFile(ctx, fileID)
		}
	}
	return m
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
