package domain

import "time"

// ChannelPost is one imported Telegram channel message.
// PK: tg_message_id — immutable per channel, so repeated imports upsert
// in place instead of duplicating. Written only by the ingestor.
type ChannelPost struct {
	TgMessageID int64     `json:"tg_message_id" dynamodbav:"tg_message_id"`
	PublishedAt time.Time `json:"date" dynamodbav:"published_at"`
	Text        string    `json:"text" dynamodbav:"text"`
	Countries   []string  `json:"countries" dynamodbav:"countries"`
	MediaURLs   []string  `json:"image_urls" dynamodbav:"media_urls"`
	SourceLink  string    `json:"source_link" dynamodbav:"source_link"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}
