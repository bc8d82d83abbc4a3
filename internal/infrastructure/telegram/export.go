package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-classifieds/internal/application/ingest"
)

// ExportSource reads a Telegram Desktop chat export (result.json plus its
// media directories) as a channel history stream. The Bot API cannot page
// back through channel history, so batch imports run off an export.
type ExportSource struct {
	path    string // result.json
	channel string // public channel slug, for source links
}

func NewExportSource(path, channel string) *ExportSource {
	return &ExportSource{path: path, channel: channel}
}

func (s *ExportSource) Channel() string { return s.channel }

// exportMessage mirrors the subset of the export schema the ingestor needs.
// "text" is either a plain string or an array of strings and entity objects.
type exportMessage struct {
	ID    int64           `json:"id"`
	Type  string          `json:"type"`
	Date  string          `json:"date"`
	Text  json.RawMessage `json:"text"`
	Photo string          `json:"photo"`
}

// ForEach streams every message in the export through fn. Failing to open
// or parse the export is a source-level failure and aborts the run; the
// caller decides what to do with per-message errors returned by fn.
func (s *ExportSource) ForEach(ctx context.Context, fn func(ingest.Message) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := seekMessagesArray(dec); err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	root := filepath.Dir(s.path)
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var em exportMessage
		if err := dec.Decode(&em); err != nil {
			return fmt.Errorf("parse export message: %w", err)
		}
		if em.Type != "message" {
			continue
		}
		m := ingest.Message{
			ID:   em.ID,
			Text: flattenText(em.Text),
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", em.Date, time.UTC); err == nil {
			m.Date = t
		}
		if em.Photo != "" {
			photoPath := filepath.Join(root, em.Photo)
			m.Photo = func(context.Context) (io.ReadCloser, error) {
				return os.Open(photoPath)
			}
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// seekMessagesArray advances the decoder to just inside the top-level
// "messages" array.
func seekMessagesArray(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil { // opening {
		return err
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		if key == "messages" {
			if _, err := dec.Token(); err != nil { // opening [
				return err
			}
			return nil
		}
		// Skip the value of any other top-level key.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
}

// flattenText joins the export's rich-text representation into plain text.
func flattenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var out string
	for _, p := range parts {
		var s string
		if err := json.Unmarshal(p, &s); err == nil {
			out += s
			continue
		}
		var ent struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(p, &ent); err == nil {
			out += ent.Text
		}
	}
	return out
}
