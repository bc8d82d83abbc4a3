package telegram

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-classifieds/internal/application/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `{
  "name": "Travel Deals",
  "type": "public_channel",
  "id": 1234567890,
  "messages": [
    {
      "id": 10,
      "type": "service",
      "date": "2024-03-01T09:00:00",
      "action": "create_channel",
      "text": ""
    },
    {
      "id": 11,
      "type": "message",
      "date": "2024-03-05T12:30:00",
      "text": "Горящий тур в #Испания"
    },
    {
      "id": 12,
      "type": "message",
      "date": "2024-03-06T08:15:00",
      "text": [
        "Едем в ",
        {"type": "hashtag", "text": "#Греция"},
        " на майские"
      ],
      "photo": "photos/12.jpg"
    }
  ]
}`

func writeExport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos", "12.jpg"), []byte("jpeg-bytes"), 0o644))
	return path
}

func TestExportSource_StreamsMessages(t *testing.T) {
	src := NewExportSource(writeExport(t), "travelchannel")
	assert.Equal(t, "travelchannel", src.Channel())

	var got []ingest.Message
	err := src.ForEach(context.Background(), func(m ingest.Message) error {
		got = append(got, m)
		return nil
	})

	require.NoError(t, err)
	// Service messages are filtered out.
	require.Len(t, got, 2)

	assert.Equal(t, int64(11), got[0].ID)
	assert.Equal(t, "Горящий тур в #Испания", got[0].Text)
	assert.Equal(t, time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC), got[0].Date)
	assert.Nil(t, got[0].Photo)

	assert.Equal(t, int64(12), got[1].ID)
	assert.Equal(t, "Едем в #Греция на майские", got[1].Text)
	require.NotNil(t, got[1].Photo)

	rc, err := got[1].Photo(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestExportSource_MissingFile(t *testing.T) {
	src := NewExportSource(filepath.Join(t.TempDir(), "nope.json"), "travelchannel")
	err := src.ForEach(context.Background(), func(ingest.Message) error { return nil })
	assert.Error(t, err)
}

func TestFlattenText(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain string", `"hello"`, "hello"},
		{"empty", ``, ""},
		{"mixed parts", `["a ", {"type": "bold", "text": "b"}, " c"]`, "a b c"},
		{"entities only", `[{"type": "hashtag", "text": "#spain"}]`, "#spain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flattenText([]byte(tt.raw)))
		})
	}
}
