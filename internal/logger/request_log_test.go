package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRequestLine(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-01T10:30:00Z - User: u-1 - Path: /api/messages",
		FormatRequestLine(at, "u-1", "/api/messages"))
	assert.Equal(t, "2024-03-01T10:30:00Z - User: Anonymous - Path: /health",
		FormatRequestLine(at, "", "/health"))
}

func TestWriterRequestLog_TaggedLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewRequestLog(&buf)
	at := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	sink.Request(at, "", "/chats")
	sink.Blocked(at, "u-2", "/chats")
	sink.RateLimited(at, "10.0.0.1", "/api/messages")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-03-01T04:00:00Z - User: Anonymous - Path: /chats", lines[0])
	assert.Equal(t, "2024-03-01T04:00:00Z - BLOCK (outside allowed hours) - User: u-2 - Path: /chats", lines[1])
	assert.Equal(t, "2024-03-01T04:00:00Z - RATE_LIMIT (too many requests) - IP: 10.0.0.1 - Path: /api/messages", lines[2])
	assert.NoError(t, sink.Close())
}

func TestOpenRequestLog_AppendsAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "requests.log")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := OpenRequestLog(path)
	require.NoError(t, err)
	first.Request(at, "u-1", "/a")
	require.NoError(t, first.Close())

	// Writes after Close are dropped, not panics.
	first.Request(at, "u-1", "/dropped")

	second, err := OpenRequestLog(path)
	require.NoError(t, err)
	second.Request(at, "u-1", "/b")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Path: /a")
	assert.Contains(t, content, "Path: /b")
	assert.NotContains(t, content, "/dropped")
}
