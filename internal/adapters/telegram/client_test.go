package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

func TestSendMarkdownV2(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(config.Config{TelegramToken: "TOKEN"}, zerolog.Nop())
	c.apiBase = srv.URL
	require.NoError(t, c.SendMarkdownV2(context.Background(), 42, "*hi*"))
	assert.Equal(t, "MarkdownV2", got["parse_mode"])
	assert.Equal(t, float64(42), got["chat_id"])

	require.NoError(t, c.SendMessagePlain(context.Background(), 42, "plain"))
	_, hasMode := got["parse_mode"]
	assert.False(t, hasMode)
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()
	c := NewClient(config.Config{TelegramToken: "TOKEN"}, zerolog.Nop())
	c.apiBase = srv.URL
	err := c.SendMarkdownV2(context.Background(), 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")

	assert.Error(t, NewClient(config.Config{}, zerolog.Nop()).SendMarkdownV2(context.Background(), 1, "x"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `Sprint 4\.2 \(Payments\) \- 95%`, Escape("Sprint 4.2 (Payments) - 95%"))
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{""}, Chunk("", 10))
	assert.Equal(t, []string{"ab\ncd", "ef"}, Chunk("ab\ncd\nef", 5))
	assert.Equal(t, []string{"abcd", "ef"}, Chunk("abcdef", 4))

	long := strings.Repeat("line of text\n", 500)
	for _, c := range Chunk(long, MaxMessageRunes) {
		assert.LessOrEqual(t, len([]rune(c)), MaxMessageRunes)
	}
}
