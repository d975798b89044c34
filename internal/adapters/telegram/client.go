/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

// MaxMessageRunes keeps messages under Telegram's 4096 character limit with
// room for escapes.
const MaxMessageRunes = 3800

type Client struct {
	token   string
	apiBase string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{token: cfg.TelegramToken, apiBase: "https://api.telegram.org", http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

// Enabled reports whether a bot token is configured.
func (c *Client) Enabled() bool { return c != nil && c.token != "" }

func (c *Client) send(ctx context.Context, chatID int64, text, parseMode string) error {
	if c.token == "" || chatID == 0 {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(c.apiBase, "/"), c.token)
	body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// SendMessagePlain sends without parse_mode to avoid markdown parsing errors
func (c *Client) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "")
}

// SendMarkdownV2 sends a message using MarkdownV2 parse mode.
func (c *Client) SendMarkdownV2(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "MarkdownV2")
}

var markdownV2 = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// Escape quotes every MarkdownV2 special character in free text.
func Escape(s string) string { return markdownV2.Replace(s) }

// Chunk splits text into chunks of up to max runes, breaking on line
// boundaries where possible.
func Chunk(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}
	var chunks []string
	cur := ""
	curlen := 0
	for _, ln := range strings.Split(s, "\n") {
		rl := len([]rune(ln))
		if rl > max {
			if curlen > 0 {
				chunks = append(chunks, cur)
				cur, curlen = "", 0
			}
			r := []rune(ln)
			for i := 0; i < rl; i += max {
				chunks = append(chunks, string(r[i:min(i+max, rl)]))
			}
			continue
		}
		extra := rl
		if curlen > 0 {
			extra++
		}
		switch {
		case curlen+extra > max:
			chunks = append(chunks, cur)
			cur, curlen = ln, rl
		case curlen == 0:
			cur, curlen = ln, rl
		default:
			cur += "\n" + ln
			curlen += extra
		}
	}
	if curlen > 0 {
		chunks = append(chunks, cur)
	}
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}
