package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

const narrativePrompt = "You are a delivery coach writing for engineering leadership. Given per-board sprint grades, on-time and predictability percentages, velocity trends and indexed delivery, write at most five short bullet points: what is healthy, what is slipping, and one suggested action per slipping board. Refer to people only by the aliases provided."

type Client struct {
	key     string
	model   string
	timeout time.Duration
	cli     openai.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	model := cfg.OpenAIModel
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
	return &Client{key: cfg.OpenAIKey, model: model, timeout: cfg.OpenAITimeout, cli: cli, log: log}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && strings.TrimSpace(c.key) != "" }

// Narrate turns a JSON digest into a short leadership narrative.
func (c *Client) Narrate(ctx context.Context, digestJSON string) (string, error) {
	if !c.Enabled() {
		return "", errors.New("openai: missing key")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	c.log.Info().Str("model", c.model).Int("bytes", len(digestJSON)).Msg("openai narrate call")
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(narrativePrompt),
			openai.UserMessage(digestJSON),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
