package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You are VOX-NLU, the intent classifier of a voice assistant.
Do NOT converse. Do NOT answer the question. Output ONLY JSON. No markdown.`

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT5Nano)
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: cfg.Timeout,
	}
}

func (o *OpenAI) Send(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return "", wrap("openai", "chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", wrap("openai", "chat completion", errors.New("no choices in response"))
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", wrap("openai", "chat completion", errors.New("empty message content"))
	}

	return content, nil
}
