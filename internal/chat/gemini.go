package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// HTTPClient carries requests, e.g. through a SOCKS proxy. The key is
	// added to each request by an API-key transport on a copy of it.
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(withAPIKey(cfg.HTTPClient, cfg.APIKey)))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, wrap("gemini", "new client", err)
	}

	return &Gemini{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

// withAPIKey returns a copy of c whose transport sets the key query parameter.
// option.WithHTTPClient bypasses the client's own key handling.
func withAPIKey(c *http.Client, key string) *http.Client {
	out := *c
	out.Transport = &transport.APIKey{Key: key, Transport: c.Transport}
	return &out
}

func (g *Gemini) Send(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrap("gemini", "generate content", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", wrap("gemini", "generate content", errors.New("no candidates in response"))
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", wrap("gemini", "generate content", errors.New("unexpected response format"))
	}

	return sb.String(), nil
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
