// Package llm words requirement prompts through an OpenAI-compatible chat
// completion endpoint. Groq is the default provider.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is a small, fast model; one short sentence is all we need.
	DefaultModel = "llama-3.1-8b-instant"
	// DefaultMaxTokens bounds the reply length.
	DefaultMaxTokens = 25
)

const salesPrompt = `You are a friendly loan officer.

Your ONLY job:
Ask the user for the NEXT missing field.
Allowed fields ONLY:
- name
- loan_amount
- monthly_income

Rules:
- If missing_field = name, ask for their full name.
- If missing_field = loan_amount, ask: "What loan amount are you looking for?"
- If missing_field = monthly_income, ask: "What is your monthly income (numbers only)?"
- NEVER ask for other data.
- NEVER repeat past mistakes.
- RESPONSE MUST BE ONE SHORT SENTENCE.`

// Phraser implements ports.Phraser with a chat completion call.
type Phraser struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger

	client *openai.Client
}

// Option configures the Phraser.
type Option func(*Phraser)

// WithBaseURL points the client at another OpenAI-compatible provider.
func WithBaseURL(url string) Option {
	return func(p *Phraser) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(p *Phraser) {
		if model != "" {
			p.model = model
		}
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(p *Phraser) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Phraser) {
		p.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Phraser) {
		p.logger = logger
	}
}

// New creates a phraser. With an empty apiKey every call reports false.
func New(apiKey string, opts ...Option) *Phraser {
	p := &Phraser{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey != "" {
		cfg := openai.DefaultConfig(p.apiKey)
		cfg.BaseURL = p.baseURL
		if p.httpClient != nil {
			cfg.HTTPClient = p.httpClient
		}
		p.client = openai.NewClientWithConfig(cfg)
	}
	return p
}

var _ ports.Phraser = (*Phraser)(nil)

// Phrase asks the model for one sentence requesting field.
func (p *Phraser) Phrase(ctx context.Context, history string, field domain.Field) (string, bool) {
	if p.client == nil {
		p.logger.Debug("phraser disabled: no api key")
		return "", false
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPrompt(history, field)},
		},
	})
	if err != nil {
		p.logger.Warn("phraser call failed", "field", field, "err", err)
		return "", false
	}
	if len(resp.Choices) == 0 {
		p.logger.Warn("phraser returned no choices", "field", field)
		return "", false
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", false
	}
	p.logger.Debug("phraser reply", "field", field, "text", text)
	return text, true
}

func buildPrompt(history string, field domain.Field) string {
	return fmt.Sprintf("%s\n\nMissing field: %s\n\nConversation:\n%s\n\nRespond with ONLY one friendly sentence.\n",
		salesPrompt, field, history)
}
