// Package qa answers questions over retrieved chunks with a chat-completion
// model.
package qa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/hyperjump/bunko/internal/models"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	baseBackoff    = 2 * time.Second
	maxBackoff     = 32 * time.Second
)

// ErrAPIKeyNotSet means no OpenAI API key was provided.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// Answerer generates grounded answers from retrieved chunks.
type Answerer struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewAnswerer creates an Answerer for the given model.
func NewAnswerer(apiKey, model string) (*Answerer, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	return &Answerer{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: defaultTimeout,
	}, nil
}

// SetTimeout overrides the per-call timeout.
func (a *Answerer) SetTimeout(d time.Duration) {
	a.timeout = d
}

// Answer builds a prompt from the question and the vector hits among the
// given hits, calls the model, and returns the answer text together with the
// chunks that grounded it. Transient API failures (rate limits, server errors,
// timeouts) are retried with bounded exponential backoff; other failures
// surface immediately.
func (a *Answerer) Answer(ctx context.Context, question string, hits []models.Hit) (string, []*models.Chunk, error) {
	used := contextChunks(hits)
	if len(used) == 0 {
		return "I'm sorry, I don't have any context to answer that.", nil, nil
	}
	prompt := BuildPrompt(question, used)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-ctx.Done():
				return "", nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		answer, err := a.complete(ctx, prompt)
		if err == nil {
			return answer, used, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return "", nil, fmt.Errorf("answer generation failed: %w", lastErr)
}

// isTransient reports whether an API failure is worth retrying: rate limits
// and server-side errors are; client errors like a bad key or a malformed
// request are not. Non-API errors (network, timeout) are treated as transient.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func (a *Answerer) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	}
	completion, err := a.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return completion.Choices[0].Message.Content, nil
}

// contextChunks keeps the vector hits' chunks; keyword-only hits carry no
// text and cannot ground an answer.
func contextChunks(hits []models.Hit) []*models.Chunk {
	var chunks []*models.Chunk
	for _, h := range hits {
		if h.Origin == models.OriginVector && h.Chunk != nil {
			chunks = append(chunks, h.Chunk)
		}
	}
	return chunks
}
