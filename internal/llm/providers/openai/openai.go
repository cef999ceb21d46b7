// Package openai implements the completion contract against any
// OpenAI-compatible chat-completions endpoint (OpenAI itself, Ollama,
// vLLM, LM Studio and similar local servers).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/personalityai/personality/internal/llm"
	"github.com/personalityai/personality/internal/models"
)

const (
	// DefaultBaseURL points at the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when the caller does not pick one.
	DefaultModel = "gpt-4o-mini"

	providerName = "openai"
)

// Provider implements llm.Provider over the chat-completions HTTP API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Request is the chat-completions request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Seed        int       `json:"seed"`
}

// Message mirrors the API message shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the chat-completions response body.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewProvider creates a provider for the given endpoint. Empty baseURL and
// model fall back to the OpenAI defaults; apiKey may be empty for local
// servers that do not authenticate.
func NewProvider(apiKey, baseURL, model string, logger *logrus.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// Complete sends one chat-completions request and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	start := time.Now()
	apiReq := p.convertRequest(req)

	p.logger.Debugf("openai: completing request %s with model %s (%d messages)",
		req.ID, apiReq.Model, len(apiReq.Messages))

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.statusError(resp.StatusCode, respBody)
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, llm.NewProviderError(providerName, "response contained no choices")
	}

	choice := apiResp.Choices[0]
	p.logger.Debugf("openai: request %s completed in %s (%d tokens)",
		req.ID, time.Since(start), apiResp.Usage.TotalTokens)

	return &models.CompletionResponse{
		ID:           apiResp.ID,
		RequestID:    req.ID,
		ProviderName: providerName,
		Model:        apiResp.Model,
		Content:      choice.Message.Content,
		TokensUsed:   apiResp.Usage.TotalTokens,
		FinishReason: choice.FinishReason,
		CreatedAt:    time.Now(),
	}, nil
}

// HealthCheck verifies endpoint connectivity via the models listing.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// Model returns the configured default model.
func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) convertRequest(req *models.CompletionRequest) *Request {
	model := req.Model
	if model == "" {
		model = p.model
	}
	messages := make([]Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = Message{Role: m.Role, Content: m.Content}
	}
	return &Request{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	}
}

func (p *Provider) statusError(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	if statusCode == http.StatusTooManyRequests {
		return &llm.RateLimitError{Provider: providerName, Message: message}
	}
	return llm.NewProviderError(providerName, message).WithStatusCode(statusCode)
}
