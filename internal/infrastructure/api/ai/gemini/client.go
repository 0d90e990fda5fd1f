// Package gemini - клиент Google Gemini generateContent
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/internal/infrastructure/api"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1"
	defaultModel   = "gemini-2.5-flash-lite"
	defaultTimeout = 20 * time.Second
)

var _ api.CompletionClient = (*Client)(nil)

// Client - клиент Gemini
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// Option настраивает Client
type Option func(*Client)

// WithBaseURL задает базовый URL API
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel задает модель
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout задает таймаут одного запроса
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// New создает клиента Gemini
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model возвращает имя модели
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate отправляет весь диалог и возвращает текст первого кандидата
func (c *Client) Generate(ctx context.Context, turns []api.ChatTurn) (string, error) {
	const op = "gemini.Generate"

	reqBody := generateRequest{Contents: make([]content, 0, len(turns))}
	for _, t := range turns {
		reqBody.Contents = append(reqBody.Contents, content{
			Role:  t.Role,
			Parts: []part{{Text: t.Text}},
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Parse(op, fmt.Errorf("failed to marshal request: %w", err))
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Network(op, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", apperr.Network(op, fmt.Errorf("failed to send request: %w", redactKey(err, c.apiKey)))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Network(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error.Message != "" {
			return "", apperr.Upstream(op, "API error (status %d): %s", resp.StatusCode, e.Error.Message)
		}
		return "", apperr.Upstream(op, "API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", apperr.Parse(op, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", apperr.Parse(op, fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason))
		}
		return "", apperr.Parse(op, errors.New("response has no candidates"))
	}
	parts := gr.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", apperr.Parse(op, errors.New("candidate has no content parts"))
	}

	return parts[0].Text, nil
}

// redactKey убирает ключ API из текста ошибки (url.Error содержит полный URL)
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	escaped := url.QueryEscape(key)
	msg := err.Error()
	if !strings.Contains(msg, escaped) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, escaped, "***"))
}
