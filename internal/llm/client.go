// Package llm реализует клиент OpenAI-совместимого API генерации текста.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnauthorized сервис отклонил ключ API.
	ErrUnauthorized = errors.New("llm: invalid API key")
	// ErrRateLimited превышен лимит запросов сервиса.
	ErrRateLimited = errors.New("llm: rate limit exceeded")
	// ErrEmptyResponse в ответе нет ни одного варианта.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Client клиент chat completions.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент для endpoint с ключом apiKey.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Complete отправляет запрос и возвращает текст первого варианта ответа без изменений.
func (c *Client) Complete(ctx context.Context, chat ChatRequest) (string, error) {
	const op = "llm.Complete"
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/chat/completions", chat)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%s: %w", op, ErrRateLimited)
	default:
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, upstreamMessage(resp.Body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return chatResp.Choices[0].Message.Content, nil
}

func upstreamMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return strings.TrimSpace(string(data))
}
