package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ChatStreamer = (*ChatClient)(nil)

// ChatClient opens streaming chat turns against the AI backend over HTTP.
// The transport carries no overall timeout; a turn lives as long as the
// stream and is cancelled through the request context.
type ChatClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewChatClient(baseURL, apiKey string) (*ChatClient, error) {
	if baseURL == "" {
		return nil, errors.New("chat client base url empty")
	}
	return &ChatClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}, nil
}

func (c *ChatClient) StreamChat(ctx context.Context, messages []model.Message, language string) (adapter.FrameStream, error) {
	reqBody := struct {
		Messages []model.Message `json:"messages"`
		Language string          `json:"language"`
	}{Messages: messages, Language: language}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai/chat", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, backendErrorFromResponse(resp)
	}
	return NewStreamDecoder(resp.Body), nil
}

// backendErrorFromResponse maps a non-2xx response to a categorized
// domain.BackendError. The human message comes from, in priority order,
// `detail`, `error.message`, `message`, then the raw status text. No stream
// decoding is ever attempted for these responses.
func backendErrorFromResponse(resp *http.Response) error {
	category := domain.ErrBackend
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		category = domain.ErrRateLimited
	case http.StatusPaymentRequired:
		category = domain.ErrQuotaExceeded
	}

	message := resp.Status
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		if m := extractErrorMessage(body); m != "" {
			message = m
		}
	}
	return domain.NewBackendError(category, message)
}

func extractErrorMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	if payload.Error != nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return payload.Message
}
