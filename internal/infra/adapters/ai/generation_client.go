package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies both ports
var (
	_ adapter.TextGenerator  = (*GenerationClient)(nil)
	_ adapter.ImageGenerator = (*GenerationClient)(nil)
)

// GenerationClient calls the synchronous text- and image-generation
// backends. Both endpoints answer {success, data?, error?} envelopes.
type GenerationClient struct {
	baseURL    string
	apiKey     string
	tokenModel string
	maxLength  int
	client     *http.Client

	encOnce sync.Once
	encoder *tiktoken.Tiktoken
}

func NewGenerationClient(baseURL, apiKey, tokenModel string, maxLength int, timeout time.Duration) (*GenerationClient, error) {
	if baseURL == "" {
		return nil, errors.New("generation client base url empty")
	}
	if maxLength <= 0 {
		maxLength = 2000
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GenerationClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		tokenModel: tokenModel,
		maxLength:  maxLength,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// EstimatePromptTokens returns a best-effort token count for prompt. The
// encoding tables load lazily on first use; when they are unavailable the
// estimate falls back to the usual four-characters-per-token heuristic.
func (g *GenerationClient) EstimatePromptTokens(prompt string) int {
	g.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(g.tokenModel)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return
			}
		}
		g.encoder = enc
	})
	if g.encoder == nil {
		return (len(prompt) + 3) / 4
	}
	return len(g.encoder.Encode(prompt, nil, nil))
}

type generationEnvelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func (g *GenerationClient) GenerateText(ctx context.Context, prompt string, jobType model.JobType, maxLength int) (*adapter.TextResult, error) {
	if maxLength <= 0 {
		maxLength = g.maxLength
	}
	metrics.AddPromptTokens(string(jobType), g.EstimatePromptTokens(prompt))

	reqBody := struct {
		Prompt    string `json:"prompt"`
		JobType   string `json:"job_type"`
		MaxLength int    `json:"max_length,omitempty"`
	}{Prompt: prompt, JobType: string(jobType), MaxLength: maxLength}

	data, err := g.post(ctx, "/generate-text", reqBody, string(jobType))
	if err != nil {
		return nil, err
	}
	content, _ := data["content"].(string)
	if content == "" {
		return nil, domain.NewBackendError(domain.ErrBackend, "unexpected response format")
	}
	return &adapter.TextResult{Content: content}, nil
}

func (g *GenerationClient) GenerateImage(ctx context.Context, prompt string, width, height int, style string) (*adapter.ImageResult, error) {
	reqBody := struct {
		Prompt string `json:"prompt"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
		Style  string `json:"style,omitempty"`
	}{Prompt: prompt, Width: width, Height: height, Style: style}

	data, err := g.post(ctx, "/generate-image", reqBody, string(model.JobTypeImage))
	if err != nil {
		return nil, err
	}
	imageURL, _ := data["image_url"].(string)
	if imageURL == "" {
		return nil, domain.NewBackendError(domain.ErrBackend, "unexpected response format")
	}
	return &adapter.ImageResult{ImageURL: imageURL}, nil
}

func (g *GenerationClient) post(ctx context.Context, path string, reqBody interface{}, jobType string) (map[string]interface{}, error) {
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		metrics.ObserveGeneration(jobType, int(latency/time.Millisecond), false)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveGeneration(jobType, int(latency/time.Millisecond), false)
		return nil, backendErrorFromResponse(resp)
	}

	var envelope generationEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.ObserveGeneration(jobType, int(latency/time.Millisecond), false)
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if !envelope.Success || envelope.Data == nil {
		metrics.ObserveGeneration(jobType, int(latency/time.Millisecond), false)
		msg := envelope.Error
		if msg == "" {
			msg = "generation backend reported failure"
		}
		return nil, domain.NewBackendError(domain.ErrBackend, msg)
	}

	metrics.ObserveGeneration(jobType, int(latency/time.Millisecond), true)
	return envelope.Data, nil
}
