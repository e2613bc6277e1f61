package ai

import (
	"context"
	"time"

	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
)

var (
	_ adapter.TextGenerator  = (*NoopGenerator)(nil)
	_ adapter.ImageGenerator = (*NoopGenerator)(nil)
)

// NoopGenerator implements the generation ports for local/dev testing.
// It returns canned payloads instead of calling a real backend.
type NoopGenerator struct{}

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (a *NoopGenerator) GenerateText(ctx context.Context, prompt string, jobType model.JobType, maxLength int) (*adapter.TextResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.TextResult{Content: "This is a noop generation result."}, nil
}

func (a *NoopGenerator) GenerateImage(ctx context.Context, prompt string, width, height int, style string) (*adapter.ImageResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.ImageResult{ImageURL: "https://example.invalid/noop.png"}, nil
}
