package adapter

import (
	"context"

	"ai-content-platform/internal/domain/model"
)

// FrameStream yields decoded protocol frames for one chat turn. A stream is
// finite: it ends on a Done frame, an unrecoverable transport error, or
// stream end. It is not restartable; open a new stream per turn.
type FrameStream interface {
	// Next blocks for the next frame. It returns io.EOF after the stream is
	// exhausted (a Done frame, if present, is delivered before EOF).
	Next(ctx context.Context) (model.StreamFrame, error)
	// DecodeErrors reports how many malformed data lines were skipped so
	// far. Skipping is deliberate; this makes it observable.
	DecodeErrors() int
	Close() error
}

// ChatStreamer opens one streaming chat turn against the AI backend.
// Non-2xx responses are mapped to a domain.BackendError before any stream
// decoding is attempted.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []model.Message, language string) (FrameStream, error)
}

// TextResult is the payload of a successful text generation call.
type TextResult struct {
	Content string
}

// ImageResult is the payload of a successful image generation call.
type ImageResult struct {
	ImageURL string
}

// TextGenerator is the port for the synchronous text-generation backend
// used by blog_post, tool_description and seo_content jobs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, jobType model.JobType, maxLength int) (*TextResult, error)
}

// ImageGenerator is the port for the image-generation backend.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, width, height int, style string) (*ImageResult, error)
}
