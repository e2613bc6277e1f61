package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/infra/metrics"
)

// Compile-time assurance the decoder satisfies the port
var _ adapter.FrameStream = (*StreamDecoder)(nil)

const dataPrefix = "data: "

// doneSentinel terminates a well-formed stream.
const doneSentinel = "[DONE]"

// StreamDecoder turns a raw byte stream into a sequence of typed protocol
// frames. Bytes are buffered and split on newlines only, so a multi-byte
// UTF-8 sequence split across read chunks is carried over intact to the
// next chunk instead of being decoded piecewise.
//
// One decoder serves exactly one turn; it is not restartable.
type StreamDecoder struct {
	r       io.ReadCloser
	buf     bytes.Buffer
	chunk   []byte
	eof     bool
	stopped bool
	errs    int
}

func NewStreamDecoder(r io.ReadCloser) *StreamDecoder {
	return &StreamDecoder{r: r, chunk: make([]byte, 4096)}
}

// streamLine is the per-line JSON payload of the chat protocol:
// either {"choices":[{"delta":{"content":"..."}}]} or
// {"error":{"message":"..."}}.
type streamLine struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Next blocks for the next frame. Malformed data lines are skipped, never
// returned as errors; DecodeErrors counts them. After a Done frame, an
// ErrorFrame, or stream end, Next returns io.EOF.
func (d *StreamDecoder) Next(ctx context.Context) (model.StreamFrame, error) {
	if d.stopped {
		return model.StreamFrame{}, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			return model.StreamFrame{}, err
		}

		line, ok := d.nextLine()
		if !ok {
			if d.eof {
				// Final flush: whatever is buffered without a trailing
				// newline is treated as one last line.
				rest := d.buf.String()
				d.buf.Reset()
				d.stopped = true
				if strings.TrimSpace(rest) != "" {
					if frame, emit := d.processLine(rest); emit {
						return frame, nil
					}
				}
				return model.StreamFrame{}, io.EOF
			}
			if err := d.fill(); err != nil {
				if err != io.EOF {
					d.stopped = true
					return model.StreamFrame{}, err
				}
				d.eof = true
			}
			continue
		}

		if frame, emit := d.processLine(line); emit {
			if frame.Kind == model.FrameDone || frame.Kind == model.FrameError {
				d.stopped = true
			}
			return frame, nil
		}
	}
}

// DecodeErrors reports how many malformed data lines were skipped.
func (d *StreamDecoder) DecodeErrors() int { return d.errs }

func (d *StreamDecoder) Close() error { return d.r.Close() }

func (d *StreamDecoder) fill() error {
	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.buf.Write(d.chunk[:n])
	}
	return err
}

// nextLine extracts the next newline-terminated line from the buffer.
func (d *StreamDecoder) nextLine() (string, bool) {
	b := d.buf.Bytes()
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return "", false
	}
	line := string(b[:i])
	d.buf.Next(i + 1)
	return line, true
}

// processLine applies the framing rules to one line. The second return is
// false when the line is skipped (blank, comment, non-data, malformed).
func (d *StreamDecoder) processLine(line string) (model.StreamFrame, bool) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return model.StreamFrame{}, false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return model.StreamFrame{}, false
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		metrics.IncStreamFrame("done")
		return model.DoneFrame(), true
	}

	var parsed streamLine
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		// One corrupt frame must not abort an otherwise-valid stream.
		d.errs++
		metrics.IncStreamDecodeError()
		return model.StreamFrame{}, false
	}

	if parsed.Error != nil {
		metrics.IncStreamFrame("error")
		return model.ErrorFrame(parsed.Error.Message), true
	}

	if len(parsed.Choices) > 0 {
		if content := parsed.Choices[0].Delta.Content; content != "" {
			metrics.IncStreamFrame("delta")
			return model.DeltaFrame(content), true
		}
	}
	return model.StreamFrame{}, false
}
