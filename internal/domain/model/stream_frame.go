package model

// FrameKind tags one decoded unit of the chat streaming protocol.
type FrameKind int

const (
	FrameDelta FrameKind = iota
	FrameError
	FrameDone
)

// StreamFrame is the tagged union produced by the stream decoder.
// Delta carries an incremental text fragment, Error carries the message of
// an in-stream error object, Done marks the terminal sentinel. Frames are
// transient; they are produced and consumed within a single turn and never
// persisted.
type StreamFrame struct {
	Kind    FrameKind
	Delta   string // set when Kind == FrameDelta
	Message string // set when Kind == FrameError
}

func DeltaFrame(text string) StreamFrame { return StreamFrame{Kind: FrameDelta, Delta: text} }

func ErrorFrame(message string) StreamFrame {
	return StreamFrame{Kind: FrameError, Message: message}
}

func DoneFrame() StreamFrame { return StreamFrame{Kind: FrameDone} }
