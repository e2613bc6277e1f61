// File: internal/usecase/chat_session_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
)

func deltas(parts ...string) []model.StreamFrame {
	frames := make([]model.StreamFrame, 0, len(parts)+1)
	for _, p := range parts {
		frames = append(frames, model.DeltaFrame(p))
	}
	return append(frames, model.DoneFrame())
}

func TestChatSessionSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should grow one assistant message delta by delta", func(t *testing.T) {
		streamer := &scriptedStreamer{stream: &scriptedStream{frames: deltas("Hel", "lo, ", "world")}}
		notifier := &captureNotifier{}
		sess := NewChatSession("s1", streamer, notifier, testTranslator(t), nil, testLogger())

		if err := sess.SendMessage(ctx, "hi there", "en"); err != nil {
			t.Fatalf("send: %v", err)
		}

		msgs := sess.Messages()
		if len(msgs) != 2 {
			t.Fatalf("expected user + one assistant message, got %d", len(msgs))
		}
		if msgs[0].Role != model.RoleUser || msgs[0].Content != "hi there" {
			t.Errorf("unexpected user message: %+v", msgs[0])
		}
		if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hello, world" {
			t.Errorf("expected assembled assistant reply, got %+v", msgs[1])
		}
		if notifier.count() != 0 {
			t.Errorf("expected no notices on success, got %v", notifier.notices)
		}
		if !streamer.stream.closed {
			t.Error("stream must be closed after the turn")
		}
		if sess.Busy() {
			t.Error("session must be idle after the turn")
		}
	})

	t.Run("should reject blank input without touching the conversation", func(t *testing.T) {
		streamer := &scriptedStreamer{stream: &scriptedStream{frames: deltas("x")}}
		sess := NewChatSession("s1", streamer, &captureNotifier{}, testTranslator(t), nil, testLogger())

		if err := sess.SendMessage(ctx, "   \n\t ", "en"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(sess.Messages()) != 0 {
			t.Error("blank input must not append a message")
		}
		if streamer.openCalls != 0 {
			t.Error("blank input must not open a stream")
		}
	})

	t.Run("should keep partial content when the stream errors mid-turn", func(t *testing.T) {
		stream := &scriptedStream{frames: []model.StreamFrame{
			model.DeltaFrame("partial "),
			model.ErrorFrame("model overloaded"),
			model.DeltaFrame("never applied"),
		}}
		streamer := &scriptedStreamer{stream: stream}
		notifier := &captureNotifier{}
		sess := NewChatSession("s1", streamer, notifier, testTranslator(t), nil, testLogger())

		err := sess.SendMessage(ctx, "go on", "en")
		if !errors.Is(err, domain.ErrBackend) {
			t.Fatalf("expected ErrBackend, got %v", err)
		}

		msgs := sess.Messages()
		if len(msgs) != 2 {
			t.Fatalf("expected user + partial assistant message, got %d", len(msgs))
		}
		if msgs[1].Content != "partial " {
			t.Errorf("partial content must be kept, got %q", msgs[1].Content)
		}
		if notifier.last() != "model overloaded" {
			t.Errorf("expected the backend message as notice, got %q", notifier.last())
		}
		if sess.Busy() {
			t.Error("session must be idle after a failed turn")
		}
	})

	t.Run("should not create an empty assistant bubble on a pre-stream failure", func(t *testing.T) {
		streamer := &scriptedStreamer{openErr: domain.NewBackendError(domain.ErrRateLimited, "slow down")}
		notifier := &captureNotifier{}
		tr := testTranslator(t)
		sess := NewChatSession("s1", streamer, notifier, tr, nil, testLogger())

		err := sess.SendMessage(ctx, "hello", "en")
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}

		msgs := sess.Messages()
		if len(msgs) != 1 || msgs[0].Role != model.RoleUser {
			t.Fatalf("expected only the user message, got %+v", msgs)
		}
		if notifier.last() != tr.T("en", "chat.rate_limited") {
			t.Errorf("expected the localized rate-limit notice, got %q", notifier.last())
		}
	})

	t.Run("should localize the pre-stream notice", func(t *testing.T) {
		streamer := &scriptedStreamer{openErr: domain.NewBackendError(domain.ErrQuotaExceeded, "")}
		notifier := &captureNotifier{}
		tr := testTranslator(t)
		sess := NewChatSession("s1", streamer, notifier, tr, nil, testLogger())

		_ = sess.SendMessage(ctx, "你好", "zh-TW")
		if notifier.last() != tr.T("zh-TW", "chat.quota_exceeded") {
			t.Errorf("expected the zh-TW quota notice, got %q", notifier.last())
		}
	})

	t.Run("should send the full history on each turn", func(t *testing.T) {
		streamer := &scriptedStreamer{stream: &scriptedStream{frames: deltas("first")}}
		sess := NewChatSession("s1", streamer, &captureNotifier{}, testTranslator(t), nil, testLogger())
		if err := sess.SendMessage(ctx, "one", "en"); err != nil {
			t.Fatalf("first turn: %v", err)
		}

		streamer.stream = &scriptedStream{frames: deltas("second")}
		if err := sess.SendMessage(ctx, "two", "en"); err != nil {
			t.Fatalf("second turn: %v", err)
		}
		// user, assistant, user: the history sent upstream on turn two.
		if len(streamer.lastMsgs) != 3 {
			t.Fatalf("expected 3 history messages on the second turn, got %d", len(streamer.lastMsgs))
		}
		if streamer.lastMsgs[2].Content != "two" {
			t.Errorf("history must end with the new user message, got %+v", streamer.lastMsgs[2])
		}
	})

	t.Run("should snapshot the session after a turn", func(t *testing.T) {
		store := newMemSessionStore()
		streamer := &scriptedStreamer{stream: &scriptedStream{frames: deltas("hi")}}
		sess := NewChatSession("s1", streamer, &captureNotifier{}, testTranslator(t), store, testLogger())

		if err := sess.SendMessage(ctx, "hello", "en"); err != nil {
			t.Fatalf("send: %v", err)
		}
		saved, err := store.LoadSnapshot(ctx, "s1")
		if err != nil {
			t.Fatalf("load snapshot: %v", err)
		}
		if len(saved) != 2 {
			t.Errorf("expected the snapshot to hold both messages, got %d", len(saved))
		}
	})

	t.Run("should not fail the turn when the snapshot save fails", func(t *testing.T) {
		store := newMemSessionStore()
		store.saveErr = errors.New("redis down")
		streamer := &scriptedStreamer{stream: &scriptedStream{frames: deltas("hi")}}
		sess := NewChatSession("s1", streamer, &captureNotifier{}, testTranslator(t), store, testLogger())

		if err := sess.SendMessage(ctx, "hello", "en"); err != nil {
			t.Errorf("snapshot failures must not fail the turn, got %v", err)
		}
	})
}

// blockingStream parks the turn until release is closed so tests can observe
// the busy window.
type blockingStream struct {
	release <-chan struct{}
	entered chan<- struct{}
	done    bool
}

func (b *blockingStream) Next(ctx context.Context) (model.StreamFrame, error) {
	if !b.done {
		b.done = true
		close(b.entered)
		select {
		case <-b.release:
		case <-ctx.Done():
			return model.StreamFrame{}, ctx.Err()
		}
		return model.DeltaFrame("late"), nil
	}
	return model.DoneFrame(), nil
}

func (b *blockingStream) DecodeErrors() int { return 0 }
func (b *blockingStream) Close() error      { return nil }

type blockingStreamer struct {
	stream *blockingStream
}

func (b *blockingStreamer) StreamChat(ctx context.Context, messages []model.Message, language string) (adapter.FrameStream, error) {
	return b.stream, nil
}

func TestChatSessionSingleFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})
	stream := &blockingStream{release: release, entered: entered}
	streamer := &blockingStreamer{stream: stream}
	sess := NewChatSession("s1", streamer, &captureNotifier{}, testTranslator(t), nil, testLogger())

	firstDone := make(chan error, 1)
	go func() { firstDone <- sess.SendMessage(ctx, "first", "en") }()
	<-entered

	if !sess.Busy() {
		t.Error("expected the session to report busy mid-turn")
	}
	if err := sess.SendMessage(ctx, "second", "en"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy for a concurrent send, got %v", err)
	}
	if err := sess.ClearMessages(); !errors.Is(err, domain.ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy for a concurrent clear, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first turn: %v", err)
	}

	msgs := sess.Messages()
	if len(msgs) != 2 {
		t.Fatalf("the rejected send must not append anything, got %d messages", len(msgs))
	}
	if err := sess.ClearMessages(); err != nil {
		t.Fatalf("clear after the turn: %v", err)
	}
	if len(sess.Messages()) != 0 {
		t.Error("expected an empty conversation after clear")
	}
}

func TestChatSessionRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("should load an existing snapshot", func(t *testing.T) {
		store := newMemSessionStore()
		store.store["s1"] = []model.Message{
			{Role: model.RoleUser, Content: "old question"},
			{Role: model.RoleAssistant, Content: "old answer"},
		}
		sess := NewChatSession("s1", &scriptedStreamer{}, &captureNotifier{}, testTranslator(t), store, testLogger())
		if err := sess.Restore(ctx); err != nil {
			t.Fatalf("restore: %v", err)
		}
		if len(sess.Messages()) != 2 {
			t.Errorf("expected the restored history, got %d messages", len(sess.Messages()))
		}
	})

	t.Run("should treat a missing snapshot as a fresh session", func(t *testing.T) {
		sess := NewChatSession("s1", &scriptedStreamer{}, &captureNotifier{}, testTranslator(t), newMemSessionStore(), testLogger())
		if err := sess.Restore(ctx); err != nil {
			t.Fatalf("restore of a missing snapshot must not fail: %v", err)
		}
		if len(sess.Messages()) != 0 {
			t.Error("expected an empty session")
		}
	})
}
