// File: internal/usecase/chat_session.go
package usecase

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/infra/i18n"
	"ai-content-platform/internal/infra/logging"
	"ai-content-platform/internal/infra/metrics"
)

// SessionStore persists a snapshot of a session's messages so a reloaded
// page can restore its history. Snapshots are best effort; store failures
// never fail a turn.
type SessionStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, messages []model.Message) error
	LoadSnapshot(ctx context.Context, sessionID string) ([]model.Message, error)
}

// ChatSession owns one conversation: the ordered message list and a single
// busy flag enforcing at most one in-flight turn. Each turn opens exactly
// one stream and drives one decoder; delta ordering matches wire order
// because decoding is strictly sequential.
type ChatSession struct {
	mu       sync.Mutex
	id       string
	messages []model.Message
	busy     bool

	streamer adapter.ChatStreamer
	notifier adapter.Notifier
	tr       *i18n.Translator
	store    SessionStore // optional
	log      *zerolog.Logger
	entropy  *rand.Rand
}

func NewChatSession(id string, streamer adapter.ChatStreamer, notifier adapter.Notifier, tr *i18n.Translator, store SessionStore, logger *zerolog.Logger) *ChatSession {
	sessLog := logger.With().Str("component", "ChatSession").Str("session_id", id).Logger()
	return &ChatSession{
		id:       id,
		messages: make([]model.Message, 0, 8),
		streamer: streamer,
		notifier: notifier,
		tr:       tr,
		store:    store,
		log:      &sessLog,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Messages returns a copy of the conversation so far.
func (s *ChatSession) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Busy reports whether a turn is in flight.
func (s *ChatSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// ClearMessages resets the conversation. A session with an in-flight turn
// is left untouched and the call is rejected.
func (s *ChatSession) ClearMessages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return domain.ErrSessionBusy
	}
	s.messages = s.messages[:0]
	return nil
}

// Restore loads a previously stored snapshot into an idle session.
func (s *ChatSession) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	msgs, err := s.store.LoadSnapshot(ctx, s.id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return domain.ErrSessionBusy
	}
	s.messages = msgs
	return nil
}

// SendMessage runs one turn: append the user message, stream the reply and
// grow the trailing assistant message delta by delta. Blank input is
// rejected, as is a send while a turn is already in flight (single-flight,
// no queuing). Partial assistant content already streamed before a failure
// is kept, never rolled back; no empty assistant bubble is created when the
// turn fails before the first delta.
func (s *ChatSession) SendMessage(ctx context.Context, input, language string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.ErrInvalidArgument
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}
	s.busy = true
	s.messages = append(s.messages, model.Message{Role: model.RoleUser, Content: input})
	history := make([]model.Message, len(s.messages))
	copy(history, s.messages)
	s.mu.Unlock()

	turnID := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	ctx = logging.WithTurnID(ctx, turnID)
	log := logging.With(ctx, s.log)
	defer logging.TraceDuration(log, "ChatSession.SendMessage")()
	start := time.Now()

	err := s.runTurn(ctx, log, history, language)

	s.mu.Lock()
	s.busy = false
	snapshot := make([]model.Message, len(s.messages))
	copy(snapshot, s.messages)
	s.mu.Unlock()

	metrics.ObserveChatTurn(int(time.Since(start)/time.Millisecond), err == nil)
	if s.store != nil {
		if serr := s.store.SaveSnapshot(ctx, s.id, snapshot); serr != nil {
			log.Warn().Err(serr).Msg("session snapshot save failed")
		}
	}
	return err
}

func (s *ChatSession) runTurn(ctx context.Context, log *zerolog.Logger, history []model.Message, language string) error {
	stream, err := s.streamer.StreamChat(ctx, history, language)
	if err != nil {
		s.notifyError(log, err, language)
		return err
	}
	defer stream.Close()

	sawDelta := false
	for {
		frame, err := stream.Next(ctx)
		if err != nil {
			if err == io.EOF {
				log.Debug().Int("decode_errors", stream.DecodeErrors()).Msg("stream ended")
				return nil
			}
			// Transport failure mid-stream; already-applied deltas stay.
			s.notifier.Notify(adapter.NoticeError, s.tr.T(language, "chat.connect_failed"))
			log.Error().Err(err).Msg("stream read failed")
			return err
		}

		switch frame.Kind {
		case model.FrameDelta:
			s.applyDelta(frame.Delta, &sawDelta)
		case model.FrameError:
			msg := frame.Message
			if msg == "" {
				msg = s.tr.T(language, "chat.stream_error")
			}
			s.notifier.Notify(adapter.NoticeError, msg)
			log.Warn().Str("message", frame.Message).Msg("in-stream error frame")
			return domain.NewBackendError(domain.ErrBackend, frame.Message)
		case model.FrameDone:
			log.Debug().Int("decode_errors", stream.DecodeErrors()).Msg("turn done")
			return nil
		}
	}
}

// applyDelta appends delta text to the trailing assistant message, creating
// it on the first delta of the turn. A turn never creates a second
// assistant message.
func (s *ChatSession) applyDelta(text string, sawDelta *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !*sawDelta {
		s.messages = append(s.messages, model.Message{Role: model.RoleAssistant, Content: text})
		*sawDelta = true
		return
	}
	s.messages[len(s.messages)-1].Content += text
}

// notifyError surfaces a localized, category-specific toast for a
// pre-stream failure.
func (s *ChatSession) notifyError(log *zerolog.Logger, err error, language string) {
	var msg string
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		msg = s.tr.T(language, "chat.rate_limited")
	case errors.Is(err, domain.ErrQuotaExceeded):
		msg = s.tr.T(language, "chat.quota_exceeded")
	case errors.Is(err, domain.ErrBackend):
		var be *domain.BackendError
		if errors.As(err, &be) && be.Message != "" {
			msg = be.Message
		} else {
			msg = s.tr.T(language, "chat.generic_error")
		}
	default:
		msg = s.tr.T(language, "chat.connect_failed")
	}
	s.notifier.Notify(adapter.NoticeError, msg)
	log.Error().Err(err).Msg("chat turn failed before stream")
}
