package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/infra/i18n"
	"ai-content-platform/internal/usecase"
)

// SessionHub owns the chat sessions behind the assistant endpoints, one per
// session id. Sessions are created lazily and restored from the snapshot
// store when one exists.
type SessionHub struct {
	mu       sync.Mutex
	sessions map[string]*hubSession

	streamer adapter.ChatStreamer
	tr       *i18n.Translator
	store    usecase.SessionStore // optional
	log      *zerolog.Logger
}

type hubSession struct {
	session *usecase.ChatSession
	notices *noticeBuffer
}

// noticeBuffer collects the toast notifications raised during a turn so the
// HTTP response can carry them back to the UI.
type noticeBuffer struct {
	mu      sync.Mutex
	notices []notice
}

type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (b *noticeBuffer) Notify(level adapter.NoticeLevel, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, notice{Level: string(level), Message: message})
}

func (b *noticeBuffer) drain() []notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

func NewSessionHub(streamer adapter.ChatStreamer, tr *i18n.Translator, store usecase.SessionStore, logger *zerolog.Logger) *SessionHub {
	hubLog := logger.With().Str("component", "SessionHub").Logger()
	return &SessionHub{
		sessions: make(map[string]*hubSession),
		streamer: streamer,
		tr:       tr,
		store:    store,
		log:      &hubLog,
	}
}

func (h *SessionHub) get(r *http.Request, sessionID string) *hubSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[sessionID]; ok {
		return s
	}
	buf := &noticeBuffer{}
	sess := usecase.NewChatSession(sessionID, h.streamer, buf, h.tr, h.store, h.log)
	if err := sess.Restore(r.Context()); err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("session restore failed")
	}
	s := &hubSession{session: sess, notices: buf}
	h.sessions[sessionID] = s
	return s
}

// Register attaches the assistant routes to an authenticated router group.
func (h *SessionHub) Register(r chi.Router) {
	r.Get("/assistant/{sessionID}/messages", h.handleMessages)
	r.Post("/assistant/{sessionID}/message", h.handleSend)
	r.Delete("/assistant/{sessionID}/messages", h.handleClear)
}

func (h *SessionHub) handleMessages(w http.ResponseWriter, r *http.Request) {
	s := h.get(r, chi.URLParam(r, "sessionID"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.session.Messages(),
		"busy":     s.session.Busy(),
	})
}

type sendRequest struct {
	Input    string `json:"input"`
	Language string `json:"language"`
}

func (h *SessionHub) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := h.get(r, chi.URLParam(r, "sessionID"))
	err := s.session.SendMessage(r.Context(), req.Input, req.Language)

	status := http.StatusOK
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "empty input")
		return
	case errors.Is(err, domain.ErrSessionBusy):
		writeError(w, http.StatusConflict, "a message is already in flight")
		return
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrQuotaExceeded):
		status = http.StatusPaymentRequired
	case err != nil:
		// Partial content, if any, is kept; the notices explain what broke.
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]interface{}{
		"messages": s.session.Messages(),
		"notices":  s.notices.drain(),
	})
}

func (h *SessionHub) handleClear(w http.ResponseWriter, r *http.Request) {
	s := h.get(r, chi.URLParam(r, "sessionID"))
	if err := s.session.ClearMessages(); err != nil {
		writeError(w, http.StatusConflict, "a message is in flight")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": []model.Message{}})
}
