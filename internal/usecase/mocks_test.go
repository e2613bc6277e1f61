// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/domain/ports/repository"
	"ai-content-platform/internal/infra/i18n"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en", "zh-TW")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	return tr
}

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.GenerationJob
	order   []string // insertion order, newest last
	saveErr error    // used by tests to simulate save failures
	// failAfter, when > 0, fails the Nth Save call (1-based) and every
	// call after it.
	failAfter int
	saves     int
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.GenerationJob)}
}

func (m *memJobRepo) Save(ctx context.Context, tx any, job *model.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.failAfter > 0 && m.saves >= m.failAfter {
		return domain.ErrBackend
	}
	if _, ok := m.store[job.ID]; !ok {
		m.order = append(m.order, job.ID)
	}
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx any, id string) (*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListByCreator(ctx context.Context, tx any, createdBy string) ([]*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GenerationJob
	for i := len(m.order) - 1; i >= 0; i-- {
		j := m.store[m.order[i]]
		if j.CreatedBy == createdBy {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) ListAll(ctx context.Context, tx any) ([]*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.GenerationJob, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		cp := *m.store[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

type memBlogRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.BlogPost
	saveErr error
}

func newMemBlogRepo() *memBlogRepo {
	return &memBlogRepo{store: make(map[string]*model.BlogPost)}
}

func (m *memBlogRepo) Save(ctx context.Context, tx any, post *model.BlogPost) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.store[post.Slug] = &cp
	return nil
}

func (m *memBlogRepo) FindBySlug(ctx context.Context, tx any, slug string) (*model.BlogPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memToolRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AITool
}

func newMemToolRepo() *memToolRepo {
	return &memToolRepo{store: make(map[string]*model.AITool)}
}

func (m *memToolRepo) Save(ctx context.Context, tx any, tool *model.AITool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tool
	m.store[tool.Slug] = &cp
	return nil
}

func (m *memToolRepo) FindBySlug(ctx context.Context, tx any, slug string) (*model.AITool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tool, ok := m.store[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *tool
	return &cp, nil
}

func (m *memToolRepo) UpdateDescription(ctx context.Context, tx any, slug, description string, expectedUpdatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tool, ok := m.store[slug]
	if !ok {
		return domain.ErrNotFound
	}
	if !tool.UpdatedAt.Equal(expectedUpdatedAt) {
		return domain.ErrConflict
	}
	tool.Description = description
	tool.UpdatedAt = time.Now()
	return nil
}

// fakeTxManager runs the callback without a real transaction. WithTxFunc
// can be assigned for transaction-specific assertions.
type fakeTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func (m *fakeTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// stubTextGenerator answers every text request with a fixed result or error.
type stubTextGenerator struct {
	mu      sync.Mutex
	result  string
	err     error
	calls   int
	lastMax int
}

func (s *stubTextGenerator) GenerateText(ctx context.Context, prompt string, jobType model.JobType, maxLength int) (*adapter.TextResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastMax = maxLength
	if s.err != nil {
		return nil, s.err
	}
	return &adapter.TextResult{Content: s.result}, nil
}

type stubImageGenerator struct {
	mu    sync.Mutex
	url   string
	err   error
	calls int
}

func (s *stubImageGenerator) GenerateImage(ctx context.Context, prompt string, width, height int, style string) (*adapter.ImageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &adapter.ImageResult{ImageURL: s.url}, nil
}

// scriptedStream plays back a fixed frame sequence, then io.EOF. A non-nil
// readErr replaces the frame at errAt with a transport failure.
type scriptedStream struct {
	frames  []model.StreamFrame
	pos     int
	readErr error
	errAt   int
	decErrs int
	closed  bool
}

func (s *scriptedStream) Next(ctx context.Context) (model.StreamFrame, error) {
	if s.readErr != nil && s.pos == s.errAt {
		return model.StreamFrame{}, s.readErr
	}
	if s.pos >= len(s.frames) {
		return model.StreamFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *scriptedStream) DecodeErrors() int { return s.decErrs }
func (s *scriptedStream) Close() error      { s.closed = true; return nil }

// scriptedStreamer hands out one scripted stream per call, or fails before
// the stream opens.
type scriptedStreamer struct {
	stream    *scriptedStream
	openErr   error
	lastMsgs  []model.Message
	lastLang  string
	openCalls int
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, messages []model.Message, language string) (adapter.FrameStream, error) {
	s.openCalls++
	s.lastMsgs = messages
	s.lastLang = language
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.stream, nil
}

// captureNotifier records every notice for assertions.
type captureNotifier struct {
	mu      sync.Mutex
	notices []string
	levels  []adapter.NoticeLevel
}

func (c *captureNotifier) Notify(level adapter.NoticeLevel, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels = append(c.levels, level)
	c.notices = append(c.notices, message)
}

func (c *captureNotifier) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notices) == 0 {
		return ""
	}
	return c.notices[len(c.notices)-1]
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notices)
}

// memSessionStore keeps snapshots in a map.
type memSessionStore struct {
	mu      sync.Mutex
	store   map[string][]model.Message
	saveErr error
	saves   int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{store: make(map[string][]model.Message)}
}

func (m *memSessionStore) SaveSnapshot(ctx context.Context, sessionID string, messages []model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := make([]model.Message, len(messages))
	copy(cp, messages)
	m.store[sessionID] = cp
	return nil
}

func (m *memSessionStore) LoadSnapshot(ctx context.Context, sessionID string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, ok := m.store[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := make([]model.Message, len(msgs))
	copy(cp, msgs)
	return cp, nil
}
