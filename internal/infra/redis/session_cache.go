package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/usecase"
)

var _ usecase.SessionStore = (*SessionCache)(nil)

// SessionCache keeps a TTL-bound snapshot of a chat session's messages so
// a reloaded assistant page can restore its history.
type SessionCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionCache(client RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string { return "chat_session:" + sessionID }

func (c *SessionCache) SaveSnapshot(ctx context.Context, sessionID string, messages []model.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(sessionID), data, c.ttl)
}

func (c *SessionCache) LoadSnapshot(ctx context.Context, sessionID string) ([]model.Message, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var messages []model.Message
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *SessionCache) DeleteSnapshot(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID))
}
