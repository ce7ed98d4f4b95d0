package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lhwang/riverchat/internal/cache"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/hub"
	"github.com/lhwang/riverchat/internal/repository"
)

// fakeMessageRepo records created messages in memory. onCreate runs
// before the message is recorded, so tests can assert on pipeline
// ordering or inject persistence failures.
type fakeMessageRepo struct {
	created  []*domain.ChatMessage
	onCreate func(*domain.ChatMessage) error
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if r.onCreate != nil {
		if err := r.onCreate(msg); err != nil {
			return err
		}
	}
	r.created = append(r.created, msg)
	return nil
}

func (r *fakeMessageRepo) ListByChannel(ctx context.Context, channelID string, page, pageSize int) ([]domain.ChatMessage, int, error) {
	var out []domain.ChatMessage
	for _, msg := range r.created {
		if msg.ChannelID == channelID {
			out = append(out, *msg)
		}
	}
	return out, len(out), nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
		if existing.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("u%d", r.seq)
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type fakeChannelRepo struct {
	channels map[string]*domain.Channel
	seq      int
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[string]*domain.Channel)}
}

func (r *fakeChannelRepo) Create(ctx context.Context, channel *domain.Channel) error {
	for _, existing := range r.channels {
		if existing.Name == channel.Name {
			return repository.ErrChannelNameExists
		}
	}
	r.seq++
	channel.ID = fmt.Sprintf("ch%d", r.seq)
	channel.CreatedAt = time.Now()
	stored := *channel
	r.channels[channel.ID] = &stored
	return nil
}

func (r *fakeChannelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	channel, ok := r.channels[id]
	if !ok {
		return nil, repository.ErrChannelNotFound
	}
	c := *channel
	return &c, nil
}

func (r *fakeChannelRepo) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	for _, channel := range r.channels {
		if channel.Name == name {
			c := *channel
			return &c, nil
		}
	}
	return nil, repository.ErrChannelNotFound
}

func (r *fakeChannelRepo) List(ctx context.Context, page, pageSize int) ([]domain.Channel, int, error) {
	out := make([]domain.Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		out = append(out, *channel)
	}
	return out, len(out), nil
}

type fakeChannelCache struct {
	entries map[string]*cache.ChannelCacheResult
}

func newFakeChannelCache() *fakeChannelCache {
	return &fakeChannelCache{entries: make(map[string]*cache.ChannelCacheResult)}
}

func (c *fakeChannelCache) Get(ctx context.Context, key string) (*cache.ChannelCacheResult, error) {
	result, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return result, nil
}

func (c *fakeChannelCache) Set(ctx context.Context, key string, result *cache.ChannelCacheResult, ttl time.Duration) error {
	c.entries[key] = result
	return nil
}

func (c *fakeChannelCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *fakeChannelCache) BuildKeyByID(channelID string) string { return "id:" + channelID }
func (c *fakeChannelCache) BuildKeyByName(name string) string    { return "name:" + name }
func (c *fakeChannelCache) Close() error                         { return nil }

// newChatClient builds a hub client without a live socket. Payloads
// land in the Send buffer where tests can read them back.
func newChatClient(id string, h *hub.Hub) *hub.Client {
	return &hub.Client{
		ID:      id,
		Hub:     h,
		Send:    make(chan []byte, 16),
		Session: domain.NewSession(),
	}
}

func recvEvent(t *testing.T, c *hub.Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func drainClient(c *hub.Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}
