package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhwang/riverchat/internal/domain"
)

func TestCreateChannel(t *testing.T) {
	svc := NewChannelService(newFakeChannelRepo(), &fakeMessageRepo{}, newFakeUserRepo(), nil, 0)

	resp, err := svc.CreateChannel(context.Background(), "u1", &domain.CreateChannelRequest{
		Name:        "general",
		Description: "the lobby",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "general", resp.Name)
	assert.Equal(t, "the lobby", resp.Description)
}

func TestCreateDuplicateChannelReturnsExisting(t *testing.T) {
	repo := newFakeChannelRepo()
	svc := NewChannelService(repo, &fakeMessageRepo{}, newFakeUserRepo(), nil, 0)
	ctx := context.Background()

	first, err := svc.CreateChannel(ctx, "u1", &domain.CreateChannelRequest{Name: "general"})
	require.NoError(t, err)

	second, err := svc.CreateChannel(ctx, "u2", &domain.CreateChannelRequest{Name: "general"})
	assert.ErrorIs(t, err, ErrChannelNameTaken)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	// No second row was written.
	assert.Len(t, repo.channels, 1)
}

func TestGetChannelServedFromCache(t *testing.T) {
	repo := newFakeChannelRepo()
	cached := newFakeChannelCache()
	svc := NewChannelService(repo, &fakeMessageRepo{}, newFakeUserRepo(), cached, time.Minute)
	ctx := context.Background()

	resp, err := svc.CreateChannel(ctx, "u1", &domain.CreateChannelRequest{Name: "general"})
	require.NoError(t, err)

	// Remove the backing row; the cached copy still serves reads.
	delete(repo.channels, resp.ID)

	channel, err := svc.GetChannel(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "general", channel.Name)
}

func TestGetChannelNotFound(t *testing.T) {
	svc := NewChannelService(newFakeChannelRepo(), &fakeMessageRepo{}, newFakeUserRepo(), nil, 0)

	_, err := svc.GetChannel(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestListChannels(t *testing.T) {
	svc := NewChannelService(newFakeChannelRepo(), &fakeMessageRepo{}, newFakeUserRepo(), nil, 0)
	ctx := context.Background()

	for _, name := range []string{"general", "random", "dev"} {
		_, err := svc.CreateChannel(ctx, "u1", &domain.CreateChannelRequest{Name: name})
		require.NoError(t, err)
	}

	result, err := svc.ListChannels(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Channels, 3)
	assert.Equal(t, 1, result.TotalPages)
}

func TestChannelHistoryResolvesUsernames(t *testing.T) {
	users := newFakeUserRepo()
	messages := &fakeMessageRepo{}
	svc := NewChannelService(newFakeChannelRepo(), messages, users, nil, 0)
	ctx := context.Background()

	author := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, author))

	resp, err := svc.CreateChannel(ctx, "u1", &domain.CreateChannelRequest{Name: "general"})
	require.NoError(t, err)

	require.NoError(t, messages.Create(ctx, &domain.ChatMessage{
		ID:        "m1",
		UserID:    author.ID,
		ChannelID: resp.ID,
		Text:      "hello",
		CreatedAt: time.Now().UTC(),
	}))

	history, err := svc.ChannelHistory(ctx, resp.ID, 1, 50)
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "alice", history.Messages[0].Username)
	assert.Equal(t, "hello", history.Messages[0].Text)
}

func TestChannelHistoryUnknownChannel(t *testing.T) {
	svc := NewChannelService(newFakeChannelRepo(), &fakeMessageRepo{}, newFakeUserRepo(), nil, 0)

	_, err := svc.ChannelHistory(context.Background(), "missing", 1, 50)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}
