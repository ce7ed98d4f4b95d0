package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/hub"
)

type chatFixture struct {
	hub      *hub.Hub
	messages *fakeMessageRepo
	channels ChannelService
	chat     ChatService
}

func newChatFixture(t *testing.T) (*chatFixture, *domain.Channel) {
	t.Helper()

	h := hub.NewHub()
	messages := &fakeMessageRepo{}
	channelSvc := NewChannelService(newFakeChannelRepo(), messages, newFakeUserRepo(), nil, 0)

	resp, err := channelSvc.CreateChannel(context.Background(), "creator", &domain.CreateChannelRequest{Name: "general"})
	require.NoError(t, err)

	f := &chatFixture{
		hub:      h,
		messages: messages,
		channels: channelSvc,
		chat:     NewChatService(h, messages, channelSvc),
	}
	return f, &domain.Channel{ID: resp.ID, Name: resp.Name}
}

func (f *chatFixture) joinedClient(t *testing.T, id, username string, channelID string) *hub.Client {
	t.Helper()
	c := newChatClient(id, f.hub)
	c.Session.Authenticate("user-"+id, username, username)
	require.NoError(t, f.chat.HandleJoin(context.Background(), c, channelID))
	return c
}

func TestMessageDeliveredToAllMembers(t *testing.T) {
	f, channel := newChatFixture(t)
	ctx := context.Background()

	sender := f.joinedClient(t, "c1", "alice", channel.ID)
	receiver := f.joinedClient(t, "c2", "bob", channel.ID)
	drainClient(sender)
	drainClient(receiver)

	// The write must complete before any member sees the message.
	f.messages.onCreate = func(msg *domain.ChatMessage) error {
		assert.Empty(t, sender.Send, "broadcast before persist")
		assert.Empty(t, receiver.Send, "broadcast before persist")
		return nil
	}

	result, err := f.chat.HandleMessage(ctx, sender, "hello world")
	require.NoError(t, err)
	assert.Equal(t, SendDelivered, result)

	require.Len(t, f.messages.created, 1)
	assert.Equal(t, "hello world", f.messages.created[0].Text)
	assert.Equal(t, channel.ID, f.messages.created[0].ChannelID)

	for _, c := range []*hub.Client{sender, receiver} {
		payload := recvEvent(t, c)
		assert.Equal(t, "alice", payload["name"])
		assert.Equal(t, "hello world", payload["message"])
		assert.Equal(t, "alice", payload["username"])
		assert.NotEmpty(t, payload["datetime"])
	}
}

func TestMessageWithoutRoomIsRejected(t *testing.T) {
	f, _ := newChatFixture(t)

	c := newChatClient("c1", f.hub)
	c.Session.Authenticate("u1", "alice", "alice")

	result, err := f.chat.HandleMessage(context.Background(), c, "hello")
	assert.ErrorIs(t, err, ErrNoActiveRoom)
	assert.Equal(t, SendRejectedNoRoom, result)
	assert.Empty(t, f.messages.created)

	payload := recvEvent(t, c)
	assert.Equal(t, domain.EventError, payload["type"])
	assert.Equal(t, domain.ErrCodeNoActiveRoom, payload["code"])
}

func TestMessageUnauthenticatedIsRejected(t *testing.T) {
	f, _ := newChatFixture(t)

	c := newChatClient("c1", f.hub)

	result, err := f.chat.HandleMessage(context.Background(), c, "hello")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, SendRejectedUnauthenticated, result)
	assert.Empty(t, f.messages.created)

	payload := recvEvent(t, c)
	assert.Equal(t, domain.ErrCodeUnauthenticated, payload["code"])
}

func TestPersistenceFailureReportedToSenderOnly(t *testing.T) {
	f, channel := newChatFixture(t)

	sender := f.joinedClient(t, "c1", "alice", channel.ID)
	receiver := f.joinedClient(t, "c2", "bob", channel.ID)
	drainClient(sender)
	drainClient(receiver)

	f.messages.onCreate = func(msg *domain.ChatMessage) error {
		return errors.New("db down")
	}

	result, err := f.chat.HandleMessage(context.Background(), sender, "hello")
	assert.Error(t, err)
	assert.Equal(t, SendPersistenceFailed, result)
	assert.Empty(t, f.messages.created)

	payload := recvEvent(t, sender)
	assert.Equal(t, domain.ErrCodePersistenceFailed, payload["code"])
	assert.Empty(t, receiver.Send, "failure must not reach other members")
}

func TestJoinAnnouncesToFullMembershipIncludingJoiner(t *testing.T) {
	f, channel := newChatFixture(t)

	first := f.joinedClient(t, "c1", "alice", channel.ID)
	drainClient(first)

	second := f.joinedClient(t, "c2", "bob", channel.ID)

	// The existing member and the joiner both see the entry notice.
	payload := recvEvent(t, first)
	assert.Equal(t, "bob", payload["name"])
	assert.Equal(t, domain.PresenceEntered, payload["message"])

	payload = recvEvent(t, second)
	assert.Equal(t, "bob", payload["name"])
	assert.Equal(t, domain.PresenceEntered, payload["message"])
}

func TestJoinUnknownChannelRejected(t *testing.T) {
	f, _ := newChatFixture(t)

	c := newChatClient("c1", f.hub)
	c.Session.Authenticate("u1", "alice", "alice")

	err := f.chat.HandleJoin(context.Background(), c, "missing")
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.False(t, c.Session.IsBound())

	payload := recvEvent(t, c)
	assert.Equal(t, domain.ErrCodeChannelNotFound, payload["code"])
}

func TestJoinSwitchesChannel(t *testing.T) {
	f, channel := newChatFixture(t)
	ctx := context.Background()

	resp, err := f.channels.CreateChannel(ctx, "creator", &domain.CreateChannelRequest{Name: "random"})
	require.NoError(t, err)

	witness := f.joinedClient(t, "c1", "alice", channel.ID)
	mover := f.joinedClient(t, "c2", "bob", channel.ID)
	drainClient(witness)
	drainClient(mover)

	require.NoError(t, f.chat.HandleJoin(ctx, mover, resp.ID))

	assert.Equal(t, resp.ID, mover.Session.ChannelID())
	assert.Equal(t, []string{"c1"}, f.hub.Members(channel.ID))
	assert.Len(t, f.hub.Members(resp.ID), 1)

	// The old room sees the departure.
	payload := recvEvent(t, witness)
	assert.Equal(t, "bob", payload["name"])
	assert.Equal(t, domain.PresenceLeft, payload["message"])
}

func TestDisconnectAnnouncesDepartureAndPrunes(t *testing.T) {
	f, channel := newChatFixture(t)
	ctx := context.Background()

	leaver := f.joinedClient(t, "c1", "alice", channel.ID)
	stayer := f.joinedClient(t, "c2", "bob", channel.ID)
	drainClient(leaver)
	drainClient(stayer)

	require.NoError(t, f.chat.HandleDisconnect(ctx, leaver))

	assert.False(t, leaver.Session.IsBound())
	assert.Equal(t, []string{"c2"}, f.hub.Members(channel.ID))
	assert.Empty(t, leaver.Send, "departed client must not be notified")

	payload := recvEvent(t, stayer)
	assert.Equal(t, "alice", payload["name"])
	assert.Equal(t, domain.PresenceLeft, payload["message"])

	// Subsequent traffic only reaches the remaining member.
	drainClient(stayer)
	result, err := f.chat.HandleMessage(ctx, stayer, "still here")
	require.NoError(t, err)
	assert.Equal(t, SendDelivered, result)
	assert.Equal(t, "still here", recvEvent(t, stayer)["message"])
	assert.Empty(t, leaver.Send)
}

func TestLeaveWithoutBindingIsNoOp(t *testing.T) {
	f, _ := newChatFixture(t)

	c := newChatClient("c1", f.hub)
	c.Session.Authenticate("u1", "alice", "alice")

	require.NoError(t, f.chat.HandleLeave(context.Background(), c))
	assert.Empty(t, c.Send)
}
