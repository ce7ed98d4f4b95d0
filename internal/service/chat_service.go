package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lhwang/riverchat/internal/audit"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/hub"
	"github.com/lhwang/riverchat/internal/repository"
	"github.com/lhwang/riverchat/pkg/log"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoActiveRoom     = errors.New("no active room")
)

// SendResult is the outcome of one inbound message event.
type SendResult int

const (
	SendDelivered SendResult = iota
	SendRejectedUnauthenticated
	SendRejectedNoRoom
	SendPersistenceFailed
)

func (r SendResult) String() string {
	switch r {
	case SendDelivered:
		return "delivered"
	case SendRejectedUnauthenticated:
		return "rejected_unauthenticated"
	case SendRejectedNoRoom:
		return "rejected_no_room"
	case SendPersistenceFailed:
		return "persistence_failed"
	default:
		return "unknown"
	}
}

type chatService struct {
	hub      *hub.Hub
	messages repository.MessageRepository
	channels ChannelService
}

// NewChatService creates the message pipeline.
func NewChatService(h *hub.Hub, messages repository.MessageRepository, channels ChannelService) ChatService {
	return &chatService{
		hub:      h,
		messages: messages,
		channels: channels,
	}
}

// HandleJoin binds the client's session to a channel. A client bound
// to another channel leaves it first: join and leave happen as one
// step, so a connection is a member of at most one channel at a time.
func (s *chatService) HandleJoin(ctx context.Context, c *hub.Client, channelID string) error {
	if !c.Session.IsAuthenticated() {
		c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthenticated, "not authenticated"))
		return ErrNotAuthenticated
	}

	channel, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			c.SendEvent(domain.NewErrorEvent(domain.ErrCodeChannelNotFound, "channel not found"))
		}
		return err
	}

	if c.Session.IsBound() {
		s.leaveInternal(ctx, c, true)
	}

	ctx = log.WithChannel(ctx, channel.ID)
	s.hub.Join(channel.ID, c)
	c.Session.Bind(channel.ID)

	audit.LogWithDetail(ctx, audit.ActionChannelJoin, c.Session.UserID(), channel.ID, "joined channel")

	// Presence notice goes to the full, freshly updated membership
	// set, so the joiner sees its own entry notice.
	s.hub.Broadcast(channel.ID, &domain.PresenceNotice{
		Name:    c.Session.DisplayName(),
		Message: domain.PresenceEntered,
	})

	return c.SendEvent(&domain.JoinedEvent{
		Type:      domain.EventJoined,
		ChannelID: channel.ID,
		Channel:   channel.Name,
	})
}

// HandleMessage validates the session binding, persists the message,
// then broadcasts it. Persistence strictly precedes broadcast: a
// failed write aborts the fan-out and is reported to the sender only.
func (s *chatService) HandleMessage(ctx context.Context, c *hub.Client, text string) (SendResult, error) {
	l := log.Ctx(ctx)

	if !c.Session.IsAuthenticated() {
		c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthenticated, "not authenticated"))
		return SendRejectedUnauthenticated, ErrNotAuthenticated
	}

	channelID := c.Session.ChannelID()
	if channelID == "" {
		c.SendEvent(domain.NewErrorEvent(domain.ErrCodeNoActiveRoom, "not in a room"))
		return SendRejectedNoRoom, ErrNoActiveRoom
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    c.Session.UserID(),
		ChannelID: channelID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("message persistence failed")
		c.SendEvent(domain.NewErrorEvent(domain.ErrCodePersistenceFailed, "message could not be stored"))
		return SendPersistenceFailed, err
	}

	delivered := s.hub.Broadcast(channelID, &domain.ChatBroadcast{
		Name:     c.Session.DisplayName(),
		Message:  text,
		Username: c.Session.Username(),
		Datetime: msg.CreatedAt.Format(time.RFC3339),
	})

	l.Debug().
		Str(log.FieldMessageID, msg.ID).
		Str(log.FieldChannelID, channelID).
		Int("delivered", delivered).
		Msg("message broadcast")

	return SendDelivered, nil
}

// HandleLeave unbinds the client from its current channel.
func (s *chatService) HandleLeave(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsBound() {
		return nil
	}
	return s.leaveInternal(ctx, c, true)
}

// HandleDisconnect is the transport-level disconnect hook. The hub has
// already pruned the connection from every membership set by the time
// this runs; what remains is announcing the departure and clearing the
// binding. No events are sent to the departed client.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsBound() {
		return nil
	}
	return s.leaveInternal(ctx, c, false)
}

func (s *chatService) leaveInternal(ctx context.Context, c *hub.Client, notifySelf bool) error {
	channelID := c.Session.ChannelID()
	if channelID == "" {
		return nil
	}

	ctx = log.WithChannel(ctx, channelID)
	s.hub.Leave(channelID, c)
	c.Session.Unbind()

	audit.LogWithDetail(ctx, audit.ActionChannelLeave, c.Session.UserID(), channelID, "left channel")

	s.hub.Broadcast(channelID, &domain.PresenceNotice{
		Name:    c.Session.DisplayName(),
		Message: domain.PresenceLeft,
	})

	if notifySelf {
		return c.SendEvent(&domain.LeftEvent{
			Type:      domain.EventLeft,
			ChannelID: channelID,
		})
	}
	return nil
}
