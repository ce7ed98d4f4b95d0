package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lhwang/riverchat/internal/audit"
	"github.com/lhwang/riverchat/internal/cache"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/repository"
	"github.com/lhwang/riverchat/pkg/log"
)

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrChannelNameTaken = errors.New("channel name already taken")
)

type channelServiceImpl struct {
	channels repository.ChannelRepository
	messages repository.MessageRepository
	users    repository.UserRepository
	cache    cache.ChannelCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewChannelService creates a new channel service. cache may be nil,
// in which case every lookup goes to the repository.
func NewChannelService(
	channels repository.ChannelRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	channelCache cache.ChannelCache,
	cacheTTL time.Duration,
) ChannelService {
	return &channelServiceImpl{
		channels: channels,
		messages: messages,
		users:    users,
		cache:    channelCache,
		cacheTTL: cacheTTL,
	}
}

// CreateChannel creates a named channel. Uniqueness is enforced by the
// store: a duplicate name writes no second row, and the existing
// channel is returned alongside ErrChannelNameTaken.
func (s *channelServiceImpl) CreateChannel(ctx context.Context, userID string, req *domain.CreateChannelRequest) (*domain.ChannelResponse, error) {
	channel := &domain.Channel{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}

	err := s.channels.Create(ctx, channel)
	if err != nil {
		if errors.Is(err, repository.ErrChannelNameExists) {
			existing, gerr := s.channels.GetByName(ctx, req.Name)
			if gerr != nil {
				return nil, gerr
			}
			resp := existing.ToResponse()
			return &resp, ErrChannelNameTaken
		}
		return nil, err
	}

	s.cacheChannel(ctx, channel)
	audit.LogWithDetail(ctx, audit.ActionChannelCreate, userID, channel.ID, "channel created")

	resp := channel.ToResponse()
	return &resp, nil
}

// GetChannel retrieves a channel by id, through the cache when one is
// configured. Concurrent misses for the same id are collapsed into a
// single repository read.
func (s *channelServiceImpl) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	if s.cache != nil {
		if result, err := s.cache.Get(ctx, s.cache.BuildKeyByID(id)); err == nil {
			return &result.Channel, nil
		}
	}

	v, err, _ := s.sf.Do(id, func() (interface{}, error) {
		channel, err := s.channels.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheChannel(ctx, channel)
		return channel, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrChannelNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}

	return v.(*domain.Channel), nil
}

// ListChannels lists channels with pagination.
func (s *channelServiceImpl) ListChannels(ctx context.Context, page, pageSize int) (*domain.ListChannelsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	channels, total, err := s.channels.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ChannelResponse, len(channels))
	for i, channel := range channels {
		responses[i] = channel.ToResponse()
	}

	return &domain.ListChannelsResponse{
		Channels:   responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ChannelHistory returns a page of a channel's persisted messages,
// newest first, with sender usernames resolved.
func (s *channelServiceImpl) ChannelHistory(ctx context.Context, channelID string, page, pageSize int) (*domain.ChannelHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return nil, err
	}

	messages, total, err := s.messages.ListByChannel(ctx, channelID, page, pageSize)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]string)
	responses := make([]domain.MessageResponse, len(messages))
	for i, msg := range messages {
		username, ok := usernames[msg.UserID]
		if !ok {
			if user, uerr := s.users.GetByID(ctx, msg.UserID); uerr == nil {
				username = user.Username
			}
			usernames[msg.UserID] = username
		}
		responses[i] = domain.MessageResponse{
			ID:        msg.ID,
			UserID:    msg.UserID,
			Username:  username,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt,
		}
	}

	return &domain.ChannelHistoryResponse{
		Messages:   responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *channelServiceImpl) cacheChannel(ctx context.Context, channel *domain.Channel) {
	if s.cache == nil {
		return
	}
	result := &cache.ChannelCacheResult{Channel: *channel}
	if err := s.cache.Set(ctx, s.cache.BuildKeyByID(channel.ID), result, s.cacheTTL); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldChannelID, channel.ID).Msg("failed to cache channel")
	}
}
