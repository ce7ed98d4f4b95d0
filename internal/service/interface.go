package service

import (
	"context"

	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/hub"
)

// UserService handles registration, login and identity lookups.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, id string) (*domain.UserResponse, error)
}

// ChannelService handles channel CRUD and message history.
type ChannelService interface {
	// CreateChannel creates a named channel. If the name is already
	// taken it returns the existing channel together with
	// ErrChannelNameTaken, so callers can surface the original id.
	CreateChannel(ctx context.Context, userID string, req *domain.CreateChannelRequest) (*domain.ChannelResponse, error)
	GetChannel(ctx context.Context, id string) (*domain.Channel, error)
	ListChannels(ctx context.Context, page, pageSize int) (*domain.ListChannelsResponse, error)
	ChannelHistory(ctx context.Context, channelID string, page, pageSize int) (*domain.ChannelHistoryResponse, error)
}

// ChatService is the real-time message pipeline: it binds sessions to
// channels, persists accepted messages and fans them out to the room.
type ChatService interface {
	HandleJoin(ctx context.Context, client *hub.Client, channelID string) error
	HandleMessage(ctx context.Context, client *hub.Client, text string) (SendResult, error)
	HandleLeave(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
}
