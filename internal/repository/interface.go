package repository

import (
	"context"
	"errors"

	"github.com/lhwang/riverchat/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrUsernameExists    = errors.New("username already exists")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrChannelNameExists = errors.New("channel name already exists")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ChannelRepository defines the interface for channel persistence.
// Channels are never deleted.
type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id string) (*domain.Channel, error)
	GetByName(ctx context.Context, name string) (*domain.Channel, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Channel, int, error)
}

// MessageRepository defines the interface for chat message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByChannel(ctx context.Context, channelID string, page, pageSize int) ([]domain.ChatMessage, int, error)
}
