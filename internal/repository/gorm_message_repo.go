package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create durably commits a chat message. The pipeline calls this
// before any broadcast for the message happens.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	l := log.Ctx(ctx)

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	model := domain.ChatMessageToModel(msg)
	result := r.db.WithContext(ctx).Omit("User", "Channel").Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldChannelID, msg.ChannelID).Msg("failed to persist chat message")
		return result.Error
	}

	msg.CreatedAt = model.CreatedAt
	return nil
}

// ListByChannel retrieves a channel's message history with pagination,
// newest first.
func (r *GormMessageRepository) ListByChannel(ctx context.Context, channelID string, page, pageSize int) ([]domain.ChatMessage, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.ChatMessageModel{}).
		Where("channel_id = ?", channelID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to count messages")
		return nil, 0, err
	}

	var models []domain.ChatMessageModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to list messages from db")
		return nil, 0, err
	}

	messages := make([]domain.ChatMessage, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}

	return messages, int(total), nil
}
