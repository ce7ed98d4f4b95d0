package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/pkg/log"
)

// GormChannelRepository implements ChannelRepository using GORM.
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GORM-based channel repository.
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// Create creates a new channel. A duplicate name is rejected by the
// unique index, so no second row is ever written.
func (r *GormChannelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	l := log.Ctx(ctx)

	if channel.ID == "" {
		channel.ID = uuid.New().String()
	}

	model := domain.ChannelToModel(channel)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		errStr := result.Error.Error()
		if strings.Contains(errStr, "duplicate key") ||
			strings.Contains(errStr, "UNIQUE constraint") ||
			strings.Contains(errStr, "Duplicate entry") {
			return ErrChannelNameExists
		}
		l.Error().Err(result.Error).Msg("failed to create channel in db")
		return result.Error
	}

	channel.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldChannelID, channel.ID).Msg("channel created in db")
	return nil
}

// GetByID retrieves a channel by ID.
func (r *GormChannelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	var model domain.ChannelModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// GetByName retrieves a channel by its unique name.
func (r *GormChannelRepository) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	var model domain.ChannelModel
	result := r.db.WithContext(ctx).First(&model, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves channels with pagination, newest first.
func (r *GormChannelRepository) List(ctx context.Context, page, pageSize int) ([]domain.Channel, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.ChannelModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count channels")
		return nil, 0, err
	}

	var models []domain.ChannelModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list channels from db")
		return nil, 0, err
	}

	channels := make([]domain.Channel, len(models))
	for i, model := range models {
		channels[i] = *model.ToDomain()
	}

	return channels, int(total), nil
}
