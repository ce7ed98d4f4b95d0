package domain

import "time"

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	DisplayName  string    `gorm:"type:varchar(100)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ChannelModel is the GORM model for the channels table.
type ChannelModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedBy   string    `gorm:"type:varchar(36);index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for ChannelModel.
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts ChannelModel to domain Channel.
func (m *ChannelModel) ToDomain() *Channel {
	return &Channel{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// ChannelToModel converts domain Channel to ChannelModel.
func ChannelToModel(ch *Channel) *ChannelModel {
	return &ChannelModel{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		CreatedBy:   ch.CreatedBy,
		CreatedAt:   ch.CreatedAt,
	}
}

// ChatMessageModel is the GORM model for the chats table. The User and
// Channel associations give the foreign keys chats.user_id -> users.id
// and chats.channel_id -> channels.id on migration.
type ChatMessageModel struct {
	ID        string       `gorm:"type:varchar(36);primaryKey"`
	UserID    string       `gorm:"type:varchar(36);not null;index"`
	ChannelID string       `gorm:"type:varchar(36);not null;index"`
	Text      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"autoCreateTime;index"`
	User      UserModel    `gorm:"foreignKey:UserID"`
	Channel   ChannelModel `gorm:"foreignKey:ChannelID"`
}

// TableName specifies the table name for ChatMessageModel.
func (ChatMessageModel) TableName() string {
	return "chats"
}

// ToDomain converts ChatMessageModel to domain ChatMessage.
func (m *ChatMessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:        m.ID,
		UserID:    m.UserID,
		ChannelID: m.ChannelID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// ChatMessageToModel converts domain ChatMessage to ChatMessageModel.
func ChatMessageToModel(msg *ChatMessage) *ChatMessageModel {
	return &ChatMessageModel{
		ID:        msg.ID,
		UserID:    msg.UserID,
		ChannelID: msg.ChannelID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
}
