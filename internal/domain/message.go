package domain

import "time"

// ChatMessage represents a persisted chat message. Messages are
// append-only: created exactly once per accepted inbound event,
// never mutated or deleted.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse represents a message in history API responses.
type MessageResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelHistoryResponse represents a paginated message history page,
// newest first.
type ChannelHistoryResponse struct {
	Messages   []MessageResponse `json:"messages"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}
