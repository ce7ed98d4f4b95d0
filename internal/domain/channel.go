package domain

import "time"

// Channel represents a named chat room, the unit of message isolation
// and broadcast scope.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateChannelRequest represents a create channel request.
type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListChannelsResponse represents a paginated channel list.
type ListChannelsResponse struct {
	Channels   []ChannelResponse `json:"channels"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ToResponse converts Channel to ChannelResponse.
func (ch *Channel) ToResponse() ChannelResponse {
	return ChannelResponse{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		CreatedAt:   ch.CreatedAt,
	}
}
