package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lhwang/riverchat/pkg/log"
)

// Hub is the in-memory room registry: it tracks every connected client
// and which clients are members of which channel. It is shared mutable
// state across all connection handlers and every access goes through
// the mutex.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // channelID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes connection lifecycle events until ctx is cancelled.
// After it returns, lifecycle calls become no-ops instead of blocking
// on the stopped loop.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for channelID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, channelID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub and prunes it from every
// channel membership set. Invoked on transport-level disconnect.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join adds a client to a channel's membership set. Idempotent if the
// client is already a member.
func (h *Hub) Join(channelID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[channelID]; !ok {
		h.rooms[channelID] = make(map[string]*Client)
	}
	h.rooms[channelID][client.ID] = client
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannelID, channelID).Msg("client joined channel")
}

// Leave removes a client from a channel's membership set, no-op if
// absent.
func (h *Hub) Leave(channelID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[channelID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, channelID)
		}
	}
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannelID, channelID).Msg("client left channel")
}

// Members returns a snapshot of the client ids currently joined to a
// channel, for diagnostics and tests.
func (h *Hub) Members(channelID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[channelID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast fans the payload out to every current member of the
// channel and returns the number of clients it was delivered to.
// Broadcasting to an empty or unknown channel is a silent no-op.
// Delivery is best-effort per recipient: a client whose send buffer is
// full has this message dropped and is scheduled for pruning, without
// stalling delivery to the remaining members.
func (h *Hub) Broadcast(channelID string, payload interface{}) int {
	data, err := json.Marshal(payload)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to marshal broadcast payload")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, client := range h.rooms[channelID] {
		select {
		case client.Send <- data:
			delivered++
		default:
			l := log.L()
			l.Warn().Str(log.FieldClientID, client.ID).Str(log.FieldChannelID, channelID).Msg("send buffer full, pruning client")
			go h.removeClient(client)
		}
	}
	return delivered
}

func (h *Hub) removeClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
