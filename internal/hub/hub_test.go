package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhwang/riverchat/internal/domain"
)

func newTestClient(id string, h *Hub, buffer int) *Client {
	return &Client{
		ID:      id,
		Hub:     h,
		Send:    make(chan []byte, buffer),
		Session: domain.NewSession(),
	}
}

func recvPayload(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient("c1", h, 4)

	h.Join("room", c)
	h.Join("room", c)

	assert.Len(t, h.Members("room"), 1)
}

func TestLeaveUnknownChannelIsNoOp(t *testing.T) {
	h := NewHub()
	c := newTestClient("c1", h, 4)

	h.Leave("nope", c)

	assert.Empty(t, h.Members("nope"))
}

func TestBroadcastToEmptyChannelIsNoOp(t *testing.T) {
	h := NewHub()

	delivered := h.Broadcast("empty", map[string]string{"message": "hello"})

	assert.Zero(t, delivered)
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	h := NewHub()
	c1 := newTestClient("c1", h, 4)
	c2 := newTestClient("c2", h, 4)
	outsider := newTestClient("c3", h, 4)

	h.Join("room", c1)
	h.Join("room", c2)
	h.Join("other", outsider)

	delivered := h.Broadcast("room", map[string]string{"message": "hello"})
	assert.Equal(t, 2, delivered)

	for _, c := range []*Client{c1, c2} {
		payload := recvPayload(t, c)
		assert.Equal(t, "hello", payload["message"])
	}
	assert.Empty(t, outsider.Send)
}

func TestBroadcastPrunesSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	slow := newTestClient("slow", h, 1)
	fast := newTestClient("fast", h, 4)
	h.Register(slow)
	h.Register(fast)

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 2
	}, time.Second, 5*time.Millisecond)

	h.Join("room", slow)
	h.Join("room", fast)

	// Fill the slow client's buffer so the next broadcast drops it.
	slow.Send <- []byte("{}")

	delivered := h.Broadcast("room", map[string]string{"message": "hello"})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, "hello", recvPayload(t, fast)["message"])

	require.Eventually(t, func() bool {
		return len(h.Members("room")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fast"}, h.Members("room"))
}

func TestLifecycleCallsReturnAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := NewHub()
	go h.Run(ctx)

	c := newTestClient("c1", h, 1)
	h.Register(c)

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop")
	}

	// Unregister must not block on the stopped loop; this is the path
	// slow-consumer pruning takes during broadcast.
	returned := make(chan struct{})
	go func() {
		h.Unregister(c)
		h.Register(newTestClient("c2", h, 1))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("lifecycle call blocked after shutdown")
	}
}

func TestUnregisterPrunesMembershipAndClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	c := newTestClient("c1", h, 4)
	h.Register(c)

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == 1
	}, time.Second, 5*time.Millisecond)

	h.Join("room", c)
	h.Unregister(c)

	require.Eventually(t, func() bool {
		return len(h.Members("room")) == 0
	}, time.Second, 5*time.Millisecond)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}
