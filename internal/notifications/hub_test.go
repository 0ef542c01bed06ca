package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxHub_RegisterLimits(t *testing.T) {
	h := NewInboxHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := h.Register(1, nil)
	assert.Error(t, err)
	assert.Equal(t, maxConnsPerUser, h.Connections(1))

	_, err = h.Register(2, nil)
	assert.NoError(t, err)
}

func TestInboxHub_BroadcastAndUnregister(t *testing.T) {
	h := NewInboxHub()
	a, err := h.Register(1, nil)
	require.NoError(t, err)
	b, err := h.Register(2, nil)
	require.NoError(t, err)

	h.Broadcast(1, []byte("hello"))
	assert.Equal(t, []byte("hello"), <-a.Send)
	assert.Empty(t, b.Send)

	h.Unregister(a)
	h.Unregister(a)
	_, open := <-a.Send
	assert.False(t, open)
	assert.Zero(t, h.Connections(1))

	// Broadcasting to an account with no sockets is a no-op.
	h.Broadcast(1, []byte("nobody"))
}

func TestInboxHub_ShutdownRejectsNewClients(t *testing.T) {
	h := NewInboxHub()
	c, err := h.Register(3, nil)
	require.NoError(t, err)

	other, err := h.Register(4, nil)
	require.NoError(t, err)
	h.Unregister(other)
	assert.Equal(t, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), other.closeFrame())

	// Shutdown only closes the queue; the socket is left to WritePump.
	require.NoError(t, h.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"), c.closeFrame())

	_, err = h.Register(3, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestInboxHub_WiredToRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewInboxHub()
	client, err := h.Register(9, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, h.StartWiring(ctx, n))
	require.NoError(t, n.PublishEvent(ctx, 9, "message_received", map[string]int{"id": 1}))

	select {
	case payload := <-client.Send:
		assert.JSONEq(t, `{"type":"message_received","data":{"id":1}}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}
}
