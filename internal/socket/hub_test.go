package socket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/eventdata"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Hub:      hub,
		Log:      logger.NewNop(),
		Outbound: make(chan Message, 4),
	}
}

func TestFlushDeliversBufferedEvents(t *testing.T) {
	hub := NewHub(logger.NewNop())
	userID := uuid.New()
	client := newTestClient(hub, userID)
	hub.Subscribe(client, []string{UserChannel(userID)})

	ctx := eventdata.WithEventData(context.Background())
	eventdata.GetEventData(ctx).Append(eventdata.Event{Channel: UserChannel(userID), Event: "chat.created", Data: "x"})

	require.Empty(t, client.Outbound)
	hub.Flush(ctx)

	require.Len(t, client.Outbound, 1)
	msg := <-client.Outbound
	assert.Equal(t, "chat.created", msg.Event)
	assert.Empty(t, eventdata.GetEventData(ctx).Events)
}

func TestBroadcastOnlyReachesChannel(t *testing.T) {
	hub := NewHub(logger.NewNop())
	a := newTestClient(hub, uuid.New())
	b := newTestClient(hub, uuid.New())
	hub.Subscribe(a, []string{UserChannel(a.UserID)})
	hub.Subscribe(b, []string{UserChannel(b.UserID)})

	hub.BroadcastGlobal(context.Background(), Message{Channel: UserChannel(a.UserID), Event: "ping"})

	assert.Len(t, a.Outbound, 1)
	assert.Empty(t, b.Outbound)

	hub.Unsubscribe(a)
	assert.Zero(t, hub.SubscriberCount(UserChannel(a.UserID)))
}

func TestCanSubscribe(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(nil, userID)
	assert.True(t, c.CanSubscribe(UserChannel(userID)))
	assert.True(t, c.CanSubscribe(UserChannel(userID)+":chats"))
	assert.False(t, c.CanSubscribe(UserChannel(uuid.New())))
	assert.False(t, c.CanSubscribe(""))
}
