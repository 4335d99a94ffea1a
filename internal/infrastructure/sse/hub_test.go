package sse

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

func TestHubNotify(t *testing.T) {
	hub := NewHub()
	owner, requester := uuid.New(), uuid.New()
	phone := NewClient("phone", owner)
	laptop := NewClient("laptop", owner)
	other := NewClient("other", requester)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	n := dealrequest.Notification{
		From:    requester,
		To:      owner,
		DealID:  uuid.New(),
		BodyKey: "deal_request.requested",
		Type:    dealrequest.NotificationDealRequest,
	}
	require.NoError(t, hub.Notify(context.Background(), n))

	for _, c := range []*Client{phone, laptop} {
		require.Len(t, c.Messages, 1)
		msg := <-c.Messages
		assert.Equal(t, string(dealrequest.NotificationDealRequest), msg.Event)
		var got dealrequest.Notification
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, n, got)
	}
	assert.Empty(t, other.Messages)
}

func TestHubNotifyFullChannel(t *testing.T) {
	hub := NewHub()
	account := uuid.New()
	c := NewClient("c1", account)
	hub.Register(c)
	for i := 0; i < clientBuffer; i++ {
		require.NoError(t, hub.SendToClient("c1", NewMessage("ping", nil)))
	}

	err := hub.Notify(context.Background(), dealrequest.Notification{To: account})
	assert.ErrorIs(t, err, ErrChannelFull)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	c := NewClient("c1", uuid.New())
	hub.Register(c)
	hub.Unregister("c1")

	_, open := <-c.Messages
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, hub.SendToClient("c1", NewMessage("ping", nil)), ErrClientNotFound)
}
