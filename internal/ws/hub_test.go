package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, uuid.UUID, *websocket.Conn) {
	t.Helper()
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	userID := uuid.New()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)
	return hub, userID, conn
}

func TestHub_DeliversToRecipient(t *testing.T) {
	hub, userID, conn := startHub(t)

	require.NoError(t, hub.BroadcastToUser(userID, "booking.status_changed", map[string]string{"status": "ACCEPTED"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "booking.status_changed", msg.Type)
	assert.Equal(t, "ACCEPTED", msg.Data["status"])
}

func TestHub_UnknownRecipientIsDropped(t *testing.T) {
	hub, _, _ := startHub(t)
	assert.NoError(t, hub.BroadcastToUser(uuid.New(), "contract.signed", nil))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, userID, conn := startHub(t)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_QueueFull(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	for i := 0; i < cap(hub.broadcast); i++ {
		require.NoError(t, hub.BroadcastToUser(uuid.New(), "e", nil))
	}
	assert.ErrorIs(t, hub.BroadcastToUser(uuid.New(), "e", nil), ErrQueueFull)
}
