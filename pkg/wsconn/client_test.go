package wsconn

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPair returns a server side Client and the dialed peer.
func newPair(t *testing.T, bufferSize int) (*Client, *websocket.Conn) {
	t.Helper()

	clients := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		clients <- New("conn-1", conn, bufferSize)
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	select {
	case client := <-clients:
		return client, peer
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	return string(data)
}

func TestDirectWritesPrecedeQueuedFrames(t *testing.T) {
	client, peer := newPair(t, 8)
	defer client.Close()

	assert.Equal(t, "conn-1", client.ID())
	require.True(t, client.Send([]byte(`{"type":"play"}`)))
	require.NoError(t, client.WriteJSON(map[string]string{"type": "room_state"}))
	require.NoError(t, client.WriteJSON(map[string]string{"type": "chat_history"}))
	client.Start()

	assert.JSONEq(t, `{"type":"room_state"}`, readText(t, peer))
	assert.JSONEq(t, `{"type":"chat_history"}`, readText(t, peer))
	assert.JSONEq(t, `{"type":"play"}`, readText(t, peer))
}

func TestSendDropsWhenFull(t *testing.T) {
	client, _ := newPair(t, 1)
	defer client.Close()

	assert.True(t, client.Send([]byte("a")))
	assert.False(t, client.Send([]byte("b")))
}

func TestCloseFlushesAndSendsCloseFrame(t *testing.T) {
	client, peer := newPair(t, 8)
	client.Start()

	require.True(t, client.Send([]byte("last")))
	client.Close()
	assert.False(t, client.Send([]byte("late")))

	assert.Equal(t, "last", readText(t, peer))

	_, _, err := peer.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("write pump did not exit")
	}
}

func TestCloseBeforeStart(t *testing.T) {
	client, _ := newPair(t, 8)

	client.Close()
	client.Close()

	select {
	case <-client.Done():
	default:
		t.Fatal("done must be closed when the pump never started")
	}
}
