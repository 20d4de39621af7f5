package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Host:             "0.0.0.0",
		Port:             8080,
		LogLevel:         "info",
		Store:            StoreMemory,
		Backplane:        BackplaneNone,
		ChatHistoryLimit: 50,
		SendBufferSize:   256,
		RoomTTL:          time.Hour,
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *AppConfig)
		wantErr bool
	}{
		{"valid", func(cfg *AppConfig) {}, false},
		{"bad port", func(cfg *AppConfig) { cfg.Port = 0 }, true},
		{"bad log level", func(cfg *AppConfig) { cfg.LogLevel = "loud" }, true},
		{"unknown store", func(cfg *AppConfig) { cfg.Store = "sqlite" }, true},
		{"postgres without dsn", func(cfg *AppConfig) { cfg.Store = StorePostgres }, true},
		{"postgres with dsn", func(cfg *AppConfig) {
			cfg.Store = StorePostgres
			cfg.PostgresDSN = "postgres://localhost/tandem"
		}, false},
		{"unknown backplane", func(cfg *AppConfig) { cfg.Backplane = "nats" }, true},
		{"negative history", func(cfg *AppConfig) { cfg.ChatHistoryLimit = -1 }, true},
		{"zero buffer", func(cfg *AppConfig) { cfg.SendBufferSize = 0 }, true},
		{"zero ttl", func(cfg *AppConfig) { cfg.RoomTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type instance struct {
	srv *httptest.Server
}

func startInstance(t *testing.T, ctx context.Context, mr *miniredis.Miniredis) *instance {
	t.Helper()

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := validConfig()
	cfg.Store = StoreRedis
	cfg.Backplane = BackplaneRedis
	cfg.RedisHost = mr.Host()
	cfg.RedisPort = port

	s, err := newServer(ctx, cfg, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, s.backplane)

	go s.backplane.Run(ctx)

	srv := httptest.NewServer(s.controller.GetMux())
	t.Cleanup(func() {
		s.controller.CloseConnections()
		srv.Close()
		s.close()
	})

	return &instance{srv: srv}
}

func (i *instance) dial(t *testing.T, roomId string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(i.srv.URL, "http") + "/ws/rooms/" + roomId + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	readFrame(t, conn)
	readFrame(t, conn)

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))

	return frame
}

func TestRedisBackplaneAcrossInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	first := startInstance(t, ctx, mr)
	second := startInstance(t, ctx, mr)

	resp, err := http.Post(first.srv.URL+"/api/v1/rooms", "application/json", bytes.NewBufferString(`{"host_username":"alice"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	alice := first.dial(t, created.Data.Id)
	bob := second.dial(t, created.Data.Id)

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "join", "username": "alice"}))
	assert.Equal(t, []any{"alice"}, readFrame(t, alice)["users"])
	assert.Equal(t, []any{"alice"}, readFrame(t, bob)["users"])

	require.NoError(t, bob.WriteJSON(map[string]any{"type": "join", "username": "bob"}))
	assert.Equal(t, []any{"alice", "bob"}, readFrame(t, alice)["users"])
	assert.Equal(t, []any{"alice", "bob"}, readFrame(t, bob)["users"])

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "play", "current_time": 3.5}))
	assert.Equal(t, map[string]any{"type": "play", "current_time": 3.5}, readFrame(t, bob))

	require.NoError(t, bob.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	bob.Close()
	assert.Equal(t, map[string]any{"type": "user_list", "users": []any{"alice"}}, readFrame(t, alice))
}
