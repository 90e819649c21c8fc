package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
	"github.com/xandylearning/mentor-ai/backend/internal/service/ai"
	chatservice "github.com/xandylearning/mentor-ai/backend/internal/service/chat"
	"github.com/xandylearning/mentor-ai/backend/internal/service/chat/chattest"
)

type errorMessage struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

type turnMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      chatservice.TurnResult `json:"data"`
}

func startServer(t *testing.T) (*httptest.Server, chattest.Fixture, string) {
	t.Helper()
	return startServerWithTimeout(t, 0)
}

func startServerWithTimeout(t *testing.T, readTimeout time.Duration) (*httptest.Server, chattest.Fixture, string) {
	t.Helper()
	f := chattest.New(t, chatservice.Options{})
	conv, err := f.Service.CreateSession(context.Background(), "s1", "m1")
	require.NoError(t, err)

	r := chi.NewRouter()
	NewWithTimeout(f.Service, readTimeout, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f, conv.SessionID
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func TestWebSocketTurn(t *testing.T) {
	srv, f, sessionID := startServer(t)
	c := dial(t, srv, sessionID)

	var hello outgoingMessage
	require.NoError(t, c.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	require.NoError(t, c.WriteJSON(map[string]string{"content": "What is a list?"}))

	var turn turnMessage
	require.NoError(t, c.ReadJSON(&turn))
	assert.Equal(t, "turn", turn.Type)
	assert.Equal(t, sessionID, turn.SessionID)
	assert.Equal(t, f.Gen.Replies[ai.ModeReply], turn.Data.Reply.Content)
	assert.Equal(t, "What is a list?", turn.Data.StudentMessage.Content)
}

func TestWebSocketSurvivesSlowTurns(t *testing.T) {
	srv, f, sessionID := startServerWithTimeout(t, 200*time.Millisecond)
	f.Gen.Wait = 400 * time.Millisecond
	c := dial(t, srv, sessionID)

	var hello outgoingMessage
	require.NoError(t, c.ReadJSON(&hello))

	for _, content := range []string{"What is a list?", "And a tuple?"} {
		require.NoError(t, c.WriteJSON(map[string]string{"content": content}))

		var turn turnMessage
		require.NoError(t, c.ReadJSON(&turn), "connection dropped after a turn longer than the read timeout")
		assert.Equal(t, "turn", turn.Type)
		assert.Equal(t, content, turn.Data.StudentMessage.Content)
	}
}

func TestWebSocketReportsFailedTurn(t *testing.T) {
	srv, f, sessionID := startServer(t)
	f.Gen.GenerateErr = apperr.Generation("reply", errors.New("upstream down"))
	c := dial(t, srv, sessionID)

	var hello outgoingMessage
	require.NoError(t, c.ReadJSON(&hello))

	require.NoError(t, c.WriteJSON(map[string]string{"content": ""}))
	var msg errorMessage
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)

	require.NoError(t, c.WriteJSON(map[string]string{"content": "hi"}))
	msg = errorMessage{}
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Data["message"], "upstream down")
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _, _ := startServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
