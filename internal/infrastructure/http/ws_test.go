package http

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatSocket_ConversationAndClear(t *testing.T) {
	h := newHarness(t)
	conn := dialChat(t, h)

	var reply chatReply
	require.NoError(t, conn.WriteJSON(chatRequest{Question: "first question"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "answer", reply.Type)
	assert.Equal(t, "grounded answer", reply.Answer)
	require.NotNil(t, reply.TokenUsage)
	assert.Equal(t, 120, reply.TokenUsage.TotalTokens)

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "second question"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Len(t, h.llm.calls()[1], 3)

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "clear"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "cleared", reply.Type)

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "third question"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Len(t, h.llm.calls()[2], 1)
}

func TestChatSocket_ErrorKeepsConnectionOpen(t *testing.T) {
	h := newHarness(t)
	conn := dialChat(t, h)

	var reply chatReply
	require.NoError(t, conn.WriteJSON(chatRequest{Question: ""}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "InvalidInput", string(reply.Kind))

	require.NoError(t, conn.WriteJSON(chatRequest{Question: "still there?"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "answer", reply.Type)
}
