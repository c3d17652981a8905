package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/0xcro3dile/docqa-go/internal/domain/conversation"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type chatRequest struct {
	Type     string `json:"type,omitempty"`
	Question string `json:"question"`
	Limit    int    `json:"limit,omitempty"`
}

type chatReply struct {
	Type           string               `json:"type"`
	Answer         string               `json:"answer,omitempty"`
	RelevantChunks []chunkView          `json:"relevantChunks,omitempty"`
	TokenUsage     *entities.TokenUsage `json:"tokenUsage,omitempty"`
	Error          string               `json:"error,omitempty"`
	Kind           failures.Kind        `json:"kind,omitempty"`
}

// handleChatSocket serves a conversational session over a websocket. The
// connection owns its history; requests are handled one at a time.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	history := conversation.NewHistory(s.opts.HistoryLimit)
	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("Chat socket connected")

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Chat socket read failed")
			}
			return
		}

		var reply chatReply
		switch req.Type {
		case "clear":
			history.Clear()
			reply = chatReply{Type: "cleared"}
		default:
			answer, err := s.query.Converse(ctx, history, req.Question, s.topK(req.Limit))
			if err != nil {
				reply = chatReply{Type: "error", Error: failures.DetailOf(err), Kind: failures.KindOf(err)}
				break
			}
			reply = chatReply{
				Type:           "answer",
				Answer:         answer.Text,
				RelevantChunks: chunkViews(answer.Results),
				TokenUsage:     &answer.Usage,
			}
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn().Err(err).Msg("Chat socket write failed")
			return
		}
	}
}
