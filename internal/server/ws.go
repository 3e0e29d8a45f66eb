package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/aiist007/JSpeak/internal/observability"
	"github.com/aiist007/JSpeak/internal/protocol"
	"github.com/aiist007/JSpeak/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local editor clients connect from arbitrary origins.
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// HandleWS bridges the JSONL protocol over a WebSocket: one request per text
// frame, one response per frame. Sessions started on a connection are
// finalized when it goes away, so a crashed editor cannot leak sessions.
func HandleWS(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l := observability.GetLogger()
			l.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		logger := observability.GetLogger().With().
			Str("component", "ws").
			Str("remote", r.RemoteAddr).
			Logger()
		logger.Info().Msg("WebSocket client connected")

		ctx := r.Context()
		owned := make(map[string]struct{})

		defer func() {
			for id := range owned {
				resp := svc.Handle(context.Background(), protocol.Request{
					Method: "stream_finalize",
					Params: protocol.Params{"session_id": id},
				})
				if !resp.OK {
					logger.Warn().Str("session_id", id).Msg("Failed to finalize orphaned session")
				}
			}
			logger.Info().Int("finalized", len(owned)).Msg("WebSocket client disconnected")
		}()

		for {
			msgType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn().Err(err).Msg("WebSocket read error")
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}

			var resp protocol.Response
			req, err := protocol.ParseRequest(message)
			if err != nil {
				resp = protocol.Err("", fmt.Sprintf("Bad request: %v", err))
			} else {
				resp = svc.Handle(ctx, req)
				trackOwnership(owned, req, resp)
			}

			if err := conn.WriteJSON(resp); err != nil {
				logger.Error().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}

// trackOwnership records which sessions this connection created and drops
// the ones it already finalized.
func trackOwnership(owned map[string]struct{}, req protocol.Request, resp protocol.Response) {
	if !resp.OK {
		return
	}
	switch req.Method {
	case "stream_start":
		if res, ok := resp.Result.(protocol.StreamStartResult); ok {
			owned[res.SessionID] = struct{}{}
		}
	case "stream_finalize":
		delete(owned, req.Params.String("session_id", ""))
	}
}
