package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tordrt/ddlschema/internal/ddl"
)

// newUpgrader builds the websocket upgrader. With no allowed origins only
// same-origin clients may connect; "*" allows any origin.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if len(allowedOrigins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		}
	}
	return upgrader
}

// handleWebSocket parses every text or binary message as a SQL dump and
// replies with the snapshot array
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFromContext(r.Context())

	// The handshake response is written by the upgrader, not through w
	conn, err := s.upgrader.Upgrade(w, r, http.Header{RequestIDHeader: []string{requestID}})
	if err != nil {
		// Upgrade has already written the error response
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxUploadBytes)
	logger := s.logger.With(zap.String("request_id", requestID))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var reply any
		if len(data) == 0 {
			reply = errorResponse{Detail: detailEmptyMessage}
		} else {
			reply = s.extractor.Extract(ddl.DecodeSQL(data))
		}

		body, err := encodeJSON(reply)
		if err != nil {
			logger.Error("failed to encode websocket reply", zap.Error(err))
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
