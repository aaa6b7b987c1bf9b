package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/rift-arena/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: сверять Origin со списком доверенных доменов фронтенда.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeTournament подключает клиента к комнате турнира.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "id")
}

// ServeGame подключает клиента к комнате кастомной игры.
func (h *WebSocketHandler) ServeGame(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "id")
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, param string) {
	roomID, err := uuidURLParam(r, param)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		h.logger.Warn("websocket upgrade failed",
			slog.String("room", roomID.String()),
			slog.Any("error", err),
		)
		return
	}

	client := live.NewClient(h.hub, conn, roomID.String())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
