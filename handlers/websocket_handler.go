package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	logger            *slog.Logger
}

// NewWebSocketHandler builds the live scoreboard endpoint. checkOrigin may be nil to
// accept every origin.
func NewWebSocketHandler(hub *brackets.Hub, ts services.TournamentService, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeWs subscribes the client to a tournament's updates: /ws/tournaments/{tournamentID}.
// The current published scoreboard is sent right after the upgrade.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	board, err := h.tournamentService.GetPublicStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Warn("websocket upgrade failed", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: brackets.RoomForTournament(tournamentID),
	}
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	if err := client.SendMessage(brackets.WebSocketMessage{
		Type:    brackets.MessageScoresPublished,
		Payload: board,
		RoomID:  client.Room,
	}); err != nil {
		h.logger.Warn("failed to send initial scoreboard", slog.String("tournament_id", tournamentID), slog.Any("error", err))
	}
	h.logger.Debug("websocket client subscribed", slog.String("room", client.Room))
}
