package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/onlinechess-backend/internal/model"
	"github.com/benbeisheim/onlinechess-backend/internal/service"
	"github.com/benbeisheim/onlinechess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	code := c.Params("code")
	playerID, _ := c.Locals("playerID").(string)

	// Register this connection with the game
	if err := wsc.gameService.RegisterConnection(code, playerID, c); err != nil {
		log.Warnw("failed to register connection", "game", code, "player", playerID, "error", err)
		if err := c.WriteJSON(errorMessage(err)); err != nil {
			log.Debugw("failed to send error", "game", code, "player", playerID, "error", err)
		}
		if err := c.Close(); err != nil {
			log.Debugw("failed to close connection", "game", code, "player", playerID, "error", err)
		}
		return
	}

	// Start message handling loop
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugw("read error", "game", code, "player", playerID, "error", err)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}
		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugw("parse error", "game", code, "player", playerID, "error", err)
			continue
		}

		if err := wsc.handleMessage(code, playerID, msg); err != nil {
			log.Infow("message rejected", "game", code, "player", playerID, "type", msg.Type, "error", err)
			if err := wsc.gameService.SendTo(code, playerID, errorMessage(err)); err != nil {
				log.Debugw("failed to send error", "game", code, "player", playerID, "error", err)
			}
		}
	}

	// Clean up when connection closes
	wsc.gameService.UnregisterConnection(code, playerID, c)
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(code, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		return wsc.gameService.HandleMove(code, playerID, move)

	case ws.MessageTypeValidMoves:
		var req ws.ValidMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		moves, err := wsc.gameService.ValidMoves(code, model.Position{Row: req.Position[0], Col: req.Position[1]})
		if err != nil {
			return err
		}
		resp := ws.ValidMovesResponse{Position: req.Position, Moves: make([][2]int, 0, len(moves))}
		for _, m := range moves {
			resp.Moves = append(resp.Moves, [2]int{m.Row, m.Col})
		}
		out, err := ws.NewMessage(ws.MessageTypeValidMoves, resp)
		if err != nil {
			return err
		}
		return wsc.gameService.SendTo(code, playerID, out)

	case ws.MessageTypeReady:
		_, err := wsc.gameService.SetReady(code, playerID)
		return err

	case ws.MessageTypeReset:
		return wsc.gameService.ResetGame(code, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and holds the socket open until a
// match is found or the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("playerID").(string)

	matches := make(chan model.MatchFoundEvent, 1)
	if err := wsc.gameService.ListenForMatch(playerID, matches); err != nil {
		log.Warnw("failed to join matchmaking", "player", playerID, "error", err)
		if err := c.WriteJSON(errorMessage(err)); err != nil {
			log.Debugw("failed to send error", "player", playerID, "error", err)
		}
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, matches)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-matches:
		if !ok {
			// replaced by a newer matchmaking socket for the same player
			return
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, event)
		if err != nil {
			log.Errorw("failed to marshal match", "player", playerID, "error", err)
			return
		}
		if err := c.WriteJSON(msg); err != nil {
			log.Warnw("failed to send match", "player", playerID, "error", err)
		}
	case <-gone:
		// a newer socket for the player keeps the queue slot
		if wsc.gameService.UnregisterMatchmakingChannel(playerID, matches) {
			wsc.gameService.LeaveMatchmaking(playerID)
			log.Infow("player left matchmaking", "player", playerID)
		}
	}
}

func errorMessage(err error) ws.Message {
	msg, marshalErr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Message: err.Error()})
	if marshalErr != nil {
		return ws.Message{Type: ws.MessageTypeError}
	}
	return msg
}
