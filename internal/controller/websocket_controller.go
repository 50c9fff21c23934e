package controller

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
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
	gameID, _ := c.Locals(middleware.WSGameIDKey).(string)
	playerID, _ := c.Locals(middleware.WSPlayerIDKey).(string)
	fmt.Printf("WebSocket connection established for game %s, player %s\n", gameID, playerID)

	// Register this connection with the game
	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Printf("Failed to register connection: %v", err)
		c.WriteJSON(ws.NewErrorMessage(err.Error()))
		c.Close()
		return
	}

	// Start message handling loop
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("read error: %v", err)
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("parse error: %v", err)
			wsc.sendError(gameID, c, "malformed message")
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Printf("handle error: %v", err)
			wsc.sendError(gameID, c, err.Error())
		}
	}

	// Clean up when connection closes
	wsc.gameService.UnregisterConnection(gameID, playerID, c)
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var payload ws.MovePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		mv, err := model.ParseMove(payload.From, payload.To, payload.Promotion)
		if err != nil {
			return err
		}
		_, err = wsc.gameService.HandleMove(gameID, playerID, mv)
		return err

	case ws.MessageTypeUndo:
		return wsc.gameService.Undo(gameID, playerID)

	case ws.MessageTypeResign:
		return wsc.gameService.Resign(gameID, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// Helper method to send error messages
func (wsc *WebSocketController) sendError(gameID string, c *websocket.Conn, errorMsg string) {
	if err := wsc.gameService.SendMessage(gameID, c, ws.NewErrorMessage(errorMsg)); err != nil {
		log.Printf("failed to send error: %v", err)
	}
}
