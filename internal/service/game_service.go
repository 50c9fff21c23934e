package service

import (
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(opponent Opponent) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, opponent); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

// StartGame creates a game and seats playerID in one step.
func (gs *GameService) StartGame(playerID string, opponent Opponent) (string, model.Color, error) {
	gameID, err := gs.CreateGame(opponent)
	if err != nil {
		return "", "", err
	}
	color, err := gs.JoinGame(gameID, playerID)
	if err != nil {
		return "", "", err
	}
	return gameID, color, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameView(gameID string) (GameView, error) {
	return gs.gameManager.GetGameView(gameID)
}

func (gs *GameService) LegalMoves(gameID string, square model.Position) ([]model.Position, error) {
	return gs.gameManager.LegalMoves(gameID, square)
}

func (gs *GameService) AllLegalMoves(gameID string) ([]model.Move, error) {
	return gs.gameManager.AllLegalMoves(gameID)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.Move) (model.Ply, error) {
	return gs.gameManager.MakeMove(gameID, playerID, move)
}

func (gs *GameService) Undo(gameID string, playerID string) error {
	return gs.gameManager.Undo(gameID, playerID)
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	return gs.gameManager.Resign(gameID, playerID)
}

func (gs *GameService) Reset(gameID string, playerID string) error {
	return gs.gameManager.Reset(gameID, playerID)
}

func (gs *GameService) SuggestMove(gameID string) (model.Move, error) {
	return gs.gameManager.SuggestMove(gameID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID)
}

func (gs *GameService) SendMessage(gameID string, conn *websocket.Conn, msg ws.Message) error {
	return gs.gameManager.SendMessage(gameID, conn, msg)
}
