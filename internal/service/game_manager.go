// service/game_manager.go
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type GameManager struct {
	games            map[string]*Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex
	done             chan struct{}
	closeOnce        sync.Once
	// pendingMatches holds match events for players who were not waiting
	// when they were paired. The next wait delivers them.
	pendingMatches map[string]string
}

func NewGameManager() *GameManager {
	gm := &GameManager{
		games:            make(map[string]*Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		pendingMatches:   make(map[string]string),
		done:             make(chan struct{}),
	}

	go gm.processMatchmaking(time.Second)

	return gm
}

// Close stops the matchmaking loop.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() { close(gm.done) })
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	fmt.Println("Registering matchmaking channel for player", playerID)

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		fmt.Println("Found existing channel for player", playerID)
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	if event, ok := gm.pendingMatches[playerID]; ok {
		select {
		case ch <- event:
			fmt.Println("Delivered pending match to player", playerID)
			delete(gm.pendingMatches, playerID)
			close(ch)
			return nil
		default:
		}
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

func (gm *GameManager) UnregisterMatchmakingChannel(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	fmt.Println("Unregistering matchmaking channel for player", playerID)

	// the channel's creator closes it
	delete(gm.matchingChannels, playerID)
}

func (gm *GameManager) processMatchmaking(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.matchQueuedPlayers()
		}
	}
}

// matchQueuedPlayers pairs waiting players into fresh games, oldest first.
func (gm *GameManager) matchQueuedPlayers() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := NewGame(gameID, OpponentHuman)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			fmt.Println("Error adding player to game", err)
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			fmt.Println("Error adding player to game", err)
			continue
		}
		gm.games[gameID] = game

		gm.notifyMatch(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		gm.notifyMatch(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
	}
}

// notifyMatch hands event to the player's waiting channel, or parks it until
// the player next waits. Callers hold gm.mu.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) {
	payload := mustJSON(event)
	if ch, ok := gm.matchingChannels[playerID]; ok {
		select {
		case ch <- payload:
			fmt.Printf("Sent match found event to player %s\n", playerID)
			delete(gm.matchingChannels, playerID)
			close(ch)
			return
		default:
			fmt.Printf("Failed to send event to player %s\n", playerID)
		}
	}
	gm.pendingMatches[playerID] = payload
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID string, opponent Opponent) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = NewGame(gameID, opponent)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	fmt.Println("Adding player to game", gameID, playerID)
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	gm.mu.Lock()
	delete(gm.pendingMatches, playerID)
	gm.mu.Unlock()

	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		fmt.Println("Error adding player to matchmaking queue:", err)
		return err
	}
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.Remove(playerID)
}

func (gm *GameManager) GetGameView(gameID string) (GameView, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return GameView{}, err
	}
	return game.GetView(), nil
}

func (gm *GameManager) LegalMoves(gameID string, square model.Position) ([]model.Position, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(square), nil
}

func (gm *GameManager) AllLegalMoves(gameID string) ([]model.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.AllLegalMoves(), nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, move model.Move) (model.Ply, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.Ply{}, err
	}
	return game.MakeMove(playerID, move)
}

func (gm *GameManager) Undo(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Undo(playerID)
}

func (gm *GameManager) Resign(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Resign(playerID)
}

func (gm *GameManager) Reset(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Reset(playerID)
}

func (gm *GameManager) SuggestMove(gameID string) (model.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.Move{}, err
	}
	return game.SuggestMove()
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

func (gm *GameManager) SendMessage(gameID string, conn *websocket.Conn, msg ws.Message) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Send(conn, msg)
}
