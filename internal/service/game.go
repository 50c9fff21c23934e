package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benbeisheim/chess-backend/internal/ai"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
)

var (
	ErrGameFull    = errors.New("game is full")
	ErrNotInGame   = errors.New("player not in game")
	ErrUnknownMode = errors.New("unknown opponent mode")
)

// Opponent selects who sits across the board from the creator.
type Opponent string

const (
	// OpponentHuman seats a second player who joins later.
	OpponentHuman Opponent = "human"
	// OpponentComputer seats the move selector as Black.
	OpponentComputer Opponent = "computer"
	// OpponentLocal lets one player move for both sides.
	OpponentLocal Opponent = "local"
)

func ParseOpponent(s string) (Opponent, error) {
	switch Opponent(s) {
	case "", OpponentHuman:
		return OpponentHuman, nil
	case OpponentComputer, OpponentLocal:
		return Opponent(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

const computerPlayerID = "computer"

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex
	// sent is the sequence number of the newest state written, under writeMu.
	sent uint64
}

// claim reports whether the state numbered seq is newer than any already
// written and records it as sent. Callers hold writeMu.
func (gc *GameConnections) claim(seq uint64) bool {
	if seq <= gc.sent {
		return false
	}
	gc.sent = seq
	return true
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

// Game is one hosted session: the rules engine, its seats and its observers.
// All engine access goes through mu.
type Game struct {
	ID          string
	mu          sync.Mutex
	engine      *model.GameState
	opponent    Opponent
	selector    *ai.Selector
	players     Seats
	resignedBy  *model.Color
	connections *GameConnections
	// version numbers published views, under mu.
	version uint64
}

type Seats struct {
	White model.ClientPlayer `json:"white"`
	Black model.ClientPlayer `json:"black"`
}

type CapturedPieces struct {
	White []model.Piece `json:"white"`
	Black []model.Piece `json:"black"`
}

// GameView is the client-facing snapshot of a game.
type GameView struct {
	ID             string           `json:"id"`
	Opponent       Opponent         `json:"opponent"`
	Board          [][]*model.Piece `json:"board"`
	ToMove         model.Color      `json:"toMove"`
	Status         model.Status     `json:"status"`
	IsCheck        bool             `json:"isCheck"`
	MoveHistory    []model.Ply      `json:"moveHistory"`
	CapturedPieces CapturedPieces   `json:"capturedPieces"`
	LastMove       *model.Move      `json:"lastMove"`
	FEN            string           `json:"fen"`
	Diagram        string           `json:"diagram"`
	Resolve        *string          `json:"resolve"`
	Winner         *model.Color     `json:"winner"`
	Players        Seats            `json:"players"`
}

func NewGame(id string, opponent Opponent) *Game {
	g := &Game{
		ID:          id,
		engine:      model.NewGame(),
		opponent:    opponent,
		connections: NewGameConnections(),
	}
	if opponent == OpponentComputer {
		g.selector = ai.NewSelector()
		g.players.Black = model.ClientPlayer{ID: computerPlayerID, Color: model.Black, Computer: true}
	}
	return g
}

func (g *Game) AddPlayer(playerID string) (model.Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if colors := g.seatsOf(playerID); len(colors) > 0 {
		return colors[0], nil
	}
	if g.players.White.ID == "" {
		g.players.White = model.ClientPlayer{ID: playerID, Color: model.White}
		if g.opponent == OpponentLocal {
			g.players.Black = model.ClientPlayer{ID: playerID, Color: model.Black}
		}
		return model.White, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = model.ClientPlayer{ID: playerID, Color: model.Black}
		return model.Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) seatsOf(playerID string) []model.Color {
	var colors []model.Color
	if playerID == "" {
		return colors
	}
	if g.players.White.ID == playerID {
		colors = append(colors, model.White)
	}
	if g.players.Black.ID == playerID {
		colors = append(colors, model.Black)
	}
	return colors
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seatsOf(playerID)) > 0
}

func (g *Game) canSpectate() bool {
	return g.players.White.ID == "" || g.players.Black.ID == ""
}

func (g *Game) GetView() GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view()
}

func (g *Game) LegalMoves(square model.Position) []model.Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.LegalMoves(square)
}

// AllLegalMoves lists every legal move of the side to move.
func (g *Game) AllLegalMoves() []model.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resignedBy != nil {
		return nil
	}
	return g.engine.AllLegalMoves(g.engine.ToMove())
}

// MakeMove applies mv on behalf of playerID and, against the computer,
// answers with the selector's reply.
func (g *Game) MakeMove(playerID string, mv model.Move) (model.Ply, error) {
	g.mu.Lock()
	ply, err := g.makeMove(playerID, mv)
	if err != nil {
		g.mu.Unlock()
		return model.Ply{}, err
	}
	if g.opponent == OpponentComputer && !g.engine.Status().IsOver() {
		g.playComputerMove()
	}
	seq, view := g.publish()
	g.mu.Unlock()

	go g.broadcastState(seq, view)
	return ply, nil
}

func (g *Game) makeMove(playerID string, mv model.Move) (model.Ply, error) {
	if g.resignedBy != nil {
		return model.Ply{}, model.ErrGameOver
	}
	seats := g.seatsOf(playerID)
	if len(seats) == 0 {
		return model.Ply{}, ErrNotInGame
	}
	toMove := g.engine.ToMove()
	mine := false
	for _, c := range seats {
		mine = mine || c == toMove
	}
	if !mine {
		return model.Ply{}, model.ErrNotYourTurn
	}
	ply, err := g.engine.ApplyMove(mv)
	if err != nil {
		fmt.Printf("game %s: rejected %v from %s: %v\n", g.ID, mv, playerID, err)
		return model.Ply{}, err
	}
	fmt.Printf("game %s: %s played %s\n", g.ID, toMove, ply.Notation)
	return ply, nil
}

func (g *Game) playComputerMove() {
	color := g.engine.ToMove()
	mv, err := g.selector.SelectMove(g.engine, color)
	if err != nil {
		fmt.Printf("game %s: computer has no move: %v\n", g.ID, err)
		return
	}
	ply, err := g.engine.ApplyMove(mv)
	if err != nil {
		fmt.Printf("game %s: computer move %v rejected: %v\n", g.ID, mv, err)
		return
	}
	fmt.Printf("game %s: computer played %s\n", g.ID, ply.Notation)
}

// SuggestMove asks the selector for the side to move without playing it.
func (g *Game) SuggestMove() (model.Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	selector := g.selector
	if selector == nil {
		selector = ai.NewSelector()
	}
	return selector.SelectMove(g.engine, g.engine.ToMove())
}

// Undo takes back the last ply. Against the computer it keeps going until the
// human is to move again.
func (g *Game) Undo(playerID string) error {
	g.mu.Lock()
	seats := g.seatsOf(playerID)
	if len(seats) == 0 {
		g.mu.Unlock()
		return ErrNotInGame
	}
	if err := g.engine.Undo(); err != nil {
		g.mu.Unlock()
		return err
	}
	for g.opponent == OpponentComputer && g.engine.ToMove() != seats[0] {
		if err := g.engine.Undo(); err != nil {
			break
		}
	}
	g.resignedBy = nil
	seq, view := g.publish()
	g.mu.Unlock()

	go g.broadcastState(seq, view)
	return nil
}

func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	seats := g.seatsOf(playerID)
	if len(seats) == 0 {
		g.mu.Unlock()
		return ErrNotInGame
	}
	if g.resignedBy != nil || g.engine.Status().IsOver() {
		g.mu.Unlock()
		return model.ErrGameOver
	}
	color := seats[0]
	if len(seats) > 1 {
		color = g.engine.ToMove()
	}
	g.resignedBy = &color
	seq, view := g.publish()
	g.mu.Unlock()

	go g.broadcastState(seq, view)
	return nil
}

func (g *Game) Reset(playerID string) error {
	g.mu.Lock()
	if len(g.seatsOf(playerID)) == 0 {
		g.mu.Unlock()
		return ErrNotInGame
	}
	g.engine.Reset()
	g.resignedBy = nil
	seq, view := g.publish()
	g.mu.Unlock()

	go g.broadcastState(seq, view)
	return nil
}

// publish stamps the current view with the next sequence number. Callers
// hold mu.
func (g *Game) publish() (uint64, GameView) {
	g.version++
	return g.version, g.view()
}

func (g *Game) view() GameView {
	status := g.engine.Status()
	history := g.engine.History()
	v := GameView{
		ID:             g.ID,
		Opponent:       g.opponent,
		Board:          g.engine.Board().Rows(),
		ToMove:         g.engine.ToMove(),
		Status:         status,
		IsCheck:        status.Kind == model.Check || status.Kind == model.Checkmate,
		MoveHistory:    history,
		CapturedPieces: capturedPieces(history),
		FEN:            g.engine.FEN(),
		Diagram:        g.engine.Board().String(),
		Players:        g.players,
	}
	if last, ok := g.engine.LastPly(); ok {
		mv := last.Move()
		v.LastMove = &mv
	}
	switch {
	case g.resignedBy != nil:
		result := "resignation"
		winner := g.resignedBy.Opponent()
		v.Resolve, v.Winner = &result, &winner
	case status.Kind == model.Checkmate:
		result := "checkmate"
		winner := status.Color.Opponent()
		v.Resolve, v.Winner = &result, &winner
	case status.Kind == model.Stalemate:
		result := "stalemate"
		v.Resolve = &result
	}
	return v
}

// capturedPieces groups captures by the side that made them.
func capturedPieces(history []model.Ply) CapturedPieces {
	captured := CapturedPieces{
		White: make([]model.Piece, 0),
		Black: make([]model.Piece, 0),
	}
	for _, ply := range history {
		if ply.CapturedPiece == nil {
			continue
		}
		switch ply.Piece.Color {
		case model.White:
			captured.White = append(captured.White, *ply.CapturedPiece)
		case model.Black:
			captured.Black = append(captured.Black, *ply.CapturedPiece)
		}
	}
	return captured
}

func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	connID := fmt.Sprintf("%p", conn)
	fmt.Printf("Starting RegisterConnection for player %s, conn %s\n", playerID, connID)

	g.mu.Lock()
	isAuthorized := len(g.seatsOf(playerID)) > 0 || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return errors.New("not authorized to join this game")
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// keep the healthy connection, reject the duplicate
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	fmt.Printf("Registered new connection %s for player %s\n", connID, playerID)

	// stamped after the connection is listed, so no newer state can skip it
	g.mu.Lock()
	seq, view := g.publish()
	g.mu.Unlock()

	go g.broadcastState(seq, view)
	return nil
}

func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	current, exists := g.connections.connections[playerID]
	if !exists {
		return
	}
	// only drop the entry if it still points at this connection
	if conn == nil || current == conn {
		fmt.Printf("Unregistering connection %p for player %s\n", current, playerID)
		delete(g.connections.connections, playerID)
	} else {
		fmt.Printf("Ignoring unregister for old connection %p for player %s\n", conn, playerID)
	}
}

// broadcastState writes view to every connection unless a newer view has
// already gone out.
func (g *Game) broadcastState(seq uint64, view GameView) {
	payload, err := json.Marshal(view)
	if err != nil {
		fmt.Println("Failed to marshal state to JSON", err)
		return
	}

	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	if !g.connections.claim(seq) {
		fmt.Printf("game %s: dropping stale state %d\n", g.ID, seq)
		return
	}

	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(ws.Message{
			Type:    ws.MessageTypeGameState,
			Payload: json.RawMessage(payload),
		}); err != nil {
			fmt.Println("Failed to send state to player", playerID, err)
			g.UnregisterConnection(playerID, conn)
		}
	}
}

// Send writes msg to a single connection, serialised with broadcasts.
func (g *Game) Send(conn *websocket.Conn, msg ws.Message) error {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
