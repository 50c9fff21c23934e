// Package mcp exposes the chess engine to Model Context Protocol clients.
//
// Tools:
//   - new_game: start a game (local, computer or human opponent)
//   - legal_moves: list legal moves for a square or for the side to move
//   - apply_move: play a move given in algebraic squares
//   - undo: take back the last move
//   - status: in progress, check, checkmate or stalemate
//   - select_move: ask the heuristic selector for a move, optionally playing it
//   - game_state: board diagram, FEN and move history
//
// The server acts as a single player; in a local game it moves for both sides.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const DefaultPlayerID = "mcp-agent"

type Server struct {
	games     *service.GameService
	playerID  string
	mcpServer *server.MCPServer
}

func NewServer(games *service.GameService, playerID string) *Server {
	if playerID == "" {
		playerID = DefaultPlayerID
	}
	s := &Server{games: games, playerID: playerID}
	s.initMCPServer()
	return s
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage answers one JSON-RPC message, for HTTP transports.
func (s *Server) HandleMessage(ctx context.Context, body []byte) ([]byte, error) {
	response := s.mcpServer.HandleMessage(ctx, body)
	return json.Marshal(response)
}

func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Chess",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Chess - MCP Interface

Squares use algebraic coordinates: files a-h, ranks 1-8, White starts on ranks 1 and 2.

AVAILABLE TOOLS:
- new_game: start a game, returns game_id. opponent "local" (default) lets you move both sides
- legal_moves: legal destinations for a square, or every legal move of the side to move
- apply_move: play from/to, with an optional promotion piece (q, r, b, n; queen by default)
- undo: take back the last move
- status: in_progress, check, checkmate or stalemate for the side to move
- select_move: heuristic suggestion (mate > check > capture by value > quiet), apply=true plays it
- game_state: board diagram, FEN and move history`),
	)

	s.registerTools()
}

func gameIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Game ID returned by new_game",
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Start a new game from the standard position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"opponent": map[string]interface{}{
					"type":        "string",
					"description": "local (you play both sides), computer (selector plays Black) or human",
					"enum":        []string{"local", "computer", "human"},
				},
			},
		},
	}, s.handleNewGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List legal moves for one square, or for the side to move when square is omitted",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"square": map[string]interface{}{
					"type":        "string",
					"description": "Origin square such as e2 (optional)",
				},
			},
			Required: []string{"game_id"},
		},
	}, s.handleLegalMoves)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "apply_move",
		Description: "Play a move for the side to move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"from": map[string]interface{}{
					"type":        "string",
					"description": "Origin square, e.g. e2",
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": "Destination square, e.g. e4",
				},
				"promotion": map[string]interface{}{
					"type":        "string",
					"description": "Promotion piece: q, r, b or n (optional, queen by default)",
				},
			},
			Required: []string{"game_id", "from", "to"},
		},
	}, s.handleApplyMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Take back the last move",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, s.handleUndo)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "status",
		Description: "Report whether the side to move is in check, mated or stalemated",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, s.handleStatus)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "select_move",
		Description: "Ask the heuristic move selector for the side to move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"apply": map[string]interface{}{
					"type":        "boolean",
					"description": "Play the selected move as well",
				},
			},
			Required: []string{"game_id"},
		},
	}, s.handleSelectMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Board diagram, FEN, side to move and move history",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, s.handleGameState)
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

// Tool handlers

func (s *Server) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	mode, _ := args["opponent"].(string)
	if mode == "" {
		mode = string(service.OpponentLocal)
	}
	opponent, err := service.ParseOpponent(mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gameID, color, err := s.games.StartGame(s.playerID, opponent)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nOpponent: %s\nYou play: %s\n", gameID, opponent, color)
	if opponent == service.OpponentLocal {
		result = fmt.Sprintf("Created game: %s\nOpponent: %s\nYou play: both sides\n", gameID, opponent)
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	square, _ := args["square"].(string)

	if square != "" {
		from, err := model.ParseSquare(square)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		targets, err := s.games.LegalMoves(gameID, from)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		squares := make([]string, 0, len(targets))
		for _, t := range targets {
			squares = append(squares, t.String())
		}
		if len(squares) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No legal moves from %s\n", from)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Legal moves from %s: %s\n", from, strings.Join(squares, " "))), nil
	}

	moves, err := s.games.AllLegalMoves(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveList(moves)), nil
}

func (s *Server) handleApplyMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	from, _ := args["from"].(string)
	to, _ := args["to"].(string)
	promotion, _ := args["promotion"].(string)

	mv, err := model.ParseMove(from, to, promotion)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ply, err := s.games.HandleMove(gameID, s.playerID, mv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.games.GetGameView(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Played %s\n\n%s", ply.Notation, formatGameView(view))), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	if err := s.games.Undo(gameID, s.playerID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.games.GetGameView(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Move taken back\n\n" + formatGameView(view)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	view, err := s.games.GetGameView(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStatus(view)), nil
}

func (s *Server) handleSelectMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	apply, _ := args["apply"].(bool)

	mv, err := s.games.SuggestMove(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !apply {
		return mcp.NewToolResultText(fmt.Sprintf("Suggested move: %s\n", mv)), nil
	}

	ply, err := s.games.HandleMove(gameID, s.playerID, mv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.games.GetGameView(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Played %s\n\n%s", ply.Notation, formatGameView(view))), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	view, err := s.games.GetGameView(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameView(view)), nil
}

// Formatting helpers

func formatMoveList(moves []model.Move) string {
	if len(moves) == 0 {
		return "No legal moves\n"
	}
	parts := make([]string, 0, len(moves))
	for _, mv := range moves {
		parts = append(parts, mv.String())
	}
	return fmt.Sprintf("Legal moves (%d): %s\n", len(moves), strings.Join(parts, " "))
}

func formatStatus(view service.GameView) string {
	switch {
	case view.Resolve != nil && view.Winner != nil:
		return fmt.Sprintf("Game over: %s, %s wins\n", *view.Resolve, *view.Winner)
	case view.Resolve != nil:
		return fmt.Sprintf("Game over: %s\n", *view.Resolve)
	case view.Status.Kind == model.Check:
		return fmt.Sprintf("%s to move and in check\n", view.ToMove)
	}
	return fmt.Sprintf("%s to move\n", view.ToMove)
}

func formatGameView(view service.GameView) string {
	var sb strings.Builder
	sb.WriteString(view.Diagram)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "FEN: %s\n", view.FEN)
	sb.WriteString(formatStatus(view))
	if len(view.MoveHistory) > 0 {
		sb.WriteString("Moves:")
		for i, ply := range view.MoveHistory {
			if i%2 == 0 {
				fmt.Fprintf(&sb, " %d.", i/2+1)
			}
			sb.WriteString(" " + ply.Notation)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
