package model

import (
	"fmt"
	"slices"
)

// snapshot is the atomic undo record for one accepted ply.
type snapshot struct {
	board  *Board
	toMove Color
	ply    Ply
}

// GameState owns the board, the side to move and the snapshot stack. It is
// not safe for concurrent use; analyse a Clone instead.
type GameState struct {
	board   *Board
	toMove  Color
	history []snapshot
	status  Status
}

// NewGame returns the standard starting position with White to move.
func NewGame() *GameState {
	g := &GameState{}
	g.Reset()
	return g
}

// NewGameFromBoard starts a game from an arbitrary position. Each side needs
// exactly one king and the side not to move must not be in check.
func NewGameFromBoard(board *Board, toMove Color) (*GameState, error) {
	if toMove != White && toMove != Black {
		return nil, fmt.Errorf("%w: unknown side to move %q", ErrInvalidPosition, toMove)
	}
	for _, color := range []Color{White, Black} {
		kings := 0
		for _, pos := range board.PiecePositions(color) {
			if board.at(pos).Type == King {
				kings++
			}
		}
		if kings != 1 {
			return nil, fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, color, kings)
		}
	}
	g := &GameState{board: board.Clone(), toMove: toMove}
	if g.InCheck(toMove.Opponent()) {
		return nil, fmt.Errorf("%w: %s is in check but not to move", ErrInvalidPosition, toMove.Opponent())
	}
	g.status = g.computeStatus()
	return g, nil
}

func (g *GameState) Reset() {
	g.board = newBoard()
	g.toMove = White
	g.history = nil
	g.status = Status{Kind: InProgress}
}

// Clone returns an independent copy, history included.
func (g *GameState) Clone() *GameState {
	clone := &GameState{
		board:   g.board.Clone(),
		toMove:  g.toMove,
		history: make([]snapshot, len(g.history)),
		status:  g.status,
	}
	for i, s := range g.history {
		clone.history[i] = snapshot{board: s.board.Clone(), toMove: s.toMove, ply: s.ply}
	}
	return clone
}

// Board returns a copy of the current board.
func (g *GameState) Board() *Board {
	return g.board.Clone()
}

func (g *GameState) ToMove() Color {
	return g.toMove
}

func (g *GameState) Status() Status {
	return g.status
}

// MoveCount is the number of plies applied and not undone.
func (g *GameState) MoveCount() int {
	return len(g.history)
}

func (g *GameState) History() []Ply {
	plies := make([]Ply, len(g.history))
	for i, s := range g.history {
		plies[i] = s.ply
	}
	return plies
}

func (g *GameState) LastPly() (Ply, bool) {
	if len(g.history) == 0 {
		return Ply{}, false
	}
	return g.history[len(g.history)-1].ply, true
}

func (g *GameState) previousBoard() *Board {
	if len(g.history) == 0 {
		return nil
	}
	return g.history[len(g.history)-1].board
}

// LegalMoves lists the squares the piece on from can move to without leaving
// its own king attacked. Empty and out-of-range squares yield nil.
func (g *GameState) LegalMoves(from Position) []Position {
	if g.board.at(from) == nil {
		return nil
	}
	return g.filterLegalMoves(from, pseudoLegalMoves(g.board, g.previousBoard(), from))
}

// AllLegalMoves lists every legal move of color, piece by piece.
func (g *GameState) AllLegalMoves(color Color) []Move {
	moves := []Move{}
	for _, from := range g.board.PiecePositions(color) {
		for _, to := range g.LegalMoves(from) {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

func (g *GameState) filterLegalMoves(from Position, candidates []Position) []Position {
	legalMoves := []Position{}
	for _, to := range candidates {
		if g.isSafe(from, to) {
			legalMoves = append(legalMoves, to)
		}
	}
	return legalMoves
}

// isSafe plays from->to on a throwaway copy of the board and reports whether
// the mover's king survives it. Castling additionally needs the king out of
// check and the square it crosses unattacked.
func (g *GameState) isSafe(from, to Position) bool {
	piece := g.board.at(from)
	if target := g.board.at(to); target != nil && target.Type == King {
		return false
	}
	opponent := piece.Color.Opponent()
	if isCastle(piece, from, to) {
		if g.InCheck(piece.Color) {
			return false
		}
		crossed := Position{Rank: from.Rank, File: (from.File + to.File) / 2}
		if isSquareAttacked(g.board, opponent, crossed) {
			return false
		}
	}
	trial := g.board.Clone()
	promotion, _ := resolvePromotion(piece, to, "")
	performMove(trial, from, to, promotion)
	king, ok := trial.KingPosition(piece.Color)
	return ok && !isSquareAttacked(trial, opponent, king)
}

// ApplyMove commits mv for the side to move. A rejected move leaves the game
// exactly as it was.
func (g *GameState) ApplyMove(mv Move) (Ply, error) {
	if !mv.From.Valid() || !mv.To.Valid() {
		return Ply{}, fmt.Errorf("%w: %v -> %v", ErrOutOfBounds, mv.From, mv.To)
	}
	if g.status.IsOver() {
		return Ply{}, fmt.Errorf("%w: %v", ErrGameOver, g.status)
	}
	piece := g.board.at(mv.From)
	if piece == nil {
		return Ply{}, fmt.Errorf("%w: %v", ErrNoPieceAtSource, mv.From)
	}
	if piece.Color != g.toMove {
		return Ply{}, fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.toMove)
	}
	if !slices.Contains(pseudoLegalMoves(g.board, g.previousBoard(), mv.From), mv.To) {
		return Ply{}, fmt.Errorf("%w: %v", ErrIllegalMove, mv)
	}
	if target := g.board.at(mv.To); target != nil && target.Type == King {
		return Ply{}, fmt.Errorf("%w: %v captures a king", ErrIllegalMove, mv)
	}
	promotion, err := resolvePromotion(piece, mv.To, mv.Promotion)
	if err != nil {
		return Ply{}, err
	}
	mover := piece.Color
	opponent := mover.Opponent()
	if isCastle(piece, mv.From, mv.To) {
		crossed := Position{Rank: mv.From.Rank, File: (mv.From.File + mv.To.File) / 2}
		if g.InCheck(mover) || isSquareAttacked(g.board, opponent, crossed) {
			return Ply{}, fmt.Errorf("%w: cannot castle out of or through check", ErrSelfCheck)
		}
	}
	notation := g.getNotation(mv.From, mv.To, promotion)

	g.history = append(g.history, snapshot{board: g.board.Clone(), toMove: g.toMove})
	ply := performMove(g.board, mv.From, mv.To, promotion)
	if king, ok := g.board.KingPosition(mover); !ok || isSquareAttacked(g.board, opponent, king) {
		last := g.history[len(g.history)-1]
		g.history = g.history[:len(g.history)-1]
		g.board = last.board
		return Ply{}, fmt.Errorf("%w: %v", ErrSelfCheck, mv)
	}

	g.toMove = opponent
	g.status = g.computeStatus()
	switch g.status.Kind {
	case Checkmate:
		notation += "#"
	case Check:
		notation += "+"
	}
	ply.Notation = notation
	g.history[len(g.history)-1].ply = ply
	return ply, nil
}

// Undo restores the position before the last accepted ply, side to move
// included.
func (g *GameState) Undo() error {
	if len(g.history) == 0 {
		return ErrEmptyHistory
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.board = last.board
	g.toMove = last.toMove
	g.status = g.computeStatus()
	return nil
}

// IsAttacked reports whether any piece of by could move to square on the
// current board. Pawns attack diagonally only and pinned pieces still attack.
// A square holding one of by's own pieces is never attacked by by.
func (g *GameState) IsAttacked(square Position, by Color) bool {
	if !square.Valid() {
		return false
	}
	if p := g.board.at(square); p != nil && p.Color == by {
		return false
	}
	return isSquareAttacked(g.board, by, square)
}

func (g *GameState) InCheck(color Color) bool {
	king, ok := g.board.KingPosition(color)
	return ok && isSquareAttacked(g.board, color.Opponent(), king)
}

func (g *GameState) IsCheckmate(color Color) bool {
	return g.InCheck(color) && !g.hasLegalMove(color)
}

func (g *GameState) IsStalemate(color Color) bool {
	return !g.InCheck(color) && !g.hasLegalMove(color)
}

func (g *GameState) hasLegalMove(color Color) bool {
	for _, from := range g.board.PiecePositions(color) {
		if len(g.LegalMoves(from)) > 0 {
			return true
		}
	}
	return false
}

func (g *GameState) computeStatus() Status {
	color := g.toMove
	inCheck := g.InCheck(color)
	hasMove := g.hasLegalMove(color)
	switch {
	case inCheck && !hasMove:
		return Status{Kind: Checkmate, Color: color}
	case !hasMove:
		return Status{Kind: Stalemate}
	case inCheck:
		return Status{Kind: Check, Color: color}
	default:
		return Status{Kind: InProgress}
	}
}
