package model

import (
	"fmt"
	"strings"
)

// Move is a request to relocate the piece on From. Promotion is optional and
// defaults to a queen.
type Move struct {
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Promotion PieceType `json:"promotion,omitempty"`
}

func (m Move) String() string {
	if m.Promotion != "" {
		return fmt.Sprintf("%v%v=%s", m.From, m.To, m.Promotion.getPieceNotation())
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// ParsePromotion accepts a piece letter or name, in any case. An empty string
// leaves the choice to the default.
func ParsePromotion(s string) (PieceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "q", "queen":
		return Queen, nil
	case "r", "rook":
		return Rook, nil
	case "b", "bishop":
		return Bishop, nil
	case "n", "knight":
		return Knight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPromotion, s)
}

// ParseMove builds a Move from algebraic squares such as "e7", "e8" and "n".
func ParseMove(from, to, promotion string) (Move, error) {
	f, err := ParseSquare(from)
	if err != nil {
		return Move{}, err
	}
	t, err := ParseSquare(to)
	if err != nil {
		return Move{}, err
	}
	promo, err := ParsePromotion(promotion)
	if err != nil {
		return Move{}, err
	}
	return Move{From: f, To: t, Promotion: promo}, nil
}

type CastleRookMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Ply records one accepted move.
type Ply struct {
	Piece          Piece           `json:"piece"`
	From           Position        `json:"from"`
	To             Position        `json:"to"`
	CapturedPiece  *Piece          `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	EnPassant      bool            `json:"enPassant"`
	Promotion      PieceType       `json:"promotion"`
	Notation       string          `json:"notation"`
}

func (p Ply) Move() Move {
	return Move{From: p.From, To: p.To, Promotion: p.Promotion}
}

func isCastle(piece *Piece, from, to Position) bool {
	return piece.Type == King && from.Rank == to.Rank && abs(to.File-from.File) == 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// resolvePromotion picks the piece a pawn becomes on the far rank.
func resolvePromotion(piece *Piece, to Position, requested PieceType) (PieceType, error) {
	if piece.Type != Pawn || to.Rank != piece.Color.Opponent().homeRank() {
		return "", nil
	}
	switch requested {
	case "":
		return Queen, nil
	case Queen, Rook, Bishop, Knight:
		return requested, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPromotion, requested)
	}
}

// performMove relocates the piece on from and applies the side effects that
// travel with it: castling rook, en passant removal, promotion and the moved
// flag. It does not check legality.
func performMove(board *Board, from, to Position, promotion PieceType) Ply {
	piece := board.at(from)
	ply := Ply{
		Piece:     *piece,
		From:      from,
		To:        to,
		Promotion: promotion,
	}
	if captured := board.at(to); captured != nil {
		cp := *captured
		ply.CapturedPiece = &cp
	}

	if piece.Type == Pawn && from.File != to.File && board.at(to) == nil {
		victimSquare := Position{Rank: from.Rank, File: to.File}
		if victim := board.at(victimSquare); victim != nil {
			cp := *victim
			ply.CapturedPiece = &cp
			ply.EnPassant = true
			board.clear(victimSquare)
		}
	}

	if isCastle(piece, from, to) {
		rookFrom := Position{Rank: from.Rank, File: 7}
		rookTo := Position{Rank: from.Rank, File: 5}
		if to.File < from.File {
			rookFrom = Position{Rank: from.Rank, File: 0}
			rookTo = Position{Rank: from.Rank, File: 3}
		}
		if rook := board.at(rookFrom); rook != nil {
			rook.HasMoved = true
			board.relocate(rookFrom, rookTo)
			ply.CastleRookMove = &CastleRookMove{From: rookFrom, To: rookTo}
		}
	}

	board.relocate(from, to)
	piece.HasMoved = true
	if promotion != "" {
		board.squares[to.Rank][to.File] = &Piece{Type: promotion, Color: piece.Color, HasMoved: true}
	}
	return ply
}
