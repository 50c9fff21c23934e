package model

import (
	"fmt"
	"strings"
)

// getNotation renders the move in short algebraic form against the position
// before it is played. Check suffixes are added by the caller.
func (g *GameState) getNotation(from, to Position, promotion PieceType) string {
	piece := g.board.at(from)
	if isCastle(piece, from, to) {
		if to.File > from.File {
			return "O-O"
		}
		return "O-O-O"
	}
	capture := g.board.at(to) != nil || (piece.Type == Pawn && from.File != to.File)

	var sb strings.Builder
	sb.WriteString(piece.Type.getPieceNotation())
	if piece.Type == Pawn {
		if capture {
			sb.WriteString(from.getFileNotation())
		}
	} else {
		sb.WriteString(g.disambiguation(piece, from, to))
	}
	if capture {
		sb.WriteString("x")
	}
	sb.WriteString(to.getSquareNotation())
	if promotion != "" {
		sb.WriteString("=" + promotion.getPieceNotation())
	}
	return sb.String()
}

// disambiguation returns the file, rank or full square needed to tell piece
// apart from another of its kind that can also reach to.
func (g *GameState) disambiguation(piece *Piece, from, to Position) string {
	sameFile, sameRank, rivals := false, false, false
	for _, pos := range g.board.PiecePositions(piece.Color) {
		other := g.board.at(pos)
		if pos == from || other.Type != piece.Type {
			continue
		}
		for _, dest := range g.LegalMoves(pos) {
			if dest != to {
				continue
			}
			rivals = true
			if pos.File == from.File {
				sameFile = true
			}
			if pos.Rank == from.Rank {
				sameRank = true
			}
		}
	}
	switch {
	case !rivals:
		return ""
	case !sameFile:
		return from.getFileNotation()
	case !sameRank:
		return fmt.Sprintf("%d", from.Rank+1)
	default:
		return from.getSquareNotation()
	}
}
