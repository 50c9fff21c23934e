package model

import (
	"fmt"
	"strings"
)

var fenLetters = map[PieceType]byte{
	King:   'k',
	Queen:  'q',
	Rook:   'r',
	Bishop: 'b',
	Knight: 'n',
	Pawn:   'p',
}

// FEN describes the current position in Forsyth-Edwards Notation. Castling
// rights come from the unmoved flags; the halfmove clock is always 0.
func (g *GameState) FEN() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			p := g.board.squares[r][f]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			letter := fenLetters[p.Type]
			if p.Color == White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if g.toMove == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %s %s 0 %d", sb.String(), side, g.castlingRights(), g.enPassantTarget(), g.fullMoveNumber())
}

// fullMoveNumber starts at 1 and grows after each Black move, counting from
// whichever side was to move when the game began.
func (g *GameState) fullMoveNumber() int {
	root := g.toMove
	if len(g.history) > 0 {
		root = g.history[0].toMove
	}
	plies := len(g.history)
	if root == Black {
		plies++
	}
	return plies/2 + 1
}

func (g *GameState) castlingRights() string {
	var sb strings.Builder
	for _, color := range []Color{White, Black} {
		home := Position{Rank: color.homeRank(), File: 4}
		king := g.board.at(home)
		if king == nil || king.Type != King || king.Color != color || king.HasMoved {
			continue
		}
		kingSide, queenSide := "K", "Q"
		if color == Black {
			kingSide, queenSide = "k", "q"
		}
		if castleRookReady(g.board, Position{Rank: home.Rank, File: 7}, color) {
			sb.WriteString(kingSide)
		}
		if castleRookReady(g.board, Position{Rank: home.Rank, File: 0}, color) {
			sb.WriteString(queenSide)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// enPassantTarget is the square skipped by a double pawn push on the last ply.
func (g *GameState) enPassantTarget() string {
	last, ok := g.LastPly()
	if !ok || last.Piece.Type != Pawn || abs(last.To.Rank-last.From.Rank) != 2 {
		return "-"
	}
	return Position{Rank: (last.From.Rank + last.To.Rank) / 2, File: last.From.File}.getSquareNotation()
}
