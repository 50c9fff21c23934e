package model

import (
	"testing"
)

func sq(s string) Position {
	pos, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return pos
}

// uci reads moves such as "e2e4" or "e7e8n".
func uci(s string) Move {
	mv := Move{From: sq(s[0:2]), To: sq(s[2:4])}
	if len(s) == 5 {
		promo, err := ParsePromotion(s[4:])
		if err != nil {
			panic(err)
		}
		mv.Promotion = promo
	}
	return mv
}

func play(t *testing.T, g *GameState, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if _, err := g.ApplyMove(uci(m)); err != nil {
			t.Fatalf("ApplyMove(%s): %v", m, err)
		}
	}
}

type placement struct {
	square string
	piece  Piece
}

func wk(s string) placement { return placement{s, Piece{Type: King, Color: White}} }
func bk(s string) placement { return placement{s, Piece{Type: King, Color: Black}} }
func at(s string, t PieceType, c Color) placement {
	return placement{s, Piece{Type: t, Color: c}}
}

func position(t *testing.T, toMove Color, pieces ...placement) *GameState {
	t.Helper()
	board := NewEmptyBoard()
	for _, p := range pieces {
		piece := p.piece
		if err := board.Set(sq(p.square), &piece); err != nil {
			t.Fatalf("Set(%s): %v", p.square, err)
		}
	}
	g, err := NewGameFromBoard(board, toMove)
	if err != nil {
		t.Fatalf("NewGameFromBoard: %v", err)
	}
	return g
}

func squares(names ...string) []Position {
	out := make([]Position, 0, len(names))
	for _, n := range names {
		out = append(out, sq(n))
	}
	return out
}
