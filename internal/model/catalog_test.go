package model

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPseudoLegalMoveOrder(t *testing.T) {
	start := newBoard()

	tests := []struct {
		name  string
		board *Board
		from  string
		want  []Position
	}{
		{
			name:  "knight from b1",
			board: start,
			from:  "b1",
			want:  squares("c3", "a3"),
		},
		{
			name:  "pawn single then double push",
			board: start,
			from:  "e2",
			want:  squares("e3", "e4"),
		},
		{
			name:  "blocked rook",
			board: start,
			from:  "a1",
			want:  []Position{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pseudoLegalMoves(tt.board, nil, sq(tt.from))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("moves mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlidingMovesStopAtPieces(t *testing.T) {
	board := NewEmptyBoard()
	board.Set(sq("d4"), &Piece{Type: Rook, Color: White})
	board.Set(sq("d6"), &Piece{Type: Pawn, Color: Black})
	board.Set(sq("f4"), &Piece{Type: Pawn, Color: White})

	got := pseudoLegalMoves(board, nil, sq("d4"))
	want := squares("d5", "d6", "d3", "d2", "d1", "e4", "c4", "b4", "a4")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rook moves mismatch (-want +got):\n%s", diff)
	}
}

func TestPawnCapturesLowerFileFirst(t *testing.T) {
	board := NewEmptyBoard()
	board.Set(sq("e4"), &Piece{Type: Pawn, Color: White, HasMoved: true})
	board.Set(sq("e5"), &Piece{Type: Pawn, Color: Black})
	board.Set(sq("d5"), &Piece{Type: Knight, Color: Black})
	board.Set(sq("f5"), &Piece{Type: Bishop, Color: Black})

	got := pseudoLegalMoves(board, nil, sq("e4"))
	if diff := cmp.Diff(squares("d5", "f5"), got); diff != "" {
		t.Errorf("pawn moves mismatch (-want +got):\n%s", diff)
	}
}

func TestBlackPawnMovesDown(t *testing.T) {
	got := pseudoLegalMoves(newBoard(), nil, sq("d7"))
	if diff := cmp.Diff(squares("d6", "d5"), got); diff != "" {
		t.Errorf("pawn moves mismatch (-want +got):\n%s", diff)
	}
}

func TestCastleMovesQueensideFirst(t *testing.T) {
	board := NewEmptyBoard()
	board.Set(sq("e1"), &Piece{Type: King, Color: White})
	board.Set(sq("a1"), &Piece{Type: Rook, Color: White})
	board.Set(sq("h1"), &Piece{Type: Rook, Color: White})

	got := pseudoLegalMoves(board, nil, sq("e1"))
	if len(got) < 2 || got[len(got)-2] != sq("c1") || got[len(got)-1] != sq("g1") {
		t.Fatalf("castling targets missing or out of order: %v", got)
	}

	board.Set(sq("b1"), &Piece{Type: Knight, Color: White})
	got = pseudoLegalMoves(board, nil, sq("e1"))
	if slices.Contains(got, sq("c1")) {
		t.Error("queenside castling offered with b1 occupied")
	}
	if !slices.Contains(got, sq("g1")) {
		t.Error("kingside castling missing")
	}
}

func TestIsSquareAttackedGeometry(t *testing.T) {
	board := NewEmptyBoard()
	board.Set(sq("d3"), &Piece{Type: Pawn, Color: Black})
	board.Set(sq("a8"), &Piece{Type: Rook, Color: Black})
	board.Set(sq("a5"), &Piece{Type: Pawn, Color: White})
	board.Set(sq("h8"), &Piece{Type: Bishop, Color: Black})
	board.Set(sq("g1"), &Piece{Type: Knight, Color: Black})

	tests := []struct {
		square string
		want   bool
	}{
		{"c2", true},  // pawn diagonal
		{"e2", true},  // pawn diagonal
		{"d2", false}, // pawn push is not an attack
		{"a6", true},  // rook down the file up to the blocker
		{"a5", true},  // the blocker itself
		{"a4", false}, // behind the blocker
		{"b2", true},  // long diagonal from h8
		{"h3", true},  // knight
		{"f3", true},  // knight
		{"h4", false},
	}
	for _, tt := range tests {
		if got := isSquareAttacked(board, Black, sq(tt.square)); got != tt.want {
			t.Errorf("isSquareAttacked(%s) = %v, want %v", tt.square, got, tt.want)
		}
	}
	if !isSquareAttacked(board, White, sq("b6")) {
		t.Error("white pawn on a5 should attack b6")
	}
}
