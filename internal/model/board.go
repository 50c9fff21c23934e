package model

import (
	"fmt"
	"strings"
)

type PieceType string

func (p PieceType) getPieceNotation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the rank delta of a pawn advance for this color.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) homeRank() int {
	if c == White {
		return 0
	}
	return 7
}

// Piece is a value; HasMoved only matters for kings, rooks and pawns.
type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

type Position struct {
	Rank int `json:"rank"`
	File int `json:"file"`
}

func (p Position) Valid() bool {
	return p.Rank >= 0 && p.Rank < 8 && p.File >= 0 && p.File < 8
}

func (p Position) offset(dRank, dFile int) Position {
	return Position{Rank: p.Rank + dRank, File: p.File + dFile}
}

func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Rank, p.File)
	}
	return p.getSquareNotation()
}

func (p Position) getSquareNotation() string {
	return fmt.Sprintf("%c%d", p.File+'a', p.Rank+1)
}

func (p Position) getFileNotation() string {
	return fmt.Sprintf("%c", p.File+'a')
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	pos := Position{Rank: int(s[1] - '1'), File: int(s[0] - 'a')}
	if !pos.Valid() {
		return Position{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	return pos, nil
}

// Board is an 8x8 grid indexed [rank][file]. It holds private copies of the
// pieces placed on it so no caller can alias a square.
type Board struct {
	squares [8][8]*Piece
}

func NewEmptyBoard() *Board {
	return &Board{}
}

func newBoard() *Board {
	board := &Board{}
	backRank := []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file, kind := range backRank {
		board.squares[0][file] = &Piece{Type: kind, Color: White}
		board.squares[7][file] = &Piece{Type: kind, Color: Black}
	}
	for file := 0; file < 8; file++ {
		board.squares[1][file] = &Piece{Type: Pawn, Color: White}
		board.squares[6][file] = &Piece{Type: Pawn, Color: Black}
	}
	return board
}

// Get returns the piece on pos. Out-of-range coordinates read as empty.
func (b *Board) Get(pos Position) (Piece, bool) {
	p := b.at(pos)
	if p == nil {
		return Piece{}, false
	}
	return *p, true
}

// Set writes piece (nil clears the square) without any legality checking.
func (b *Board) Set(pos Position, piece *Piece) error {
	if !pos.Valid() {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	if piece == nil {
		b.squares[pos.Rank][pos.File] = nil
		return nil
	}
	cp := *piece
	b.squares[pos.Rank][pos.File] = &cp
	return nil
}

func (b *Board) Clone() *Board {
	clone := &Board{}
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil {
				cp := *p
				clone.squares[r][f] = &cp
			}
		}
	}
	return clone
}

// Equal reports whether both boards hold the same pieces with the same flags.
func (b *Board) Equal(other *Board) bool {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			p, q := b.squares[r][f], other.squares[r][f]
			if (p == nil) != (q == nil) {
				return false
			}
			if p != nil && *p != *q {
				return false
			}
		}
	}
	return true
}

// Rows returns a copy of the grid, rank 8 first, for client rendering.
func (b *Board) Rows() [][]*Piece {
	rows := make([][]*Piece, 0, 8)
	for r := 7; r >= 0; r-- {
		row := make([]*Piece, 8)
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil {
				cp := *p
				row[f] = &cp
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (b *Board) KingPosition(color Color) (Position, bool) {
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil && p.Type == King && p.Color == color {
				return Position{Rank: r, File: f}, true
			}
		}
	}
	return Position{}, false
}

// PiecePositions lists the squares holding pieces of color, rank by rank.
func (b *Board) PiecePositions(color Color) []Position {
	var positions []Position
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil && p.Color == color {
				positions = append(positions, Position{Rank: r, File: f})
			}
		}
	}
	return positions
}

func (b *Board) at(pos Position) *Piece {
	if !pos.Valid() {
		return nil
	}
	return b.squares[pos.Rank][pos.File]
}

func (b *Board) isEmpty(pos Position) bool {
	return pos.Valid() && b.squares[pos.Rank][pos.File] == nil
}

func (b *Board) relocate(from, to Position) {
	b.squares[to.Rank][to.File] = b.squares[from.Rank][from.File]
	b.squares[from.Rank][from.File] = nil
}

func (b *Board) clear(pos Position) {
	b.squares[pos.Rank][pos.File] = nil
}

// String draws the board rank 8 first: upper case for White, lower case for
// Black and '.' for an empty square.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		fmt.Fprintf(&sb, "%d ", r+1)
		for f := 0; f < 8; f++ {
			sb.WriteByte(' ')
			sb.WriteString(b.squares[r][f].letter())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	return sb.String()
}

func (p *Piece) letter() string {
	if p == nil {
		return "."
	}
	l := string(fenLetters[p.Type])
	if p.Color == White {
		return strings.ToUpper(l)
	}
	return l
}
