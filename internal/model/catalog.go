package model

var (
	rookDirs   = []Position{{Rank: 1}, {Rank: -1}, {File: 1}, {File: -1}}
	bishopDirs = []Position{{Rank: 1, File: 1}, {Rank: 1, File: -1}, {Rank: -1, File: 1}, {Rank: -1, File: -1}}
	queenDirs  = append(append([]Position{}, rookDirs...), bishopDirs...)
	kingDirs   = queenDirs
	knightDirs = []Position{
		{Rank: 2, File: 1}, {Rank: 2, File: -1}, {Rank: -2, File: 1}, {Rank: -2, File: -1},
		{Rank: 1, File: 2}, {Rank: 1, File: -2}, {Rank: -1, File: 2}, {Rank: -1, File: -2},
	}
)

// pseudoLegalMoves lists the destinations of the piece on from without
// regard to the safety of its own king. prev is the board as it stood before
// the last ply and may be nil.
func pseudoLegalMoves(board, prev *Board, from Position) []Position {
	piece := board.at(from)
	if piece == nil {
		return nil
	}
	switch piece.Type {
	case Pawn:
		return pseudoPawnMoves(board, prev, from, piece)
	case Knight:
		return stepMoves(board, from, piece, knightDirs)
	case Bishop:
		return slidingMoves(board, from, piece, bishopDirs)
	case Rook:
		return slidingMoves(board, from, piece, rookDirs)
	case Queen:
		return slidingMoves(board, from, piece, queenDirs)
	case King:
		return append(stepMoves(board, from, piece, kingDirs), castleMoves(board, from, piece)...)
	default:
		return nil
	}
}

func slidingMoves(board *Board, from Position, piece *Piece, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.offset(dir.Rank, dir.File)
		for target.Valid() {
			occupant := board.at(target)
			if occupant == nil {
				moves = append(moves, target)
			} else if occupant.Color != piece.Color {
				moves = append(moves, target)
				break
			} else {
				break
			}
			target = target.offset(dir.Rank, dir.File)
		}
	}
	return moves
}

func stepMoves(board *Board, from Position, piece *Piece, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.offset(dir.Rank, dir.File)
		if !target.Valid() {
			continue
		}
		if occupant := board.at(target); occupant == nil || occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

// castleMoves only checks occupancy and the unmoved flags. Check and transit
// safety belong to the legality filter.
func castleMoves(board *Board, from Position, piece *Piece) []Position {
	home := Position{Rank: piece.Color.homeRank(), File: 4}
	if piece.HasMoved || from != home {
		return nil
	}
	var moves []Position
	if castleRookReady(board, Position{Rank: home.Rank, File: 0}, piece.Color) &&
		board.isEmpty(home.offset(0, -1)) && board.isEmpty(home.offset(0, -2)) && board.isEmpty(home.offset(0, -3)) {
		moves = append(moves, home.offset(0, -2))
	}
	if castleRookReady(board, Position{Rank: home.Rank, File: 7}, piece.Color) &&
		board.isEmpty(home.offset(0, 1)) && board.isEmpty(home.offset(0, 2)) {
		moves = append(moves, home.offset(0, 2))
	}
	return moves
}

func castleRookReady(board *Board, pos Position, color Color) bool {
	rook := board.at(pos)
	return rook != nil && rook.Type == Rook && rook.Color == color && !rook.HasMoved
}

func pseudoPawnMoves(board, prev *Board, from Position, piece *Piece) []Position {
	moves := []Position{}
	dir := piece.Color.forward()

	one := from.offset(dir, 0)
	if board.isEmpty(one) {
		moves = append(moves, one)
		two := from.offset(2*dir, 0)
		startRank := piece.Color.homeRank() + dir
		if !piece.HasMoved && from.Rank == startRank && board.isEmpty(two) {
			moves = append(moves, two)
		}
	}
	for _, side := range []int{-1, 1} {
		target := from.offset(dir, side)
		if occupant := board.at(target); occupant != nil && occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	for _, side := range []int{-1, 1} {
		if enPassantAvailable(board, prev, from, piece, side) {
			moves = append(moves, from.offset(dir, side))
		}
	}
	return moves
}

// enPassantAvailable reports whether the pawn on from may capture the pawn
// beside it on the given side. The window is one ply: prev must show that
// pawn still on its starting square.
func enPassantAvailable(board, prev *Board, from Position, piece *Piece, side int) bool {
	if prev == nil {
		return false
	}
	dir := piece.Color.forward()
	if from.Rank != piece.Color.homeRank()+4*dir {
		return false
	}
	beside := from.offset(0, side)
	victim := board.at(beside)
	if victim == nil || victim.Type != Pawn || victim.Color == piece.Color {
		return false
	}
	origin := beside.offset(2*dir, 0)
	before := prev.at(origin)
	if before == nil || before.Type != Pawn || before.Color != victim.Color {
		return false
	}
	return board.isEmpty(origin) && prev.isEmpty(beside) && prev.isEmpty(beside.offset(dir, 0)) &&
		board.isEmpty(from.offset(dir, side))
}

// isSquareAttacked walks outward from position looking for an attacker,
// using the capture geometry of each piece kind. Pinned pieces still count.
func isSquareAttacked(board *Board, attackingColor Color, position Position) bool {
	for _, dir := range rookDirs {
		if slider := firstPieceAlong(board, position, dir); slider != nil &&
			slider.Color == attackingColor && (slider.Type == Rook || slider.Type == Queen) {
			return true
		}
	}
	for _, dir := range bishopDirs {
		if slider := firstPieceAlong(board, position, dir); slider != nil &&
			slider.Color == attackingColor && (slider.Type == Bishop || slider.Type == Queen) {
			return true
		}
	}
	for _, dir := range knightDirs {
		if p := board.at(position.offset(dir.Rank, dir.File)); p != nil && p.Color == attackingColor && p.Type == Knight {
			return true
		}
	}
	for _, dir := range kingDirs {
		if p := board.at(position.offset(dir.Rank, dir.File)); p != nil && p.Color == attackingColor && p.Type == King {
			return true
		}
	}
	// an attacking pawn sits one rank behind the square from its own point of view
	back := -attackingColor.forward()
	for _, side := range []int{-1, 1} {
		if p := board.at(position.offset(back, side)); p != nil && p.Color == attackingColor && p.Type == Pawn {
			return true
		}
	}
	return false
}

func firstPieceAlong(board *Board, from Position, dir Position) *Piece {
	target := from.offset(dir.Rank, dir.File)
	for target.Valid() {
		if p := board.at(target); p != nil {
			return p
		}
		target = target.offset(dir.Rank, dir.File)
	}
	return nil
}
