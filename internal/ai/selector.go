// Package ai picks moves for a computer-controlled side. It is a greedy one-ply
// heuristic built only on the public GameState API: every candidate is played
// on a cloned state and scored by what it achieves.
package ai

import (
	"errors"
	"math/rand/v2"

	"github.com/benbeisheim/chess-backend/internal/model"
)

var ErrNoLegalMove = errors.New("no legal move available")

const (
	ScoreCheckmate = 9
	ScoreCheck     = 8
	ScoreQuiet     = 2
)

var captureScores = map[model.PieceType]int{
	model.Queen:  7,
	model.Rook:   6,
	model.Bishop: 5,
	model.Knight: 4,
	model.Pawn:   3,
}

type ScoredMove struct {
	Move  model.Move `json:"move"`
	Score int        `json:"score"`
}

// Selector is not safe for concurrent use; give each game its own.
type Selector struct {
	rng *rand.Rand
}

func NewSelector() *Selector {
	return NewSeededSelector(rand.Uint64())
}

func NewSeededSelector(seed uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Rank scores every legal move of color, grouped by piece in board order.
func (s *Selector) Rank(state *model.GameState, color model.Color) ([]ScoredMove, error) {
	if state.ToMove() != color {
		return nil, model.ErrNotYourTurn
	}
	var ranked []ScoredMove
	for _, from := range state.Board().PiecePositions(color) {
		for _, to := range state.LegalMoves(from) {
			mv := model.Move{From: from, To: to}
			ranked = append(ranked, ScoredMove{Move: mv, Score: scoreMove(state, mv)})
		}
	}
	if len(ranked) == 0 {
		return nil, ErrNoLegalMove
	}
	return ranked, nil
}

// SelectMove returns the best scoring move for color, breaking ties at random.
// With nothing better than a quiet move on offer it picks a random piece that
// can move and then a random move of that piece.
func (s *Selector) SelectMove(state *model.GameState, color model.Color) (model.Move, error) {
	ranked, err := s.Rank(state, color)
	if err != nil {
		return model.Move{}, err
	}

	best := ScoreQuiet
	for _, sm := range ranked {
		best = max(best, sm.Score)
	}
	if best == ScoreQuiet {
		return s.randomQuietMove(ranked), nil
	}

	var top []model.Move
	for _, sm := range ranked {
		if sm.Score == best {
			top = append(top, sm.Move)
		}
	}
	return top[s.rng.IntN(len(top))], nil
}

func (s *Selector) randomQuietMove(ranked []ScoredMove) model.Move {
	byPiece := map[model.Position][]model.Move{}
	var pieces []model.Position
	for _, sm := range ranked {
		if _, seen := byPiece[sm.Move.From]; !seen {
			pieces = append(pieces, sm.Move.From)
		}
		byPiece[sm.Move.From] = append(byPiece[sm.Move.From], sm.Move)
	}
	moves := byPiece[pieces[s.rng.IntN(len(pieces))]]
	return moves[s.rng.IntN(len(moves))]
}

func scoreMove(state *model.GameState, mv model.Move) int {
	trial := state.Clone()
	ply, err := trial.ApplyMove(mv)
	if err != nil {
		return 0
	}
	switch trial.Status().Kind {
	case model.Checkmate:
		return ScoreCheckmate
	case model.Check:
		return ScoreCheck
	}
	if ply.CapturedPiece != nil {
		if score, ok := captureScores[ply.CapturedPiece.Type]; ok {
			return score
		}
	}
	return ScoreQuiet
}
