package ai

import (
	"errors"
	"testing"

	"github.com/benbeisheim/chess-backend/internal/model"
)

func sq(t *testing.T, s string) model.Position {
	t.Helper()
	pos, err := model.ParseSquare(s)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func setup(t *testing.T, toMove model.Color, pieces map[string]model.Piece) *model.GameState {
	t.Helper()
	board := model.NewEmptyBoard()
	for square, piece := range pieces {
		p := piece
		if err := board.Set(sq(t, square), &p); err != nil {
			t.Fatal(err)
		}
	}
	state, err := model.NewGameFromBoard(board, toMove)
	if err != nil {
		t.Fatal(err)
	}
	return state
}

func scoreOf(ranked []ScoredMove, mv model.Move) (int, bool) {
	for _, sm := range ranked {
		if sm.Move == mv {
			return sm.Score, true
		}
	}
	return 0, false
}

func TestSelectMoveTakesTheQueen(t *testing.T) {
	state := setup(t, model.White, map[string]model.Piece{
		"a1": {Type: model.King, Color: model.White},
		"c3": {Type: model.Knight, Color: model.White},
		"d5": {Type: model.Queen, Color: model.Black},
		"h8": {Type: model.King, Color: model.Black},
		"g7": {Type: model.Pawn, Color: model.Black},
		"h7": {Type: model.Pawn, Color: model.Black},
	})
	want := model.Move{From: sq(t, "c3"), To: sq(t, "d5")}

	for seed := uint64(0); seed < 20; seed++ {
		got, err := NewSeededSelector(seed).SelectMove(state, model.White)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		if got != want {
			t.Fatalf("seed %d: selected %v, want %v", seed, got, want)
		}
	}
}

func TestSelectMovePrefersMate(t *testing.T) {
	state := setup(t, model.White, map[string]model.Piece{
		"a1": {Type: model.King, Color: model.White},
		"e1": {Type: model.Rook, Color: model.White},
		"f1": {Type: model.Bishop, Color: model.White},
		"a6": {Type: model.Knight, Color: model.Black},
		"h8": {Type: model.King, Color: model.Black},
		"g7": {Type: model.Pawn, Color: model.Black},
		"h7": {Type: model.Pawn, Color: model.Black},
	})
	mate := model.Move{From: sq(t, "e1"), To: sq(t, "e8")}
	capture := model.Move{From: sq(t, "f1"), To: sq(t, "a6")}

	ranked, err := NewSeededSelector(1).Rank(state, model.White)
	if err != nil {
		t.Fatal(err)
	}
	if score, ok := scoreOf(ranked, mate); !ok || score != ScoreCheckmate {
		t.Errorf("mate scored %d (%v), want %d", score, ok, ScoreCheckmate)
	}
	if score, ok := scoreOf(ranked, capture); !ok || score != captureScores[model.Knight] {
		t.Errorf("knight capture scored %d (%v), want %d", score, ok, captureScores[model.Knight])
	}

	got, err := NewSeededSelector(1).SelectMove(state, model.White)
	if err != nil {
		t.Fatal(err)
	}
	if got != mate {
		t.Errorf("selected %v, want %v", got, mate)
	}
	// ranking must not disturb the position
	if state.MoveCount() != 0 || state.ToMove() != model.White {
		t.Error("ranking changed the game state")
	}
}

func TestRankScoresCheck(t *testing.T) {
	state := model.NewGame()
	for _, m := range [][2]string{{"e2", "e4"}, {"f7", "f6"}} {
		if _, err := state.ApplyMove(model.Move{From: sq(t, m[0]), To: sq(t, m[1])}); err != nil {
			t.Fatal(err)
		}
	}
	ranked, err := NewSeededSelector(3).Rank(state, model.White)
	if err != nil {
		t.Fatal(err)
	}
	check := model.Move{From: sq(t, "d1"), To: sq(t, "h5")}
	if score, ok := scoreOf(ranked, check); !ok || score != ScoreCheck {
		t.Errorf("Qh5+ scored %d (%v), want %d", score, ok, ScoreCheck)
	}
	quiet := model.Move{From: sq(t, "a2"), To: sq(t, "a3")}
	if score, ok := scoreOf(ranked, quiet); !ok || score != ScoreQuiet {
		t.Errorf("a3 scored %d (%v), want %d", score, ok, ScoreQuiet)
	}
}

func TestSelectMoveQuietPositionIsRandomButLegal(t *testing.T) {
	state := model.NewGame()
	legal := map[model.Move]bool{}
	for _, mv := range state.AllLegalMoves(model.White) {
		legal[mv] = true
	}

	pieces := map[model.Position]bool{}
	for seed := uint64(0); seed < 200; seed++ {
		mv, err := NewSeededSelector(seed).SelectMove(state, model.White)
		if err != nil {
			t.Fatal(err)
		}
		if !legal[mv] {
			t.Fatalf("seed %d: %v is not legal", seed, mv)
		}
		pieces[mv.From] = true
	}
	if len(pieces) < 2 {
		t.Errorf("200 selections all used the same piece: %v", pieces)
	}
}

func TestSelectMoveSameSeedSameMove(t *testing.T) {
	state := model.NewGame()
	a, err := NewSeededSelector(42).SelectMove(state, model.White)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSeededSelector(42).SelectMove(state, model.White)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same seed picked %v and %v", a, b)
	}
}

func TestSelectMoveErrors(t *testing.T) {
	state := model.NewGame()
	if _, err := NewSelector().SelectMove(state, model.Black); !errors.Is(err, model.ErrNotYourTurn) {
		t.Errorf("wrong side error = %v, want ErrNotYourTurn", err)
	}

	for _, m := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		if _, err := state.ApplyMove(model.Move{From: sq(t, m[0]), To: sq(t, m[1])}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := NewSelector().SelectMove(state, model.White); !errors.Is(err, ErrNoLegalMove) {
		t.Errorf("mated side error = %v, want ErrNoLegalMove", err)
	}
}
