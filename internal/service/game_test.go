package service

import (
	"errors"
	"testing"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/google/go-cmp/cmp"
)

func move(t *testing.T, s string) model.Move {
	t.Helper()
	mv, err := model.ParseMove(s[0:2], s[2:4], s[4:])
	if err != nil {
		t.Fatal(err)
	}
	return mv
}

func mustMove(t *testing.T, g *Game, playerID string, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if _, err := g.MakeMove(playerID, move(t, m)); err != nil {
			t.Fatalf("MakeMove(%s, %s): %v", playerID, m, err)
		}
	}
}

func TestParseOpponent(t *testing.T) {
	tests := []struct {
		in      string
		want    Opponent
		wantErr bool
	}{
		{"", OpponentHuman, false},
		{"human", OpponentHuman, false},
		{"computer", OpponentComputer, false},
		{"local", OpponentLocal, false},
		{"alien", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOpponent(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseOpponent(%q) error = %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseOpponent(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestAddPlayerSeats(t *testing.T) {
	g := NewGame("g1", OpponentHuman)

	color, err := g.AddPlayer("alice")
	if err != nil || color != model.White {
		t.Fatalf("first player: %s, %v", color, err)
	}
	color, err = g.AddPlayer("bob")
	if err != nil || color != model.Black {
		t.Fatalf("second player: %s, %v", color, err)
	}
	if color, err = g.AddPlayer("alice"); err != nil || color != model.White {
		t.Errorf("rejoin: %s, %v", color, err)
	}
	if _, err := g.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("third player error = %v, want ErrGameFull", err)
	}
	if !g.IsPlayerInGame("bob") || g.IsPlayerInGame("carol") {
		t.Error("IsPlayerInGame disagrees with seats")
	}
}

func TestHumanGameTurns(t *testing.T) {
	g := NewGame("g1", OpponentHuman)
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	if _, err := g.MakeMove("bob", move(t, "e7e5")); !errors.Is(err, model.ErrNotYourTurn) {
		t.Errorf("black moving first error = %v, want ErrNotYourTurn", err)
	}
	if _, err := g.MakeMove("carol", move(t, "e2e4")); !errors.Is(err, ErrNotInGame) {
		t.Errorf("outsider error = %v, want ErrNotInGame", err)
	}
	if _, err := g.MakeMove("alice", move(t, "e2e5")); !errors.Is(err, model.ErrIllegalMove) {
		t.Errorf("illegal move error = %v, want ErrIllegalMove", err)
	}

	ply, err := g.MakeMove("alice", move(t, "e2e4"))
	if err != nil {
		t.Fatal(err)
	}
	if ply.Notation != "e4" {
		t.Errorf("notation = %q", ply.Notation)
	}

	view := g.GetView()
	if view.ToMove != model.Black || len(view.MoveHistory) != 1 {
		t.Errorf("view: to move %s, %d plies", view.ToMove, len(view.MoveHistory))
	}
	wantLast := &model.Move{From: model.Position{Rank: 1, File: 4}, To: model.Position{Rank: 3, File: 4}}
	if diff := cmp.Diff(wantLast, view.LastMove); diff != "" {
		t.Errorf("last move mismatch:\n%s", diff)
	}
	if view.FEN != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Errorf("FEN = %s", view.FEN)
	}
}

func TestComputerReplies(t *testing.T) {
	g := NewGame("g1", OpponentComputer)
	color, err := g.AddPlayer("alice")
	if err != nil || color != model.White {
		t.Fatalf("AddPlayer: %s, %v", color, err)
	}

	mustMove(t, g, "alice", "e2e4")
	view := g.GetView()
	if len(view.MoveHistory) != 2 || view.ToMove != model.White {
		t.Fatalf("after reply: %d plies, %s to move", len(view.MoveHistory), view.ToMove)
	}
	if !view.Players.Black.Computer {
		t.Error("black seat not marked as computer")
	}

	if err := g.Undo("alice"); err != nil {
		t.Fatal(err)
	}
	view = g.GetView()
	if len(view.MoveHistory) != 0 || view.ToMove != model.White {
		t.Errorf("after undo: %d plies, %s to move", len(view.MoveHistory), view.ToMove)
	}
}

func TestLocalGameMovesBothSides(t *testing.T) {
	g := NewGame("g1", OpponentLocal)
	g.AddPlayer("alice")

	mustMove(t, g, "alice", "f2f3", "e7e5", "g2g4", "d8h4")
	view := g.GetView()
	if view.Resolve == nil || *view.Resolve != "checkmate" {
		t.Fatalf("resolve = %v", view.Resolve)
	}
	if view.Winner == nil || *view.Winner != model.Black {
		t.Errorf("winner = %v", view.Winner)
	}
	if !view.IsCheck || view.Status.Kind != model.Checkmate {
		t.Errorf("status = %v", view.Status)
	}
	if _, err := g.SuggestMove(); err == nil {
		t.Error("suggestion offered in a finished game")
	}
}

func TestResign(t *testing.T) {
	g := NewGame("g1", OpponentHuman)
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	if err := g.Resign("carol"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("outsider resign error = %v", err)
	}
	if err := g.Resign("bob"); err != nil {
		t.Fatal(err)
	}
	view := g.GetView()
	if view.Resolve == nil || *view.Resolve != "resignation" || view.Winner == nil || *view.Winner != model.White {
		t.Errorf("resolve %v, winner %v", view.Resolve, view.Winner)
	}
	if _, err := g.MakeMove("alice", move(t, "e2e4")); !errors.Is(err, model.ErrGameOver) {
		t.Errorf("move after resignation error = %v, want ErrGameOver", err)
	}
	if err := g.Resign("alice"); !errors.Is(err, model.ErrGameOver) {
		t.Errorf("second resignation error = %v", err)
	}
}

func TestReset(t *testing.T) {
	g := NewGame("g1", OpponentLocal)
	g.AddPlayer("alice")
	mustMove(t, g, "alice", "e2e4", "e7e5")

	if err := g.Reset("bob"); !errors.Is(err, ErrNotInGame) {
		t.Errorf("outsider reset error = %v", err)
	}
	if err := g.Reset("alice"); err != nil {
		t.Fatal(err)
	}
	view := g.GetView()
	if len(view.MoveHistory) != 0 || view.ToMove != model.White || view.LastMove != nil {
		t.Errorf("after reset: %d plies, %s to move", len(view.MoveHistory), view.ToMove)
	}
}

func TestUndoNeedsHistory(t *testing.T) {
	g := NewGame("g1", OpponentLocal)
	g.AddPlayer("alice")
	if err := g.Undo("alice"); !errors.Is(err, model.ErrEmptyHistory) {
		t.Errorf("error = %v, want ErrEmptyHistory", err)
	}
}

func TestCapturedPieces(t *testing.T) {
	g := NewGame("g1", OpponentLocal)
	g.AddPlayer("alice")
	mustMove(t, g, "alice", "e2e4", "d7d5", "e4d5", "d8d5")

	got := g.GetView().CapturedPieces
	want := CapturedPieces{
		White: []model.Piece{{Type: model.Pawn, Color: model.Black, HasMoved: true}},
		Black: []model.Piece{{Type: model.Pawn, Color: model.White, HasMoved: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}
}

func TestLegalMovesAndSuggestion(t *testing.T) {
	g := NewGame("g1", OpponentHuman)
	moves := g.LegalMoves(model.Position{Rank: 0, File: 6})
	want := []model.Position{{Rank: 2, File: 7}, {Rank: 2, File: 5}}
	if diff := cmp.Diff(want, moves); diff != "" {
		t.Errorf("g1 moves mismatch (-want +got):\n%s", diff)
	}
	if n := len(g.AllLegalMoves()); n != 20 {
		t.Errorf("%d moves at the start", n)
	}

	mv, err := g.SuggestMove()
	if err != nil {
		t.Fatal(err)
	}
	legal := false
	for _, m := range g.AllLegalMoves() {
		legal = legal || m == mv
	}
	if !legal {
		t.Errorf("suggested %v is not legal", mv)
	}
}

func TestStateUpdatesAreNumberedInOrder(t *testing.T) {
	g := NewGame("g1", OpponentLocal)
	g.AddPlayer("alice")
	mustMove(t, g, "alice", "e2e4", "e7e5")
	if err := g.Undo("alice"); err != nil {
		t.Fatal(err)
	}

	g.mu.Lock()
	seq, view := g.publish()
	g.mu.Unlock()
	if seq != 4 {
		t.Errorf("fourth published state numbered %d", seq)
	}
	if len(view.MoveHistory) != 1 || view.ToMove != model.Black {
		t.Errorf("view: %d plies, %s to move", len(view.MoveHistory), view.ToMove)
	}
}

func TestStaleStatesAreNotSent(t *testing.T) {
	conns := NewGameConnections()
	steps := []struct {
		seq  uint64
		want bool
	}{
		{2, true},
		{1, false}, // overtaken by 2
		{2, false},
		{3, true},
	}
	for _, step := range steps {
		if got := conns.claim(step.seq); got != step.want {
			t.Errorf("claim(%d) = %v, want %v", step.seq, got, step.want)
		}
	}
}
