package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbeisheim/capturechess-backend/internal/model"
)

func newTestManager(t *testing.T, opts Options) *GameManager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewGameManager(ctx, opts)
}

func TestCreateAndFetchGame(t *testing.T) {
	gm := newTestManager(t, Options{})

	if err := gm.CreateGame("g1", model.Rules{ForcedCapture: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := gm.CreateGame("g1", model.Rules{}); !errors.Is(err, ErrGameExists) {
		t.Fatalf("expected duplicate rejected, got %v", err)
	}
	game, err := gm.GetGame("g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !game.Rules().ForcedCapture {
		t.Fatalf("expected forced capture rules kept")
	}
	if _, err := gm.GetGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := gm.LegalMoves("missing", model.Square{Row: 6, Col: 4}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreateGameUsesDefaultRules(t *testing.T) {
	gm := newTestManager(t, Options{Rules: model.Rules{ForcedCapture: true}})
	gs := NewGameService(gm)

	id, err := gs.CreateGame(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	state, err := gs.GetGameState(id)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.Rules.ForcedCapture {
		t.Fatalf("expected default forced capture")
	}

	id, err = gs.CreateGame(&model.Rules{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	state, _ = gs.GetGameState(id)
	if state.Rules.ForcedCapture {
		t.Fatalf("expected explicit rules to override the default")
	}
}

func TestServiceMoveFlow(t *testing.T) {
	gm := newTestManager(t, Options{})
	gs := NewGameService(gm)
	id, _ := gs.CreateGame(nil)

	if color, err := gs.JoinGame(id, "alice"); err != nil || color != model.White {
		t.Fatalf("join alice: %s %v", color, err)
	}
	if color, err := gs.JoinGame(id, "bob"); err != nil || color != model.Black {
		t.Fatalf("join bob: %s %v", color, err)
	}

	moves, err := gs.LegalMoves(id, model.Square{Row: 6, Col: 4})
	if err != nil || len(moves) != 2 {
		t.Fatalf("expected two pawn moves, got %v %v", moves, err)
	}

	err = gs.HandleMove(id, "alice", model.MoveRequest{From: model.Square{Row: 6, Col: 4}, To: model.Square{Row: 3, Col: 4}})
	if !errors.Is(err, model.ErrInvalidMove) {
		t.Fatalf("expected invalid move, got %v", err)
	}
	err = gs.HandleMove(id, "alice", model.MoveRequest{From: model.Square{Row: 6, Col: 4}, To: model.Square{Row: 4, Col: 4}})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := gs.Resign(id, "bob"); err != nil {
		t.Fatalf("resign: %v", err)
	}
}

func TestMatchmakingPairsQueuedPlayers(t *testing.T) {
	gm := newTestManager(t, Options{MatchInterval: 5 * time.Millisecond})

	chA := make(chan string, 1)
	chB := make(chan string, 1)
	if err := gm.RegisterMatchmakingChannel("a", chA); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := gm.RegisterMatchmakingChannel("b", chB); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if err := gm.JoinMatchmaking("a"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := gm.JoinMatchmaking("a"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Fatalf("expected duplicate rejected, got %v", err)
	}
	if err := gm.JoinMatchmaking("b"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	events := map[string]model.MatchFoundEvent{}
	for player, ch := range map[string]chan string{"a": chA, "b": chB} {
		select {
		case raw := <-ch:
			var ev model.MatchFoundEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			events[player] = ev
		case <-time.After(2 * time.Second):
			t.Fatalf("no match event for %s", player)
		}
	}

	if events["a"].GameID == "" || events["a"].GameID != events["b"].GameID {
		t.Fatalf("expected both players in one game, got %+v", events)
	}
	if events["a"].Color != model.White || events["b"].Color != model.Black {
		t.Fatalf("expected a white and b black, got %+v", events)
	}
	game, err := gm.GetGame(events["a"].GameID)
	if err != nil {
		t.Fatalf("matched game missing: %v", err)
	}
	if !game.IsPlayerInGame("a") || !game.IsPlayerInGame("b") {
		t.Fatalf("players not seated")
	}
}

func TestRegisterMatchmakingChannelReplacesOld(t *testing.T) {
	gm := newTestManager(t, Options{MatchInterval: time.Hour})

	old := make(chan string, 1)
	_ = gm.RegisterMatchmakingChannel("a", old)
	_ = gm.RegisterMatchmakingChannel("a", make(chan string, 1))

	if _, ok := <-old; ok {
		t.Fatalf("expected the replaced channel closed")
	}
}

func TestEnterMatchmakingReconnect(t *testing.T) {
	gm := newTestManager(t, Options{MatchInterval: time.Hour})

	first := make(chan string, 1)
	if err := gm.EnterMatchmaking("a", first); err != nil {
		t.Fatalf("enter a: %v", err)
	}
	second := make(chan string, 1)
	if err := gm.EnterMatchmaking("a", second); err != nil {
		t.Fatalf("reconnecting a: %v", err)
	}
	if _, ok := <-first; ok {
		t.Fatalf("expected the first channel closed")
	}
	if gm.queue.Size() != 1 {
		t.Fatalf("expected a queued once, got %d", gm.queue.Size())
	}

	// The replaced socket going away must not drop the live one.
	gm.CancelMatchmaking("a", first)
	if gm.queue.Size() != 1 {
		t.Fatalf("stale cancel removed a from the queue")
	}

	opponent := make(chan string, 1)
	if err := gm.EnterMatchmaking("b", opponent); err != nil {
		t.Fatalf("enter b: %v", err)
	}
	gm.matchPending()

	for player, ch := range map[string]chan string{"a": second, "b": opponent} {
		raw, ok := <-ch
		if !ok {
			t.Fatalf("%s was not told about the match", player)
		}
		var ev model.MatchFoundEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil || ev.GameID == "" {
			t.Fatalf("bad event for %s: %q %v", player, raw, err)
		}
	}
}

func TestCancelMatchmaking(t *testing.T) {
	gm := newTestManager(t, Options{MatchInterval: time.Hour})

	ch := make(chan string, 1)
	if err := gm.EnterMatchmaking("a", ch); err != nil {
		t.Fatalf("enter: %v", err)
	}
	gm.CancelMatchmaking("a", ch)
	if gm.queue.Size() != 0 {
		t.Fatalf("expected the queue empty after cancel")
	}
	if err := gm.EnterMatchmaking("", make(chan string, 1)); !errors.Is(err, ErrInvalidPlayers) {
		t.Fatalf("expected invalid player, got %v", err)
	}
}
