package main

import (
	"reflect"
	"testing"
)

func TestTallyBallots(t *testing.T) {
	selections := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"b"},
		"d": {noImposterVote},
	}
	locked := map[string]bool{"a": true, "b": true, "c": true, "d": true}

	counts := tallyBallots(selections, locked)
	want := map[string]int{"b": 2, "c": 1, noImposterVote: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("got %v, want %v", counts, want)
	}

	if got := topCandidates(counts); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("got votedOut %v, want [b]", got)
	}
}

func TestTallyIgnoresUnlockedBallots(t *testing.T) {
	selections := map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
	}
	locked := map[string]bool{"a": true}

	counts := tallyBallots(selections, locked)
	if !reflect.DeepEqual(counts, map[string]int{"b": 1}) {
		t.Fatalf("got %v, unlocked ballot leaked in", counts)
	}
}

func TestTopCandidatesTie(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 1}
	if got := topCandidates(counts); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("got %v, want sorted tie [a b]", got)
	}

	if got := topCandidates(map[string]int{}); got != nil {
		t.Fatalf("got %v from empty counts, want nil", got)
	}
}

// driveToVoting walks a fresh room into the voting phase and pins the
// imposter to a known player so outcomes are deterministic.
func driveToVoting(t *testing.T, cfg *Config, n int, imposter string) (*Room, []string) {
	t.Helper()

	_, room, ids := setupRoom(t, cfg, n)
	startGame(t, cfg, room, ids)
	submitAllPrompts(t, cfg, room, ids)

	room.round.imposterIDs = map[string]bool{imposter: true}

	submitAllAnswers(t, cfg, room, ids)
	return room, ids
}

func TestRoundResolutionAndScoring(t *testing.T) {
	cfg := testConfig()
	room, ids := driveToVoting(t, cfg, 4, "p1")

	// p0 and p2 catch the imposter, p3 calls no-imposter, the imposter
	// deflects onto p2.
	mustNil(t, room.votePlayer(cfg, "p0", []string{"p1"}))
	mustNil(t, room.votePlayer(cfg, "p2", []string{"p1"}))
	mustNil(t, room.votePlayer(cfg, "p3", []string{noImposterVote}))
	mustNil(t, room.votePlayer(cfg, "p1", []string{"p2"}))

	for _, id := range ids {
		mustNil(t, room.submitVote(cfg, id))
	}

	if room.phase != PhaseReveal {
		t.Fatalf("got phase %q, want %q", room.phase, PhaseReveal)
	}
	if !reflect.DeepEqual(room.round.votedOut, []string{"p1"}) {
		t.Fatalf("got votedOut %v, want [p1]", room.round.votedOut)
	}

	// Correct accusers score one per imposter; the imposter scores one per
	// non-imposter ballot that missed them (p3's).
	wantScores := map[string]int{"p0": 1, "p1": 1, "p2": 1, "p3": 0}
	for _, p := range room.players {
		if p.Score != wantScores[p.PlayerID] {
			t.Fatalf("player %s score %d, want %d", p.PlayerID, p.Score, wantScores[p.PlayerID])
		}
	}

	if room.round.fakeOut {
		t.Fatal("plurality caught the imposter; no fake-out expected")
	}
}

func TestNoImposterWinTriggersFakeOut(t *testing.T) {
	cfg := testConfig()
	room, ids := driveToVoting(t, cfg, 3, "p0")

	for _, id := range ids {
		mustNil(t, room.votePlayer(cfg, id, []string{noImposterVote}))
		mustNil(t, room.submitVote(cfg, id))
	}

	if !reflect.DeepEqual(room.round.votedOut, []string{noImposterVote}) {
		t.Fatalf("got votedOut %v, want [0]", room.round.votedOut)
	}
	if !room.round.fakeOut {
		t.Fatal("uncaught imposter must trigger a fake-out")
	}
	if room.round.fakePlayer == "" {
		t.Fatal("fake-out must name someone")
	}
	for _, p := range room.players {
		if p.Name == room.round.fakePlayer && room.round.imposterIDs[p.PlayerID] {
			t.Fatal("fake-out named the real imposter")
		}
	}

	// Nobody caught the imposter; the imposter scores one per non-imposter.
	for _, p := range room.players {
		want := 0
		if p.PlayerID == "p0" {
			want = 2
		}
		if p.Score != want {
			t.Fatalf("player %s score %d, want %d", p.PlayerID, p.Score, want)
		}
	}
}

func TestWrongAccusationFakeOutNamesTopVoted(t *testing.T) {
	cfg := testConfig()
	room, ids := driveToVoting(t, cfg, 3, "p0")

	// Everyone piles on innocent p2.
	for _, id := range ids {
		mustNil(t, room.votePlayer(cfg, id, []string{"p2"}))
		mustNil(t, room.submitVote(cfg, id))
	}

	if !room.round.fakeOut {
		t.Fatal("wrong accusation must trigger a fake-out")
	}
	if room.round.fakePlayer != "player2" {
		t.Fatalf("got fake player %q, want the top-voted innocent %q", room.round.fakePlayer, "player2")
	}
}

func TestVoteLifecycle(t *testing.T) {
	cfg := testConfig()
	room, _ := driveToVoting(t, cfg, 3, "p0")

	// Locking in with nothing selected is rejected.
	if err := room.submitVote(cfg, "p1"); errorKind(err) != ErrValidation {
		t.Fatalf("empty lock-in: got %v, want validation error", err)
	}

	// Unknown targets and duplicates are dropped from the selection.
	mustNil(t, room.votePlayer(cfg, "p1", []string{"p0", "p0", "ghost"}))
	if !reflect.DeepEqual(room.round.selections["p1"], []string{"p0"}) {
		t.Fatalf("got selection %v, want [p0]", room.round.selections["p1"])
	}

	// Selections stay mutable until locked.
	mustNil(t, room.votePlayer(cfg, "p1", []string{"p2"}))
	mustNil(t, room.submitVote(cfg, "p1"))
	if err := room.votePlayer(cfg, "p1", []string{"p0"}); errorKind(err) != ErrState {
		t.Fatalf("vote after lock-in: got %v, want state error", err)
	}

	// Locking in twice is idempotent.
	mustNil(t, room.submitVote(cfg, "p1"))
	if room.phase != PhaseVoting {
		t.Fatal("round resolved before every ballot locked")
	}
}

func TestVoteCountsZeroFilled(t *testing.T) {
	cfg := testConfig()
	room, _ := driveToVoting(t, cfg, 3, "p0")

	mustNil(t, room.votePlayer(cfg, "p1", []string{"p0"}))

	counts := room.voteCountsLocked()
	want := map[string]int{"p0": 1, "p1": 0, "p2": 0, noImposterVote: 0}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("got %v, want %v", counts, want)
	}
}
