package main

import (
	"reflect"
	"testing"
)

func TestSnapshotHidesRoundTruthBeforeReveal(t *testing.T) {
	cfg := testConfig()
	room, ids := driveToVoting(t, cfg, 3, "p0")

	mustNil(t, room.votePlayer(cfg, "p1", []string{"p0"}))

	for _, id := range ids {
		snap := room.snapshot(id)

		if snap.Phase != PhaseVoting {
			t.Fatalf("got phase %q, want %q", snap.Phase, PhaseVoting)
		}
		if snap.ImposterIDs != nil {
			t.Fatalf("snapshot for %s leaked imposter ids during voting", id)
		}
		if snap.ImpPrompt != "" {
			t.Fatalf("snapshot for %s leaked the imposter prompt during voting", id)
		}
		if snap.VotedOut != nil || snap.FakeOut {
			t.Fatalf("snapshot for %s carried an outcome before reveal", id)
		}
		if len(snap.Answers) != len(ids) {
			t.Fatalf("got %d answers, want %d", len(snap.Answers), len(ids))
		}
		if snap.Prompt != room.round.pair.Regular {
			t.Fatalf("got prompt %q, want the shared prompt during voting", snap.Prompt)
		}
	}

	// Only the voter's own live selection is echoed back.
	if got := room.snapshot("p1").Voted; !reflect.DeepEqual(got, []string{"p0"}) {
		t.Fatalf("got voted %v, want [p0]", got)
	}
	if got := room.snapshot("p2").Voted; len(got) != 0 {
		t.Fatalf("got voted %v for a player who has not voted", got)
	}
}

func TestSnapshotRevealFields(t *testing.T) {
	cfg := testConfig()
	room, ids := driveToVoting(t, cfg, 3, "p0")

	for _, id := range ids {
		mustNil(t, room.votePlayer(cfg, id, []string{"p0"}))
		mustNil(t, room.submitVote(cfg, id))
	}

	snap := room.snapshot("p1")
	if snap.Phase != PhaseReveal {
		t.Fatalf("got phase %q, want %q", snap.Phase, PhaseReveal)
	}
	if !reflect.DeepEqual(snap.ImposterIDs, []string{"p0"}) {
		t.Fatalf("got imposter ids %v, want [p0]", snap.ImposterIDs)
	}
	if !reflect.DeepEqual(snap.VotedOut, []string{"p0"}) {
		t.Fatalf("got votedOut %v, want [p0]", snap.VotedOut)
	}
	if snap.ImpPrompt == "" {
		t.Fatal("reveal snapshot should carry the imposter prompt")
	}
	if snap.Deadline != 0 {
		t.Fatal("reveal snapshot should carry no deadline")
	}
}

func TestSnapshotWaitingFlag(t *testing.T) {
	cfg := testConfig()
	_, room, ids := setupRoom(t, cfg, 3)
	startGame(t, cfg, room, ids)

	mustNil(t, room.sendPrompt(cfg, "p0", "a prompt", "an imposter prompt"))

	if !room.snapshot("p0").Waiting {
		t.Fatal("submitted player should be waiting")
	}
	if room.snapshot("p1").Waiting {
		t.Fatal("pending player should not be waiting")
	}
	if room.snapshot("p0").Deadline == 0 {
		t.Fatal("prompt collection snapshot should carry the deadline")
	}
}

func TestRequestSyncRequiresMembership(t *testing.T) {
	cfg := testConfig()
	_, room, _ := setupRoom(t, cfg, 2)

	if err := room.requestSync(cfg, "stranger"); errorKind(err) != ErrNotFound {
		t.Fatalf("got %v, want not-found error", err)
	}
	mustNil(t, room.requestSync(cfg, "p0"))
}
