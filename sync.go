package main

import "time"

// Snapshot is the complete current-state payload for one player: enough
// to reconstruct full client state with no further messages. Fields are
// role- and phase-gated; in particular imposter ids never appear before
// reveal.
type Snapshot struct {
	Type           string         `json:"type"` // "syncState"
	Phase          Phase          `json:"phase"`
	Players        []PlayerInfo   `json:"players"`
	Prompt         string         `json:"prompt,omitempty"`
	ImpPrompt      string         `json:"impPrompt,omitempty"`
	Answers        []AnswerInfo   `json:"answers,omitempty"`
	VoteCounts     map[string]int `json:"voteCounts,omitempty"`
	VotedOut       []string       `json:"votedOut,omitempty"`
	ImposterIDs    []string       `json:"imposterIds,omitempty"`
	FakeOut        bool           `json:"fakeOut,omitempty"`
	FakePlayer     string         `json:"fakePlayer,omitempty"`
	Voted          []string       `json:"voted,omitempty"`
	Waiting        bool           `json:"waiting"`
	AltMode        bool           `json:"altMode"`
	KeepScores     bool           `json:"keepScores"`
	GameDone       bool           `json:"gameDone"`
	PlayAgainCount int            `json:"playAgainCount"`
	Deadline       int64          `json:"deadline,omitempty"`
}

// requestSync sends the requesting player a one-shot snapshot, typically
// right after a reconnect.
func (r *Room) requestSync(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	r.lastActive = time.Now()
	r.sendToLocked(playerID, r.snapshotLocked(playerID))

	logf(cfg, "SYNC: Room %s snapshot for %q (phase %s)", r.code, p.Name, r.phase)

	return nil
}

// snapshot is the read-only entry point for the snapshot builder.
func (r *Room) snapshot(playerID string) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshotLocked(playerID)
}

func (r *Room) snapshotLocked(playerID string) Snapshot {
	snap := Snapshot{
		Type:           "syncState",
		Phase:          r.phase,
		Players:        r.playerInfosLocked(),
		AltMode:        r.altMode,
		KeepScores:     r.keepScores,
		GameDone:       r.poolWarned,
		PlayAgainCount: len(r.playAgainVotes),
		Deadline:       r.deadlineMillisLocked(),
	}

	switch r.phase {
	case PhaseAnswer:
		snap.Prompt = r.promptForLocked(playerID)
	case PhaseVoting, PhaseReveal:
		if r.round != nil {
			snap.Prompt = r.round.pair.Regular
		}
	}

	if r.phase == PhaseVoting || r.phase == PhaseReveal {
		snap.Answers = r.answersListLocked()
		snap.VoteCounts = r.voteCountsLocked()
	}

	if r.round != nil {
		snap.Voted = append([]string(nil), r.round.selections[playerID]...)
	}

	// Reveal-only truth: leaking any of this earlier is a correctness bug.
	if r.phase == PhaseReveal && r.round != nil {
		snap.VotedOut = append([]string(nil), r.round.votedOut...)
		snap.ImposterIDs = r.imposterIDsLocked()
		snap.ImpPrompt = r.imposterPromptLocked()
		snap.FakeOut = r.round.fakeOut
		snap.FakePlayer = r.round.fakePlayer
	}

	switch r.phase {
	case PhasePromptPick:
		_, snap.Waiting = r.promptPairs[playerID]
	case PhaseAnswer:
		if r.round != nil {
			_, snap.Waiting = r.round.answers[playerID]
		}
	case PhaseVoting:
		if r.round != nil {
			snap.Waiting = r.round.locked[playerID]
		}
	case PhaseDone:
		snap.Waiting = r.playAgainVotes[playerID]
	}

	return snap
}
