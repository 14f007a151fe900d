package main

import (
	"math/rand"
	"sort"
	"time"
)

// votePlayer records a player's live vote selection (targets are player
// ids or the "0" no-imposter sentinel) and broadcasts the running counts.
// The set is mutable until that player locks in.
func (r *Room) votePlayer(cfg *Config, playerID string, targets []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseVoting || r.round == nil {
		return stateError("voting is not open right now")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	if r.round.locked[playerID] {
		return stateError("vote already locked in")
	}

	r.lastActive = time.Now()

	selection := make([]string, 0, len(targets))
	seen := make(map[string]bool)
	for _, target := range targets {
		if seen[target] {
			continue
		}
		if target != noImposterVote {
			if candidate, _ := r.findPlayerLocked(target); candidate == nil {
				continue
			}
		}
		seen[target] = true
		selection = append(selection, target)
	}
	r.round.selections[playerID] = selection

	r.broadcastLocked(VoteUpdateMessage{
		Type:       "voteUpdate",
		VoteCounts: r.voteCountsLocked(),
	})

	return nil
}

// voteCountsLocked counts, for every candidate (each player plus the "0"
// sentinel), how many current selections contain it. Zeroes included so
// consumers can render a full board.
func (r *Room) voteCountsLocked() map[string]int {
	counts := make(map[string]int, len(r.players)+1)
	counts[noImposterVote] = 0
	for _, p := range r.players {
		counts[p.PlayerID] = 0
	}
	if r.round == nil {
		return counts
	}
	for _, selection := range r.round.selections {
		for _, target := range selection {
			counts[target]++
		}
	}
	return counts
}

// submitVote freezes a player's selection as final. Locking in with an
// empty selection is a validation error; the round resolves once every
// member has locked in.
func (r *Room) submitVote(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseVoting || r.round == nil {
		return stateError("voting is not open right now")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	if r.round.locked[playerID] {
		return nil
	}

	if len(r.round.selections[playerID]) == 0 {
		return validationError("select at least one target, including the no-imposter option")
	}

	r.lastActive = time.Now()
	r.round.locked[playerID] = true

	if r.allVotesLockedLocked() {
		r.resolveRoundLocked(cfg)
	}

	return nil
}

func (r *Room) allVotesLockedLocked() bool {
	if r.round == nil {
		return false
	}
	for _, p := range r.players {
		if !r.round.locked[p.PlayerID] {
			return false
		}
	}
	return len(r.players) > 0
}

// tallyBallots counts each candidate once per locked ballot containing it.
func tallyBallots(selections map[string][]string, locked map[string]bool) map[string]int {
	counts := make(map[string]int)
	for playerID, selection := range selections {
		if !locked[playerID] {
			continue
		}
		for _, target := range selection {
			counts[target]++
		}
	}
	return counts
}

// topCandidates returns every candidate sharing the top vote count, sorted
// for determinism. Ties are a first-class outcome, and so is the "0"
// sentinel winning.
func topCandidates(counts map[string]int) []string {
	top := 0
	for _, n := range counts {
		if n > top {
			top = n
		}
	}
	if top == 0 {
		return nil
	}

	out := make([]string, 0, 1)
	for candidate, n := range counts {
		if n == top {
			out = append(out, candidate)
		}
	}
	sort.Strings(out)
	return out
}

func containsTarget(selection []string, target string) bool {
	for _, t := range selection {
		if t == target {
			return true
		}
	}
	return false
}

// applyScoresLocked applies the per-ballot scoring rule: a non-imposter
// whose locked ballot names every true imposter scores +1 per imposter;
// an imposter scores +1 per non-imposter whose ballot missed them.
func (r *Room) applyScoresLocked() {
	round := r.round

	for _, p := range r.players {
		if round.imposterIDs[p.PlayerID] {
			for _, other := range r.players {
				if other.PlayerID == p.PlayerID || round.imposterIDs[other.PlayerID] {
					continue
				}
				if !containsTarget(round.selections[other.PlayerID], p.PlayerID) {
					p.Score++
				}
			}
			continue
		}

		namedAll := len(round.imposterIDs) > 0
		for imposterID := range round.imposterIDs {
			if !containsTarget(round.selections[p.PlayerID], imposterID) {
				namedAll = false
				break
			}
		}
		if namedAll {
			p.Score += len(round.imposterIDs)
		}
	}
}

// computeFakeOutLocked decides the deceptive reveal ordering: when the
// plurality missed the imposters, the view gets a wrong name to animate
// first before the truth lands.
func (r *Room) computeFakeOutLocked() {
	round := r.round
	if len(round.imposterIDs) == 0 {
		return
	}

	caught := true
	for imposterID := range round.imposterIDs {
		if !containsTarget(round.votedOut, imposterID) {
			caught = false
			break
		}
	}
	if caught {
		return
	}

	round.fakeOut = true

	for _, id := range round.votedOut {
		if id == noImposterVote || round.imposterIDs[id] {
			continue
		}
		if p, _ := r.findPlayerLocked(id); p != nil {
			round.fakePlayer = p.Name
			return
		}
	}

	// "0" won (or only imposters topped the tally): fake with a random
	// non-imposter instead.
	innocents := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if !round.imposterIDs[p.PlayerID] {
			innocents = append(innocents, p)
		}
	}
	if len(innocents) > 0 {
		round.fakePlayer = innocents[rand.Intn(len(innocents))].Name
	}
}

func (r *Room) imposterIDsLocked() []string {
	if r.round == nil {
		return nil
	}
	ids := make([]string, 0, len(r.round.imposterIDs))
	for id := range r.round.imposterIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// resolveRoundLocked runs once the last vote locks in: tally, outcome,
// scoring, fake-out, then the reveal broadcast. Everything broadcast here
// is final for the round.
func (r *Room) resolveRoundLocked(cfg *Config) {
	round := r.round

	counts := tallyBallots(round.selections, round.locked)
	round.votedOut = topCandidates(counts)

	r.applyScoresLocked()
	r.computeFakeOutLocked()

	r.phase = PhaseReveal
	r.clearDeadlineLocked()

	if len(r.promptPool) == 0 && !r.poolWarned {
		r.poolWarned = true
		r.broadcastLocked(SimpleMessage{Type: "noPromptsLeft"})
	}

	r.broadcastLocked(RevealMessage{
		Type:     "revealData",
		VotedOut: round.votedOut,
		Prompts: RevealPrompts{
			Prompt:    round.pair.Regular,
			ImpPrompt: r.imposterPromptLocked(),
			Answers:   r.answersListLocked(),
		},
		ImposterIDs: r.imposterIDsLocked(),
		Players:     r.playerInfosLocked(),
		FakeOut:     round.fakeOut,
		FakePlayer:  round.fakePlayer,
	})

	logf(cfg, "GAMES: Room %s revealed a round (voted out %v)", r.code, round.votedOut)
}
