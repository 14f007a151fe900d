package main

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Deadlines are advisory: stamped at entry to each timed phase and
// broadcast as absolute unix-millisecond timestamps so clients can render
// a countdown independent of message latency. The engine never sleeps on
// them and never force-advances; progress comes from the all-submitted
// guards, departures, and leader actions.

func (r *Room) stampDeadlineLocked(cfg *Config) int64 {
	r.deadline = time.Now().Add(cfg.phaseTimer)
	return r.deadline.UnixMilli()
}

func (r *Room) clearDeadlineLocked() {
	r.deadline = time.Time{}
}

func (r *Room) deadlineMillisLocked() int64 {
	if r.deadline.IsZero() {
		return 0
	}
	return r.deadline.UnixMilli()
}

func validateText(kind, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxTextLength {
		return "", validationError("%s must be 1-%d characters", kind, maxTextLength)
	}
	return text, nil
}

func (r *Room) leaderCheckLocked(playerID string) error {
	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}
	if !p.Leader {
		return authorizationError("only the room leader may do that")
	}
	return nil
}

func (r *Room) allReadyLocked() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// readyUp marks a player ready; once every member is ready the game
// starts and the room enters prompt collection.
func (r *Room) readyUp(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return stateError("the game has already started")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	r.lastActive = time.Now()

	if p.Ready {
		return nil
	}
	p.Ready = true
	r.broadcastPlayersLocked(true)

	if r.allReadyLocked() {
		r.startGameLocked(cfg)
	}

	return nil
}

func (r *Room) startGameLocked(cfg *Config) {
	r.phase = PhasePromptPick
	deadline := r.stampDeadlineLocked(cfg)

	r.broadcastLocked(StartGameMessage{
		Type:     "startGame",
		Players:  r.playerInfosLocked(),
		Deadline: deadline,
	})

	logf(cfg, "GAMES: Room %s started with %d players", r.code, len(r.players))
}

// setGameMode toggles alt mode (imposter sees a censored variant of the
// shared prompt instead of a separate one). Leader-only, lobby-only.
func (r *Room) setGameMode(cfg *Config, playerID string, altMode bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.leaderCheckLocked(playerID); err != nil {
		return err
	}
	if r.phase != PhaseLobby {
		return stateError("game mode can only change in the lobby")
	}

	r.lastActive = time.Now()
	r.altMode = altMode
	r.broadcastLocked(GameModeMessage{Type: "updateGameMode", AltMode: altMode})

	return nil
}

// setKeepScores controls whether a replay keeps accumulated scores.
func (r *Room) setKeepScores(cfg *Config, playerID string, keep bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.leaderCheckLocked(playerID); err != nil {
		return err
	}

	r.lastActive = time.Now()
	r.keepScores = keep
	r.broadcastLocked(KeepScoreMessage{Type: "updateKeepScore", KeepScores: keep})

	return nil
}

// sendPrompt collects one player's prompt pair during promptPick. Once
// every member has submitted, the pool is built and the first round
// starts.
func (r *Room) sendPrompt(cfg *Config, playerID, prompt, impPrompt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePromptPick {
		return stateError("prompts are not being collected right now")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	prompt, err := validateText("prompt", prompt)
	if err != nil {
		return err
	}

	if r.altMode {
		impPrompt = ""
	} else {
		impPrompt, err = validateText("imposter prompt", impPrompt)
		if err != nil {
			return err
		}
	}

	if _, dup := r.promptPairs[playerID]; dup {
		return stateError("prompt already submitted")
	}

	r.lastActive = time.Now()
	r.promptPairs[playerID] = PromptPair{Regular: prompt, Imposter: impPrompt}

	if len(r.promptPairs) >= len(r.players) {
		r.buildPoolLocked()
		r.startRoundLocked(cfg, "allPromptsReceived")
	}

	return nil
}

// buildPoolLocked turns the collected pairs into a shuffled consumable
// queue, so nobody can predict when their own prompt comes up.
func (r *Room) buildPoolLocked() {
	pool := make([]PromptPair, 0, len(r.promptPairs))
	for _, p := range r.players {
		if pair, ok := r.promptPairs[p.PlayerID]; ok {
			pool = append(pool, pair)
		}
	}
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	r.promptPool = pool
	r.promptPairs = make(map[string]PromptPair)
}

// startRoundLocked consumes the next prompt pair, assigns the imposter,
// and hands each player their role-appropriate prompt. event is
// "allPromptsReceived" for the first round and "startNextRound" after.
func (r *Room) startRoundLocked(cfg *Config, event string) {
	pair := r.promptPool[0]
	r.promptPool = r.promptPool[1:]

	r.round = newRoundState(pair)
	imposter := r.players[rand.Intn(len(r.players))]
	r.round.imposterIDs[imposter.PlayerID] = true

	r.phase = PhaseAnswer
	deadline := r.stampDeadlineLocked(cfg)

	for _, p := range r.players {
		r.sendToLocked(p.PlayerID, PromptMessage{
			Type:     event,
			Prompt:   r.promptForLocked(p.PlayerID),
			Deadline: deadline,
		})
	}

	logf(cfg, "GAMES: Room %s started a round (%d prompts left)", r.code, len(r.promptPool))
}

// promptForLocked returns the prompt text the given player is allowed to
// see for the current round.
func (r *Room) promptForLocked(playerID string) string {
	if r.round == nil {
		return ""
	}
	if r.round.imposterIDs[playerID] {
		if r.altMode {
			return censorPrompt(r.round.pair.Regular)
		}
		return r.round.pair.Imposter
	}
	return r.round.pair.Regular
}

// imposterPromptLocked is the imposter-side text disclosed at reveal.
func (r *Room) imposterPromptLocked() string {
	if r.round == nil {
		return ""
	}
	if r.altMode {
		return censorPrompt(r.round.pair.Regular)
	}
	return r.round.pair.Imposter
}

// censorPrompt redacts every word of four or more letters, keeping short
// connective words readable. Used for the imposter's view in alt mode.
func censorPrompt(prompt string) string {
	words := strings.Fields(prompt)
	for i, word := range words {
		runes := []rune(word)
		letters := 0
		for _, c := range runes {
			if unicode.IsLetter(c) || unicode.IsDigit(c) {
				letters++
			}
		}
		if letters < 4 {
			continue
		}
		for j, c := range runes {
			if unicode.IsLetter(c) || unicode.IsDigit(c) {
				runes[j] = '*'
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// submitAnswer records one player's answer; when the last answer lands
// the room moves to voting and everyone sees the full answer list.
func (r *Room) submitAnswer(cfg *Config, playerID, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseAnswer || r.round == nil {
		return stateError("answers are not being collected right now")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	answer, err := validateText("answer", answer)
	if err != nil {
		return err
	}

	if _, dup := r.round.answers[playerID]; dup {
		return stateError("answer already submitted")
	}

	r.lastActive = time.Now()
	r.round.answers[playerID] = answer

	if len(r.round.answers) >= len(r.players) {
		r.beginVotingLocked(cfg)
	}

	return nil
}

func (r *Room) answersListLocked() []AnswerInfo {
	if r.round == nil {
		return nil
	}
	answers := make([]AnswerInfo, 0, len(r.round.answers))
	for _, p := range r.players {
		if answer, ok := r.round.answers[p.PlayerID]; ok {
			answers = append(answers, AnswerInfo{
				PlayerID: p.PlayerID,
				Name:     p.Name,
				Answer:   answer,
			})
		}
	}
	return answers
}

func (r *Room) beginVotingLocked(cfg *Config) {
	r.phase = PhaseVoting
	deadline := r.stampDeadlineLocked(cfg)

	r.broadcastLocked(AnswersMessage{
		Type:          "revealAnswers",
		Answers:       r.answersListLocked(),
		CurrentPrompt: r.round.pair.Regular,
		Deadline:      deadline,
	})
}

// nextRound (leader-only) advances reveal → answer while prompts remain.
func (r *Room) nextRound(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.leaderCheckLocked(playerID); err != nil {
		return err
	}
	if !r.phase.canTransitionTo(PhaseAnswer) {
		return stateError("cannot start a round from phase %q", r.phase)
	}
	if len(r.promptPool) == 0 {
		return stateError("no prompts left; end the game instead")
	}

	r.lastActive = time.Now()
	r.startRoundLocked(cfg, "startNextRound")

	return nil
}

// finishGame (leader-only) closes reveal → done once the pool ran dry.
func (r *Room) finishGame(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.leaderCheckLocked(playerID); err != nil {
		return err
	}
	if !r.phase.canTransitionTo(PhaseDone) {
		return stateError("cannot finish the game from phase %q", r.phase)
	}
	if len(r.promptPool) > 0 {
		return stateError("prompts remain; start the next round instead")
	}

	r.lastActive = time.Now()
	r.phase = PhaseDone
	r.clearDeadlineLocked()
	r.broadcastLocked(FinishGameMessage{
		Type:    "finishGame",
		Players: r.playerInfosLocked(),
	})

	logf(cfg, "GAMES: Room %s finished", r.code)

	return nil
}

// playAgain (leader-only) restarts the game from done.
func (r *Room) playAgain(cfg *Config, playerID string, keepScores bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.leaderCheckLocked(playerID); err != nil {
		return err
	}
	if !r.phase.canTransitionTo(PhasePromptPick) {
		return stateError("cannot replay from phase %q", r.phase)
	}

	r.lastActive = time.Now()
	r.resetLocked(cfg, keepScores)

	return nil
}

// playAgainVote lets non-leaders force a replay once a strict majority of
// members has voted for one.
func (r *Room) playAgainVote(cfg *Config, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseDone {
		return stateError("the game is not over")
	}

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	r.lastActive = time.Now()
	r.playAgainVotes[playerID] = true
	r.broadcastLocked(PlayAgainCountMessage{
		Type:  "updatePlayAgainCount",
		Count: len(r.playAgainVotes),
	})

	if r.playAgainQuorumLocked() {
		r.resetLocked(cfg, r.keepScores)
	}

	return nil
}

func (r *Room) playAgainQuorumLocked() bool {
	return len(r.playAgainVotes)*2 > len(r.players)
}

// resetLocked returns the room to prompt collection for a fresh game.
func (r *Room) resetLocked(cfg *Config, keepScores bool) {
	for _, p := range r.players {
		p.Ready = false
		if !keepScores {
			p.Score = 0
		}
	}

	r.promptPairs = make(map[string]PromptPair)
	r.promptPool = nil
	r.poolWarned = false
	r.round = nil
	r.playAgainVotes = make(map[string]bool)

	if r.keepScores {
		r.keepScores = false
		r.broadcastLocked(KeepScoreMessage{Type: "updateKeepScore", KeepScores: false})
	}

	r.phase = PhasePromptPick
	r.stampDeadlineLocked(cfg)

	r.broadcastLocked(SimpleMessage{Type: "lobbyReset"})
	r.broadcastPlayersLocked(false)

	logf(cfg, "GAMES: Room %s reset for a replay", r.code)
}

// maybeAdvanceLocked re-checks the all-submitted guards after a departure
// changed the member count.
func (r *Room) maybeAdvanceLocked(cfg *Config) {
	if len(r.players) == 0 {
		return
	}

	switch r.phase {
	case PhaseLobby:
		if r.allReadyLocked() {
			r.startGameLocked(cfg)
		}
	case PhasePromptPick:
		if len(r.promptPairs) >= len(r.players) {
			r.buildPoolLocked()
			r.startRoundLocked(cfg, "allPromptsReceived")
		}
	case PhaseAnswer:
		if r.round != nil && len(r.round.answers) >= len(r.players) {
			r.beginVotingLocked(cfg)
		}
	case PhaseVoting:
		if r.round != nil && r.allVotesLockedLocked() {
			r.resolveRoundLocked(cfg)
		}
	case PhaseDone:
		if r.playAgainQuorumLocked() {
			r.resetLocked(cfg, r.keepScores)
		}
	}
}
