package main

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Word-unscramble mini-game, played alongside the main flow while players
// wait on each other. It shares only the room and player identity with
// the core engine; nothing here reads or writes phase state.

const (
	maxGuessLength   = 20
	miniGuessHistory = 20
)

var miniGameWords = []string{
	"answer", "arcade", "balloon", "banana", "breeze", "bright",
	"candle", "castle", "cipher", "copper", "cryptic", "curtain",
	"dragon", "drizzle", "echo", "ember", "flicker", "galaxy",
	"glimmer", "harbor", "hidden", "jigsaw", "lantern", "marble",
	"meadow", "mirror", "mystery", "nimble", "orbit", "pepper",
	"pickle", "puzzle", "riddle", "rocket", "saffron", "shadow",
	"sketch", "thunder", "trinket", "twilight", "velvet", "whisper",
}

// MiniGuess is one guess in a player's visible history. Every entry of a
// player's list carries their current name and mini-score, so consumers
// can read either off any element.
type MiniGuess struct {
	Name  string `json:"name"`
	Guess string `json:"guess"`
	Mask  []bool `json:"mask"`
	Score int    `json:"score"`
}

type MiniGame struct {
	word      string // current target, lowercase
	scrambled string
	guesses   map[string][]MiniGuess
	scores    map[string]int
}

func newMiniGame() *MiniGame {
	mg := &MiniGame{
		guesses: make(map[string][]MiniGuess),
		scores:  make(map[string]int),
	}
	mg.nextWord()
	return mg
}

// copyGuesses snapshots every guess history into fresh slices. Broadcast
// payloads are JSON-encoded by the write pumps outside the room lock, so
// they must never alias the live map.
func (mg *MiniGame) copyGuesses() map[string][]MiniGuess {
	guesses := make(map[string][]MiniGuess, len(mg.guesses))
	for id, list := range mg.guesses {
		guesses[id] = append([]MiniGuess(nil), list...)
	}
	return guesses
}

func (mg *MiniGame) nextWord() {
	mg.word = miniGameWords[rand.Intn(len(miniGameWords))]
	mg.scrambled = scrambleWord(mg.word)
}

func scrambleWord(word string) string {
	runes := []rune(word)
	for tries := 0; tries < 10; tries++ {
		rand.Shuffle(len(runes), func(i, j int) {
			runes[i], runes[j] = runes[j], runes[i]
		})
		if string(runes) != word {
			break
		}
	}
	return string(runes)
}

// guessMask marks which letters of the guess sit in the correct position
// of the target word.
func guessMask(guess, word string) []bool {
	g := []rune(guess)
	w := []rune(word)
	mask := make([]bool, len(g))
	for i := range g {
		if i < len(w) && unicode.ToLower(g[i]) == unicode.ToLower(w[i]) {
			mask[i] = true
		}
	}
	return mask
}

// miniGameState is the ack payload for "requestMiniGameWord".
func (r *Room) miniGameState(playerID string) (*MiniGameState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, _ := r.findPlayerLocked(playerID); p == nil {
		return nil, notFoundError("player not in room %s", r.code)
	}

	return &MiniGameState{
		Word:          r.mini.scrambled,
		PlayerGuesses: r.mini.copyGuesses(),
	}, nil
}

// submitUnscrambleGuess records a guess; a correct one scores a point and
// rotates everyone to a fresh scrambled word.
func (r *Room) submitUnscrambleGuess(cfg *Config, playerID, guess string) error {
	guess = strings.TrimSpace(guess)
	if guess == "" || len(guess) > maxGuessLength {
		return validationError("guess must be 1-%d characters", maxGuessLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	r.lastActive = time.Now()

	mg := r.mini
	correct := strings.EqualFold(guess, mg.word)
	mask := guessMask(strings.ToLower(guess), mg.word)

	if correct {
		mg.scores[playerID]++
	}

	entry := MiniGuess{
		Name:  p.Name,
		Guess: guess,
		Mask:  mask,
		Score: mg.scores[playerID],
	}
	history := append(mg.guesses[playerID], entry)
	if len(history) > miniGuessHistory {
		history = history[len(history)-miniGuessHistory:]
	}
	for i := range history {
		history[i].Score = mg.scores[playerID]
	}
	mg.guesses[playerID] = history

	if correct {
		mg.nextWord()
		r.broadcastLocked(ScrambledWordMessage{Type: "updateScrambledWord", Word: mg.scrambled})
		logf(cfg, "GAMES: Room %s mini-game word solved by %q", r.code, p.Name)
	}

	r.broadcastLocked(MiniGameGuessesMessage{Type: "updateMiniGameGuesses", Guesses: mg.copyGuesses()})

	return nil
}
