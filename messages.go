package main

// Wire protocol. Every frame is a JSON object with a "type" discriminator.
// Client requests may carry a "seq"; the engine answers those with an "ack"
// frame echoing the seq, which gives request/response semantics on top of
// the otherwise fire-and-forget channel.

// ClientMessage is the single envelope for all client-to-engine traffic.
// Unused fields are simply omitted per message type.
type ClientMessage struct {
	Type           string   `json:"type"`
	Seq            int64    `json:"seq,omitempty"`
	Code           string   `json:"code,omitempty"`
	PlayerID       string   `json:"playerId,omitempty"`
	Name           string   `json:"name,omitempty"`
	Prompt         string   `json:"prompt,omitempty"`
	ImpPrompt      string   `json:"impPrompt,omitempty"`
	Answer         string   `json:"answer,omitempty"`
	VotedPlayerIDs []string `json:"votedPlayerIds,omitempty"`
	AltMode        bool     `json:"altMode,omitempty"`
	KeepScores     bool     `json:"keepScores,omitempty"`
	Message        string   `json:"message,omitempty"`
	Guess          string   `json:"guess,omitempty"`
}

// AckMessage answers a seq-carrying request. Errors ride in Kind/Error and
// are only ever seen by the requester.
type AckMessage struct {
	Type  string    `json:"type"` // "ack"
	Seq   int64     `json:"seq"`
	OK    bool      `json:"ok"`
	Kind  ErrorKind `json:"kind,omitempty"`
	Error string    `json:"error,omitempty"`
	Data  any       `json:"data,omitempty"`
}

// ErrorMessage reports a failure for a request that carried no seq.
type ErrorMessage struct {
	Type  string    `json:"type"` // "error"
	Kind  ErrorKind `json:"kind"`
	Error string    `json:"error"`
}

// PlayerInfo is the public view of a room member.
type PlayerInfo struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Ready     bool   `json:"ready"`
	Leader    bool   `json:"leader"`
	Connected bool   `json:"connected"`
}

// AnswerInfo pairs a submitted answer with its author.
type AnswerInfo struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Answer   string `json:"answer"`
}

// CreateRoomResult is the ack payload for "createRoom".
type CreateRoomResult struct {
	Code string `json:"code"`
}

// JoinRoomResult is the ack payload for "joinRoom". Phase is only set on
// rejoin so the client can resume mid-game instead of landing in a lobby.
type JoinRoomResult struct {
	Success  bool        `json:"success"`
	Rejoined bool        `json:"rejoined"`
	Leader   bool        `json:"leader"`
	Chat     []ChatEntry `json:"chat"`
	Phase    Phase       `json:"phase,omitempty"`
}

type PlayersMessage struct {
	Type    string       `json:"type"` // "updatePlayers"
	Players []PlayerInfo `json:"players"`
	Readied bool         `json:"readied"`
}

type StartGameMessage struct {
	Type     string       `json:"type"` // "startGame"
	Players  []PlayerInfo `json:"players"`
	Deadline int64        `json:"deadline"` // unix ms, advisory
}

type GameModeMessage struct {
	Type    string `json:"type"` // "updateGameMode"
	AltMode bool   `json:"altMode"`
}

// PromptMessage carries the role-appropriate prompt to a single player at
// round start. Sent as "allPromptsReceived" for the first round of a game
// and "startNextRound" afterwards. It deliberately carries no role flag:
// whether the receiver is the imposter must stay unknowable until reveal.
type PromptMessage struct {
	Type     string `json:"type"`
	Prompt   string `json:"prompt"`
	Deadline int64  `json:"deadline"`
}

type AnswersMessage struct {
	Type          string       `json:"type"` // "revealAnswers"
	Answers       []AnswerInfo `json:"answers"`
	CurrentPrompt string       `json:"currentPrompt"`
	Deadline      int64        `json:"deadline"`
}

type VoteUpdateMessage struct {
	Type       string         `json:"type"` // "voteUpdate"
	VoteCounts map[string]int `json:"voteCounts"`
}

// RevealPrompts is the full prompt pair plus all answers, disclosed only
// once the round resolves.
type RevealPrompts struct {
	Prompt    string       `json:"prompt"`
	ImpPrompt string       `json:"impPrompt"`
	Answers   []AnswerInfo `json:"answers"`
}

type RevealMessage struct {
	Type        string        `json:"type"` // "revealData"
	VotedOut    []string      `json:"votedOut"`
	Prompts     RevealPrompts `json:"prompts"`
	ImposterIDs []string      `json:"imposterIds"`
	Players     []PlayerInfo  `json:"players"`
	FakeOut     bool          `json:"fakeOut"`
	FakePlayer  string        `json:"fakePlayer,omitempty"`
}

// SimpleMessage covers the payload-free broadcasts: "noPromptsLeft",
// "lobbyReset".
type SimpleMessage struct {
	Type string `json:"type"`
}

type FinishGameMessage struct {
	Type    string       `json:"type"` // "finishGame"
	Players []PlayerInfo `json:"players"`
}

type KeepScoreMessage struct {
	Type       string `json:"type"` // "updateKeepScore"
	KeepScores bool   `json:"keepScores"`
}

type PlayAgainCountMessage struct {
	Type  string `json:"type"` // "updatePlayAgainCount"
	Count int    `json:"count"`
}

// ChatEntry is one chat line; history is replayed on join.
type ChatEntry struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

type NewChatMessage struct {
	Type string `json:"type"` // "newMessage"
	ChatEntry
}

type ScrambledWordMessage struct {
	Type string `json:"type"` // "updateScrambledWord"
	Word string `json:"word"`
}

type MiniGameGuessesMessage struct {
	Type    string                 `json:"type"` // "updateMiniGameGuesses"
	Guesses map[string][]MiniGuess `json:"playerGuesses"`
}

// MiniGameState is the ack payload for "requestMiniGameWord".
type MiniGameState struct {
	Word          string                 `json:"word"`
	PlayerGuesses map[string][]MiniGuess `json:"playerGuesses"`
}
