package main

import (
	"sync"
	"time"
)

const (
	maxNameLength  = 15
	maxTextLength  = 115
	chatHistoryCap = 100

	// noImposterVote is the ballot sentinel for "no imposter this round".
	noImposterVote = "0"
)

// Phase is one stage of the round/game lifecycle.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhasePromptPick Phase = "promptPick"
	PhaseAnswer     Phase = "answer"
	PhaseVoting     Phase = "voting"
	PhaseReveal     Phase = "reveal"
	PhaseDone       Phase = "done"
)

// canTransitionTo is the single authority on legal phase changes.
func (p Phase) canTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:      {PhasePromptPick},
		PhasePromptPick: {PhaseAnswer},
		PhaseAnswer:     {PhaseVoting},
		PhaseVoting:     {PhaseReveal},
		PhaseReveal:     {PhaseAnswer, PhaseDone},
		PhaseDone:       {PhasePromptPick},
	}

	for _, next := range validTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Player is one participant. Identity is the client-supplied playerId and
// survives reconnects; the engine never generates it.
type Player struct {
	PlayerID  string
	Name      string
	Score     int
	Ready     bool
	Leader    bool
	Connected bool
}

// PromptPair is one consumable entry of the prompt pool.
type PromptPair struct {
	Regular  string
	Imposter string
}

// RoundState holds everything scoped to the round in progress. It is
// replaced wholesale at each round start.
type RoundState struct {
	pair        PromptPair
	imposterIDs map[string]bool
	answers     map[string]string
	selections  map[string][]string
	locked      map[string]bool

	votedOut   []string
	fakeOut    bool
	fakePlayer string
}

func newRoundState(pair PromptPair) *RoundState {
	return &RoundState{
		pair:        pair,
		imposterIDs: make(map[string]bool),
		answers:     make(map[string]string),
		selections:  make(map[string][]string),
		locked:      make(map[string]bool),
	}
}

// Room is one isolated game session. Every mutating operation and every
// snapshot read runs under mu, so phase transitions triggered by counting
// submissions cannot race.
type Room struct {
	code string
	reg  *Registry

	mu      sync.RWMutex
	clients map[*Client]bool
	players []*Player // insertion order = join order

	phase      Phase
	altMode    bool
	keepScores bool

	promptPairs map[string]PromptPair // collected during promptPick
	promptPool  []PromptPair
	poolWarned  bool // noPromptsLeft already broadcast
	round       *RoundState
	deadline    time.Time // advisory, zero outside timed phases

	playAgainVotes map[string]bool

	chat []ChatEntry
	mini *MiniGame

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(reg *Registry, code string) *Room {
	now := time.Now()
	return &Room{
		code:           code,
		reg:            reg,
		clients:        make(map[*Client]bool),
		phase:          PhaseLobby,
		promptPairs:    make(map[string]PromptPair),
		playAgainVotes: make(map[string]bool),
		mini:           newMiniGame(),
		createdAt:      now,
		lastActive:     now,
	}
}

func (r *Room) findPlayerLocked(playerID string) (*Player, int) {
	for i, p := range r.players {
		if p.PlayerID == playerID {
			return p, i
		}
	}
	return nil, -1
}

func (r *Room) playerInfosLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		infos = append(infos, PlayerInfo{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Score:     p.Score,
			Ready:     p.Ready,
			Leader:    p.Leader,
			Connected: p.Connected,
		})
	}
	return infos
}

// broadcast queues a frame for every connected client, evicting any whose
// send buffer is full.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		if !client.trySend(msg) {
			delete(r.clients, client)
			client.closeSend()
		}
	}
}

// sendToLocked queues a frame for the clients bound to one player only.
func (r *Room) sendToLocked(playerID string, msg any) {
	for client := range r.clients {
		if client.boundID != playerID {
			continue
		}
		if !client.trySend(msg) {
			delete(r.clients, client)
			client.closeSend()
		}
	}
}

func (r *Room) broadcastPlayersLocked(readied bool) {
	r.broadcastLocked(PlayersMessage{
		Type:    "updatePlayers",
		Players: r.playerInfosLocked(),
		Readied: readied,
	})
}

// attachLocked binds a connection to a player, replacing any previous
// connection for the same playerId (reconnect semantics).
func (r *Room) attachLocked(c *Client, playerID string) {
	if c == nil {
		return
	}

	for existing := range r.clients {
		if existing != c && existing.boundID == playerID {
			delete(r.clients, existing)
			existing.closeSend()
		}
	}

	c.boundID = playerID
	c.room = r
	r.clients[c] = true
}

// join adds a new player, or reattaches a known playerId as a reconnect.
// New players are only admitted while the room is in the lobby; a game in
// progress is rejoin-only.
func (r *Room) join(cfg *Config, c *Client, name, playerID string) (*JoinRoomResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if p, _ := r.findPlayerLocked(playerID); p != nil {
		p.Connected = true
		r.attachLocked(c, playerID)
		r.broadcastPlayersLocked(false)

		logf(cfg, "ROOMS: %q rejoined room %s (phase %s)", p.Name, r.code, r.phase)

		return &JoinRoomResult{
			Success:  true,
			Rejoined: true,
			Leader:   p.Leader,
			Chat:     append([]ChatEntry(nil), r.chat...),
			Phase:    r.phase,
		}, nil
	}

	if r.phase != PhaseLobby {
		return nil, stateError("game in progress; only previous members may rejoin")
	}

	player := &Player{
		PlayerID:  playerID,
		Name:      name,
		Leader:    len(r.players) == 0,
		Connected: true,
	}
	r.players = append(r.players, player)
	r.attachLocked(c, playerID)
	r.broadcastPlayersLocked(false)

	logf(cfg, "ROOMS: %q joined room %s", name, r.code)

	return &JoinRoomResult{
		Success: true,
		Leader:  player.Leader,
		Chat:    append([]ChatEntry(nil), r.chat...),
	}, nil
}

// leave removes membership immediately: leadership moves to the oldest
// remaining joiner, the departing player's pending submissions stop
// blocking phase guards, and an empty room is torn down.
func (r *Room) leave(cfg *Config, playerID string) {
	r.mu.Lock()
	empty := r.leaveLocked(cfg, playerID)
	r.mu.Unlock()

	if empty {
		r.reg.remove(cfg, r.code)
	}
}

func (r *Room) leaveLocked(cfg *Config, playerID string) bool {
	p, i := r.findPlayerLocked(playerID)
	if p == nil {
		return len(r.players) == 0
	}

	r.lastActive = time.Now()
	r.players = append(r.players[:i], r.players[i+1:]...)

	// Detach, don't close: the connection outlives room membership and may
	// go on to create or join another room.
	for client := range r.clients {
		if client.boundID == playerID {
			delete(r.clients, client)
			client.boundID = ""
			client.room = nil
		}
	}

	// Drop every pending expectation so the remaining players are never
	// blocked by a departed one.
	delete(r.promptPairs, playerID)
	delete(r.playAgainVotes, playerID)
	if r.round != nil {
		delete(r.round.answers, playerID)
		delete(r.round.selections, playerID)
		delete(r.round.locked, playerID)
	}

	if p.Leader && len(r.players) > 0 {
		r.players[0].Leader = true
	}

	logf(cfg, "ROOMS: %q left room %s", p.Name, r.code)

	if len(r.players) == 0 {
		return true
	}

	r.broadcastPlayersLocked(false)
	r.maybeAdvanceLocked(cfg)

	return false
}

// clientGone handles a dropped connection. Membership survives: the player
// is only marked disconnected, and removed later if the grace window
// passes without a reconnect.
func (r *Room) clientGone(cfg *Config, c *Client) {
	r.mu.Lock()

	delete(r.clients, c)
	c.closeSend()

	playerID := c.boundID
	p, _ := r.findPlayerLocked(playerID)

	stillConnected := false
	for client := range r.clients {
		if client.boundID == playerID {
			stillConnected = true
			break
		}
	}

	if p != nil && !stillConnected {
		p.Connected = false
		r.lastActive = time.Now()
		r.broadcastPlayersLocked(false)
	}

	r.mu.Unlock()

	if p != nil && !stillConnected && cfg.playerTimeout > 0 {
		go r.scheduleRemoval(cfg, playerID)
	}
}

// scheduleRemoval waits out the grace window, then removes the player if
// they are still disconnected.
func (r *Room) scheduleRemoval(cfg *Config, playerID string) {
	time.Sleep(cfg.playerTimeout)

	r.mu.Lock()
	p, _ := r.findPlayerLocked(playerID)
	if p == nil || p.Connected {
		r.mu.Unlock()
		return
	}
	empty := r.leaveLocked(cfg, playerID)
	r.mu.Unlock()

	if empty {
		r.reg.remove(cfg, r.code)
	}
}

// closeAll disconnects every client of this room (used by the reaper).
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		c.closeSend()
		_ = c.conn.Close()
		delete(r.clients, c)
	}
}
