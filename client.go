package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Client is one websocket connection. Identity lives in the playerId the
// client supplies with each message; the cookie id is only a fallback for
// clients without local storage. A player may reconnect on a fresh Client
// at any time, which replaces the previous connection.
type Client struct {
	conn     *websocket.Conn
	send     chan any
	cookieID string

	// boundID is the playerId this connection was attached to a room
	// with; it routes unicast frames. Set under the room lock.
	boundID string

	// room is the room this connection is attached to, if any. Writes
	// happen under the room lock: attach and leave run on this client's
	// own readPump goroutine, and the grace-removal timer only reaches the
	// detach loop after clientGone removed this connection from the room,
	// so readPump's unlocked disconnect read never races a write.
	room *Room

	mu     sync.Mutex
	closed bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "prompted_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		cookieID := getOrSetPlayerID(w, r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			cookieID: cookieID,
		}

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if c.room != nil {
			c.room.clientGone(cfg, c)
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.dispatch(cfg, reg, &msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// trySend queues a frame for this client without ever blocking the
// caller. Returns false when the buffer is full or the channel is gone,
// which callers treat as a dead client.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once, no matter how many
// paths (eviction, disconnect, room teardown) race to do it.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// reply answers a request: an ack when the request carried a seq, an error
// frame when it failed without one, silence otherwise.
func (c *Client) reply(seq int64, data any, err error) {
	if seq != 0 {
		ack := AckMessage{Type: "ack", Seq: seq, OK: err == nil, Data: data}
		if err != nil {
			ack.Kind = errorKind(err)
			ack.Error = err.Error()
		}
		c.trySend(ack)
		return
	}

	if err != nil {
		c.trySend(ErrorMessage{Type: "error", Kind: errorKind(err), Error: err.Error()})
	}
}

func (c *Client) dispatch(cfg *Config, reg *Registry, msg *ClientMessage) {
	playerID := msg.PlayerID
	if playerID == "" {
		playerID = c.cookieID
	}
	if playerID == "" {
		c.reply(msg.Seq, nil, validationError("missing player id"))
		return
	}

	switch msg.Type {
	case "createRoom":
		code, err := reg.createRoom(cfg, c, msg.Name, playerID)
		if err != nil {
			c.reply(msg.Seq, nil, err)
			return
		}
		c.reply(msg.Seq, CreateRoomResult{Code: code}, nil)
		return

	case "joinRoom":
		res, err := reg.joinRoom(cfg, c, msg.Code, msg.Name, playerID)
		c.reply(msg.Seq, res, err)
		return
	}

	room, ok := reg.get(msg.Code)
	if !ok {
		c.reply(msg.Seq, nil, notFoundError("unknown room code: %q", msg.Code))
		return
	}

	var data any
	var err error

	switch msg.Type {
	case "leaveRoom":
		reg.leaveRoom(cfg, msg.Code, playerID)
	case "readyUp":
		err = room.readyUp(cfg, playerID)
	case "gameMode":
		err = room.setGameMode(cfg, playerID, msg.AltMode)
	case "keepScore":
		err = room.setKeepScores(cfg, playerID, msg.KeepScores)
	case "sendPrompt":
		err = room.sendPrompt(cfg, playerID, msg.Prompt, msg.ImpPrompt)
	case "submitAnswer":
		err = room.submitAnswer(cfg, playerID, msg.Answer)
	case "votePlayer":
		err = room.votePlayer(cfg, playerID, msg.VotedPlayerIDs)
	case "submitVote":
		err = room.submitVote(cfg, playerID)
	case "nextRound":
		err = room.nextRound(cfg, playerID)
	case "gameDone":
		err = room.finishGame(cfg, playerID)
	case "playAgain":
		err = room.playAgain(cfg, playerID, msg.KeepScores)
	case "playAgainVote":
		err = room.playAgainVote(cfg, playerID)
	case "requestSync":
		err = room.requestSync(cfg, playerID)
	case "sendMessage":
		err = room.sendChat(cfg, playerID, msg.Message)
	case "requestMiniGameWord":
		data, err = room.miniGameState(playerID)
	case "submitUnscrambleGuess":
		err = room.submitUnscrambleGuess(cfg, playerID, msg.Guess)
	default:
		// ignore unknown types
		return
	}

	c.reply(msg.Seq, data, err)
}
