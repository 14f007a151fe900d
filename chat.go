package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chat is a side channel: it shares only the room code and player
// identity with the game engine, and no phase logic touches it. History
// is bounded and replayed to joining players.

const maxChatLength = 500

func (r *Room) sendChat(cfg *Config, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxChatLength {
		return validationError("message must be 1-%d characters", maxChatLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, _ := r.findPlayerLocked(playerID)
	if p == nil {
		return notFoundError("player not in room %s", r.code)
	}

	r.lastActive = time.Now()

	entry := ChatEntry{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Name:     p.Name,
		Message:  text,
	}

	r.chat = append(r.chat, entry)
	if len(r.chat) > chatHistoryCap {
		r.chat = r.chat[len(r.chat)-chatHistoryCap:]
	}

	r.broadcastLocked(NewChatMessage{Type: "newMessage", ChatEntry: entry})

	return nil
}
