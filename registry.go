package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// Registry owns the code → room map, the only mutable state shared across
// rooms. Everything else happens under the individual room locks.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func newRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

const roomCodeLength = 4

// newRoomCode generates a crypto-random room code, rejection-sampled to
// avoid modulo bias, and retries until it misses every live room. Codes
// free up for reuse as soon as their room is torn down.
func (reg *Registry) newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const max = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, roomCodeLength)
		buf := make([]byte, roomCodeLength*2)

		for len(out) < roomCodeLength {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}

			for _, b := range buf {
				if b <= max {
					out = append(out, letters[int(b)%len(letters)])
					if len(out) == roomCodeLength {
						break
					}
				}
			}
		}
		code := string(out)

		reg.mu.Lock()
		_, exists := reg.rooms[code]
		reg.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// normalizeName collapses internal whitespace, trims, and enforces the
// 1-15 character display name rule.
func normalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || len(name) > maxNameLength {
		return "", validationError("name must be 1-%d characters", maxNameLength)
	}
	return name, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return "", validationError("room codes are %d characters", roomCodeLength)
	}
	return code, nil
}

func (reg *Registry) createRoom(cfg *Config, c *Client, name, playerID string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}

	code := reg.newRoomCode()
	room := newRoom(reg, code)

	reg.mu.Lock()
	reg.rooms[code] = room
	reg.mu.Unlock()

	room.join(cfg, c, name, playerID)

	logf(cfg, "ROOMS: %q created room %s", name, code)

	return code, nil
}

func (reg *Registry) get(code string) (*Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *Registry) joinRoom(cfg *Config, c *Client, code, name, playerID string) (*JoinRoomResult, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}

	room, ok := reg.get(code)
	if !ok {
		return nil, notFoundError("unknown room code: %q", code)
	}

	return room.join(cfg, c, name, playerID)
}

func (reg *Registry) leaveRoom(cfg *Config, code, playerID string) {
	room, ok := reg.get(code)
	if !ok {
		return
	}

	room.leave(cfg, playerID)
}

// remove tears a room down; called when the last member departs or the
// reaper finds it idle.
func (reg *Registry) remove(cfg *Config, code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	delete(reg.rooms, code)
	reg.mu.Unlock()

	if ok {
		go room.closeAll()
		logf(cfg, "ROOMS: Removed room %s", code)
	}
}

// reaperLoop periodically removes rooms that have been idle longer than
// the session timeout.
func (reg *Registry) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-cfg.sessionTimeout)

		reg.mu.Lock()
		stale := make([]string, 0)
		for code, room := range reg.rooms {
			room.mu.RLock()
			last := room.lastActive
			room.mu.RUnlock()

			if last.Before(cutoff) {
				stale = append(stale, code)
			}
		}
		reg.mu.Unlock()

		for _, code := range stale {
			reg.remove(cfg, code)
		}
	}
}
