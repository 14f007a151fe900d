package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestSendChat(t *testing.T) {
	cfg := testConfig()
	_, room, _ := setupRoom(t, cfg, 2)

	mustNil(t, room.sendChat(cfg, "p0", "  hello there  "))

	if len(room.chat) != 1 {
		t.Fatalf("got %d chat entries, want 1", len(room.chat))
	}
	entry := room.chat[0]
	if entry.Message != "hello there" || entry.Name != "player0" || entry.ID == "" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if err := room.sendChat(cfg, "stranger", "hi"); errorKind(err) != ErrNotFound {
		t.Fatalf("got %v, want not-found error", err)
	}
	if err := room.sendChat(cfg, "p0", "   "); errorKind(err) != ErrValidation {
		t.Fatalf("got %v, want validation error", err)
	}
	if err := room.sendChat(cfg, "p0", strings.Repeat("x", maxChatLength+1)); errorKind(err) != ErrValidation {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestChatHistoryBoundedAndReplayed(t *testing.T) {
	cfg := testConfig()
	reg, room, _ := setupRoom(t, cfg, 2)

	for i := 0; i < chatHistoryCap+10; i++ {
		mustNil(t, room.sendChat(cfg, "p0", fmt.Sprintf("message %d", i)))
	}

	if len(room.chat) != chatHistoryCap {
		t.Fatalf("got %d chat entries, want %d", len(room.chat), chatHistoryCap)
	}
	last := room.chat[len(room.chat)-1]
	if last.Message != fmt.Sprintf("message %d", chatHistoryCap+9) {
		t.Fatalf("got last message %q, oldest entries should be dropped first", last.Message)
	}

	// A rejoining player gets the bounded history back.
	res, err := reg.joinRoom(cfg, nil, room.code, "player1", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chat) != chatHistoryCap {
		t.Fatalf("got %d replayed entries, want %d", len(res.Chat), chatHistoryCap)
	}
}
