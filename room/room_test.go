package room

import (
	"sync"
	"testing"

	"github.com/wfunc/wordchain/state"
)

func TestRoomManager_GetOrCreate(t *testing.T) {
	manager := NewRoomManager(DefaultSettings)

	if _, exists := manager.GetRoom("guild-1"); exists {
		t.Fatal("GetRoom should not find a room that was never referenced")
	}

	room := manager.GetOrCreate("guild-1")
	if room == nil {
		t.Fatal("GetOrCreate should not return nil")
	}
	if room.ID != "guild-1" {
		t.Errorf("Expected room ID guild-1, got %s", room.ID)
	}

	retrievedRoom, exists := manager.GetRoom("guild-1")
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrievedRoom != room {
		t.Error("GetRoom should return the same room instance")
	}
	if manager.GetOrCreate("guild-1") != room {
		t.Error("GetOrCreate should not replace an existing room")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", manager.Count())
	}
}

func TestNewRoom_Defaults(t *testing.T) {
	room := NewRoom("r", Defaults{CheckDuplicates: false, CooldownSeconds: -5})

	if room.CheckDuplicates {
		t.Error("Expected duplicate checking to follow the defaults")
	}
	if room.CooldownSeconds != 0 {
		t.Errorf("Expected negative cooldown to be clamped to 0, got %d", room.CooldownSeconds)
	}
	if room.CurrentWord != "" || room.LastPlayer != "" {
		t.Error("A new room has no current word and no last player")
	}
	if room.Phase() != state.PhaseNotStarted {
		t.Errorf("Expected phase %s, got %s", state.PhaseNotStarted, room.Phase())
	}
}

func TestRoom_BeginAndAdvance(t *testing.T) {
	room := NewRoom("r", DefaultSettings)
	room.MarkUsed("stale phrase")
	room.LastPlayer = "someone"

	if err := room.Begin("lá cây", "cây"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if room.CurrentWord != "cây" || room.LastPlayer != "" {
		t.Errorf("Unexpected state after Begin: word=%q last=%q", room.CurrentWord, room.LastPlayer)
	}
	if room.IsUsed("stale phrase") || !room.IsUsed("lá cây") {
		t.Error("Begin should clear history and mark the drawn phrase used")
	}

	room.Advance("cây cao", "cao", "alice")
	if room.CurrentWord != "cao" || room.LastPlayer != "alice" || !room.IsUsed("cây cao") {
		t.Error("Advance should move the chain forward")
	}

	room.ResetHistory()
	if len(room.UsedPairs) != 0 || room.LastPlayer != "" || room.CurrentWord != "cao" {
		t.Error("ResetHistory should keep only the current word")
	}
}

func TestRoom_Available(t *testing.T) {
	room := NewRoom("r", DefaultSettings)
	room.MarkUsed("a b")

	candidates := []string{"a b", "a c"}
	if got := room.Available(candidates); len(got) != 1 || got[0] != "a c" {
		t.Errorf("Expected only unused phrases, got %v", got)
	}
	if len(candidates) != 2 || candidates[0] != "a b" {
		t.Error("Available must not modify its input")
	}

	room.CheckDuplicates = false
	if got := room.Available(candidates); len(got) != 2 {
		t.Errorf("Expected all candidates with duplicate checking off, got %v", got)
	}
}

func TestManager_DoSerializesRoom(t *testing.T) {
	manager := NewRoomManager(DefaultSettings)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			manager.Do("shared", func(r *Room) error {
				r.CooldownSeconds++
				return nil
			})
		}()
	}
	wg.Wait()

	room, _ := manager.GetRoom("shared")
	if room.CooldownSeconds != DefaultSettings.CooldownSeconds+50 {
		t.Errorf("Expected %d, got %d", DefaultSettings.CooldownSeconds+50, room.CooldownSeconds)
	}
}

func TestManager_RemoveRoom(t *testing.T) {
	manager := NewRoomManager(DefaultSettings)
	manager.GetOrCreate("a")
	manager.GetOrCreate("b")

	manager.RemoveRoom("a")

	if _, exists := manager.GetRoom("a"); exists {
		t.Error("Removed room should not be found")
	}
	if ids := manager.IDs(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Expected only room b, got %v", ids)
	}
}
