// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/wordchain/state"
)

// Defaults 是新房间的初始配置
type Defaults struct {
	CheckDuplicates bool
	CooldownSeconds int
}

// DefaultSettings matches the classic bot: duplicates checked, 3 second cooldown.
var DefaultSettings = Defaults{CheckDuplicates: true, CooldownSeconds: 3}

// Room 是一个房间的游戏状态
// 除 GetID 外，所有方法都要求调用者持有房间锁 (见 Manager.Do)
type Room struct {
	ID              string
	CurrentWord     string // 空字符串表示游戏尚未开始
	LastPlayer      string
	UsedPairs       map[string]struct{}
	CheckDuplicates bool
	CooldownSeconds int
	GameChannelID   string
	StateMachine    state.StateMachine
	CreatedAt       time.Time
	mutex           sync.Mutex
}

// NewRoom 创建一个新房间
func NewRoom(id string, defaults Defaults) *Room {
	r := &Room{
		ID:              id,
		UsedPairs:       make(map[string]struct{}),
		CheckDuplicates: defaults.CheckDuplicates,
		CooldownSeconds: max(0, defaults.CooldownSeconds),
		CreatedAt:       time.Now(),
	}
	r.StateMachine = state.NewPhaseMachine(r)
	return r
}

// GetID 返回房间ID, 实现 state.RoomContext
func (r *Room) GetID() string {
	return r.ID
}

// Phase returns the id of the current phase.
func (r *Room) Phase() string {
	return r.StateMachine.GetCurrentState().GetID()
}

func (r *Room) IsUsed(phrase string) bool {
	_, ok := r.UsedPairs[phrase]
	return ok
}

func (r *Room) MarkUsed(phrase string) {
	r.UsedPairs[phrase] = struct{}{}
}

// Begin 开始新的一局：清空历史，起始词组记为已使用
func (r *Room) Begin(phrase, secondWord string) error {
	r.CurrentWord = secondWord
	r.LastPlayer = ""
	clear(r.UsedPairs)
	r.MarkUsed(phrase)
	return r.StateMachine.ChangeTo(state.PhaseInProgress)
}

// Advance records an accepted move.
func (r *Room) Advance(phrase, secondWord, playerID string) {
	r.CurrentWord = secondWord
	r.LastPlayer = playerID
	r.MarkUsed(phrase)
}

// Available filters candidates down to the moves still legal in this room.
func (r *Room) Available(candidates []string) []string {
	if !r.CheckDuplicates {
		return candidates
	}
	available := candidates[:0:0]
	for _, c := range candidates {
		if !r.IsUsed(c) {
			available = append(available, c)
		}
	}
	return available
}

// ResetHistory 清空已使用词组和上一位玩家，保留当前词
func (r *Room) ResetHistory() {
	clear(r.UsedPairs)
	r.LastPlayer = ""
}

// --- 房间管理器 ---

// Manager 管理所有房间，房间在第一次访问时创建
type Manager struct {
	rooms    map[string]*Room
	defaults Defaults
	mutex    sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(defaults Defaults) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		defaults: defaults,
	}
}

// GetOrCreate returns the room for id, creating it on first reference.
func (m *Manager) GetOrCreate(id string) *Room {
	m.mutex.RLock()
	r, exists := m.rooms[id]
	m.mutex.RUnlock()
	if exists {
		return r
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if r, exists = m.rooms[id]; exists {
		return r
	}
	r = NewRoom(id, m.defaults)
	m.rooms[id] = r
	return r
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.rooms[id]
	return r, exists
}

// Do runs fn while holding the room's lock, so check-then-update inside fn is atomic.
// Different rooms never block each other.
func (m *Manager) Do(id string, fn func(r *Room) error) error {
	r := m.GetOrCreate(id)
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return fn(r)
}

// RemoveRoom 从管理器中移除一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

// Count returns the number of known rooms.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// IDs returns the ids of all known rooms.
func (m *Manager) IDs() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}
