// session/session.go
package session

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/wordchain/network"
)

// 每个连接的入站限流: 每秒 5 个包, 突发 10
const (
	DefaultRateLimit = rate.Limit(5)
	DefaultBurst     = 10
)

// PlayerPrefix 加在网关玩家 id 前面, 不会和 Discord 用户 id 冲突
const PlayerPrefix = "ws:"

// ErrPlayerBound is returned when a session tries to switch to another player.
var ErrPlayerBound = errors.New("session already bound to another player")

type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	bound      bool
	limiter    *rate.Limiter
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		PlayerID:   PlayerPrefix + id,
		CreatedAt:  now,
		LastActive: now,
		limiter:    rate.NewLimiter(DefaultRateLimit, DefaultBurst),
	}
}

// SetRateLimit replaces the inbound packet limiter.
func (s *Session) SetRateLimit(limit rate.Limit, burst int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.limiter = rate.NewLimiter(limit, burst)
}

// Allow reports whether one more inbound packet fits the session's rate limit.
func (s *Session) Allow() bool {
	s.mutex.RLock()
	limiter := s.limiter
	s.mutex.RUnlock()
	return limiter.Allow()
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) Player() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.PlayerID
}

// BindPlayer names the session's player once. An empty name keeps the current id,
// binding again to the same name is a no-op and any other name fails with ErrPlayerBound.
func (s *Session) BindPlayer(name string) error {
	if name == "" {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	playerID := PlayerPrefix + name
	if s.bound {
		if playerID != s.PlayerID {
			return ErrPlayerBound
		}
		return nil
	}
	s.PlayerID = playerID
	s.bound = true
	return nil
}

func (s *Session) Room() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID
}

func (s *Session) SetRoom(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomID = roomID
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

func (m *Manager) GetByPlayerID(playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Player() == playerID {
			result = append(result, session)
		}
	}
	return result
}

// ByRoom returns the sessions currently joined to roomID.
func (m *Manager) ByRoom(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Room() == roomID {
			result = append(result, session)
		}
	}
	return result
}
