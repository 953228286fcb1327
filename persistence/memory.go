// persistence/memory.go
package persistence

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/wordchain/models"
)

type helpKey struct {
	userID string
	day    string
}

// memoryStore holds the data without locking, Memory guards it.
type memoryStore struct {
	help       map[helpKey]models.HelpUsage
	dailyWords map[string]int
	counters   map[string]int64
}

// Memory 内存实现，用于开发和测试，进程退出即丢失
type Memory struct {
	store *memoryStore
	mutex sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{store: &memoryStore{
		help:       make(map[helpKey]models.HelpUsage),
		dailyWords: make(map[string]int),
		counters:   make(map[string]int64),
	}}
}

func (m *Memory) LoadHelpUsage(userID, day string) (*models.HelpUsage, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.store.LoadHelpUsage(userID, day)
}

func (m *Memory) SaveHelpUsage(usage *models.HelpUsage) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.store.SaveHelpUsage(usage)
}

func (m *Memory) ListHelpUsage(day string) ([]models.HelpUsage, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.store.ListHelpUsage(day)
}

func (m *Memory) PruneHelpUsage(before string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.store.PruneHelpUsage(before)
}

func (m *Memory) AddDailyWords(day string, delta int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.store.AddDailyWords(day, delta)
}

func (m *Memory) LoadDailyWords(days ...string) (map[string]int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.store.LoadDailyWords(days...)
}

func (m *Memory) AddCounter(name string, delta int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.store.AddCounter(name, delta)
}

func (m *Memory) LoadCounter(name string) (int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.store.LoadCounter(name)
}

func (m *Memory) Close() error {
	return nil
}

// Transaction runs fn against a copy of the data and keeps the copy only when fn succeeds.
// Other callers wait until fn returns.
func (m *Memory) Transaction(fn func(tx Database) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tx := m.store.clone()
	if err := fn(tx); err != nil {
		return err
	}
	m.store = tx
	return nil
}

func (s *memoryStore) clone() *memoryStore {
	return &memoryStore{
		help:       maps.Clone(s.help),
		dailyWords: maps.Clone(s.dailyWords),
		counters:   maps.Clone(s.counters),
	}
}

func (s *memoryStore) LoadHelpUsage(userID, day string) (*models.HelpUsage, error) {
	usage, ok := s.help[helpKey{userID, day}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &usage, nil
}

func (s *memoryStore) SaveHelpUsage(usage *models.HelpUsage) error {
	saved := *usage
	saved.UpdatedAt = time.Now()
	s.help[helpKey{usage.UserID, usage.Day}] = saved
	return nil
}

func (s *memoryStore) ListHelpUsage(day string) ([]models.HelpUsage, error) {
	var usages []models.HelpUsage
	for key, usage := range s.help {
		if key.day == day {
			usages = append(usages, usage)
		}
	}
	sort.Slice(usages, func(i, j int) bool { return usages[i].UserID < usages[j].UserID })
	return usages, nil
}

func (s *memoryStore) PruneHelpUsage(before string) (int64, error) {
	var removed int64
	for key := range s.help {
		if key.day < before {
			delete(s.help, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) AddDailyWords(day string, delta int) error {
	s.dailyWords[day] += delta
	return nil
}

func (s *memoryStore) LoadDailyWords(days ...string) (map[string]int, error) {
	result := make(map[string]int, len(days))
	for _, day := range days {
		if count, ok := s.dailyWords[day]; ok {
			result[day] = count
		}
	}
	return result, nil
}

func (s *memoryStore) AddCounter(name string, delta int64) error {
	s.counters[name] += delta
	return nil
}

func (s *memoryStore) LoadCounter(name string) (int64, error) {
	return s.counters[name], nil
}

// Close on a transaction handle does nothing, Memory owns the data.
func (s *memoryStore) Close() error {
	return nil
}
