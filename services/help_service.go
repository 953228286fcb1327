package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/models"
	"github.com/wfunc/wordchain/persistence"
)

// DefaultMaxHelpPerDay 每天默认提示次数
const DefaultMaxHelpPerDay = 5

var ErrInvalidAmount = errors.New("amount must be a positive integer")

// HelpService 管理每日提示配额，记录按 (用户, 日期) 保存，日期变化即自动重置
type HelpService struct {
	db        persistence.Database
	maxPerDay int
	clock     dayClock
	mutex     sync.Mutex
}

func NewHelpService(db persistence.Database, maxPerDay int, loc *time.Location) *HelpService {
	if maxPerDay < 1 {
		maxPerDay = DefaultMaxHelpPerDay
	}
	return &HelpService{
		db:        db,
		maxPerDay: maxPerDay,
		clock:     dayClock{loc: loc, now: time.Now},
	}
}

// SetClock is used by tests to pin the current time.
func (s *HelpService) SetClock(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.clock.now = now
}

// Today 返回当前日期键
func (s *HelpService) Today() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.clock.today()
}

// usage loads today's record from db or builds a fresh one. Caller holds the mutex.
func (s *HelpService) usage(db persistence.Database, userID string) (*models.HelpUsage, error) {
	day := s.clock.today()
	usage, err := db.LoadHelpUsage(userID, day)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return &models.HelpUsage{UserID: userID, Day: day, Max: s.maxPerDay}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load help usage for %s: %w", userID, err)
	}
	return usage, nil
}

func (s *HelpService) CanUseHelp(userID string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	usage, err := s.usage(s.db, userID)
	if err != nil {
		return false, err
	}
	return usage.Used < usage.Max, nil
}

// UseHelp consumes one hint, false when the daily quota is spent.
func (s *HelpService) UseHelp(userID string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	used := false
	err := persistence.InTransaction(s.db, func(tx persistence.Database) error {
		usage, err := s.usage(tx, userID)
		if err != nil {
			return err
		}
		if usage.Used >= usage.Max {
			return nil
		}
		usage.Used++
		if err := tx.SaveHelpUsage(usage); err != nil {
			return fmt.Errorf("save help usage for %s: %w", userID, err)
		}
		used = true
		return nil
	})
	return used, err
}

// Remaining returns hints left today and today's total.
func (s *HelpService) Remaining(userID string) (remaining, total int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	usage, err := s.usage(s.db, userID)
	if err != nil {
		return 0, 0, err
	}
	return usage.Remaining(), usage.Max, nil
}

// GiveHelp 为用户今天增加 amount 次提示
func (s *HelpService) GiveHelp(userID string, amount int) error {
	if amount < 1 {
		return ErrInvalidAmount
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var usage *models.HelpUsage
	err := persistence.InTransaction(s.db, func(tx persistence.Database) (err error) {
		if usage, err = s.usage(tx, userID); err != nil {
			return err
		}
		usage.Max += amount
		if err := tx.SaveHelpUsage(usage); err != nil {
			return fmt.Errorf("save help usage for %s: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Log.Infof("Gave %d help to %s, now %d/%d", amount, userID, usage.Used, usage.Max)
	return nil
}

// SetMaxHelpPerDay changes the quota for records created from now on.
func (s *HelpService) SetMaxHelpPerDay(maxHelp int) error {
	if maxHelp < 1 {
		return ErrInvalidAmount
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.maxPerDay = maxHelp
	return nil
}

func (s *HelpService) MaxHelpPerDay() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.maxPerDay
}

// Stats 当天提示统计
func (s *HelpService) Stats() (models.HelpStats, error) {
	var stats models.HelpStats
	usages, err := s.db.ListHelpUsage(s.Today())
	if err != nil {
		return stats, err
	}
	for _, u := range usages {
		stats.TotalUsersToday++
		stats.TotalHelpUsedToday += u.Used
		if u.Used > stats.MostHelpUsed {
			stats.MostHelpUsed = u.Used
			stats.MostActiveUser = u.UserID
		}
	}
	return stats, nil
}

// PruneOlderThan 删除 days 天以前的记录
func (s *HelpService) PruneOlderThan(days int) (int64, error) {
	s.mutex.Lock()
	before := s.clock.dayOffset(days)
	s.mutex.Unlock()

	removed, err := s.db.PruneHelpUsage(before)
	if err != nil {
		return 0, err
	}
	logger.Log.Infof("Pruned %d help records before %s", removed, before)
	return removed, nil
}
