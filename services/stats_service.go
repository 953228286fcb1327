package services

import (
	"time"

	"github.com/wfunc/wordchain/models"
	"github.com/wfunc/wordchain/persistence"
)

// weekDays 统计周期
const weekDays = 7

// StatsService 汇总统计：每日接龙次数、重置次数、开局次数
type StatsService struct {
	db    persistence.Database
	clock dayClock
}

func NewStatsService(db persistence.Database, loc *time.Location) *StatsService {
	return &StatsService{db: db, clock: dayClock{loc: loc, now: time.Now}}
}

// SetClock is used by tests to pin the current time.
func (s *StatsService) SetClock(now func() time.Time) {
	s.clock.now = now
}

func (s *StatsService) IncrementDailyWords() error {
	return s.db.AddDailyWords(s.clock.today(), 1)
}

func (s *StatsService) IncrementGameResets() error {
	return s.db.AddCounter(persistence.CounterGameResets, 1)
}

func (s *StatsService) IncrementGamesPlayed() error {
	return s.db.AddCounter(persistence.CounterGamesPlayed, 1)
}

func (s *StatsService) Daily() (models.DailyStats, error) {
	var stats models.DailyStats
	today := s.clock.today()

	words, err := s.db.LoadDailyWords(today)
	if err != nil {
		return stats, err
	}
	stats.WordsToday = words[today]

	if stats.TotalGameResets, err = s.db.LoadCounter(persistence.CounterGameResets); err != nil {
		return stats, err
	}
	if stats.TotalGamesPlayed, err = s.db.LoadCounter(persistence.CounterGamesPlayed); err != nil {
		return stats, err
	}
	return stats, nil
}

// All 返回今天、最近7天和全部统计
func (s *StatsService) All() (models.AllStats, error) {
	var all models.AllStats

	daily, err := s.Daily()
	if err != nil {
		return all, err
	}
	all.Today = daily
	all.GameResets = daily.TotalGameResets
	all.GamesPlayed = daily.TotalGamesPlayed

	days := make([]string, weekDays)
	for i := range days {
		days[i] = s.clock.dayOffset(i)
	}
	words, err := s.db.LoadDailyWords(days...)
	if err != nil {
		return all, err
	}
	for _, count := range words {
		all.WeekWords += count
	}
	return all, nil
}
