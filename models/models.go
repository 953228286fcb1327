// models/models.go
package models

import (
	"time"
)

// HelpUsage 某用户某一天的提示使用情况
type HelpUsage struct {
	UserID    string    `json:"user_id"`
	Day       string    `json:"day"` // YYYY-MM-DD, 按配置时区
	Used      int       `json:"used"`
	Max       int       `json:"max"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining never goes below zero.
func (h HelpUsage) Remaining() int {
	return max(0, h.Max-h.Used)
}

// HelpStats 当天提示统计
type HelpStats struct {
	TotalUsersToday    int    `json:"total_users_today"`
	TotalHelpUsedToday int    `json:"total_help_used_today"`
	MostActiveUser     string `json:"most_active_user,omitempty"`
	MostHelpUsed       int    `json:"most_help_used"`
}

// DailyStats 当天统计
type DailyStats struct {
	WordsToday       int   `json:"words_today"`
	TotalGameResets  int64 `json:"total_game_resets"`
	TotalGamesPlayed int64 `json:"total_games_played"`
}

// AllStats 汇总统计
type AllStats struct {
	Today       DailyStats `json:"today"`
	WeekWords   int        `json:"week_words"`
	GameResets  int64      `json:"game_resets"`
	GamesPlayed int64      `json:"games_played"`
}
