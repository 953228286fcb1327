// models/gorm_models.go
package models

import (
	"time"
)

// GormHelpUsage 提示使用记录表
type GormHelpUsage struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:idx_help_user_day;not null"`
	Day       string `gorm:"uniqueIndex:idx_help_user_day;index;size:10;not null"`
	Used      int    `gorm:"default:0"`
	Max       int    `gorm:"default:5"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GormHelpUsage) TableName() string { return "help_usages" }

func (g GormHelpUsage) ToModel() HelpUsage {
	return HelpUsage{UserID: g.UserID, Day: g.Day, Used: g.Used, Max: g.Max, UpdatedAt: g.UpdatedAt}
}

// GormDailyWords 每日接龙成功次数
type GormDailyWords struct {
	Day   string `gorm:"primaryKey;size:10"`
	Count int    `gorm:"default:0"`
}

func (GormDailyWords) TableName() string { return "daily_words" }

// GormCounter 全局计数器 (game_resets, games_played)
type GormCounter struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     int64  `gorm:"default:0"`
	UpdatedAt time.Time
}

func (GormCounter) TableName() string { return "counters" }
