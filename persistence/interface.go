// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/wordchain/models"
)

// 计数器名称
const (
	CounterGameResets  = "game_resets"
	CounterGamesPlayed = "games_played"
)

// Database 数据库接口，保存提示配额与统计，游戏进行中的状态不持久化
type Database interface {
	LoadHelpUsage(userID, day string) (*models.HelpUsage, error)
	SaveHelpUsage(usage *models.HelpUsage) error
	ListHelpUsage(day string) ([]models.HelpUsage, error)
	// PruneHelpUsage deletes records with Day < before and returns how many were removed.
	PruneHelpUsage(before string) (int64, error)
	AddDailyWords(day string, delta int) error
	LoadDailyWords(days ...string) (map[string]int, error)
	AddCounter(name string, delta int64) error
	LoadCounter(name string) (int64, error)
	Close() error
}

// Transactor 支持事务的存储实现, fn 里对 tx 的写入要么全部提交要么全部回滚
type Transactor interface {
	Transaction(fn func(tx Database) error) error
}

// InTransaction runs fn in a transaction when db supports one, otherwise directly against db.
func InTransaction(db Database, fn func(tx Database) error) error {
	if t, ok := db.(Transactor); ok {
		return t.Transaction(fn)
	}
	return fn(db)
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
