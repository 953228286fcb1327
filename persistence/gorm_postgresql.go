// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/wordchain/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormHelpUsage{},
		&models.GormDailyWords{},
		&models.GormCounter{},
	)
}

// LoadHelpUsage 加载某用户某天的提示记录
func (p *GormPostgreSQL) LoadHelpUsage(userID, day string) (*models.HelpUsage, error) {
	var row models.GormHelpUsage
	if err := p.db.Where("user_id = ? AND day = ?", userID, day).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	usage := row.ToModel()
	return &usage, nil
}

// SaveHelpUsage 保存提示记录 (UPSERT)
func (p *GormPostgreSQL) SaveHelpUsage(usage *models.HelpUsage) error {
	row := models.GormHelpUsage{
		UserID: usage.UserID,
		Day:    usage.Day,
		Used:   usage.Used,
		Max:    usage.Max,
	}
	return p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"used", "max", "updated_at"}),
	}).Create(&row).Error
}

// ListHelpUsage 列出某天所有记录
func (p *GormPostgreSQL) ListHelpUsage(day string) ([]models.HelpUsage, error) {
	var rows []models.GormHelpUsage
	if err := p.db.Where("day = ?", day).Order("user_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	usages := make([]models.HelpUsage, 0, len(rows))
	for _, row := range rows {
		usages = append(usages, row.ToModel())
	}
	return usages, nil
}

// PruneHelpUsage 删除过期记录
func (p *GormPostgreSQL) PruneHelpUsage(before string) (int64, error) {
	result := p.db.Where("day < ?", before).Delete(&models.GormHelpUsage{})
	return result.RowsAffected, result.Error
}

// AddDailyWords 原子增加某天的接龙次数
func (p *GormPostgreSQL) AddDailyWords(day string, delta int) error {
	row := models.GormDailyWords{Day: day, Count: delta}
	return p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("daily_words.count + ?", delta),
		}),
	}).Create(&row).Error
}

// LoadDailyWords 加载多天的接龙次数，缺失的天为 0
func (p *GormPostgreSQL) LoadDailyWords(days ...string) (map[string]int, error) {
	result := make(map[string]int, len(days))
	if len(days) == 0 {
		return result, nil
	}
	var rows []models.GormDailyWords
	if err := p.db.Where("day IN ?", days).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.Day] = row.Count
	}
	return result, nil
}

// AddCounter 原子增加计数器
func (p *GormPostgreSQL) AddCounter(name string, delta int64) error {
	row := models.GormCounter{Name: name, Value: delta}
	return p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("counters.value + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

// LoadCounter 读取计数器，不存在时为 0
func (p *GormPostgreSQL) LoadCounter(name string) (int64, error) {
	var row models.GormCounter
	err := p.db.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return row.Value, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction 事务支持, fn 返回错误时回滚
func (p *GormPostgreSQL) Transaction(fn func(tx Database) error) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormPostgreSQL{db: tx})
	})
}
