// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wfunc/wordchain/models"
)

const queryTimeout = 5 * time.Second

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgreSQL 数据库实现 (database/sql + lib/pq)
type PostgreSQL struct {
	db *sql.DB
	q  querier
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db, q: db}, nil
}

// initTables 初始化数据库表结构，与 GORM 模型保持一致
func initTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS help_usages (
            id SERIAL PRIMARY KEY,
            user_id TEXT NOT NULL,
            day VARCHAR(10) NOT NULL,
            used INTEGER NOT NULL DEFAULT 0,
            max INTEGER NOT NULL DEFAULT 5,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_help_user_day ON help_usages(user_id, day)`,
		`CREATE INDEX IF NOT EXISTS idx_help_usages_day ON help_usages(day)`,
		`CREATE TABLE IF NOT EXISTS daily_words (
            day VARCHAR(10) PRIMARY KEY,
            count INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS counters (
            name VARCHAR(64) PRIMARY KEY,
            value BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadHelpUsage 加载提示记录
func (p *PostgreSQL) LoadHelpUsage(userID, day string) (*models.HelpUsage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	usage := models.HelpUsage{UserID: userID, Day: day}
	query := `SELECT used, max, updated_at FROM help_usages WHERE user_id = $1 AND day = $2`
	err := p.q.QueryRowContext(ctx, query, userID, day).Scan(&usage.Used, &usage.Max, &usage.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &usage, nil
}

// SaveHelpUsage 使用 UPSERT 保存提示记录
func (p *PostgreSQL) SaveHelpUsage(usage *models.HelpUsage) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO help_usages (user_id, day, used, max)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, day)
        DO UPDATE SET used = $3, max = $4, updated_at = CURRENT_TIMESTAMP
    `
	_, err := p.q.ExecContext(ctx, query, usage.UserID, usage.Day, usage.Used, usage.Max)
	return err
}

// ListHelpUsage 列出某天所有记录
func (p *PostgreSQL) ListHelpUsage(day string) ([]models.HelpUsage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.q.QueryContext(ctx,
		`SELECT user_id, used, max, updated_at FROM help_usages WHERE day = $1 ORDER BY user_id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []models.HelpUsage
	for rows.Next() {
		usage := models.HelpUsage{Day: day}
		if err := rows.Scan(&usage.UserID, &usage.Used, &usage.Max, &usage.UpdatedAt); err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}

// PruneHelpUsage 删除过期记录
func (p *PostgreSQL) PruneHelpUsage(before string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	res, err := p.q.ExecContext(ctx, `DELETE FROM help_usages WHERE day < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddDailyWords 原子增加某天的接龙次数
func (p *PostgreSQL) AddDailyWords(day string, delta int) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO daily_words (day, count) VALUES ($1, $2)
        ON CONFLICT (day) DO UPDATE SET count = daily_words.count + $2
    `
	_, err := p.q.ExecContext(ctx, query, day, delta)
	return err
}

// LoadDailyWords 加载多天的接龙次数
func (p *PostgreSQL) LoadDailyWords(days ...string) (map[string]int, error) {
	result := make(map[string]int, len(days))
	if len(days) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.q.QueryContext(ctx, `SELECT day, count FROM daily_words WHERE day = ANY($1)`, pq.Array(days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		result[day] = count
	}
	return result, rows.Err()
}

// AddCounter 原子增加计数器
func (p *PostgreSQL) AddCounter(name string, delta int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO counters (name, value) VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET value = counters.value + $2, updated_at = CURRENT_TIMESTAMP
    `
	_, err := p.q.ExecContext(ctx, query, name, delta)
	return err
}

// LoadCounter 读取计数器
func (p *PostgreSQL) LoadCounter(name string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var value int64
	err := p.q.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = $1`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return value, err
}

// Transaction 在一个 sql.Tx 里执行 fn, fn 返回错误时回滚
func (p *PostgreSQL) Transaction(fn func(tx Database) error) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(&PostgreSQL{db: p.db, q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
