// Package repository 提供基于 gorm + sqlite 的持久化实现。
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/xandylearning/mentor-ai/backend/internal/config"
	"github.com/xandylearning/mentor-ai/backend/internal/model/chat"
	"github.com/xandylearning/mentor-ai/backend/pkg/logger"
)

// Open 打开 sqlite 数据库（WAL + busy timeout）并迁移表结构。
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	busy := cfg.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", cfg.Path, busy)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGorm(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite 只允许一个写者，单连接避免事务间的 SQLITE_BUSY。
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := db.AutoMigrate(&chat.Session{}, &chat.Message{}, &styleRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	log.Info("database ready", zap.String("path", cfg.Path))
	return db, nil
}

// Store 是会话、消息和导师风格的数据访问层。
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore 创建 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Ping 检查数据库连接，用于健康检查。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
