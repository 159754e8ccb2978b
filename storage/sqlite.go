/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 15:31:08
 * @FilePath: \go-edge\storage\sqlite.go
 * @Description: SQLite 检查点存储（跨进程重启恢复）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-logger"
	_ "github.com/mattn/go-sqlite3"
)

const tableCheckpoints = "checkpoints"

// SQLiteStore SQLite 检查点存储（实现 CheckpointStore）
type SQLiteStore struct {
	db     *sql.DB
	logger logger.ILogger
}

// NewSQLiteStore 创建 SQLite 存储实例
func NewSQLiteStore(dbPath string, log logger.ILogger) (*SQLiteStore, error) {
	// 如果不是内存模式，确保目录存在
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// SQLite 仅支持单写多读
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warnf("⚠️  执行 %s 失败: %v", pragma, err)
		}
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		checkpoint_id TEXT PRIMARY KEY,
		task_id INTEGER NOT NULL,
		payload BLOB,
		executed_portion INTEGER NOT NULL,
		is_final INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ckpt_task_id ON %s(task_id);
	CREATE INDEX IF NOT EXISTS idx_ckpt_created_at ON %s(created_at);
	`, tableCheckpoints, tableCheckpoints, tableCheckpoints)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("建表失败: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

// Save 持久化检查点
func (s *SQLiteStore) Save(cp *types.Checkpoint) error {
	if cp == nil {
		return types.ErrInvalidParameters
	}
	isFinal := 0
	if cp.IsFinal {
		isFinal = 1
	}
	_, err := s.db.Exec(
		fmt.Sprintf(`INSERT OR REPLACE INTO %s
		(checkpoint_id, task_id, payload, executed_portion, is_final, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, tableCheckpoints),
		cp.CheckpointID, cp.TaskID, cp.Payload, cp.ExecutedPortion, isFinal,
		cp.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	return nil
}

// Load 加载任务最新的检查点
func (s *SQLiteStore) Load(taskID uint64) (*types.Checkpoint, error) {
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT checkpoint_id, task_id, payload, executed_portion, is_final, created_at
		FROM %s WHERE task_id = ? ORDER BY created_at DESC LIMIT 1`, tableCheckpoints),
		taskID)

	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("任务 %d 无检查点: %w", taskID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("读取检查点失败: %w", err)
	}
	return cp, nil
}

// Delete 删除任务的全部检查点
func (s *SQLiteStore) Delete(taskID uint64) error {
	_, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE task_id = ?", tableCheckpoints), taskID)
	if err != nil {
		return fmt.Errorf("删除检查点失败: %w", err)
	}
	return nil
}

// List 列出全部任务的最新检查点
func (s *SQLiteStore) List() ([]*types.Checkpoint, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT c.checkpoint_id, c.task_id, c.payload, c.executed_portion, c.is_final, c.created_at
		FROM %s c
		INNER JOIN (SELECT task_id, MAX(created_at) AS latest FROM %s GROUP BY task_id) m
		ON c.task_id = m.task_id AND c.created_at = m.latest
		ORDER BY c.task_id`, tableCheckpoints, tableCheckpoints))
	if err != nil {
		return nil, fmt.Errorf("查询检查点失败: %w", err)
	}
	defer rows.Close()

	var all []*types.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描检查点失败: %w", err)
		}
		all = append(all, cp)
	}
	return all, rows.Err()
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCheckpoint(row rowScanner) (*types.Checkpoint, error) {
	var cp types.Checkpoint
	var isFinal int
	var createdAt int64
	if err := row.Scan(&cp.CheckpointID, &cp.TaskID, &cp.Payload,
		&cp.ExecutedPortion, &isFinal, &createdAt); err != nil {
		return nil, err
	}
	cp.IsFinal = isFinal == 1
	cp.CreatedAt = time.Unix(0, createdAt)
	return &cp, nil
}
