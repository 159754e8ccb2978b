/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 16:02:53
 * @FilePath: \go-edge\storage\badger.go
 * @Description: BadgerDB 检查点存储（嵌入式 KV）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-logger"
)

// 检查点键格式：ckpt:<task_id>:<checkpoint_id>
const badgerKeyPrefix = "ckpt:"

// BadgerStore BadgerDB 检查点存储（实现 CheckpointStore）
type BadgerStore struct {
	db     *badger.DB
	logger logger.ILogger
}

// NewBadgerStore 创建 BadgerDB 存储实例
func NewBadgerStore(dbPath string, log logger.ILogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath).
		WithLoggingLevel(badger.WARNING). // 减少日志
		WithNumVersionsToKeep(1).         // 只保留最新版本
		WithCompactL0OnClose(true).       // 关闭时压缩
		WithValueThreshold(256).          // 大于 256 字节的值单独存储
		WithSyncWrites(false)             // 异步写入（性能优先）

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开 BadgerDB 失败: %w", err)
	}

	log.Infof("✅ BadgerDB 检查点存储已启动 (路径: %s)", dbPath)
	return &BadgerStore{db: db, logger: log}, nil
}

func badgerTaskPrefix(taskID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", badgerKeyPrefix, taskID))
}

// Save 持久化检查点
func (s *BadgerStore) Save(cp *types.Checkpoint) error {
	if cp == nil {
		return types.ErrInvalidParameters
	}
	value, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("序列化检查点失败: %w", err)
	}
	key := append(badgerTaskPrefix(cp.TaskID), cp.CheckpointID...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Load 加载任务最新的检查点
func (s *BadgerStore) Load(taskID uint64) (*types.Checkpoint, error) {
	var latest *types.Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = badgerTaskPrefix(taskID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var cp types.Checkpoint
				if err := json.Unmarshal(val, &cp); err != nil {
					return err
				}
				if latest == nil || cp.CreatedAt.After(latest.CreatedAt) {
					latest = &cp
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("读取检查点失败: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("任务 %d 无检查点: %w", taskID, types.ErrNotFound)
	}
	return latest, nil
}

// Delete 删除任务的全部检查点
func (s *BadgerStore) Delete(taskID uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = badgerTaskPrefix(taskID)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// List 列出全部任务的最新检查点
func (s *BadgerStore) List() ([]*types.Checkpoint, error) {
	latestByTask := map[uint64]*types.Checkpoint{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var cp types.Checkpoint
				if err := json.Unmarshal(val, &cp); err != nil {
					return err
				}
				if prev, ok := latestByTask[cp.TaskID]; !ok || cp.CreatedAt.After(prev.CreatedAt) {
					latestByTask[cp.TaskID] = &cp
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("遍历检查点失败: %w", err)
	}

	all := make([]*types.Checkpoint, 0, len(latestByTask))
	for _, cp := range latestByTask {
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TaskID < all[j].TaskID })
	return all, nil
}

// Close 关闭 BadgerDB
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
