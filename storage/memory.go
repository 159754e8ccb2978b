/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 15:09:44
 * @FilePath: \go-edge\storage\memory.go
 * @Description: 内存检查点存储
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import (
	"fmt"
	"sort"

	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// checkpointHistory 指针包装使检查点切片满足 syncx.Map 的 comparable 值约束
type checkpointHistory struct {
	cps []*types.Checkpoint
}

// MemoryStore 内存检查点存储
// 按任务 ID 保存检查点历史，进程退出即丢失
type MemoryStore struct {
	checkpoints *syncx.Map[uint64, *checkpointHistory]
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: syncx.NewMap[uint64, *checkpointHistory](),
	}
}

// Save 持久化检查点
func (s *MemoryStore) Save(cp *types.Checkpoint) error {
	if cp == nil {
		return types.ErrInvalidParameters
	}
	var cps []*types.Checkpoint
	if history, ok := s.checkpoints.Load(cp.TaskID); ok {
		cps = history.cps
	}
	s.checkpoints.Store(cp.TaskID, &checkpointHistory{cps: append(cps, cp)})
	return nil
}

// Load 加载任务最新的检查点
func (s *MemoryStore) Load(taskID uint64) (*types.Checkpoint, error) {
	history, ok := s.checkpoints.Load(taskID)
	if !ok || len(history.cps) == 0 {
		return nil, fmt.Errorf("任务 %d 无检查点: %w", taskID, types.ErrNotFound)
	}
	return history.cps[len(history.cps)-1], nil
}

// Delete 删除任务的全部检查点
func (s *MemoryStore) Delete(taskID uint64) error {
	s.checkpoints.Delete(taskID)
	return nil
}

// List 列出全部任务的最新检查点（按任务 ID 升序）
func (s *MemoryStore) List() ([]*types.Checkpoint, error) {
	var all []*types.Checkpoint
	s.checkpoints.Range(func(taskID uint64, history *checkpointHistory) bool {
		if len(history.cps) > 0 {
			all = append(all, history.cps[len(history.cps)-1])
		}
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].TaskID < all[j].TaskID })
	return all, nil
}

// Close 关闭存储（内存模式无资源可释放）
func (s *MemoryStore) Close() error {
	s.checkpoints.Range(func(taskID uint64, _ *checkpointHistory) bool {
		s.checkpoints.Delete(taskID)
		return true
	})
	return nil
}
