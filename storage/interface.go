/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 15:02:31
 * @FilePath: \go-edge\storage\interface.go
 * @Description: 检查点存储接口定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import "github.com/kamalyes/go-edge/types"

// CheckpointStore 检查点存储接口（统一所有存储实现）
// 同一任务保存多个检查点时 Load 返回最新一个
type CheckpointStore interface {
	// Save 持久化检查点
	Save(cp *types.Checkpoint) error

	// Load 加载任务最新的检查点
	Load(taskID uint64) (*types.Checkpoint, error)

	// Delete 删除任务的全部检查点
	Delete(taskID uint64) error

	// List 列出全部检查点
	List() ([]*types.Checkpoint, error)

	// Close 关闭存储并释放资源
	Close() error
}
