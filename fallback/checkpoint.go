/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 16:58:02
 * @FilePath: \go-edge\fallback\checkpoint.go
 * @Description: 任务检查点管理器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package fallback

import (
	"time"

	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/storage"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/idgen"
)

// CheckpointManager 任务检查点管理器
// 创建的检查点是完全独立的值对象，可跨进程重启恢复
type CheckpointManager struct {
	store       storage.CheckpointStore
	idGenerator *idgen.SnowflakeGenerator // Snowflake 生成全局唯一检查点 ID
	logger      logger.ILogger
}

// NewCheckpointManager 创建检查点管理器
func NewCheckpointManager(store storage.CheckpointStore, log logger.ILogger) *CheckpointManager {
	return &CheckpointManager{
		store:       store,
		idGenerator: idgen.NewSnowflakeGenerator(1, 1),
		logger:      log,
	}
}

// Create 对任务当前进度做快照并持久化
// 负载取独立副本，后续任务状态变化不影响已保存的检查点
func (cm *CheckpointManager) Create(task *types.Task) (*types.Checkpoint, error) {
	if task == nil {
		return nil, types.ErrInvalidParameters
	}

	payload := make([]byte, len(task.Payload))
	copy(payload, task.Payload)

	executed := task.ExecutedPortion
	if executed > len(payload) {
		executed = len(payload)
	}

	cp := &types.Checkpoint{
		CheckpointID:    cm.idGenerator.GenerateRequestID(),
		TaskID:          task.ID,
		Payload:         payload,
		ExecutedPortion: executed,
		IsFinal:         executed == len(payload),
		CreatedAt:       time.Now(),
	}

	if err := cm.store.Save(cp); err != nil {
		return nil, err
	}

	cm.logger.DebugKV("检查点已保存",
		"checkpoint_id", cp.CheckpointID,
		"task_id", cp.TaskID,
		"executed", cp.ExecutedPortion,
		"is_final", cp.IsFinal)
	return cp, nil
}

// Resume 从任务最新的检查点重建可提交的任务
// 重建的任务保留原 ID 与进度标记，负载为完整快照副本
func (cm *CheckpointManager) Resume(taskID uint64) (*types.Task, error) {
	cp, err := cm.store.Load(taskID)
	if err != nil {
		return nil, err
	}
	return cm.RebuildTask(cp), nil
}

// RebuildTask 从给定检查点重建任务
func (cm *CheckpointManager) RebuildTask(cp *types.Checkpoint) *types.Task {
	payload := make([]byte, len(cp.Payload))
	copy(payload, cp.Payload)

	return &types.Task{
		ID:              cp.TaskID,
		Payload:         payload,
		Policy:          types.ErrorPolicyRetry,
		State:           types.TaskStateQueued,
		ExecutedPortion: cp.ExecutedPortion,
		CreatedAt:       cp.CreatedAt,
	}
}

// Discard 删除任务的全部检查点（任务成功收尾后调用）
func (cm *CheckpointManager) Discard(taskID uint64) error {
	return cm.store.Delete(taskID)
}

// List 列出全部任务的最新检查点
func (cm *CheckpointManager) List() ([]*types.Checkpoint, error) {
	return cm.store.List()
}
