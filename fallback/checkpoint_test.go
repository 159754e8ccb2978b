/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 22:55:03
 * @FilePath: \go-edge\fallback\checkpoint_test.go
 * @Description: 检查点管理器测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package fallback

import (
	"testing"

	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/storage"
	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

// TestCheckpointRoundTrip 测试检查点创建与恢复
func TestCheckpointRoundTrip(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	task := types.NewTask("compute", []byte("hello world"), 0, types.Requirements{})
	task.ExecutedPortion = 5

	cp, err := cm.Create(task)
	assert.NoError(t, err)
	assert.NotEmpty(t, cp.CheckpointID)
	assert.Equal(t, task.ID, cp.TaskID)
	assert.Equal(t, []byte("hello world"), cp.Payload)
	assert.Equal(t, 5, cp.ExecutedPortion)
	assert.False(t, cp.IsFinal)

	resumed, err := cm.Resume(task.ID)
	assert.NoError(t, err)
	assert.Equal(t, task.ID, resumed.ID)
	assert.Equal(t, []byte("hello world"), resumed.Payload)
	assert.Equal(t, 5, resumed.ExecutedPortion)
	assert.Equal(t, types.TaskStateQueued, resumed.State)
}

// TestCheckpointIndependentCopy 测试检查点负载与任务解耦
func TestCheckpointIndependentCopy(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	payload := []byte("original")
	task := types.NewTask("compute", payload, 0, types.Requirements{})

	cp, err := cm.Create(task)
	assert.NoError(t, err)

	// 篡改任务负载不影响已保存的检查点
	task.Payload[0] = 'X'
	assert.Equal(t, byte('o'), cp.Payload[0])
}

// TestCheckpointFinal 测试全部执行完的检查点标记
func TestCheckpointFinal(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	task := types.NewTask("compute", []byte("done"), 0, types.Requirements{})
	task.ExecutedPortion = len(task.Payload)

	cp, err := cm.Create(task)
	assert.NoError(t, err)
	assert.True(t, cp.IsFinal)
	assert.Nil(t, cp.Remaining())
}

// TestCheckpointLatestWins 测试同任务多检查点取最新
func TestCheckpointLatestWins(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	task := types.NewTask("compute", []byte("abcdef"), 0, types.Requirements{})

	task.ExecutedPortion = 2
	_, err := cm.Create(task)
	assert.NoError(t, err)

	task.ExecutedPortion = 4
	_, err = cm.Create(task)
	assert.NoError(t, err)

	resumed, err := cm.Resume(task.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4, resumed.ExecutedPortion)
}

// TestCheckpointDiscard 测试检查点清理
func TestCheckpointDiscard(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	task := types.NewTask("compute", []byte("data"), 0, types.Requirements{})
	_, err := cm.Create(task)
	assert.NoError(t, err)

	assert.NoError(t, cm.Discard(task.ID))

	_, err = cm.Resume(task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// TestCheckpointUnknownTask 测试未知任务恢复
func TestCheckpointUnknownTask(t *testing.T) {
	cm := NewCheckpointManager(storage.NewMemoryStore(), logger.New())

	_, err := cm.Resume(999999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
