/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-15 02:30:58
 * @FilePath: \go-edge\types\models_test.go
 * @Description: 基础模型测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTaskIDMonotonic 测试任务 ID 单调递增
func TestTaskIDMonotonic(t *testing.T) {
	a := NextTaskID()
	b := NextTaskID()
	c := NextTaskID()
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

// TestNewTaskCopiesPayload 测试任务构造复制负载
func TestNewTaskCopiesPayload(t *testing.T) {
	src := []byte("data")
	task := NewTask("compute", src, 1, Requirements{})

	src[0] = 'X'
	assert.Equal(t, byte('d'), task.Payload[0])
	assert.Equal(t, TaskStateQueued, task.State)
	assert.NotZero(t, task.ID)
}

// TestMeetsRequirements 测试能力要求判定
func TestMeetsRequirements(t *testing.T) {
	m := NodeMetrics{
		ComputePower:     0.5,
		MemoryCapacity:   0.5,
		AvailableCores:   4,
		NetworkBandwidth: 50,
		LatencyMs:        30,
	}

	assert.True(t, m.MeetsRequirements(Requirements{}))
	assert.True(t, m.MeetsRequirements(Requirements{MinCores: 4}))
	assert.False(t, m.MeetsRequirements(Requirements{MinCores: 8}))
	assert.False(t, m.MeetsRequirements(Requirements{MinComputePower: 0.9}))
	assert.False(t, m.MeetsRequirements(Requirements{MinMemoryCapacity: 0.9}))
	assert.True(t, m.MeetsRequirements(Requirements{MinBandwidth: 50}))
	assert.False(t, m.MeetsRequirements(Requirements{MinBandwidth: 100}))
	// MaxLatencyMs 为 0 表示不约束
	assert.True(t, m.MeetsRequirements(Requirements{MaxLatencyMs: 0}))
	assert.True(t, m.MeetsRequirements(Requirements{MaxLatencyMs: 30}))
	assert.False(t, m.MeetsRequirements(Requirements{MaxLatencyMs: 10}))
}

// TestNodeEntryClone 测试条目克隆与原件解耦
func TestNodeEntryClone(t *testing.T) {
	entry := &NodeEntry{
		NodeID:    "node-1",
		PerfScore: 0.7,
		Status:    NodeStatusHealthy,
	}

	clone := entry.Clone()
	clone.PerfScore = 0.1
	clone.Status = NodeStatusCritical

	assert.Equal(t, 0.7, entry.PerfScore)
	assert.Equal(t, NodeStatusHealthy, entry.Status)
}

// TestFailureRatio 测试失败率计算
func TestFailureRatio(t *testing.T) {
	entry := &NodeEntry{}
	assert.Equal(t, 0.0, entry.FailureRatio())

	entry.TotalTaskCount = 4
	entry.FailedTaskCount = 1
	assert.InDelta(t, 0.25, entry.FailureRatio(), 0.001)
}

// TestCheckpointRemaining 测试剩余负载计算
func TestCheckpointRemaining(t *testing.T) {
	cp := &Checkpoint{Payload: []byte("abcdef"), ExecutedPortion: 4}
	assert.Equal(t, []byte("ef"), cp.Remaining())

	cp.ExecutedPortion = 6
	assert.Nil(t, cp.Remaining())
}

// TestStrategyFlagValue 测试策略的 flag.Value 实现
func TestStrategyFlagValue(t *testing.T) {
	var s SelectStrategy
	assert.NoError(t, s.Set("performance"))
	assert.Equal(t, SelectStrategyPerformance, s)

	var m StorageMode
	assert.NoError(t, m.Set("badger"))
	assert.Equal(t, StorageModeBadger, m)
}
