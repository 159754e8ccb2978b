/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-15 01:01:12
 * @FilePath: \go-edge\config\config_test.go
 * @Description: 配置测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

// TestDefaultConfig 测试默认配置完整且合法
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Registry.MaxTrackedNodes)
	assert.Equal(t, types.SelectStrategySecurity, cfg.Registry.Strategy)
	assert.Equal(t, 3, cfg.Router.MaxRoutingAttempts)
	assert.True(t, cfg.Router.EnableFallback)
	assert.Equal(t, 100*time.Millisecond, cfg.Router.BackoffBase)
	assert.Equal(t, 5, cfg.Fallback.MaxFallbackAttempts)
	assert.Equal(t, 2, cfg.Fallback.RedundantCount)
	assert.Equal(t, 64, cfg.Runtime.TaskQueueSize)
	assert.Equal(t, 4, cfg.Runtime.MaxConcurrentTasks)
	assert.Equal(t, types.StorageModeMemory, cfg.Storage.Mode)
}

// TestScoringWeightsSum 测试默认评分权重和为 1
func TestScoringWeightsSum(t *testing.T) {
	s := DefaultConfig().Registry.Scoring
	sum := s.WeightCompute + s.WeightMemory + s.WeightNetwork + s.WeightIdleness + s.WeightCores
	assert.InDelta(t, 1.0, sum, 0.001)
}

// TestValidateRejectsBadValues 测试非法配置被拒绝
func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Registry.MaxTrackedNodes = 0
	assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidParameters)

	cfg = DefaultConfig()
	cfg.Router.MaxRoutingAttempts = -1
	assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidParameters)

	cfg = DefaultConfig()
	cfg.Runtime.TaskQueueSize = 0
	assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidParameters)

	cfg = DefaultConfig()
	cfg.Fallback.MaxFallbackAttempts = 0
	assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidParameters)
}

// TestLoadFromYAML 测试 YAML 配置加载
func TestLoadFromYAML(t *testing.T) {
	content := `
node_id: test-node
registry:
  max_tracked_nodes: 10
  strategy: performance
router:
  max_routing_attempts: 2
  enable_fallback: true
runtime:
  task_queue_size: 16
  max_concurrent_tasks: 2
storage:
  mode: memory
`
	path := filepath.Join(t.TempDir(), "edge.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewLoader().LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "test-node", cfg.NodeID)
	assert.Equal(t, 10, cfg.Registry.MaxTrackedNodes)
	assert.Equal(t, types.SelectStrategyPerformance, cfg.Registry.Strategy)
	assert.Equal(t, 2, cfg.Router.MaxRoutingAttempts)
	assert.Equal(t, 16, cfg.Runtime.TaskQueueSize)
}

// TestLoadFromJSON 测试 JSON 配置加载
func TestLoadFromJSON(t *testing.T) {
	content := `{
  "node_id": "json-node",
  "registry": {"max_tracked_nodes": 5, "strategy": "load_balancing"},
  "storage": {"mode": "memory"}
}`
	path := filepath.Join(t.TempDir(), "edge.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewLoader().LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "json-node", cfg.NodeID)
	assert.Equal(t, 5, cfg.Registry.MaxTrackedNodes)
	assert.Equal(t, types.SelectStrategyLoadBalancing, cfg.Registry.Strategy)
}

// TestLoadMissingFile 测试缺失文件报错
func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().LoadFromFile("/nonexistent/edge.yaml")
	assert.Error(t, err)
}
