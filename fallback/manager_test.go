/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 22:40:21
 * @FilePath: \go-edge\fallback\manager_test.go
 * @Description: 故障恢复管理器测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/events"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/router"
	"github.com/kamalyes/go-edge/statistics"
	"github.com/kamalyes/go-edge/storage"
	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

func newTestManager(dispatcher router.Dispatcher) (*Manager, *registry.Registry, *statistics.Collector, *events.Dispatcher) {
	log := logger.New()
	cfg := config.DefaultConfig()
	cfg.Fallback.BackoffBase = time.Millisecond

	reg := registry.NewRegistry(cfg.Registry, log)
	stats := statistics.NewCollector()
	evt := events.NewDispatcher(log)
	ckpt := NewCheckpointManager(storage.NewMemoryStore(), log)
	m := NewManager(cfg.Fallback, reg, dispatcher, evt, stats, ckpt, log)
	return m, reg, stats, evt
}

func testMetrics() types.NodeMetrics {
	return types.NodeMetrics{
		ComputePower:     0.8,
		MemoryCapacity:   0.6,
		NetworkBandwidth: 100,
		CurrentLoad:      0.2,
		AvailableCores:   8,
		BatteryLevel:     1.0,
	}
}

// TestStrategyLadder 测试恢复策略阶梯
func TestStrategyLadder(t *testing.T) {
	assert.Equal(t, types.FallbackAlternativeRoute, StrategyFor(0))
	assert.Equal(t, types.FallbackRetryWithBackoff, StrategyFor(1))
	assert.Equal(t, types.FallbackRedundantNodes, StrategyFor(2))
	assert.Equal(t, types.FallbackTaskDecomposition, StrategyFor(3))
	assert.Equal(t, types.FallbackAdaptiveReroute, StrategyFor(4))
	assert.Equal(t, types.FallbackAdaptiveReroute, StrategyFor(9))
}

// TestDelayNonDecreasing 测试退避延迟单调不减
func TestDelayNonDecreasing(t *testing.T) {
	base := 100 * time.Millisecond
	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := Delay(attempt, base)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
	assert.Equal(t, 100*time.Millisecond, Delay(0, base))
	assert.Equal(t, 800*time.Millisecond, Delay(3, base))
}

// TestRecoveryAlternativeRoute 测试首个策略换路恢复
func TestRecoveryAlternativeRoute(t *testing.T) {
	var dispatched []string
	dispatcher := router.DispatcherFunc(func(_ context.Context, nodeID string, payload []byte) ([]byte, error) {
		dispatched = append(dispatched, nodeID)
		return payload, nil
	})

	m, reg, stats, evt := newTestManager(dispatcher)
	assert.NoError(t, reg.Register("failed-node", testMetrics()))
	assert.NoError(t, reg.Register("backup-node", testMetrics()))

	var recovered bool
	evt.Register(events.SinkFunc(func(e events.Event) {
		if e.Type == types.EventFullRecovery {
			recovered = true
		}
	}))

	task := types.NewTask("compute", []byte("data"), 0, types.Requirements{})
	result, err := m.HandleFailure(context.Background(), task, "failed-node")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Recovered)
	assert.Equal(t, "backup-node", result.NodeID)
	assert.Equal(t, []string{"backup-node"}, dispatched)
	assert.True(t, recovered)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.RecoveryAttempts)
	assert.Equal(t, uint64(1), snap.SuccessfulRecoveries)
	assert.Equal(t, uint64(0), snap.CriticalFailures)
}

// TestRecoveryExhaustion 测试梯队耗尽后关键失败
func TestRecoveryExhaustion(t *testing.T) {
	dispatcher := router.DispatcherFunc(func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return nil, errors.New("still broken")
	})

	m, _, stats, evt := newTestManager(dispatcher)

	var critical bool
	var partial int
	evt.Register(events.SinkFunc(func(e events.Event) {
		switch e.Type {
		case types.EventCriticalFailure:
			critical = true
		case types.EventPartialExecution:
			partial++
		}
	}))

	task := types.NewTask("compute", []byte("data"), 0, types.Requirements{})
	_, err := m.HandleFailure(context.Background(), task, "")

	assert.Error(t, err)
	assert.True(t, critical)

	// 每次失败的恢复尝试都计一次严重失败并发一次部分执行事件
	snap := stats.Snapshot()
	assert.Equal(t, uint64(5), snap.RecoveryAttempts)
	assert.Equal(t, uint64(0), snap.SuccessfulRecoveries)
	assert.Equal(t, uint64(5), snap.CriticalFailures)
	assert.Equal(t, 5, partial)
}

// TestRedundantNodesFirstSuccess 测试冗余派发任一成功即恢复
func TestRedundantNodesFirstSuccess(t *testing.T) {
	dispatcher := router.DispatcherFunc(func(_ context.Context, nodeID string, payload []byte) ([]byte, error) {
		if nodeID == "good-node" {
			return payload, nil
		}
		return nil, errors.New("bad node")
	})

	m, reg, _, _ := newTestManager(dispatcher)
	assert.NoError(t, reg.Register("bad-node", testMetrics()))
	assert.NoError(t, reg.Register("good-node", testMetrics()))

	task := types.NewTask("compute", []byte("data"), 0, types.Requirements{})
	result, err := m.redundantNodes(context.Background(), task, nil)

	assert.NoError(t, err)
	assert.Equal(t, "good-node", result.NodeID)
}

// TestAdaptiveRerouteRelaxes 测试自适应重路由放宽最低要求
func TestAdaptiveRerouteRelaxes(t *testing.T) {
	dispatcher := router.DispatcherFunc(func(_ context.Context, _ string, payload []byte) ([]byte, error) {
		return payload, nil
	})

	m, reg, _, _ := newTestManager(dispatcher)
	small := testMetrics()
	small.AvailableCores = 4
	assert.NoError(t, reg.Register("small-node", small))

	task := types.NewTask("compute", []byte("data"), 0, types.Requirements{MinCores: 8})

	// 原要求无节点满足
	_, err := m.alternativeRoute(context.Background(), task, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// 要求减半后可路由
	result, err := m.adaptiveReroute(context.Background(), task)
	assert.NoError(t, err)
	assert.Equal(t, "small-node", result.NodeID)

	// 带宽与延迟约束同样参与放宽：带宽减半、延迟上限翻倍
	slow := testMetrics()
	slow.NetworkBandwidth = 60
	slow.LatencyMs = 80
	assert.NoError(t, reg.Register("slow-node", slow))

	strict := types.NewTask("compute", []byte("data"), 0, types.Requirements{
		MinCores:     16,
		MinBandwidth: 100,
		MaxLatencyMs: 50,
	})
	_, err = m.alternativeRoute(context.Background(), strict, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)

	result, err = m.adaptiveReroute(context.Background(), strict)
	assert.NoError(t, err)
	assert.Equal(t, "slow-node", result.NodeID)
}

// TestDecomposeCreatesCheckpoint 测试任务拆分保存中间检查点
func TestDecomposeCreatesCheckpoint(t *testing.T) {
	calls := 0
	dispatcher := router.DispatcherFunc(func(_ context.Context, _ string, payload []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			return payload, nil
		}
		return nil, errors.New("second half failed")
	})

	log := logger.New()
	cfg := config.DefaultConfig()
	reg := registry.NewRegistry(cfg.Registry, log)
	store := storage.NewMemoryStore()
	ckpt := NewCheckpointManager(store, log)
	m := NewManager(cfg.Fallback, reg, dispatcher, events.NewDispatcher(log), statistics.NewCollector(), ckpt, log)

	assert.NoError(t, reg.Register("node-1", testMetrics()))

	task := types.NewTask("compute", []byte("abcdef"), 0, types.Requirements{})
	_, err := m.decompose(context.Background(), task, nil)
	assert.Error(t, err)

	// 前半已执行并保存了检查点
	cp, err := store.Load(task.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, cp.ExecutedPortion)
	assert.Equal(t, []byte("abcdef"), cp.Payload)
	assert.False(t, cp.IsFinal)
}
