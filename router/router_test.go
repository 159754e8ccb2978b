/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 22:08:55
 * @FilePath: \go-edge\router\router_test.go
 * @Description: 计算路由器测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/events"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/statistics"
	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(dispatcher Dispatcher) (*Router, *registry.Registry, *statistics.Collector, *events.Dispatcher) {
	log := logger.New()
	cfg := config.DefaultConfig()
	cfg.Router.BackoffBase = time.Millisecond

	reg := registry.NewRegistry(cfg.Registry, log)
	stats := statistics.NewCollector()
	evt := events.NewDispatcher(log)
	r := NewRouter(cfg.Router, reg, dispatcher, evt, stats, log)
	return r, reg, stats, evt
}

func echoDispatcher() Dispatcher {
	return DispatcherFunc(func(_ context.Context, _ string, payload []byte) ([]byte, error) {
		return payload, nil
	})
}

func failingDispatcher() Dispatcher {
	return DispatcherFunc(func(_ context.Context, _ string, _ []byte) ([]byte, error) {
		return nil, errors.New("node exploded")
	})
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

// TestRouteTaskSuccess 测试路由成功路径
func TestRouteTaskSuccess(t *testing.T) {
	r, reg, stats, _ := newTestRouter(echoDispatcher())
	assert.NoError(t, reg.Register("node-1", testMetrics()))

	task := types.NewTask("compute", []byte("payload"), 0, types.Requirements{})
	result, err := r.RouteTask(context.Background(), task)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "node-1", result.NodeID)
	assert.Equal(t, []byte("payload"), result.Output)
	assert.Equal(t, 1, result.Attempts)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.TotalTasks)
	assert.Equal(t, uint64(1), snap.SuccessfulTasks)
	assert.Equal(t, uint64(0), snap.FailedTasks)

	entry, _ := reg.Get("node-1")
	assert.Equal(t, int64(1), entry.TotalTaskCount)
	assert.Equal(t, int64(0), entry.FailedTaskCount)
}

// TestRouteTaskEmptyRegistry 测试空注册表耗尽全部尝试后终态失败
func TestRouteTaskEmptyRegistry(t *testing.T) {
	r, _, stats, evt := newTestRouter(echoDispatcher())

	var failedEvents int
	evt.Register(events.SinkFunc(func(e events.Event) {
		if e.Type == types.EventRoutingFailed {
			failedEvents++
		}
	}))

	task := types.NewTask("compute", []byte("payload"), 0, types.Requirements{})
	_, err := r.RouteTask(context.Background(), task)

	assert.ErrorIs(t, err, types.ErrNotFound)

	// failed_tasks 只在终态递增一次
	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.TotalTasks)
	assert.Equal(t, uint64(1), snap.FailedTasks)
	assert.Equal(t, 1, failedEvents)
}

// TestRouteTaskAbortPolicy 测试 Abort 策略首次派发失败立即终止
func TestRouteTaskAbortPolicy(t *testing.T) {
	r, reg, stats, _ := newTestRouter(failingDispatcher())
	assert.NoError(t, reg.Register("node-1", testMetrics()))

	task := types.NewTask("compute", []byte("payload"), 0, types.Requirements{})
	task.Policy = types.ErrorPolicyAbort

	_, err := r.RouteTask(context.Background(), task)
	assert.Error(t, err)

	snap := stats.Snapshot()
	assert.Equal(t, uint64(1), snap.FailedTasks)

	entry, _ := reg.Get("node-1")
	assert.Equal(t, int64(1), entry.FailedTaskCount)
}

// TestRouteTaskInvalidPayload 测试空负载被拒绝
func TestRouteTaskInvalidPayload(t *testing.T) {
	r, _, _, _ := newTestRouter(echoDispatcher())

	_, err := r.RouteTask(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidParameters)

	_, err = r.RouteTask(context.Background(), &types.Task{ID: 1})
	assert.ErrorIs(t, err, types.ErrInvalidParameters)
}

// TestRouteTaskEventOrder 测试成功路径的事件顺序
func TestRouteTaskEventOrder(t *testing.T) {
	r, reg, _, evt := newTestRouter(echoDispatcher())
	assert.NoError(t, reg.Register("node-1", testMetrics()))

	var seen []types.EventType
	evt.Register(events.SinkFunc(func(e events.Event) {
		seen = append(seen, e.Type)
	}))

	task := types.NewTask("compute", []byte("x"), 0, types.Requirements{})
	_, err := r.RouteTask(context.Background(), task)
	assert.NoError(t, err)

	assert.Equal(t, []types.EventType{
		types.EventTaskInitiated,
		types.EventNodeSelected,
		types.EventTaskDispatched,
		types.EventTaskCompleted,
	}, seen)
}

// TestBackoffDoubles 测试退避指数增长
func TestBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 100*time.Millisecond, Backoff(0, base))
	assert.Equal(t, 200*time.Millisecond, Backoff(1, base))
	assert.Equal(t, 400*time.Millisecond, Backoff(2, base))
	assert.Equal(t, 800*time.Millisecond, Backoff(3, base))
}

// TestHandleNodeFailure 测试确定性节点故障处理
func TestHandleNodeFailure(t *testing.T) {
	r, reg, _, evt := newTestRouter(echoDispatcher())
	assert.NoError(t, reg.Register("node-1", testMetrics()))

	var gotFailure bool
	evt.Register(events.SinkFunc(func(e events.Event) {
		if e.Type == types.EventNodeFailure && e.NodeID == "node-1" {
			gotFailure = true
		}
	}))

	assert.NoError(t, r.HandleNodeFailure("node-1"))
	assert.True(t, gotFailure)
	assert.Equal(t, 0, reg.Count())

	assert.ErrorIs(t, r.HandleNodeFailure("node-1"), types.ErrNotFound)
}
