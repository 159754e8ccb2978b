/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 14:41:27
 * @FilePath: \go-edge\fallback\manager.go
 * @Description: 故障恢复管理器（五级恢复梯队）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/events"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/router"
	"github.com/kamalyes/go-edge/statistics"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Manager 故障恢复管理器
// 路由失败后按梯队逐级尝试恢复策略，全部耗尽才向上返回关键失败
type Manager struct {
	cfg        config.FallbackConfig
	registry   *registry.Registry
	dispatcher router.Dispatcher
	evt        *events.Dispatcher
	stats      *statistics.Collector
	ckpt       *CheckpointManager
	logger     logger.ILogger
}

// NewManager 创建故障恢复管理器
func NewManager(cfg config.FallbackConfig, reg *registry.Registry, dispatcher router.Dispatcher,
	evt *events.Dispatcher, stats *statistics.Collector, ckpt *CheckpointManager, log logger.ILogger) *Manager {
	return &Manager{
		cfg:        cfg,
		registry:   reg,
		dispatcher: dispatcher,
		evt:        evt,
		stats:      stats,
		ckpt:       ckpt,
		logger:     log,
	}
}

// HandleFailure 对路由失败的任务执行恢复梯队
// failedNodeID 为触发失败的节点（可为空，表示从未选中过节点）
func (m *Manager) HandleFailure(ctx context.Context, task *types.Task, failedNodeID string) (*types.TaskResult, error) {
	if task == nil {
		return nil, types.ErrInvalidParameters
	}

	exclude := map[string]bool{}
	if failedNodeID != "" {
		exclude[failedNodeID] = true
	}

	var lastErr error
	for attempt := 0; attempt < m.cfg.MaxFallbackAttempts; attempt++ {
		strategy := StrategyFor(attempt)
		m.stats.IncRecoveryAttempts()

		// 第一次恢复尝试立即执行，之后逐级指数退避；事件紧挨着尝试发出
		if attempt > 0 {
			if err := m.sleep(ctx, Delay(attempt-1, m.cfg.BackoffBase)); err != nil {
				return nil, err
			}
		}
		m.evt.EmitStrategy(types.EventNodeUnavailable, failedNodeID, task.ID, nil, strategy)

		m.logger.InfoKV("执行恢复策略",
			"task_id", task.ID,
			"attempt", attempt+1,
			"strategy", strategy)

		result, err := m.runStrategy(ctx, strategy, task, failedNodeID, exclude)
		if err == nil {
			result.Recovered = true
			result.Attempts = attempt + 1
			m.stats.IncSuccessfulRecoveries()
			m.evt.EmitStrategy(types.EventFullRecovery, result.NodeID, task.ID, result.Output, strategy)
			return result, nil
		}

		// 单次恢复失败：计入严重失败并发出部分执行事件，继续下一级策略
		lastErr = err
		m.stats.IncCriticalFailures()
		m.evt.EmitStrategy(types.EventPartialExecution, failedNodeID, task.ID, nil, strategy)
		m.logger.WarnKV("恢复策略失败",
			"task_id", task.ID,
			"strategy", strategy,
			"error", err)
	}

	m.evt.Emit(types.EventCriticalFailure, failedNodeID, task.ID, nil)
	if lastErr == nil {
		lastErr = types.ErrTaskFailure
	}
	return nil, errorx.WrapError(
		fmt.Sprintf("recovery exhausted after %d attempts", m.cfg.MaxFallbackAttempts), lastErr)
}

// runStrategy 执行单个恢复策略
func (m *Manager) runStrategy(ctx context.Context, strategy types.FallbackStrategy,
	task *types.Task, failedNodeID string, exclude map[string]bool) (*types.TaskResult, error) {
	switch strategy {
	case types.FallbackAlternativeRoute:
		return m.alternativeRoute(ctx, task, exclude)
	case types.FallbackRetryWithBackoff:
		return m.retrySameNode(ctx, task, failedNodeID)
	case types.FallbackRedundantNodes:
		return m.redundantNodes(ctx, task, exclude)
	case types.FallbackTaskDecomposition:
		return m.decompose(ctx, task, exclude)
	case types.FallbackAdaptiveReroute:
		return m.adaptiveReroute(ctx, task)
	default:
		return nil, fmt.Errorf("未知恢复策略 %s: %w", strategy, types.ErrUnsupported)
	}
}

// alternativeRoute 排除故障节点后重新选路
func (m *Manager) alternativeRoute(ctx context.Context, task *types.Task, exclude map[string]bool) (*types.TaskResult, error) {
	nodeID, err := m.registry.SelectExcluding(task.Requirements, exclude)
	if err != nil {
		return nil, err
	}
	return m.dispatchTo(ctx, nodeID, task.ID, task.Payload)
}

// retrySameNode 退避后在原节点重试；原节点未知时退化为重新选路
func (m *Manager) retrySameNode(ctx context.Context, task *types.Task, nodeID string) (*types.TaskResult, error) {
	if nodeID == "" {
		selected, err := m.registry.Select(task.Requirements)
		if err != nil {
			return nil, err
		}
		nodeID = selected
	} else if _, err := m.registry.Get(nodeID); err != nil {
		return nil, err
	}
	return m.dispatchTo(ctx, nodeID, task.ID, task.Payload)
}

// redundantNodes 并发派发到多个节点，取第一个成功结果
func (m *Manager) redundantNodes(ctx context.Context, task *types.Task, exclude map[string]bool) (*types.TaskResult, error) {
	nodes := m.registry.Candidates(task.Requirements, m.cfg.RedundantCount, exclude)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("无冗余候选节点: %w", types.ErrNotFound)
	}

	type outcome struct {
		nodeID string
		result *types.TaskResult
	}
	winner := syncx.NewMap[string, *outcome]()

	syncx.NewParallelSliceExecutor[string, *types.TaskResult](nodes).
		OnSuccess(func(idx int, nodeID string, result *types.TaskResult) {
			winner.LoadOrStore("first", &outcome{nodeID: nodeID, result: result})
		}).
		OnError(func(idx int, nodeID string, err error) {
			m.logger.WarnKV("冗余派发失败", "task_id", task.ID, "node_id", nodeID, "error", err)
		}).
		Execute(func(idx int, nodeID string) (*types.TaskResult, error) {
			return m.dispatchTo(ctx, nodeID, task.ID, task.Payload)
		})

	if first, ok := winner.Load("first"); ok {
		return first.result, nil
	}
	return nil, fmt.Errorf("所有冗余节点均失败: %w", types.ErrTaskFailure)
}

// decompose 把负载对半拆分顺序执行，中途保存检查点
// 前半成功后半失败时广播部分执行事件，检查点可供后续恢复
func (m *Manager) decompose(ctx context.Context, task *types.Task, exclude map[string]bool) (*types.TaskResult, error) {
	if len(task.Payload) < 2 {
		return nil, fmt.Errorf("负载过小无法拆分: %w", types.ErrUnsupported)
	}
	half := len(task.Payload) / 2

	nodeID, err := m.registry.SelectExcluding(task.Requirements, exclude)
	if err != nil {
		return nil, err
	}
	firstResult, err := m.dispatchTo(ctx, nodeID, task.ID, task.Payload[:half])
	if err != nil {
		return nil, err
	}

	// 前半已落地，记录中间检查点
	task.ExecutedPortion = half
	if m.ckpt != nil {
		if _, cerr := m.ckpt.Create(task); cerr != nil {
			m.logger.WarnKV("中间检查点保存失败", "task_id", task.ID, "error", cerr)
		}
	}

	secondNode, err := m.registry.SelectExcluding(task.Requirements, exclude)
	if err == nil {
		var secondResult *types.TaskResult
		secondResult, err = m.dispatchTo(ctx, secondNode, task.ID, task.Payload[half:])
		if err == nil {
			task.ExecutedPortion = len(task.Payload)
			combined := append(append([]byte{}, firstResult.Output...), secondResult.Output...)
			secondResult.Output = combined
			secondResult.Duration += firstResult.Duration
			return secondResult, nil
		}
	}

	m.evt.Emit(types.EventPartialExecution, nodeID, task.ID, nil)
	return nil, errorx.WrapError("后半段执行失败", err)
}

// adaptiveReroute 放宽能力要求后重新选路（最低要求减半）
func (m *Manager) adaptiveReroute(ctx context.Context, task *types.Task) (*types.TaskResult, error) {
	relaxed := task.Requirements
	relaxed.MinComputePower /= 2
	relaxed.MinMemoryCapacity /= 2
	relaxed.MinCores /= 2
	relaxed.MinBandwidth /= 2
	relaxed.MaxLatencyMs *= 2 // 0 表示不约束，放宽后仍为 0

	nodeID, err := m.registry.Select(relaxed)
	if err != nil {
		return nil, err
	}
	return m.dispatchTo(ctx, nodeID, task.ID, task.Payload)
}

// dispatchTo 单次派发并记录节点任务结果
func (m *Manager) dispatchTo(ctx context.Context, nodeID string, taskID uint64, payload []byte) (*types.TaskResult, error) {
	start := time.Now()
	output, err := m.dispatcher.Dispatch(ctx, nodeID, payload)
	execMs := time.Since(start).Milliseconds()

	if err != nil {
		m.registry.RecordTask(nodeID, false, execMs)
		return nil, err
	}
	m.registry.RecordTask(nodeID, true, execMs)
	return &types.TaskResult{
		TaskID:     taskID,
		NodeID:     nodeID,
		Output:     output,
		Success:    true,
		Duration:   time.Duration(execMs) * time.Millisecond,
		FinishedAt: time.Now(),
	}, nil
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
