/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 11:23:46
 * @FilePath: \go-edge\router\router.go
 * @Description: 计算路由器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/events"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/statistics"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// Dispatcher 派发接口（实际的网络收发在外部实现）
type Dispatcher interface {
	Dispatch(ctx context.Context, nodeID string, payload []byte) ([]byte, error)
}

// DispatcherFunc 函数式派发器
type DispatcherFunc func(ctx context.Context, nodeID string, payload []byte) ([]byte, error)

// Dispatch 实现 Dispatcher 接口
func (f DispatcherFunc) Dispatch(ctx context.Context, nodeID string, payload []byte) ([]byte, error) {
	return f(ctx, nodeID, payload)
}

// Router 计算路由器
// 循环执行 选节点 → 派发 → 失败处理，事件在调用方协程上同步投递
type Router struct {
	cfg            config.RouterConfig
	registry       *registry.Registry
	dispatcher     Dispatcher
	dispatchEvents *events.Dispatcher
	stats          *statistics.Collector
	logger         logger.ILogger
}

// NewRouter 创建计算路由器
func NewRouter(cfg config.RouterConfig, reg *registry.Registry, dispatcher Dispatcher,
	evt *events.Dispatcher, stats *statistics.Collector, log logger.ILogger) *Router {
	return &Router{
		cfg:            cfg,
		registry:       reg,
		dispatcher:     dispatcher,
		dispatchEvents: evt,
		stats:          stats,
		logger:         log,
	}
}

// Backoff 第 attempt 次重试前的退避延迟：2^attempt × base
func Backoff(attempt int, base time.Duration) time.Duration {
	return base << uint(attempt)
}

// RouteTask 路由并执行任务
// 选路耗尽只将 failed_tasks 递增一次；派发失败在内部吸收，仅在所有尝试
// 耗尽后向调用方返回终态错误
func (r *Router) RouteTask(ctx context.Context, task *types.Task) (*types.TaskResult, error) {
	if task == nil || len(task.Payload) == 0 {
		return nil, fmt.Errorf("任务负载为空: %w", types.ErrInvalidParameters)
	}

	r.stats.IncTotalTasks()
	r.dispatchEvents.Emit(types.EventTaskInitiated, "", task.ID, nil)

	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxRoutingAttempts; attempt++ {
		// 第一次之后每轮尝试前退避；退避不持有任何锁
		if attempt > 0 {
			if err := r.sleep(ctx, Backoff(attempt-1, r.cfg.BackoffBase)); err != nil {
				return nil, err
			}
		}

		nodeID, err := r.registry.Select(task.Requirements)
		if err != nil {
			lastErr = err
			if attempt == r.cfg.MaxRoutingAttempts-1 {
				break
			}
			continue
		}

		r.dispatchEvents.Emit(types.EventNodeSelected, nodeID, task.ID, nil)

		result, err := r.dispatchOnce(ctx, nodeID, task)
		if err == nil {
			result.Attempts = attempt + 1
			r.stats.IncSuccessfulTasks()
			r.dispatchEvents.Emit(types.EventTaskCompleted, nodeID, task.ID, result.Output)
			return result, nil
		}

		lastErr = err
		r.logger.WarnKV("派发失败",
			"task_id", task.ID,
			"node_id", nodeID,
			"attempt", attempt+1,
			"error", err)

		// 策略为 Abort 或未启用退避重试时立即终止
		if !r.cfg.EnableFallback || task.Policy == types.ErrorPolicyAbort {
			r.stats.IncFailedTasks()
			r.dispatchEvents.Emit(types.EventRoutingFailed, nodeID, task.ID, nil)
			return nil, errorx.WrapError("dispatch aborted", err)
		}
		// 刚失败的节点得分已被折减，下一轮选择会自然避开
	}

	r.stats.IncFailedTasks()
	r.dispatchEvents.Emit(types.EventRoutingFailed, "", task.ID, nil)

	if lastErr == nil {
		lastErr = types.ErrNotFound
	}
	return nil, errorx.WrapError(
		fmt.Sprintf("routing failed after %d attempts", r.cfg.MaxRoutingAttempts), lastErr)
}

// dispatchOnce 单次派发并记录节点任务结果
func (r *Router) dispatchOnce(ctx context.Context, nodeID string, task *types.Task) (*types.TaskResult, error) {
	dispatchCtx := ctx
	if r.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, r.cfg.DispatchTimeout)
		defer cancel()
	}

	r.dispatchEvents.Emit(types.EventTaskDispatched, nodeID, task.ID, nil)

	start := time.Now()
	output, err := r.dispatcher.Dispatch(dispatchCtx, nodeID, task.Payload)
	execMs := time.Since(start).Milliseconds()

	if err != nil {
		r.registry.RecordTask(nodeID, false, execMs)
		return nil, err
	}

	r.registry.RecordTask(nodeID, true, execMs)
	return &types.TaskResult{
		TaskID:     task.ID,
		NodeID:     nodeID,
		Output:     output,
		Success:    true,
		Duration:   time.Duration(execMs) * time.Millisecond,
		FinishedAt: time.Now(),
	}, nil
}

// HandleNodeFailure 处理确定性的节点故障（健康检查失败）
// 与单次任务失败不同：直接把节点从注册表移除并广播 NodeFailure
func (r *Router) HandleNodeFailure(nodeID string) error {
	if err := r.registry.Remove(nodeID); err != nil {
		return err
	}
	r.dispatchEvents.Emit(types.EventNodeFailure, nodeID, 0, nil)
	r.logger.WarnKV("节点故障，已剔除", "node_id", nodeID)
	return nil
}

// sleep 可被 ctx 取消的退避等待
func (r *Router) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
