/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 19:35:44
 * @FilePath: \go-edge\orchestrator\orchestrator.go
 * @Description: 边缘编排器（组合根与公共 API）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/events"
	"github.com/kamalyes/go-edge/fallback"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/router"
	"github.com/kamalyes/go-edge/runtime"
	"github.com/kamalyes/go-edge/security"
	"github.com/kamalyes/go-edge/statistics"
	"github.com/kamalyes/go-edge/storage"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Orchestrator 边缘编排器
// 组合注册表、路由器、恢复管理器、本地运行时与安全提供方，暴露统一 API
type Orchestrator struct {
	cfg      *config.Config
	registry *registry.Registry
	router   *router.Router
	fallback *fallback.Manager
	runtime  *runtime.Runtime
	ckpt     *fallback.CheckpointManager
	store    storage.CheckpointStore
	provider security.Provider
	evt      *events.Dispatcher
	ws       *events.WSBroadcaster
	stats    *statistics.Collector
	logger   logger.ILogger

	dispatcher router.Dispatcher
	prom       *statistics.PromExporter

	cleaned *syncx.Bool
	mu      sync.Mutex
}

// Option 编排器可选项
type Option func(*Orchestrator)

// WithDispatcher 替换默认的本地回环派发器（接入实际传输层时使用）
func WithDispatcher(d router.Dispatcher) Option {
	return func(o *Orchestrator) { o.dispatcher = d }
}

// WithProvider 替换默认的安全提供方
func WithProvider(p security.Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithPromExporter 开启 Prometheus 统计镜像
func WithPromExporter(exp *statistics.PromExporter) Option {
	return func(o *Orchestrator) { o.prom = exp }
}

// New 按配置构建编排器
// 任一组件初始化失败时回收已创建的资源，不返回半初始化的句柄
func New(cfg *config.Config, log logger.ILogger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errorx.WrapError("配置校验失败", err)
	}
	if log == nil {
		log = logger.Default
	}

	o := &Orchestrator{
		cfg:     cfg,
		logger:  log,
		cleaned: syncx.NewBool(false),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.stats = statistics.NewCollector()
	if o.prom != nil {
		o.stats.SetExporter(o.prom)
	}
	o.evt = events.NewDispatcher(log)

	o.registry = registry.NewRegistry(cfg.Registry, log)

	store, err := storage.NewFactory(log).Create(cfg.Storage)
	if err != nil {
		return nil, errorx.WrapError("创建检查点存储失败", err)
	}
	o.store = store
	o.ckpt = fallback.NewCheckpointManager(store, log)

	o.runtime = runtime.NewRuntime(cfg.Runtime, log)

	if o.provider == nil {
		o.provider = security.NewTokenProvider(cfg.Security, log)
	}

	// 默认派发器为本地回环：任务直接投入本地运行时执行
	if o.dispatcher == nil {
		o.dispatcher = o.loopbackDispatcher()
	}

	o.router = router.NewRouter(cfg.Router, o.registry, o.dispatcher, o.evt, o.stats, log)
	o.fallback = fallback.NewManager(cfg.Fallback, o.registry, o.dispatcher, o.evt, o.stats, o.ckpt, log)

	if cfg.Events.EnableWS {
		ws := events.NewWSBroadcaster(cfg.Events.BufferSize, log)
		if err := ws.Start(context.Background(), cfg.Events.WSListenAddr); err != nil {
			o.unwind()
			return nil, errorx.WrapError("启动事件广播失败", err)
		}
		o.ws = ws
		o.evt.Register(ws)
	}

	log.InfoKV("边缘编排器已就绪",
		"node_id", cfg.NodeID,
		"strategy", cfg.Registry.Strategy,
		"storage", cfg.Storage.Mode)
	return o, nil
}

// Events 事件分发器（用于注册额外的事件接收器）
func (o *Orchestrator) Events() *events.Dispatcher { return o.evt }

// Registry 节点注册表
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// Runtime 本地任务运行时
func (o *Orchestrator) Runtime() *runtime.Runtime { return o.runtime }

// Provider 安全提供方
func (o *Orchestrator) Provider() security.Provider { return o.provider }

// RegisterNode 注册边缘节点并签发认证 token
func (o *Orchestrator) RegisterNode(nodeID string, metrics types.NodeMetrics) (string, error) {
	if err := o.registry.Register(nodeID, metrics); err != nil {
		return "", err
	}
	return o.provider.IssueToken(nodeID), nil
}

// RouteTask 为任务选择节点并路由执行
// 路由耗尽时自动进入恢复梯队（配置开启时）
func (o *Orchestrator) RouteTask(ctx context.Context, task *types.Task) (*types.TaskResult, error) {
	result, err := o.router.RouteTask(ctx, task)
	if err == nil {
		return result, nil
	}
	if !o.cfg.Router.EnableFallback || task == nil || task.Policy == types.ErrorPolicyAbort {
		return nil, err
	}
	return o.fallback.HandleFailure(ctx, task, "")
}

// ExecuteTask 在指定节点上执行任务（带威胁与认证闸门）
func (o *Orchestrator) ExecuteTask(ctx context.Context, nodeID, token string, task *types.Task) (*types.TaskResult, error) {
	if task == nil || len(task.Payload) == 0 {
		return nil, fmt.Errorf("任务负载为空: %w", types.ErrInvalidParameters)
	}

	if int(o.provider.Assess(nodeID)) > o.cfg.Security.MinTrustLevel {
		return nil, fmt.Errorf("节点 %s 威胁等级过高: %w", nodeID, types.ErrThreatTooHigh)
	}
	if err := o.provider.Authenticate(nodeID, token); err != nil {
		return nil, err
	}
	if err := o.registry.MarkAuthenticated(nodeID, true); err != nil {
		return nil, err
	}

	start := time.Now()
	o.evt.Emit(types.EventTaskDispatched, nodeID, task.ID, nil)
	output, err := o.dispatcher.Dispatch(ctx, nodeID, task.Payload)
	execMs := time.Since(start).Milliseconds()

	if err != nil {
		o.registry.RecordTask(nodeID, false, execMs)
		return nil, errorx.WrapError("节点执行失败", err)
	}
	o.registry.RecordTask(nodeID, true, execMs)
	o.evt.Emit(types.EventTaskCompleted, nodeID, task.ID, output)

	return &types.TaskResult{
		TaskID:     task.ID,
		NodeID:     nodeID,
		Output:     output,
		Success:    true,
		Duration:   time.Duration(execMs) * time.Millisecond,
		Attempts:   1,
		FinishedAt: time.Now(),
	}, nil
}

// HandleNodeFailure 处理确定性的节点故障
func (o *Orchestrator) HandleNodeFailure(nodeID string) error {
	return o.router.HandleNodeFailure(nodeID)
}

// CreateCheckpoint 为任务当前进度创建检查点
func (o *Orchestrator) CreateCheckpoint(task *types.Task) (*types.Checkpoint, error) {
	return o.ckpt.Create(task)
}

// ResumeTask 从检查点恢复任务并重新路由
func (o *Orchestrator) ResumeTask(ctx context.Context, taskID uint64) (*types.TaskResult, error) {
	task, err := o.ckpt.Resume(taskID)
	if err != nil {
		return nil, err
	}
	result, err := o.RouteTask(ctx, task)
	if err != nil {
		return nil, err
	}
	result.Recovered = true
	// 任务成功收尾后丢弃检查点
	if derr := o.ckpt.Discard(taskID); derr != nil {
		o.logger.WarnKV("清理检查点失败", "task_id", taskID, "error", derr)
	}
	return result, nil
}

// GetStatistics 聚合统计快照
func (o *Orchestrator) GetStatistics() types.Statistics {
	return o.stats.Snapshot()
}

// SubmitLocalTask 向本地运行时提交任务（阻塞直到入队）
func (o *Orchestrator) SubmitLocalTask(task *types.Task, cb runtime.Callback) error {
	return o.runtime.Submit(task, cb)
}

// CheckLocalTask 查询本地任务状态
func (o *Orchestrator) CheckLocalTask(taskID uint64) (types.TaskState, error) {
	return o.runtime.Check(taskID)
}

// CancelLocalTask 取消排队中的本地任务
func (o *Orchestrator) CancelLocalTask(taskID uint64) error {
	return o.runtime.Cancel(taskID)
}

// Cleanup 释放全部资源（幂等）
func (o *Orchestrator) Cleanup() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cleaned.Load() {
		return
	}
	o.cleaned.Store(true)
	o.unwind()
	o.logger.Info("边缘编排器已关闭")
}

// unwind 按创建的逆序释放已持有的资源
func (o *Orchestrator) unwind() {
	if o.ws != nil {
		if err := o.ws.Close(); err != nil {
			o.logger.WarnKV("关闭事件广播失败", "error", err)
		}
	}
	if o.runtime != nil {
		o.runtime.Shutdown()
	}
	if o.store != nil {
		if err := o.store.Close(); err != nil {
			o.logger.WarnKV("关闭检查点存储失败", "error", err)
		}
	}
}

// loopbackDispatcher 本地回环派发器
// 把路由到任意节点的任务投入本地运行时同步执行
func (o *Orchestrator) loopbackDispatcher() router.Dispatcher {
	return router.DispatcherFunc(func(ctx context.Context, nodeID string, payload []byte) ([]byte, error) {
		task := types.NewTask("loopback", payload, 0, types.Requirements{})

		done := make(chan *types.TaskResult, 1)
		if err := o.runtime.Submit(task, func(result *types.TaskResult) {
			done <- result
		}); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-done:
			if !result.Success {
				if result.Error != nil {
					return nil, result.Error
				}
				return nil, types.ErrTaskFailure
			}
			return result.Output, nil
		}
	})
}
