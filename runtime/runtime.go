/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 17:46:21
 * @FilePath: \go-edge\runtime\runtime.go
 * @Description: 本地任务运行时（有界队列 + 固定工作协程池）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Callback 任务终态回调（完成/失败/中止各触发一次，且仅一次）
type Callback func(result *types.TaskResult)

// trackedTask 运行时内部的任务跟踪单元
type trackedTask struct {
	task     *types.Task
	sm       *syncx.StateMachine[types.TaskState]
	callback Callback
	once     sync.Once
}

// deliver 终态回调仅触发一次
func (tt *trackedTask) deliver(result *types.TaskResult) {
	tt.once.Do(func() {
		if tt.callback != nil {
			tt.callback(result)
		}
	})
}

// Runtime 本地任务运行时
// 有界队列提供背压，固定数量的工作协程消费队列
type Runtime struct {
	cfg      config.RuntimeConfig
	queue    chan *trackedTask
	tasks    *syncx.Map[uint64, *trackedTask]
	handlers *handlerRegistry
	running  *syncx.Bool
	busy     *syncx.Int32 // 正在执行任务的工作协程数
	mu       sync.Mutex // 保护 queue 的关闭与并发提交
	wg       sync.WaitGroup
	logger   logger.ILogger
}

// NewRuntime 创建任务运行时并启动工作协程
func NewRuntime(cfg config.RuntimeConfig, log logger.ILogger) *Runtime {
	r := &Runtime{
		cfg:      cfg,
		queue:    make(chan *trackedTask, cfg.TaskQueueSize),
		tasks:    syncx.NewMap[uint64, *trackedTask](),
		handlers: newHandlerRegistry(),
		running:  syncx.NewBool(true),
		busy:     syncx.NewInt32(0),
		logger:   log,
	}

	for i := 0; i < cfg.MaxConcurrentTasks; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	log.InfoKV("任务运行时已启动",
		"queue_size", cfg.TaskQueueSize,
		"workers", cfg.MaxConcurrentTasks)
	return r
}

// RegisterHandler 注册任务类型对应的处理器
func (r *Runtime) RegisterHandler(taskType string, h Handler) {
	r.handlers.register(taskType, h)
}

// newTaskStateMachine 为任务创建生命周期状态机
func newTaskStateMachine() *syncx.StateMachine[types.TaskState] {
	sm := syncx.NewStateMachine(types.TaskStateQueued, syncx.WithTrackHistory[types.TaskState](16))

	sm.AllowTransition(types.TaskStateQueued, types.TaskStateRunning)
	sm.AllowTransition(types.TaskStateQueued, types.TaskStateAborted)
	sm.AllowTransition(types.TaskStateRunning, types.TaskStateCompleted)
	sm.AllowTransition(types.TaskStateRunning, types.TaskStateFailed)

	return sm
}

// Submit 提交任务并阻塞直到入队成功
func (r *Runtime) Submit(task *types.Task, cb Callback) error {
	return r.SubmitTimeout(task, cb, -1)
}

// TrySubmit 非阻塞提交，队列满时返回 ErrCapacityExceeded
func (r *Runtime) TrySubmit(task *types.Task, cb Callback) error {
	return r.SubmitTimeout(task, cb, 0)
}

// SubmitTimeout 限时提交
// timeout < 0 阻塞等待，timeout == 0 非阻塞，否则等待至超时返回 ErrTimeout
func (r *Runtime) SubmitTimeout(task *types.Task, cb Callback, timeout time.Duration) error {
	if task == nil || len(task.Payload) == 0 {
		return fmt.Errorf("任务负载为空: %w", types.ErrInvalidParameters)
	}
	if !r.running.Load() {
		return fmt.Errorf("运行时已关闭: %w", types.ErrInvalidState)
	}

	tt := &trackedTask{
		task:     task,
		sm:       newTaskStateMachine(),
		callback: cb,
	}
	task.State = types.TaskStateQueued
	if _, loaded := r.tasks.LoadOrStore(task.ID, tt); loaded {
		return fmt.Errorf("任务 %d 已提交: %w", task.ID, types.ErrAlreadyExists)
	}

	if err := r.enqueue(tt, timeout); err != nil {
		r.tasks.Delete(task.ID)
		return err
	}
	return nil
}

// enqueue 入队（Shutdown 并发时通过 mu 与 running 保证不向已关闭通道发送）
func (r *Runtime) enqueue(tt *trackedTask, timeout time.Duration) error {
	if timeout == 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.running.Load() {
			return fmt.Errorf("运行时已关闭: %w", types.ErrInvalidState)
		}
		select {
		case r.queue <- tt:
			return nil
		default:
			return fmt.Errorf("任务队列已满: %w", types.ErrCapacityExceeded)
		}
	}

	// 阻塞提交不能全程持锁，轮询复用非阻塞路径以保持背压语义
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		err := r.enqueue(tt, 0)
		if err == nil || !types.IsCapacityExceeded(err) {
			return err
		}
		if timeout > 0 && time.Now().After(deadline) {
			return fmt.Errorf("入队等待超时: %w", types.ErrTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// Check 查询任务生命周期状态
// 状态机是生命周期的唯一属主，查询不读裸字段
func (r *Runtime) Check(taskID uint64) (types.TaskState, error) {
	tt, ok := r.tasks.Load(taskID)
	if !ok {
		return "", fmt.Errorf("任务 %d 不存在: %w", taskID, types.ErrNotFound)
	}
	return tt.sm.CurrentState(), nil
}

// Cancel 取消排队中的任务
// 仅允许 Queued → Aborted，运行中或已终态的任务返回 ErrInvalidState
func (r *Runtime) Cancel(taskID uint64) error {
	tt, ok := r.tasks.Load(taskID)
	if !ok {
		return fmt.Errorf("任务 %d 不存在: %w", taskID, types.ErrNotFound)
	}
	if err := tt.sm.TransitionTo(types.TaskStateAborted); err != nil {
		return fmt.Errorf("任务 %d 当前状态不可取消: %w", taskID, types.ErrInvalidState)
	}
	tt.task.State = types.TaskStateAborted
	tt.deliver(r.abortResult(tt.task, "cancelled"))
	r.logger.InfoKV("任务已取消", "task_id", taskID)
	return nil
}

// QueueDepth 当前排队任务数
func (r *Runtime) QueueDepth() int {
	return len(r.queue)
}

// Metrics 运行时利用率
func (r *Runtime) Metrics() types.TaskMetrics {
	return types.TaskMetrics{
		QueueUtilization: float64(len(r.queue)) / float64(r.cfg.TaskQueueSize),
		PoolUtilization:  float64(r.busy.Load()) / float64(r.cfg.MaxConcurrentTasks),
	}
}

// Shutdown 关闭运行时：拒绝新提交，排空队列（剩余任务按中止收尾），等待工作协程退出
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	if !r.running.Load() {
		r.mu.Unlock()
		return
	}
	r.running.Store(false)
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Info("任务运行时已停止")
}

// worker 工作协程主循环
func (r *Runtime) worker(id int) {
	defer r.wg.Done()

	for tt := range r.queue {
		// 关闭后队列中剩余的任务不再执行，按中止收尾
		if !r.running.Load() {
			if tt.sm.TransitionTo(types.TaskStateAborted) == nil {
				tt.task.State = types.TaskStateAborted
			}
			tt.deliver(r.abortResult(tt.task, "runtime shutdown"))
			continue
		}
		r.execute(id, tt)
	}
}

// execute 执行单个任务并投递终态回调
func (r *Runtime) execute(workerID int, tt *trackedTask) {
	// 已被取消的任务直接跳过
	if err := tt.sm.TransitionTo(types.TaskStateRunning); err != nil {
		return
	}
	r.busy.Add(1)
	defer r.busy.Add(-1)

	task := tt.task
	task.StartedAt = time.Now()
	queueMs := task.StartedAt.Sub(task.CreatedAt).Milliseconds()

	handler := r.handlers.resolve(task.Type)
	output, err := handler(context.Background(), task)
	execMs := time.Since(task.StartedAt).Milliseconds()

	result := &types.TaskResult{
		TaskID:     task.ID,
		Output:     output,
		Duration:   time.Duration(execMs) * time.Millisecond,
		FinishedAt: time.Now(),
		Metrics: types.TaskMetrics{
			QueueTimeMs:      queueMs,
			ExecutionTimeMs:  execMs,
			QueueUtilization: float64(len(r.queue)) / float64(r.cfg.TaskQueueSize),
			PoolUtilization:  float64(r.busy.Load()) / float64(r.cfg.MaxConcurrentTasks),
		},
	}

	if err != nil {
		tt.sm.TransitionTo(types.TaskStateFailed)
		task.State = types.TaskStateFailed
		result.Success = false
		result.Error = err
		result.ErrorMsg = err.Error()
		r.logger.WarnKV("任务执行失败",
			"worker", workerID,
			"task_id", task.ID,
			"queue_ms", queueMs,
			"error", err)
	} else {
		tt.sm.TransitionTo(types.TaskStateCompleted)
		task.State = types.TaskStateCompleted
		task.ExecutedPortion = len(task.Payload)
		result.Success = true
	}
	task.CompletedAt = result.FinishedAt
	tt.deliver(result)
}

func (r *Runtime) abortResult(task *types.Task, reason string) *types.TaskResult {
	return &types.TaskResult{
		TaskID:     task.ID,
		Success:    false,
		Error:      types.ErrInvalidState,
		ErrorMsg:   reason,
		FinishedAt: time.Now(),
	}
}
