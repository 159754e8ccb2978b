/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 09:20:37
 * @FilePath: \go-edge\types\task.go
 * @Description: 任务与检查点模型定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package types

import (
	"time"

	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// 进程内单调递增的任务 ID 序列
var taskSeq = syncx.NewUint64(0)

// NextTaskID 分配进程唯一的单调任务 ID
func NextTaskID() uint64 {
	return taskSeq.Add(1)
}

// Task 计算任务
type Task struct {
	ID              uint64       `json:"id"`               // 进程唯一单调 ID
	Type            string       `json:"type"`             // 任务类型（按类型路由到处理器）
	Payload         []byte       `json:"payload"`          // 不透明负载
	Priority        int          `json:"priority"`         // 优先级
	Requirements    Requirements `json:"requirements"`     // 最低能力要求
	Policy          ErrorPolicy  `json:"policy"`           // 失败处理策略
	MaxRetries      int          `json:"max_retries"`      // 最大重试次数
	RetryCount      int          `json:"retry_count"`      // 已重试次数
	State           TaskState    `json:"state"`            // 生命周期状态
	ExecutedPortion int          `json:"executed_portion"` // 已执行字节数（恢复用）
	CreatedAt       time.Time    `json:"created_at"`
	StartedAt       time.Time    `json:"started_at"`
	CompletedAt     time.Time    `json:"completed_at"`
}

// NewTask 创建任务（复制负载，分配单调 ID）
func NewTask(taskType string, payload []byte, priority int, req Requirements) *Task {
	data := make([]byte, len(payload))
	copy(data, payload)

	return &Task{
		ID:           NextTaskID(),
		Type:         taskType,
		Payload:      data,
		Priority:     priority,
		Requirements: req,
		Policy:       ErrorPolicyRetry,
		State:        TaskStateQueued,
		CreatedAt:    time.Now(),
	}
}

// Checkpoint 可恢复的任务快照
// 调用方持有的值对象，不回引任何内部状态，可跨进程重启恢复
type Checkpoint struct {
	CheckpointID    string    `json:"checkpoint_id"`    // 快照唯一标识
	TaskID          uint64    `json:"task_id"`          // 所属任务 ID
	Payload         []byte    `json:"payload"`          // 负载快照（独立副本）
	ExecutedPortion int       `json:"executed_portion"` // 已执行字节数
	IsFinal         bool      `json:"is_final"`         // 是否已全部执行完
	CreatedAt       time.Time `json:"created_at"`
}

// Remaining 返回尚未执行的负载部分（副本）
func (cp *Checkpoint) Remaining() []byte {
	if cp.ExecutedPortion >= len(cp.Payload) {
		return nil
	}
	rest := make([]byte, len(cp.Payload)-cp.ExecutedPortion)
	copy(rest, cp.Payload[cp.ExecutedPortion:])
	return rest
}

// TaskResult 任务执行结果
type TaskResult struct {
	TaskID     uint64        `json:"task_id"`
	NodeID     string        `json:"node_id"` // 实际执行节点
	Output     []byte        `json:"output"`
	Success    bool          `json:"success"`
	Error      error         `json:"-"`
	ErrorMsg   string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`   // 路由尝试次数
	Recovered  bool          `json:"recovered"`  // 是否经过故障恢复
	FinishedAt time.Time     `json:"finished_at"`
	Metrics    TaskMetrics   `json:"metrics"` // 本地执行时填充
}

// TaskMetrics 本地任务执行指标
type TaskMetrics struct {
	QueueTimeMs      int64   `json:"queue_time_ms"`     // 排队耗时
	ExecutionTimeMs  int64   `json:"execution_time_ms"` // 执行耗时
	QueueUtilization float64 `json:"queue_utilization"` // 队列占用率 0-1
	PoolUtilization  float64 `json:"pool_utilization"`  // 工作协程占用率 0-1
}
