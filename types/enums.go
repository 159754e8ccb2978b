/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-12 10:22:18
 * @FilePath: \go-edge\types\enums.go
 * @Description: 枚举类型定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package types

// NodeStatus 节点健康状态 | EN Node health status
type NodeStatus string

const (
	NodeStatusHealthy  NodeStatus = "healthy"  // 健康 | EN Healthy
	NodeStatusDegraded NodeStatus = "degraded" // 降级（负载偏高） | EN Degraded (high load)
	NodeStatusCritical NodeStatus = "critical" // 临界（不参与调度） | EN Critical (excluded from scheduling)
	NodeStatusOffline  NodeStatus = "offline"  // 离线 | EN Offline
)

// TaskState 任务状态 | EN Task state
type TaskState string

const (
	TaskStateQueued    TaskState = "queued"    // 排队中 | EN Queued
	TaskStateRunning   TaskState = "running"   // 运行中 | EN Running
	TaskStateCompleted TaskState = "completed" // 已完成 | EN Completed
	TaskStateFailed    TaskState = "failed"    // 执行失败 | EN Failed
	TaskStateAborted   TaskState = "aborted"   // 已取消（仅排队中的任务可取消） | EN Aborted
)

// ErrorPolicy 任务失败处理策略 | EN Task failure policy
type ErrorPolicy string

const (
	ErrorPolicyAbort           ErrorPolicy = "abort"            // 失败立即终止
	ErrorPolicyRetry           ErrorPolicy = "retry"            // 失败后重试
	ErrorPolicyContinuePartial ErrorPolicy = "continue_partial" // 接受部分执行结果
)

// SelectStrategy 节点选择策略
type SelectStrategy string

const (
	SelectStrategyPerformance     SelectStrategy = "performance"      // 性能优先
	SelectStrategyEnergyEfficient SelectStrategy = "energy_efficient" // 能效优先
	SelectStrategyLoadBalancing   SelectStrategy = "load_balancing"   // 负载均衡
	SelectStrategyProximity       SelectStrategy = "proximity"        // 就近优先
	SelectStrategySecurity        SelectStrategy = "security"         // 安全优先（默认）
)

// SelectStrategy 实现 flag.Value 接口
func (s *SelectStrategy) String() string {
	if s == nil {
		return string(SelectStrategySecurity)
	}
	return string(*s)
}

func (s *SelectStrategy) Set(value string) error {
	*s = SelectStrategy(value)
	return nil
}

// FallbackStrategy 故障恢复策略（按尝试序号逐级升级）
type FallbackStrategy string

const (
	FallbackAlternativeRoute  FallbackStrategy = "alternative_route"  // 换节点重路由
	FallbackRetryWithBackoff  FallbackStrategy = "retry_with_backoff" // 原节点退避重试
	FallbackRedundantNodes    FallbackStrategy = "redundant_nodes"    // 多节点冗余派发
	FallbackTaskDecomposition FallbackStrategy = "task_decomposition" // 任务拆分执行
	FallbackAdaptiveReroute   FallbackStrategy = "adaptive_reroute"   // 放宽约束自适应重路由
)

// EventType 遥测事件类型
type EventType string

const (
	EventTaskInitiated    EventType = "task_initiated"    // 任务开始路由
	EventNodeSelected     EventType = "node_selected"     // 已选中节点
	EventTaskDispatched   EventType = "task_dispatched"   // 已派发
	EventTaskCompleted    EventType = "task_completed"    // 执行成功
	EventRoutingFailed    EventType = "routing_failed"    // 路由失败（选路耗尽）
	EventNodeFailure      EventType = "node_failure"      // 节点故障（确定性失败）
	EventNodeUnavailable  EventType = "node_unavailable"  // 节点不可用（恢复尝试前）
	EventFullRecovery     EventType = "full_recovery"     // 完全恢复
	EventPartialExecution EventType = "partial_execution" // 部分执行
	EventCriticalFailure  EventType = "critical_failure"  // 恢复梯队耗尽
)

// StorageMode 检查点存储模式
type StorageMode string

const (
	StorageModeMemory StorageMode = "memory" // 内存模式
	StorageModeSQLite StorageMode = "sqlite" // SQLite 持久化
	StorageModeBadger StorageMode = "badger" // BadgerDB 持久化
	StorageModeRedis  StorageMode = "redis"  // Redis 共享存储
)

// StorageMode 实现 flag.Value 接口
func (s *StorageMode) String() string {
	if s == nil {
		return string(StorageModeMemory)
	}
	return string(*s)
}

func (s *StorageMode) Set(value string) error {
	*s = StorageMode(value)
	return nil
}
