/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 09:14:52
 * @FilePath: \go-edge\types\models.go
 * @Description: 核心数据模型定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package types

import (
	"time"
)

// MaxNodeIDLength 节点 ID 最大长度
const MaxNodeIDLength = 63

// NodeMetrics 节点能力/利用率快照
type NodeMetrics struct {
	ComputePower     float64 `json:"compute_power" yaml:"compute_power"`         // 算力评分
	MemoryCapacity   float64 `json:"memory_capacity" yaml:"memory_capacity"`     // 内存容量 (GB)
	NetworkBandwidth float64 `json:"network_bandwidth" yaml:"network_bandwidth"` // 网络带宽 (Mbps)
	CurrentLoad      float64 `json:"current_load" yaml:"current_load"`           // 当前负载 0-1
	AvailableCores   int     `json:"available_cores" yaml:"available_cores"`     // 可用核心数
	BatteryLevel     float64 `json:"battery_level" yaml:"battery_level"`         // 电量 0-1（边缘/移动设备）
	LatencyMs        float64 `json:"latency_ms" yaml:"latency_ms"`               // 往返延迟 (ms)
	IsMobile         bool    `json:"is_mobile" yaml:"is_mobile"`                 // 是否移动节点
	UptimeSeconds    int64   `json:"uptime_seconds" yaml:"uptime_seconds"`       // 在线时长 (s)
}

// Requirements 任务的最低能力要求（与 NodeMetrics 同构）
type Requirements struct {
	MinComputePower   float64 `json:"min_compute_power" yaml:"min_compute_power"`
	MinMemoryCapacity float64 `json:"min_memory_capacity" yaml:"min_memory_capacity"`
	MinCores          int     `json:"min_cores" yaml:"min_cores"`
	MinBandwidth      float64 `json:"min_bandwidth" yaml:"min_bandwidth"`
	MaxLatencyMs      float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
}

// NodeEntry 注册表中的节点条目
// 条目由注册表独占持有，只能通过注册表 API 修改；对外只返回副本
type NodeEntry struct {
	NodeID          string      `json:"node_id"`
	Metrics         NodeMetrics `json:"metrics"`
	Status          NodeStatus  `json:"status"`
	LastSuccessTime time.Time   `json:"last_success_time"` // 最近一次任务成功时间
	TotalTaskCount  int64       `json:"total_task_count"`
	FailedTaskCount int64       `json:"failed_task_count"`
	PerfScore       float64     `json:"perf_score"` // 平滑后的综合性能得分
	Authenticated   bool        `json:"authenticated"`
	RegisteredAt    time.Time   `json:"registered_at"`
	registerSeq     uint64      // 注册顺序，同分时按先注册者优先
}

// Clone 返回条目的值副本（调用方持有副本，不会拿到活引用）
func (e *NodeEntry) Clone() NodeEntry {
	cp := *e
	return cp
}

// FailureRatio 计算失败率
func (e *NodeEntry) FailureRatio() float64 {
	if e.TotalTaskCount == 0 {
		return 0
	}
	return float64(e.FailedTaskCount) / float64(e.TotalTaskCount)
}

// RegisterSeq 注册序号（只读）
func (e *NodeEntry) RegisterSeq() uint64 {
	return e.registerSeq
}

// SetRegisterSeq 设置注册序号（仅注册表内部使用）
func (e *NodeEntry) SetRegisterSeq(seq uint64) {
	e.registerSeq = seq
}

// MeetsRequirements 判断节点能力是否满足最低要求
func (m *NodeMetrics) MeetsRequirements(req Requirements) bool {
	if m.ComputePower < req.MinComputePower {
		return false
	}
	if m.MemoryCapacity < req.MinMemoryCapacity {
		return false
	}
	if m.AvailableCores < req.MinCores {
		return false
	}
	if m.NetworkBandwidth < req.MinBandwidth {
		return false
	}
	// MaxLatencyMs 为 0 表示不约束延迟
	if req.MaxLatencyMs > 0 && m.LatencyMs > req.MaxLatencyMs {
		return false
	}
	return true
}

// Statistics 路由与恢复的进程级累计计数
type Statistics struct {
	TotalTasks           uint64 `json:"total_tasks"`
	SuccessfulTasks      uint64 `json:"successful_tasks"`
	FailedTasks          uint64 `json:"failed_tasks"`
	RecoveryAttempts     uint64 `json:"recovery_attempts"`
	SuccessfulRecoveries uint64 `json:"successful_recoveries"`
	CriticalFailures     uint64 `json:"critical_failures"`
}
