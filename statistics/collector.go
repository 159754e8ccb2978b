/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 16:21:34
 * @FilePath: \go-edge\statistics\collector.go
 * @Description: 路由与恢复统计收集器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package statistics

import (
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Collector 统计收集器
// 进程级单调计数器，只能通过 Reset 显式清零
type Collector struct {
	totalTasks           *syncx.Uint64
	successfulTasks      *syncx.Uint64
	failedTasks          *syncx.Uint64
	recoveryAttempts     *syncx.Uint64
	successfulRecoveries *syncx.Uint64
	criticalFailures     *syncx.Uint64

	exporter *PromExporter // 可选的 Prometheus 镜像
}

// NewCollector 创建统计收集器
func NewCollector() *Collector {
	return &Collector{
		totalTasks:           syncx.NewUint64(0),
		successfulTasks:      syncx.NewUint64(0),
		failedTasks:          syncx.NewUint64(0),
		recoveryAttempts:     syncx.NewUint64(0),
		successfulRecoveries: syncx.NewUint64(0),
		criticalFailures:     syncx.NewUint64(0),
	}
}

// SetExporter 设置 Prometheus 镜像导出器
func (c *Collector) SetExporter(exp *PromExporter) {
	c.exporter = exp
}

// IncTotalTasks 任务开始路由时递增
func (c *Collector) IncTotalTasks() {
	c.totalTasks.Add(1)
	if c.exporter != nil {
		c.exporter.tasksTotal.Inc()
	}
}

// IncSuccessfulTasks 任务路由成功时递增
func (c *Collector) IncSuccessfulTasks() {
	c.successfulTasks.Add(1)
	if c.exporter != nil {
		c.exporter.tasksSucceeded.Inc()
	}
}

// IncFailedTasks 任务路由失败时递增（每个任务只计一次）
func (c *Collector) IncFailedTasks() {
	c.failedTasks.Add(1)
	if c.exporter != nil {
		c.exporter.tasksFailed.Inc()
	}
}

// IncRecoveryAttempts 恢复尝试递增
func (c *Collector) IncRecoveryAttempts() {
	c.recoveryAttempts.Add(1)
	if c.exporter != nil {
		c.exporter.recoveryAttempts.Inc()
	}
}

// IncSuccessfulRecoveries 恢复成功递增
func (c *Collector) IncSuccessfulRecoveries() {
	c.successfulRecoveries.Add(1)
	if c.exporter != nil {
		c.exporter.recoveriesSucceeded.Inc()
	}
}

// IncCriticalFailures 恢复失败递增
func (c *Collector) IncCriticalFailures() {
	c.criticalFailures.Add(1)
	if c.exporter != nil {
		c.exporter.criticalFailures.Inc()
	}
}

// Snapshot 读取当前统计快照
func (c *Collector) Snapshot() types.Statistics {
	return types.Statistics{
		TotalTasks:           c.totalTasks.Load(),
		SuccessfulTasks:      c.successfulTasks.Load(),
		FailedTasks:          c.failedTasks.Load(),
		RecoveryAttempts:     c.recoveryAttempts.Load(),
		SuccessfulRecoveries: c.successfulRecoveries.Load(),
		CriticalFailures:     c.criticalFailures.Load(),
	}
}

// SuccessRate 路由成功率（百分比）
func (c *Collector) SuccessRate() float64 {
	total := c.totalTasks.Load()
	if total == 0 {
		return 0
	}
	return mathx.Percentage(c.successfulTasks.Load(), total)
}

// Reset 显式清零所有计数器
func (c *Collector) Reset() {
	c.totalTasks.Store(0)
	c.successfulTasks.Store(0)
	c.failedTasks.Store(0)
	c.recoveryAttempts.Store(0)
	c.successfulRecoveries.Store(0)
	c.criticalFailures.Store(0)
}
