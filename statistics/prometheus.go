/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 16:30:12
 * @FilePath: \go-edge\statistics\prometheus.go
 * @Description: Prometheus 指标镜像
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromExporter 将收集器的计数镜像为 Prometheus 指标
type PromExporter struct {
	tasksTotal          prometheus.Counter
	tasksSucceeded      prometheus.Counter
	tasksFailed         prometheus.Counter
	recoveryAttempts    prometheus.Counter
	recoveriesSucceeded prometheus.Counter
	criticalFailures    prometheus.Counter
}

// NewPromExporter 创建导出器并注册指标
func NewPromExporter(reg prometheus.Registerer) *PromExporter {
	factory := promauto.With(reg)

	return &PromExporter{
		tasksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "tasks_routed_total",
			Help:      "Total number of tasks submitted for routing",
		}),
		tasksSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "tasks_succeeded_total",
			Help:      "Total number of successfully routed tasks",
		}),
		tasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that exhausted routing attempts",
		}),
		recoveryAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "recovery_attempts_total",
			Help:      "Total number of fallback recovery attempts",
		}),
		recoveriesSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "recoveries_succeeded_total",
			Help:      "Total number of successful fallback recoveries",
		}),
		criticalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "edge",
			Name:      "critical_failures_total",
			Help:      "Total number of failed recovery attempts",
		}),
	}
}
