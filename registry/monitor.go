/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 10:08:27
 * @FilePath: \go-edge\registry\monitor.go
 * @Description: 本机资源采样器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package registry

import (
	"context"
	"runtime"
	"time"

	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
	"github.com/kamalyes/go-toolbox/pkg/units"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// LocalMonitor 本机资源监控器
// 周期性采样本机指标，用于把本节点注册/刷新到注册表
type LocalMonitor struct {
	mu            *syncx.RWLock
	logger        logger.ILogger
	interval      time.Duration
	startTime     time.Time
	lastNetIO     *net.IOCountersStat
	lastNetIOTime time.Time
	lastMetrics   types.NodeMetrics
}

// NewLocalMonitor 创建本机资源监控器
func NewLocalMonitor(log logger.ILogger, interval time.Duration) *LocalMonitor {
	return &LocalMonitor{
		mu:            syncx.NewRWLock(),
		logger:        log,
		interval:      interval,
		startTime:     time.Now(),
		lastNetIOTime: time.Now(),
	}
}

// Start 启动周期采样，每轮结果通过 onSample 回调上报
func (lm *LocalMonitor) Start(ctx context.Context, onSample func(types.NodeMetrics)) {
	ticker := time.NewTicker(lm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics, err := lm.Sample()
			if err != nil {
				lm.logger.ErrorKV("本机指标采样失败", "error", err)
				continue
			}
			if onSample != nil {
				onSample(metrics)
			}
		}
	}
}

// Sample 采样一次本机能力指标
func (lm *LocalMonitor) Sample() (types.NodeMetrics, error) {
	metrics := types.NodeMetrics{
		AvailableCores: runtime.NumCPU(),
		UptimeSeconds:  int64(time.Since(lm.startTime).Seconds()),
	}

	// CPU 使用率 → 当前负载与剩余算力
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err == nil && len(cpuPercent) > 0 {
		metrics.CurrentLoad = cpuPercent[0] / 100
		metrics.ComputePower = 1 - metrics.CurrentLoad
	}

	// 内存容量 (GB)
	vmStat, err := mem.VirtualMemory()
	if err == nil {
		metrics.MemoryCapacity = float64(vmStat.Available) / (1 << 30)
		lm.logger.DebugKV("内存采样", "available", units.BytesSize(float64(vmStat.Available)))
	}

	// 系统负载叠加进当前负载（取较大者）
	loadAvg, err := load.Avg()
	if err == nil {
		normalized := loadAvg.Load1 / float64(runtime.NumCPU())
		if normalized > metrics.CurrentLoad {
			metrics.CurrentLoad = clamp01(normalized)
		}
	}

	// 主机信息：虚拟化/容器环境视为固定节点
	if info, err := host.Info(); err == nil {
		metrics.IsMobile = info.VirtualizationRole == "guest" && info.VirtualizationSystem == ""
	}

	// 网络 IO 速率 (Mbps)
	netIO, err := net.IOCounters(false)
	if err == nil && len(netIO) > 0 {
		currentIO := &netIO[0]
		currentTime := time.Now()

		syncx.WithLock(lm.mu, func() {
			if lm.lastNetIO != nil {
				duration := currentTime.Sub(lm.lastNetIOTime).Seconds()
				if duration > 0 {
					bytesDiff := float64(currentIO.BytesRecv - lm.lastNetIO.BytesRecv +
						currentIO.BytesSent - lm.lastNetIO.BytesSent)
					metrics.NetworkBandwidth = (bytesDiff * 8) / (1024 * 1024 * duration)
				}
			}
			lm.lastNetIO = currentIO
			lm.lastNetIOTime = currentTime
			lm.lastMetrics = metrics
		})
	}

	// 常驻设备不提供电量信息，视为满电
	metrics.BatteryLevel = 1.0

	return metrics, nil
}

// Last 返回最近一次采样结果
func (lm *LocalMonitor) Last() types.NodeMetrics {
	return syncx.WithRLockReturnValue(lm.mu, func() types.NodeMetrics {
		return lm.lastMetrics
	})
}
