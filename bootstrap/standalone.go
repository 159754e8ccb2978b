/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 20:31:59
 * @FilePath: \go-edge\bootstrap\standalone.go
 * @Description: Standalone 模式启动器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/orchestrator"
	"github.com/kamalyes/go-edge/registry"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/netx"
	"github.com/kamalyes/go-toolbox/pkg/osx"
)

// StandaloneOptions Standalone 模式选项
type StandaloneOptions struct {
	ConfigFile      string
	NodeID          string
	Strategy        types.SelectStrategy
	StorageMode     types.StorageMode
	StoragePath     string
	RedisAddr       string
	EnableWS        bool
	WSListenAddr    string
	MonitorInterval time.Duration
	Logger          logger.ILogger
	ConfigFunc      func() *config.Config // 从命令行构建配置的函数
}

// RunStandalone 运行独立模式
// 构建编排器、用本机指标自注册为边缘节点、周期刷新指标，直到收到中断信号
func RunStandalone(opts StandaloneOptions) error {
	var cfg *config.Config
	var err error

	if opts.ConfigFile != "" {
		opts.Logger.Infof("📄 加载配置文件: %s", opts.ConfigFile)
		loader := config.NewLoader()
		cfg, err = loader.LoadFromFile(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("加载配置文件失败: %w", err)
		}
	} else if opts.ConfigFunc != nil {
		cfg = opts.ConfigFunc()
	} else {
		cfg = config.DefaultConfig()
	}

	applyOverrides(cfg, opts)

	orch, err := orchestrator.New(cfg, opts.Logger)
	if err != nil {
		return fmt.Errorf("创建编排器失败: %w", err)
	}
	defer orch.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 本机指标采样并自注册为边缘节点
	monitor := registry.NewLocalMonitor(opts.Logger, opts.MonitorInterval)
	metrics, err := monitor.Sample()
	if err != nil {
		opts.Logger.Warnf("⚠️  本机指标采样失败，使用保守默认值: %v", err)
		metrics = types.NodeMetrics{
			ComputePower:     1.0,
			MemoryCapacity:   1.0,
			NetworkBandwidth: 10.0,
			AvailableCores:   1,
			BatteryLevel:     1.0,
		}
	}

	token, err := orch.RegisterNode(cfg.NodeID, metrics)
	if err != nil {
		return fmt.Errorf("本机节点自注册失败: %w", err)
	}
	opts.Logger.InfoKV("本机已注册为边缘节点",
		"node_id", cfg.NodeID,
		"hostname", osx.SafeGetHostName(),
		"cores", metrics.AvailableCores,
		"token_issued", token != "")

	// 周期刷新本机指标
	go monitor.Start(ctx, func(m types.NodeMetrics) {
		if err := orch.Registry().UpdateMetrics(cfg.NodeID, m); err != nil {
			opts.Logger.WarnKV("刷新本机指标失败", "error", err)
		}
	})

	// 监听信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	opts.Logger.Info("🚀 边缘编排器运行中，Ctrl+C 退出")
	<-sigCh
	opts.Logger.Warn("\n\n⚠️  收到中断信号，正在停止...")
	cancel()

	stats := orch.GetStatistics()
	opts.Logger.InfoKV("最终统计",
		"total", stats.TotalTasks,
		"success", stats.SuccessfulTasks,
		"failed", stats.FailedTasks,
		"recoveries", stats.SuccessfulRecoveries)
	return nil
}

// applyOverrides 命令行选项覆盖配置文件
func applyOverrides(cfg *config.Config, opts StandaloneOptions) {
	if opts.NodeID != "" {
		cfg.NodeID = opts.NodeID
	}
	if cfg.NodeID == "" {
		cfg.NodeID = defaultNodeID()
	}
	if opts.Strategy != "" {
		cfg.Registry.Strategy = opts.Strategy
	}
	if opts.StorageMode != "" {
		cfg.Storage.Mode = opts.StorageMode
	}
	if opts.StoragePath != "" {
		cfg.Storage.Path = opts.StoragePath
	}
	if opts.RedisAddr != "" {
		cfg.Storage.Addr = opts.RedisAddr
	}
	if opts.EnableWS {
		cfg.Events.EnableWS = true
	}
	if opts.WSListenAddr != "" {
		cfg.Events.WSListenAddr = opts.WSListenAddr
	}
}

// defaultNodeID 生成默认节点 ID：主机名-私网IP-短UUID
func defaultNodeID() string {
	hostname := osx.SafeGetHostName()
	localIP, err := netx.GetPrivateIP()
	if err != nil {
		localIP = "127.0.0.1"
	}
	id := fmt.Sprintf("%s-%s-%s", hostname, localIP, uuid.New().String()[:8])
	if len(id) > types.MaxNodeIDLength {
		id = id[:types.MaxNodeIDLength]
	}
	return id
}
