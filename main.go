/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 21:10:28
 * @FilePath: \go-edge\main.go
 * @Description: 边缘编排器主入口
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package main

import (
	"flag"
	"os"
	"time"

	"github.com/kamalyes/go-edge/bootstrap"
	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
)

var (
	// 基础参数
	configFile string
	nodeID     string
	strategy   types.SelectStrategy

	// 路由参数
	maxRoutingAttempts  int
	maxFallbackAttempts int
	backoffBase         time.Duration
	disableFallback     bool

	// 运行时参数
	queueSize  int
	maxWorkers int

	// 存储参数
	storageMode types.StorageMode
	storagePath string
	redisAddr   string

	// 事件参数
	enableWS     bool
	wsListenAddr string

	// 监控参数
	monitorInterval time.Duration

	// 安全参数
	secret          string
	tokenIssuer     string
	tokenExpiration time.Duration
	minTrustLevel   int

	// 日志配置
	logLevel string
	logFile  string
	quiet    bool
	verbose  bool
)

func init() {
	// 设置默认值
	storageMode = types.StorageModeMemory
	strategy = types.SelectStrategySecurity

	// 基础参数
	flag.StringVar(&configFile, "config", "", "配置文件路径 (yaml/json)")
	flag.StringVar(&nodeID, "node-id", "", "本机节点ID (可选,不指定则自动生成)")
	flag.Var(&strategy, "strategy", "节点选择策略 (performance/energy_efficient/load_balancing/proximity/security)")

	// 路由参数
	flag.IntVar(&maxRoutingAttempts, "max-routing-attempts", 3, "单任务最大路由尝试次数")
	flag.IntVar(&maxFallbackAttempts, "max-fallback-attempts", 5, "恢复梯队最大尝试次数")
	flag.DurationVar(&backoffBase, "backoff-base", 100*time.Millisecond, "退避基准时长")
	flag.BoolVar(&disableFallback, "no-fallback", false, "禁用故障恢复梯队")

	// 运行时参数
	flag.IntVar(&queueSize, "queue-size", 64, "本地任务队列容量")
	flag.IntVar(&maxWorkers, "workers", 4, "本地工作协程数")

	// 存储参数
	flag.Var(&storageMode, "storage", "检查点存储模式 (memory/sqlite/badger/redis)")
	flag.StringVar(&storagePath, "storage-path", "", "存储路径 (sqlite/badger)")
	flag.StringVar(&redisAddr, "redis-addr", "", "Redis地址 (redis存储模式)")

	// 事件参数
	flag.BoolVar(&enableWS, "ws", false, "开启 WebSocket 事件流")
	flag.StringVar(&wsListenAddr, "ws-addr", ":8099", "WebSocket 事件流监听地址")

	// 监控参数
	flag.DurationVar(&monitorInterval, "monitor-interval", 10*time.Second, "本机指标采样间隔")

	// 安全参数
	flag.StringVar(&secret, "secret", "", "Token签名密钥")
	flag.StringVar(&tokenIssuer, "token-issuer", "go-edge", "Token签发者")
	flag.DurationVar(&tokenExpiration, "token-expiration", 24*time.Hour, "Token过期时间 (默认24h)")
	flag.IntVar(&minTrustLevel, "min-trust-level", 1, "允许派发的最大威胁等级")

	// 日志配置
	flag.StringVar(&logLevel, "log-level", "info", "日志级别 (debug/info/warn/error)")
	flag.StringVar(&logFile, "log-file", "", "日志文件路径")
	flag.BoolVar(&quiet, "quiet", false, "静默模式（仅错误）")
	flag.BoolVar(&verbose, "verbose", false, "详细模式（包含调试信息）")
}

func main() {
	flag.Parse()

	initLogger()

	opts := bootstrap.StandaloneOptions{
		ConfigFile:      configFile,
		NodeID:          nodeID,
		Strategy:        strategy,
		StorageMode:     storageMode,
		StoragePath:     storagePath,
		RedisAddr:       redisAddr,
		EnableWS:        enableWS,
		WSListenAddr:    wsListenAddr,
		MonitorInterval: monitorInterval,
		Logger:          logger.Default,
		ConfigFunc:      buildConfig,
	}

	if err := bootstrap.RunStandalone(opts); err != nil {
		logger.Default.Errorf("❌ 启动失败: %v", err)
		os.Exit(1)
	}
}

// buildConfig 从命令行参数构建配置
func buildConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.NodeID = nodeID
	cfg.Registry.Strategy = strategy
	cfg.Router.MaxRoutingAttempts = maxRoutingAttempts
	cfg.Router.EnableFallback = !disableFallback
	cfg.Router.BackoffBase = backoffBase
	cfg.Fallback.MaxFallbackAttempts = maxFallbackAttempts
	cfg.Fallback.BackoffBase = backoffBase
	cfg.Runtime.TaskQueueSize = queueSize
	cfg.Runtime.MaxConcurrentTasks = maxWorkers
	cfg.Storage.Mode = storageMode
	cfg.Storage.Path = storagePath
	cfg.Storage.Addr = redisAddr
	cfg.Events.EnableWS = enableWS
	cfg.Events.WSListenAddr = wsListenAddr
	cfg.Security.Secret = secret
	cfg.Security.TokenIssuer = tokenIssuer
	cfg.Security.TokenExpiration = tokenExpiration
	cfg.Security.MinTrustLevel = minTrustLevel
	return cfg
}

// initLogger 初始化日志器
func initLogger() {
	config := logger.DefaultConfig()

	// 优先级：verbose > quiet > logLevel
	switch {
	case verbose:
		config = config.WithLevel(logger.DEBUG).WithShowCaller(true).WithTimeFormat("2006-01-02 15:04:05.000")
	case quiet:
		config = config.WithLevel(logger.ERROR)
	default:
		if level, err := logger.ParseLogLevel(logLevel); err == nil {
			config = config.WithLevel(level)
		}
	}

	// 配置输出
	if logFile != "" {
		rotateWriter := logger.NewRotateWriter(logFile, 100*1024*1024, 5)
		config = config.WithOutput(rotateWriter).WithColorful(false)
	}

	logger.SetDefault(logger.NewLogger(config))
}
