/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 11:05:44
 * @FilePath: \go-edge\config\config.go
 * @Description: 边缘调度配置定义与默认值
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package config

import (
	"fmt"
	"time"

	"github.com/kamalyes/go-edge/types"
)

// RegistryConfig 节点注册表配置
type RegistryConfig struct {
	MaxTrackedNodes int            `json:"max_tracked_nodes" yaml:"max_tracked_nodes"` // 注册表容量上限
	Strategy        types.SelectStrategy `json:"strategy" yaml:"strategy"`             // 节点选择策略
	Scoring         ScoringConfig  `json:"scoring" yaml:"scoring"`                     // 打分权重
}

// ScoringConfig 节点打分权重
// 经验常数，允许按部署场景覆盖
type ScoringConfig struct {
	WeightCompute   float64 `json:"weight_compute" yaml:"weight_compute"`     // 算力权重
	WeightMemory    float64 `json:"weight_memory" yaml:"weight_memory"`       // 内存权重
	WeightNetwork   float64 `json:"weight_network" yaml:"weight_network"`     // 带宽权重
	WeightIdleness  float64 `json:"weight_idleness" yaml:"weight_idleness"`   // 空闲度权重 (1-load)
	WeightCores     float64 `json:"weight_cores" yaml:"weight_cores"`         // 核心数权重
	SmoothingFactor float64 `json:"smoothing_factor" yaml:"smoothing_factor"` // 平滑系数（新样本占比）
	CriticalRatio   float64 `json:"critical_ratio" yaml:"critical_ratio"`     // 失败率超过该值强制 Critical
}

// RouterConfig 计算路由器配置
type RouterConfig struct {
	MaxRoutingAttempts int           `json:"max_routing_attempts" yaml:"max_routing_attempts"` // 最大选路尝试次数
	EnableFallback     bool          `json:"enable_fallback" yaml:"enable_fallback"`           // 失败后是否退避重试
	BackoffBase        time.Duration `json:"backoff_base" yaml:"backoff_base"`                 // 退避基准（第 n 次延迟 = 2^n × base）
	DispatchTimeout    time.Duration `json:"dispatch_timeout" yaml:"dispatch_timeout"`         // 单次派发超时
}

// FallbackConfig 故障恢复配置
type FallbackConfig struct {
	MaxFallbackAttempts int           `json:"max_fallback_attempts" yaml:"max_fallback_attempts"` // 恢复梯队最大尝试次数
	BackoffBase         time.Duration `json:"backoff_base" yaml:"backoff_base"`                   // 退避基准
	RedundantCount      int           `json:"redundant_count" yaml:"redundant_count"`             // 冗余派发的节点数
}

// RuntimeConfig 本地执行运行时配置
type RuntimeConfig struct {
	TaskQueueSize      int `json:"task_queue_size" yaml:"task_queue_size"`           // 有界队列容量
	MaxConcurrentTasks int `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks"` // 固定工作协程数
}

// SecurityConfig 安全策略配置
type SecurityConfig struct {
	MinTrustLevel   int           `json:"min_trust_level" yaml:"min_trust_level"`   // 允许执行的最高威胁等级
	Secret          string        `json:"secret" yaml:"secret"`                     // 签名密钥
	TokenIssuer     string        `json:"token_issuer" yaml:"token_issuer"`         // Token 签发者
	TokenExpiration time.Duration `json:"token_expiration" yaml:"token_expiration"` // Token 过期时间
}

// StorageConfig 检查点存储配置
type StorageConfig struct {
	Mode types.StorageMode `json:"mode" yaml:"mode"` // memory/sqlite/badger/redis
	Path string            `json:"path" yaml:"path"` // sqlite/badger 存储路径
	Addr string            `json:"addr" yaml:"addr"` // redis 地址
}

// EventConfig 事件遥测配置
type EventConfig struct {
	BufferSize  int    `json:"buffer_size" yaml:"buffer_size"`   // 异步事件通道容量
	EnableWS    bool   `json:"enable_ws" yaml:"enable_ws"`       // 是否启动 WebSocket 事件流
	WSListenAddr string `json:"ws_listen_addr" yaml:"ws_listen_addr"` // 事件流监听地址
}

// Config go-edge 总配置
type Config struct {
	NodeID   string         `json:"node_id" yaml:"node_id"` // 本地节点 ID（空则自动生成）
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Router   RouterConfig   `json:"router" yaml:"router"`
	Fallback FallbackConfig `json:"fallback" yaml:"fallback"`
	Runtime  RuntimeConfig  `json:"runtime" yaml:"runtime"`
	Security SecurityConfig `json:"security" yaml:"security"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Events   EventConfig    `json:"events" yaml:"events"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			MaxTrackedNodes: 100,
			Strategy:        types.SelectStrategySecurity,
			Scoring: ScoringConfig{
				WeightCompute:   0.3,
				WeightMemory:    0.2,
				WeightNetwork:   0.2,
				WeightIdleness:  0.15,
				WeightCores:     0.15,
				SmoothingFactor: 0.3,
				CriticalRatio:   0.5,
			},
		},
		Router: RouterConfig{
			MaxRoutingAttempts: 3,
			EnableFallback:     true,
			BackoffBase:        100 * time.Millisecond,
			DispatchTimeout:    10 * time.Second,
		},
		Fallback: FallbackConfig{
			MaxFallbackAttempts: 5,
			BackoffBase:         100 * time.Millisecond,
			RedundantCount:      2,
		},
		Runtime: RuntimeConfig{
			TaskQueueSize:      64,
			MaxConcurrentTasks: 4,
		},
		Security: SecurityConfig{
			MinTrustLevel:   1,
			TokenIssuer:     "go-edge",
			TokenExpiration: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Mode: types.StorageModeMemory,
		},
		Events: EventConfig{
			BufferSize:   256,
			WSListenAddr: ":8099",
		},
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Registry.MaxTrackedNodes <= 0 {
		return fmt.Errorf("registry.max_tracked_nodes 必须大于 0: %w", types.ErrInvalidParameters)
	}
	if c.Router.MaxRoutingAttempts <= 0 {
		return fmt.Errorf("router.max_routing_attempts 必须大于 0: %w", types.ErrInvalidParameters)
	}
	if c.Fallback.MaxFallbackAttempts <= 0 {
		return fmt.Errorf("fallback.max_fallback_attempts 必须大于 0: %w", types.ErrInvalidParameters)
	}
	if c.Runtime.TaskQueueSize <= 0 {
		return fmt.Errorf("runtime.task_queue_size 必须大于 0: %w", types.ErrInvalidParameters)
	}
	if c.Runtime.MaxConcurrentTasks <= 0 {
		return fmt.Errorf("runtime.max_concurrent_tasks 必须大于 0: %w", types.ErrInvalidParameters)
	}

	s := c.Registry.Scoring
	if s.SmoothingFactor < 0 || s.SmoothingFactor > 1 {
		return fmt.Errorf("scoring.smoothing_factor 必须在 [0,1] 区间: %w", types.ErrInvalidParameters)
	}
	if s.CriticalRatio <= 0 || s.CriticalRatio > 1 {
		return fmt.Errorf("scoring.critical_ratio 必须在 (0,1] 区间: %w", types.ErrInvalidParameters)
	}
	return nil
}
