/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 09:50:33
 * @FilePath: \go-edge\registry\selector.go
 * @Description: 节点选择策略实现
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package registry

import (
	"github.com/kamalyes/go-edge/types"
)

// Selector 节点选择器接口
// Score 只读取条目内容，返回该策略下的综合得分
type Selector interface {
	Score(entry *types.NodeEntry) float64
}

// PerformanceSelector 性能优先：得分 × 空闲度
type PerformanceSelector struct{}

// NewPerformanceSelector 创建性能优先选择器
func NewPerformanceSelector() *PerformanceSelector {
	return &PerformanceSelector{}
}

// Score 实现 Selector 接口
func (s *PerformanceSelector) Score(entry *types.NodeEntry) float64 {
	return entry.PerfScore * (1 - entry.Metrics.CurrentLoad)
}

// EnergyEfficientSelector 能效优先：低负载节点单位能耗更优
type EnergyEfficientSelector struct{}

// NewEnergyEfficientSelector 创建能效优先选择器
func NewEnergyEfficientSelector() *EnergyEfficientSelector {
	return &EnergyEfficientSelector{}
}

// Score 实现 Selector 接口
func (s *EnergyEfficientSelector) Score(entry *types.NodeEntry) float64 {
	return entry.PerfScore / (entry.Metrics.CurrentLoad + 0.1)
}

// LoadBalancingSelector 负载均衡：按历史失败率折减
type LoadBalancingSelector struct{}

// NewLoadBalancingSelector 创建负载均衡选择器
func NewLoadBalancingSelector() *LoadBalancingSelector {
	return &LoadBalancingSelector{}
}

// Score 实现 Selector 接口
func (s *LoadBalancingSelector) Score(entry *types.NodeEntry) float64 {
	failed := float64(entry.FailedTaskCount)
	total := float64(entry.TotalTaskCount)
	return entry.PerfScore * (1 - failed/(total+1))
}

// ProximitySelector 就近优先：带宽越小视为越近（边缘侧直连）
type ProximitySelector struct{}

// NewProximitySelector 创建就近优先选择器
func NewProximitySelector() *ProximitySelector {
	return &ProximitySelector{}
}

// Score 实现 Selector 接口
func (s *ProximitySelector) Score(entry *types.NodeEntry) float64 {
	return entry.PerfScore / (entry.Metrics.NetworkBandwidth + 1)
}

// SecuritySelector 安全优先（默认）：未认证节点得分减半
type SecuritySelector struct{}

// NewSecuritySelector 创建安全优先选择器
func NewSecuritySelector() *SecuritySelector {
	return &SecuritySelector{}
}

// Score 实现 Selector 接口
func (s *SecuritySelector) Score(entry *types.NodeEntry) float64 {
	if entry.Authenticated {
		return entry.PerfScore
	}
	return entry.PerfScore * 0.5
}

// GetSelector 根据策略获取选择器
func GetSelector(strategy types.SelectStrategy) Selector {
	switch strategy {
	case types.SelectStrategyPerformance:
		return NewPerformanceSelector()
	case types.SelectStrategyEnergyEfficient:
		return NewEnergyEfficientSelector()
	case types.SelectStrategyLoadBalancing:
		return NewLoadBalancingSelector()
	case types.SelectStrategyProximity:
		return NewProximitySelector()
	case types.SelectStrategySecurity:
		return NewSecuritySelector()
	default:
		return NewSecuritySelector()
	}
}
