/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-15 02:12:30
 * @FilePath: \go-edge\registry\selector_test.go
 * @Description: 节点选择策略测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package registry

import (
	"testing"

	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

func entryWith(score, load float64) *types.NodeEntry {
	return &types.NodeEntry{
		PerfScore: score,
		Metrics: types.NodeMetrics{
			CurrentLoad:      load,
			NetworkBandwidth: 100,
		},
	}
}

// TestPerformanceSelectorPrefersIdle 测试性能策略看空闲度
func TestPerformanceSelectorPrefersIdle(t *testing.T) {
	s := NewPerformanceSelector()
	idle := entryWith(0.8, 0.1)
	busy := entryWith(0.8, 0.9)
	assert.Greater(t, s.Score(idle), s.Score(busy))
}

// TestEnergyEfficientSelector 测试能效策略低负载占优
func TestEnergyEfficientSelector(t *testing.T) {
	s := NewEnergyEfficientSelector()
	idle := entryWith(0.5, 0.0)
	busy := entryWith(0.5, 1.0)
	assert.InDelta(t, 5.0, s.Score(idle), 0.001)
	assert.Greater(t, s.Score(idle), s.Score(busy))
}

// TestLoadBalancingSelectorPenalizesFailures 测试负载均衡策略折减失败历史
func TestLoadBalancingSelectorPenalizesFailures(t *testing.T) {
	s := NewLoadBalancingSelector()

	clean := entryWith(0.8, 0.2)
	clean.TotalTaskCount = 10

	flaky := entryWith(0.8, 0.2)
	flaky.TotalTaskCount = 10
	flaky.FailedTaskCount = 5

	assert.Greater(t, s.Score(clean), s.Score(flaky))
}

// TestSecuritySelectorHalvesUnauthenticated 测试安全策略未认证减半
func TestSecuritySelectorHalvesUnauthenticated(t *testing.T) {
	s := NewSecuritySelector()

	entry := entryWith(0.8, 0.2)
	unauthScore := s.Score(entry)

	entry.Authenticated = true
	assert.InDelta(t, 0.8, s.Score(entry), 0.001)
	assert.InDelta(t, 0.4, unauthScore, 0.001)
}

// TestGetSelectorMapping 测试策略到选择器的映射
func TestGetSelectorMapping(t *testing.T) {
	assert.IsType(t, &PerformanceSelector{}, GetSelector(types.SelectStrategyPerformance))
	assert.IsType(t, &EnergyEfficientSelector{}, GetSelector(types.SelectStrategyEnergyEfficient))
	assert.IsType(t, &LoadBalancingSelector{}, GetSelector(types.SelectStrategyLoadBalancing))
	assert.IsType(t, &ProximitySelector{}, GetSelector(types.SelectStrategyProximity))
	assert.IsType(t, &SecuritySelector{}, GetSelector(types.SelectStrategySecurity))
	// 未知策略回落到默认安全策略
	assert.IsType(t, &SecuritySelector{}, GetSelector("unknown"))
}
