/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 09:42:18
 * @FilePath: \go-edge\registry\registry.go
 * @Description: 节点注册表与选择器
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package registry

import (
	"fmt"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Registry 节点注册表
// 条目由注册表独占持有；所有操作由同一把锁串行化
// （节点数量小、扫描 O(n)，粗粒度锁足够）
type Registry struct {
	mu       *syncx.RWLock
	nodes    map[string]*types.NodeEntry
	seq      uint64 // 注册序号，同分时先注册者优先
	cfg      config.RegistryConfig
	selector Selector
	logger   logger.ILogger
}

// NewRegistry 创建节点注册表
func NewRegistry(cfg config.RegistryConfig, log logger.ILogger) *Registry {
	return &Registry{
		mu:       syncx.NewRWLock(),
		nodes:    make(map[string]*types.NodeEntry),
		cfg:      cfg,
		selector: GetSelector(cfg.Strategy),
		logger:   log,
	}
}

// Register 注册节点
// 已存在返回 ErrAlreadyExists（不改动现有条目）；达到容量上限返回 ErrCapacityExceeded
func (r *Registry) Register(nodeID string, metrics types.NodeMetrics) error {
	if nodeID == "" || len(nodeID) > types.MaxNodeIDLength {
		return fmt.Errorf("节点 ID 非法 (长度 1-%d): %w", types.MaxNodeIDLength, types.ErrInvalidParameters)
	}

	return syncx.WithLockReturnValue(r.mu, func() error {
		if _, exists := r.nodes[nodeID]; exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrAlreadyExists)
		}
		if len(r.nodes) >= r.cfg.MaxTrackedNodes {
			return fmt.Errorf("注册表已达容量上限 %d: %w", r.cfg.MaxTrackedNodes, types.ErrCapacityExceeded)
		}

		r.seq++
		entry := &types.NodeEntry{
			NodeID:       nodeID,
			Metrics:      metrics,
			Status:       statusForLoad(metrics.CurrentLoad),
			PerfScore:    r.instantScore(metrics),
			RegisteredAt: time.Now(),
		}
		entry.SetRegisterSeq(r.seq)
		r.nodes[nodeID] = entry

		r.logger.InfoKV("节点已注册",
			"node_id", nodeID,
			"status", entry.Status,
			"score", fmt.Sprintf("%.3f", entry.PerfScore))
		return nil
	})
}

// Remove 移除节点
func (r *Registry) Remove(nodeID string) error {
	return syncx.WithLockReturnValue(r.mu, func() error {
		if _, exists := r.nodes[nodeID]; !exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}
		delete(r.nodes, nodeID)
		r.logger.InfoKV("节点已移除", "node_id", nodeID)
		return nil
	})
}

// Get 获取节点条目的副本
func (r *Registry) Get(nodeID string) (types.NodeEntry, error) {
	return syncx.WithRLockReturn(r.mu, func() (types.NodeEntry, error) {
		entry, exists := r.nodes[nodeID]
		if !exists {
			return types.NodeEntry{}, fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}
		return entry.Clone(), nil
	})
}

// Count 当前注册节点数
func (r *Registry) Count() int {
	return syncx.WithRLockReturnValue(r.mu, func() int {
		return len(r.nodes)
	})
}

// UpdateMetrics 更新节点指标，重算状态与平滑性能得分
// score = (1-α)·old + α·instant，α 为平滑系数
func (r *Registry) UpdateMetrics(nodeID string, metrics types.NodeMetrics) error {
	return syncx.WithLockReturnValue(r.mu, func() error {
		entry, exists := r.nodes[nodeID]
		if !exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}

		alpha := r.cfg.Scoring.SmoothingFactor
		instant := r.instantScore(metrics)

		entry.Metrics = metrics
		entry.PerfScore = (1-alpha)*entry.PerfScore + alpha*instant
		entry.Status = statusForLoad(metrics.CurrentLoad)

		// 失败率过高的节点保持 Critical，不因指标更新而解除
		if entry.TotalTaskCount > 0 && entry.FailureRatio() > r.cfg.Scoring.CriticalRatio {
			entry.Status = types.NodeStatusCritical
		}
		return nil
	})
}

// RecordTask 记录一次任务结果
// 失败会按失败率折减性能得分；失败率超阈值强制 Critical（幂等）
func (r *Registry) RecordTask(nodeID string, success bool, execMs int64) error {
	return syncx.WithLockReturnValue(r.mu, func() error {
		entry, exists := r.nodes[nodeID]
		if !exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}

		entry.TotalTaskCount++
		if success {
			entry.LastSuccessTime = time.Now()
		} else {
			entry.FailedTaskCount++
		}

		ratio := entry.FailureRatio()
		entry.PerfScore *= (1 - ratio)
		if ratio > r.cfg.Scoring.CriticalRatio {
			entry.Status = types.NodeStatusCritical
		}

		r.logger.DebugKV("任务结果已记录",
			"node_id", nodeID,
			"success", success,
			"exec_ms", execMs,
			"failure_ratio", fmt.Sprintf("%.3f", ratio))
		return nil
	})
}

// MarkAuthenticated 标记节点认证状态
func (r *Registry) MarkAuthenticated(nodeID string, authenticated bool) error {
	return syncx.WithLockReturnValue(r.mu, func() error {
		entry, exists := r.nodes[nodeID]
		if !exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}
		entry.Authenticated = authenticated
		return nil
	})
}

// MarkOffline 标记节点离线
func (r *Registry) MarkOffline(nodeID string) error {
	return syncx.WithLockReturnValue(r.mu, func() error {
		entry, exists := r.nodes[nodeID]
		if !exists {
			return fmt.Errorf("节点 %s: %w", nodeID, types.ErrNotFound)
		}
		entry.Status = types.NodeStatusOffline
		return nil
	})
}

// Select 按当前策略选出最优节点
// 没有符合要求的节点返回 ErrNotFound，注册表状态不变
func (r *Registry) Select(req types.Requirements) (string, error) {
	return r.SelectExcluding(req, nil)
}

// SelectExcluding 选节点时排除指定集合（故障恢复换路用）
func (r *Registry) SelectExcluding(req types.Requirements, exclude map[string]bool) (string, error) {
	candidates := r.Candidates(req, 1, exclude)
	if len(candidates) == 0 {
		return "", fmt.Errorf("无符合要求的节点: %w", types.ErrNotFound)
	}
	return candidates[0], nil
}

// Candidates 返回按策略得分降序的前 count 个候选节点 ID
// 只考察非 Critical/Offline 且满足最低能力要求的节点；同分按注册顺序
func (r *Registry) Candidates(req types.Requirements, count int, exclude map[string]bool) []string {
	return syncx.WithRLockReturnValue(r.mu, func() []string {
		type scored struct {
			id    string
			score float64
			seq   uint64
		}

		eligible := make([]scored, 0, len(r.nodes))
		for id, entry := range r.nodes {
			if exclude[id] {
				continue
			}
			if entry.Status == types.NodeStatusCritical || entry.Status == types.NodeStatusOffline {
				continue
			}
			if !entry.Metrics.MeetsRequirements(req) {
				continue
			}
			eligible = append(eligible, scored{
				id:    id,
				score: r.selector.Score(entry),
				seq:   entry.RegisterSeq(),
			})
		}

		// 候选数量小，直接选择排序即可
		result := make([]string, 0, count)
		for len(result) < count && len(eligible) > 0 {
			best := 0
			for i := 1; i < len(eligible); i++ {
				if eligible[i].score > eligible[best].score ||
					(eligible[i].score == eligible[best].score && eligible[i].seq < eligible[best].seq) {
					best = i
				}
			}
			result = append(result, eligible[best].id)
			eligible = append(eligible[:best], eligible[best+1:]...)
		}
		return result
	})
}

// SetStrategy 切换选择策略
func (r *Registry) SetStrategy(strategy types.SelectStrategy) {
	syncx.WithLock(r.mu, func() {
		r.selector = GetSelector(strategy)
	})
}

// Snapshot 返回全部节点条目的副本列表
func (r *Registry) Snapshot() []types.NodeEntry {
	return syncx.WithRLockReturnValue(r.mu, func() []types.NodeEntry {
		entries := make([]types.NodeEntry, 0, len(r.nodes))
		for _, entry := range r.nodes {
			entries = append(entries, entry.Clone())
		}
		return entries
	})
}

// instantScore 按配置权重计算瞬时得分，各因子先钳制到 [0,1]
func (r *Registry) instantScore(m types.NodeMetrics) float64 {
	s := r.cfg.Scoring
	return s.WeightCompute*clamp01(m.ComputePower)+
		s.WeightMemory*clamp01(m.MemoryCapacity)+
		s.WeightNetwork*clamp01(m.NetworkBandwidth)+
		s.WeightIdleness*clamp01(1-m.CurrentLoad)+
		s.WeightCores*clamp01(float64(m.AvailableCores))
}

// statusForLoad 按当前负载推导健康状态
func statusForLoad(load float64) types.NodeStatus {
	switch {
	case load > 0.9:
		return types.NodeStatusCritical
	case load > 0.7:
		return types.NodeStatusDegraded
	default:
		return types.NodeStatusHealthy
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
