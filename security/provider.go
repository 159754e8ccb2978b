/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 18:20:36
 * @FilePath: \go-edge\security\provider.go
 * @Description: 节点认证与威胁评估
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package security

import (
	"fmt"
	"time"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/sign"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// ThreatLevel 威胁等级（越高越危险）
type ThreatLevel int

const (
	ThreatLevelNone     ThreatLevel = iota // 无威胁
	ThreatLevelLow                         // 低
	ThreatLevelMedium                      // 中
	ThreatLevelHigh                        // 高
	ThreatLevelCritical                    // 严重（拒绝派发）
)

// String 返回威胁等级的字符串表示
func (t ThreatLevel) String() string {
	switch t {
	case ThreatLevelNone:
		return "none"
	case ThreatLevelLow:
		return "low"
	case ThreatLevelMedium:
		return "medium"
	case ThreatLevelHigh:
		return "high"
	default:
		return "critical"
	}
}

// Provider 安全提供方接口
type Provider interface {
	// IssueToken 为节点签发认证 token
	IssueToken(nodeID string) string

	// Authenticate 校验节点出示的 token
	Authenticate(nodeID, token string) error

	// Assess 评估节点当前威胁等级
	Assess(nodeID string) ThreatLevel
}

// tokenPayload token 载荷
type tokenPayload struct {
	NodeID string `json:"node_id"`
}

// TokenProvider 基于 HMAC-SHA256 签名 token 的安全提供方
type TokenProvider struct {
	cfg     config.SecurityConfig
	tokens  *syncx.Map[string, string]      // nodeID -> 已签发 token
	threats *syncx.Map[string, ThreatLevel] // nodeID -> 威胁等级（外部评估写入）
	logger  logger.ILogger
}

// NewTokenProvider 创建安全提供方
func NewTokenProvider(cfg config.SecurityConfig, log logger.ILogger) *TokenProvider {
	return &TokenProvider{
		cfg:     cfg,
		tokens:  syncx.NewMap[string, string](),
		threats: syncx.NewMap[string, ThreatLevel](),
		logger:  log,
	}
}

// IssueToken 签发带过期时间的认证 token
// 使用 HMAC-SHA256 签名算法，签名失败时降级为简单格式
func (p *TokenProvider) IssueToken(nodeID string) string {
	secretKey := p.cfg.Secret
	if secretKey == "" {
		secretKey = "go-edge-default-secret-key"
	}
	tokenExpiration := p.cfg.TokenExpiration
	if tokenExpiration == 0 {
		tokenExpiration = 24 * time.Hour
	}
	tokenIssuer := p.cfg.TokenIssuer
	if tokenIssuer == "" {
		tokenIssuer = "go-edge"
	}

	client := sign.NewSignerClient[tokenPayload]().
		WithSecretKey([]byte(secretKey)).
		WithExpiration(tokenExpiration).
		WithIssuer(tokenIssuer)

	token := ""
	if _, err := client.WithAlgorithm(sign.AlgorithmSHA256); err != nil {
		// 降级为简单格式
		token = fmt.Sprintf("token-%s-%d", nodeID, time.Now().Unix())
	} else if signed, err := client.Create(tokenPayload{NodeID: nodeID}); err != nil {
		token = fmt.Sprintf("token-%s-%d", nodeID, time.Now().Unix())
	} else {
		token = signed
	}

	p.tokens.Store(nodeID, token)
	p.logger.DebugKV("已签发节点 token", "node_id", nodeID)
	return token
}

// Authenticate 校验节点出示的 token 与签发记录一致
func (p *TokenProvider) Authenticate(nodeID, token string) error {
	issued, ok := p.tokens.Load(nodeID)
	if !ok {
		return fmt.Errorf("节点 %s 未签发 token: %w", nodeID, types.ErrUnauthenticated)
	}
	if token == "" || token != issued {
		return fmt.Errorf("节点 %s token 校验失败: %w", nodeID, types.ErrUnauthenticated)
	}
	return nil
}

// Assess 评估节点威胁等级（未记录的节点视为无威胁）
func (p *TokenProvider) Assess(nodeID string) ThreatLevel {
	if level, ok := p.threats.Load(nodeID); ok {
		return level
	}
	return ThreatLevelNone
}

// ReportThreat 记录外部评估得到的节点威胁等级
func (p *TokenProvider) ReportThreat(nodeID string, level ThreatLevel) {
	p.threats.Store(nodeID, level)
	if level >= ThreatLevelHigh {
		p.logger.WarnKV("节点威胁等级升高", "node_id", nodeID, "level", level.String())
	}
}

// Revoke 吊销节点 token
func (p *TokenProvider) Revoke(nodeID string) {
	p.tokens.Delete(nodeID)
	p.threats.Delete(nodeID)
}
