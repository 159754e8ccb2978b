/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 16:40:55
 * @FilePath: \go-edge\storage\factory.go
 * @Description: 存储工厂 - 统一创建不同类型的检查点存储
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import (
	"fmt"

	"github.com/kamalyes/go-edge/config"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-logger"
)

// Factory 存储工厂
type Factory struct {
	logger logger.ILogger
}

// NewFactory 创建存储工厂
func NewFactory(log logger.ILogger) *Factory {
	return &Factory{logger: log}
}

// Create 按配置创建检查点存储实例
func (f *Factory) Create(cfg config.StorageConfig) (CheckpointStore, error) {
	f.logger.Infof("📦 创建检查点存储: mode=%s, path=%s, addr=%s",
		cfg.Mode, cfg.Path, cfg.Addr)

	switch cfg.Mode {
	case types.StorageModeMemory:
		f.logger.Info("💾 使用内存检查点存储")
		return NewMemoryStore(), nil

	case types.StorageModeSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("SQLite 存储需要指定 path 参数")
		}
		return NewSQLiteStore(cfg.Path, f.logger)

	case types.StorageModeBadger:
		if cfg.Path == "" {
			return nil, fmt.Errorf("BadgerDB 存储需要指定 path 参数")
		}
		return NewBadgerStore(cfg.Path, f.logger)

	case types.StorageModeRedis:
		if cfg.Addr == "" {
			return nil, fmt.Errorf("Redis 存储需要指定 addr 参数")
		}
		return NewRedisStore(cfg.Addr, f.logger)

	default:
		return nil, fmt.Errorf("不支持的存储类型: %s (支持: memory, sqlite, badger, redis)", cfg.Mode)
	}
}
