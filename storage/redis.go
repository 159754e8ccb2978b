/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 16:24:18
 * @FilePath: \go-edge\storage\redis.go
 * @Description: Redis 检查点存储（多实例共享恢复状态）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-logger"
	"github.com/redis/go-redis/v9"
)

// 检查点哈希键格式：edge:checkpoint:<task_id>
// 哈希字段为 checkpoint_id，值为 JSON 序列化的检查点
const redisKeyPrefix = "edge:checkpoint:"

// RedisStore Redis 检查点存储（实现 CheckpointStore）
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	logger logger.ILogger
}

// NewRedisStore 创建 Redis 存储实例并探活
func NewRedisStore(addr string, log logger.ILogger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败 (%s): %w", addr, err)
	}
	log.Infof("✅ Redis 检查点存储已连接: %s", addr)
	return &RedisStore{client: client, ctx: ctx, logger: log}, nil
}

func redisTaskKey(taskID uint64) string {
	return redisKeyPrefix + strconv.FormatUint(taskID, 10)
}

// Save 持久化检查点
func (s *RedisStore) Save(cp *types.Checkpoint) error {
	if cp == nil {
		return types.ErrInvalidParameters
	}
	value, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("序列化检查点失败: %w", err)
	}
	if err := s.client.HSet(s.ctx, redisTaskKey(cp.TaskID), cp.CheckpointID, value).Err(); err != nil {
		return fmt.Errorf("写入检查点失败: %w", err)
	}
	return nil
}

// Load 加载任务最新的检查点
func (s *RedisStore) Load(taskID uint64) (*types.Checkpoint, error) {
	fields, err := s.client.HGetAll(s.ctx, redisTaskKey(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取检查点失败: %w", err)
	}
	latest := latestOf(fields)
	if latest == nil {
		return nil, fmt.Errorf("任务 %d 无检查点: %w", taskID, types.ErrNotFound)
	}
	return latest, nil
}

// Delete 删除任务的全部检查点
func (s *RedisStore) Delete(taskID uint64) error {
	if err := s.client.Del(s.ctx, redisTaskKey(taskID)).Err(); err != nil {
		return fmt.Errorf("删除检查点失败: %w", err)
	}
	return nil
}

// List 列出全部任务的最新检查点
func (s *RedisStore) List() ([]*types.Checkpoint, error) {
	var all []*types.Checkpoint
	iter := s.client.Scan(s.ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(s.ctx) {
		key := iter.Val()
		if _, err := strconv.ParseUint(strings.TrimPrefix(key, redisKeyPrefix), 10, 64); err != nil {
			continue
		}
		fields, err := s.client.HGetAll(s.ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("读取检查点失败: %w", err)
		}
		if latest := latestOf(fields); latest != nil {
			all = append(all, latest)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("遍历检查点失败: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TaskID < all[j].TaskID })
	return all, nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// latestOf 从哈希字段中挑出创建时间最新的检查点
func latestOf(fields map[string]string) *types.Checkpoint {
	var latest *types.Checkpoint
	for _, raw := range fields {
		var cp types.Checkpoint
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			continue
		}
		if latest == nil || cp.CreatedAt.After(latest.CreatedAt) {
			latest = &cp
		}
	}
	return latest
}
