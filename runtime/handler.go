/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 17:12:39
 * @FilePath: \go-edge\runtime\handler.go
 * @Description: 任务处理器注册表
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package runtime

import (
	"context"

	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Handler 任务处理函数（按任务类型注册）
type Handler func(ctx context.Context, task *types.Task) ([]byte, error)

// PassthroughHandler 默认处理器：原样返回负载
// 未注册处理器的任务类型走该处理器，便于回环派发
func PassthroughHandler(_ context.Context, task *types.Task) ([]byte, error) {
	out := make([]byte, len(task.Payload))
	copy(out, task.Payload)
	return out, nil
}

// handlerEntry 指针包装使处理器满足 syncx.Map 的 comparable 值约束
type handlerEntry struct {
	h Handler
}

// handlerRegistry 按任务类型索引的处理器表
type handlerRegistry struct {
	handlers *syncx.Map[string, *handlerEntry]
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{handlers: syncx.NewMap[string, *handlerEntry]()}
}

// register 注册任务类型对应的处理器（重复注册覆盖旧值）
func (hr *handlerRegistry) register(taskType string, h Handler) {
	hr.handlers.Store(taskType, &handlerEntry{h: h})
}

// resolve 查找处理器，未注册时返回默认透传处理器
func (hr *handlerRegistry) resolve(taskType string) Handler {
	if e, ok := hr.handlers.Load(taskType); ok {
		return e.h
	}
	return PassthroughHandler
}
