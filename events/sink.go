/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 14:40:26
 * @FilePath: \go-edge\events\sink.go
 * @Description: 遥测事件分发
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package events

import (
	"context"
	"time"

	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Event 遥测事件
type Event struct {
	Type      types.EventType        `json:"type"`
	NodeID    string                 `json:"node_id,omitempty"` // 相关节点，可为空
	TaskID    uint64                 `json:"task_id,omitempty"`
	Strategy  types.FallbackStrategy `json:"strategy,omitempty"` // 恢复事件携带的策略
	Payload   []byte                 `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Sink 事件接收器接口
// 约定：Publish 不允许阻塞调用方
type Sink interface {
	Publish(evt Event)
}

// SinkFunc 函数式接收器
type SinkFunc func(evt Event)

// Publish 实现 Sink 接口
func (f SinkFunc) Publish(evt Event) {
	f(evt)
}

// Dispatcher 事件分发器
// 在调用方协程上同步依次投递给所有注册的接收器
type Dispatcher struct {
	sinks  []Sink
	mu     *syncx.RWLock
	logger logger.ILogger
}

// NewDispatcher 创建事件分发器
func NewDispatcher(log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		sinks:  make([]Sink, 0),
		mu:     syncx.NewRWLock(),
		logger: log,
	}
}

// Register 注册接收器
func (d *Dispatcher) Register(sink Sink) {
	syncx.WithLock(d.mu, func() {
		d.sinks = append(d.sinks, sink)
	})
}

// Emit 同步投递事件（在调用方协程上执行）
func (d *Dispatcher) Emit(evtType types.EventType, nodeID string, taskID uint64, payload []byte) {
	d.EmitStrategy(evtType, nodeID, taskID, payload, "")
}

// EmitStrategy 同步投递带恢复策略的事件
func (d *Dispatcher) EmitStrategy(evtType types.EventType, nodeID string, taskID uint64, payload []byte, strategy types.FallbackStrategy) {
	evt := Event{
		Type:      evtType,
		NodeID:    nodeID,
		TaskID:    taskID,
		Strategy:  strategy,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	syncx.WithRLock(d.mu, func() {
		for _, sink := range d.sinks {
			sink.Publish(evt)
		}
	})
}

// ChannelSink 有界通道接收器
// 事件写入有界通道，由独立的监听协程消费；通道满时丢弃并计数，绝不阻塞发布方
type ChannelSink struct {
	ch        chan Event
	handler   func(evt Event)
	dropCount *syncx.Uint64
	running   *syncx.Bool
	logger    logger.ILogger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewChannelSink 创建有界通道接收器
func NewChannelSink(bufferSize int, handler func(evt Event), log logger.ILogger) *ChannelSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &ChannelSink{
		ch:        make(chan Event, bufferSize),
		handler:   handler,
		dropCount: syncx.NewUint64(0),
		running:   syncx.NewBool(false),
		logger:    log,
		done:      make(chan struct{}),
	}
}

// Start 启动监听协程
func (s *ChannelSink) Start(ctx context.Context) {
	if s.running.Load() {
		return
	}
	s.running.Store(true)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-s.ch:
				s.handler(evt)
			}
		}
	}()
}

// Publish 非阻塞投递，通道满则丢弃
func (s *ChannelSink) Publish(evt Event) {
	select {
	case s.ch <- evt:
	default:
		s.dropCount.Add(1)
	}
}

// Dropped 返回累计丢弃的事件数
func (s *ChannelSink) Dropped() uint64 {
	return s.dropCount.Load()
}

// Close 停止监听协程
func (s *ChannelSink) Close() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	if n := s.dropCount.Load(); n > 0 {
		s.logger.Warnf("⚠️  事件通道累计丢弃 %d 条事件", n)
	}
}
