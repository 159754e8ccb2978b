/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-11 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-15 00:05:41
 * @FilePath: \go-edge\events\sink_test.go
 * @Description: 事件分发测试
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package events

import (
	"context"
	"testing"
	"time"

	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-edge/types"
	"github.com/stretchr/testify/assert"
)

// TestSynchronousDelivery 测试事件在调用方协程上同步投递
func TestSynchronousDelivery(t *testing.T) {
	d := NewDispatcher(logger.New())

	var received []Event
	d.Register(SinkFunc(func(e Event) {
		received = append(received, e)
	}))

	d.Emit(types.EventTaskInitiated, "node-1", 42, []byte("hi"))

	// Emit 返回时事件已送达（无协程切换）
	assert.Len(t, received, 1)
	assert.Equal(t, types.EventTaskInitiated, received[0].Type)
	assert.Equal(t, "node-1", received[0].NodeID)
	assert.Equal(t, uint64(42), received[0].TaskID)
	assert.Equal(t, []byte("hi"), received[0].Payload)
	assert.False(t, received[0].Timestamp.IsZero())
}

// TestMultipleSinks 测试多接收器按注册顺序投递
func TestMultipleSinks(t *testing.T) {
	d := NewDispatcher(logger.New())

	var order []string
	d.Register(SinkFunc(func(_ Event) { order = append(order, "first") }))
	d.Register(SinkFunc(func(_ Event) { order = append(order, "second") }))

	d.Emit(types.EventNodeSelected, "node-1", 1, nil)
	assert.Equal(t, []string{"first", "second"}, order)
}

// TestEmitStrategy 测试带恢复策略的事件
func TestEmitStrategy(t *testing.T) {
	d := NewDispatcher(logger.New())

	var got Event
	d.Register(SinkFunc(func(e Event) { got = e }))

	d.EmitStrategy(types.EventNodeUnavailable, "node-1", 7, nil, types.FallbackRedundantNodes)
	assert.Equal(t, types.FallbackRedundantNodes, got.Strategy)
}

// TestChannelSinkNonBlocking 测试通道接收器满时丢弃不阻塞
func TestChannelSinkNonBlocking(t *testing.T) {
	sink := NewChannelSink(1, func(Event) {}, logger.New())
	// 未启动消费协程，第二条应被丢弃而不是阻塞
	sink.Publish(Event{Type: types.EventTaskInitiated})
	sink.Publish(Event{Type: types.EventTaskInitiated})

	assert.Equal(t, uint64(1), sink.Dropped())
}

// TestChannelSinkDelivery 测试通道接收器异步消费
func TestChannelSinkDelivery(t *testing.T) {
	got := make(chan Event, 1)
	sink := NewChannelSink(8, func(e Event) { got <- e }, logger.New())
	defer sink.Close()

	sink.Start(context.Background())
	sink.Publish(Event{Type: types.EventFullRecovery, NodeID: "node-9"})

	select {
	case e := <-got:
		assert.Equal(t, types.EventFullRecovery, e.Type)
		assert.Equal(t, "node-9", e.NodeID)
	case <-time.After(time.Second):
		t.Fatal("事件未送达")
	}
}

// TestWSBroadcasterCloseStopsPump 测试关闭后广播泵停止消费
func TestWSBroadcasterCloseStopsPump(t *testing.T) {
	b := NewWSBroadcaster(2, logger.New())
	assert.NoError(t, b.Start(context.Background(), "127.0.0.1:0"))
	assert.NoError(t, b.Close())

	// 泵退出后通道不再被排空，持续投递必然触发丢弃
	assert.Eventually(t, func() bool {
		for i := 0; i < 8; i++ {
			b.Publish(Event{Type: types.EventTaskInitiated})
		}
		return b.Dropped() > 0
	}, 2*time.Second, 10*time.Millisecond)
}
