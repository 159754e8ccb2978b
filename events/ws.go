/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-13 15:02:51
 * @FilePath: \go-edge\events\ws.go
 * @Description: WebSocket 事件流广播
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package events

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kamalyes/go-edge/logger"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// WSBroadcaster WebSocket 事件广播器
// 实现 Sink 接口：事件先进入有界通道，由泵协程广播到所有已连接客户端
type WSBroadcaster struct {
	upgrader  websocket.Upgrader
	clients   *syncx.Map[*websocket.Conn, bool]
	eventChan chan Event
	server    *http.Server
	running   *syncx.Bool
	dropCount *syncx.Uint64
	cancel    context.CancelFunc // 停止广播泵
	logger    logger.ILogger
}

// NewWSBroadcaster 创建 WebSocket 广播器
func NewWSBroadcaster(bufferSize int, log logger.ILogger) *WSBroadcaster {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &WSBroadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   syncx.NewMap[*websocket.Conn, bool](),
		eventChan: make(chan Event, bufferSize),
		running:   syncx.NewBool(false),
		dropCount: syncx.NewUint64(0),
		logger:    log,
	}
}

// Start 启动 HTTP 服务与广播泵
func (b *WSBroadcaster) Start(ctx context.Context, addr string) error {
	if b.running.Load() {
		return nil
	}
	b.running.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", b.handleEvents)

	b.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		b.logger.Infof("📡 事件流服务已启动: ws://%s/events", addr)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.logger.Errorf("❌ 事件流服务异常: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	go b.pump(ctx)

	return nil
}

// handleEvents 升级连接并登记客户端
func (b *WSBroadcaster) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warnf("⚠️  WebSocket 升级失败: %v", err)
		return
	}

	b.clients.Store(conn, true)
	b.logger.Debugf("事件流客户端接入: %s", conn.RemoteAddr())

	// 读协程只用于感知连接关闭
	go func() {
		defer func() {
			b.clients.Delete(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// pump 广播泵：从通道取事件推给所有客户端
func (b *WSBroadcaster) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.eventChan:
			b.clients.Range(func(conn *websocket.Conn, _ bool) bool {
				conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := conn.WriteJSON(evt); err != nil {
					b.clients.Delete(conn)
					conn.Close()
				}
				return true
			})
		}
	}
}

// Publish 非阻塞投递事件，通道满则丢弃
func (b *WSBroadcaster) Publish(evt Event) {
	select {
	case b.eventChan <- evt:
	default:
		b.dropCount.Add(1)
	}
}

// Dropped 返回累计丢弃的事件数
func (b *WSBroadcaster) Dropped() uint64 {
	return b.dropCount.Load()
}

// Close 关闭服务与所有连接
func (b *WSBroadcaster) Close() error {
	if !b.running.Load() {
		return nil
	}
	b.running.Store(false)

	if b.cancel != nil {
		b.cancel()
	}

	b.clients.Range(func(conn *websocket.Conn, _ bool) bool {
		conn.Close()
		b.clients.Delete(conn)
		return true
	})

	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return b.server.Shutdown(ctx)
	}
	return nil
}
