/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-12 10:30:41
 * @FilePath: \go-edge\types\errors.go
 * @Description: 错误分类定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package types

import "errors"

// 错误分类：所有可失败操作都同步返回显式错误，不使用 panic 作为控制流
var (
	ErrInvalidParameters = errors.New("invalid parameters")          // 参数非法
	ErrNotFound          = errors.New("not found")                   // 没有符合条件的节点/未知ID
	ErrCapacityExceeded  = errors.New("capacity exceeded")           // 注册表或队列已满
	ErrAlreadyExists     = errors.New("already exists")              // 节点重复注册
	ErrOutOfMemory       = errors.New("out of memory")               // 内存不足
	ErrInvalidState      = errors.New("invalid state")               // 状态不允许（如取消运行中的任务）
	ErrTimeout           = errors.New("operation timed out")         // 超时
	ErrTaskFailure       = errors.New("task failure")                // 恢复梯队耗尽
	ErrUnauthenticated   = errors.New("node not authenticated")      // 节点未通过认证
	ErrThreatTooHigh     = errors.New("node threat level too high")  // 威胁等级超过策略阈值
	ErrUnsupported       = errors.New("unsupported operation")       // 缺少可选协作组件
)

// IsNotFound 判断是否为 NotFound 错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidState 判断是否为状态错误
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsCapacityExceeded 判断是否为容量错误
func IsCapacityExceeded(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}
