/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-02-10 00:00:00
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-02-14 13:05:12
 * @FilePath: \go-edge\fallback\backoff.go
 * @Description: 恢复退避与策略阶梯
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package fallback

import (
	"time"

	"github.com/kamalyes/go-edge/types"
)

// Delay 第 attempt 次恢复尝试的退避延迟：2^attempt × base
func Delay(attempt int, base time.Duration) time.Duration {
	return base << uint(attempt)
}

// StrategyFor 按尝试次数返回恢复策略阶梯
// 策略逐级升级：先换路，再退避重试，再冗余派发，再任务分解，最后自适应重路由
func StrategyFor(attempt int) types.FallbackStrategy {
	switch attempt {
	case 0:
		return types.FallbackAlternativeRoute
	case 1:
		return types.FallbackRetryWithBackoff
	case 2:
		return types.FallbackRedundantNodes
	case 3:
		return types.FallbackTaskDecomposition
	default:
		return types.FallbackAdaptiveReroute
	}
}
