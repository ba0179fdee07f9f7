package shortlink

import (
	"fmt"
	"time"
)

// IsExpired 对永久链接恒为 false；否则 now 严格晚于过期时刻才算过期，
// 恰好等于过期时刻时仍然有效。
func IsExpired(r LinkRecord, now time.Time) bool {
	until, ok := r.ExpiresAt()
	if !ok {
		return false
	}
	return now.After(until)
}

// RemainingTime 返回剩余时间的展示文本。
// 永久或已过期的记录返回 ("", false)，调用方应先判断 IsExpired。
func RemainingTime(r LinkRecord, now time.Time) (string, bool) {
	until, ok := r.ExpiresAt()
	if !ok || now.After(until) {
		return "", false
	}
	return FormatRemaining(until.Sub(now)), true
}

// FormatRemaining 逐级向下取整拆成天/时/分/秒，只展示最粗的几个单位：
//
//	2 days 3h 15m / 1 day 3h 15m
//	3h 15m 42s
//	15m 42s
//	42s
//
// 只有 day 区分单复数。
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		unit := "day"
		if days > 1 {
			unit = "days"
		}
		return fmt.Sprintf("%d %s %dh %dm", days, unit, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes%60, seconds%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Status 是列表里展示的状态文本：Permanent、Expired 或剩余时间。
func Status(r LinkRecord, now time.Time) string {
	if r.Expiry.IsPermanent() {
		return "Permanent"
	}
	if IsExpired(r, now) {
		return "Expired"
	}
	label, _ := RemainingTime(r, now)
	return label
}
