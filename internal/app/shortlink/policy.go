package shortlink

import (
	"strings"
	"time"
)

// ExpirationChoice 是用户可选的过期策略。
type ExpirationChoice string

const (
	Expire1h        ExpirationChoice = "1h"
	Expire12h       ExpirationChoice = "12h"
	Expire1d        ExpirationChoice = "1d"
	Expire7d        ExpirationChoice = "7d"
	Expire30d       ExpirationChoice = "30d"
	ExpirePermanent ExpirationChoice = "permanent"
)

// Choices 按界面展示顺序排列。
var Choices = []ExpirationChoice{Expire1h, Expire12h, Expire1d, Expire7d, Expire30d, ExpirePermanent}

// requestTimeLayout 是请求里 expires_at 的格式：UTC、毫秒精度、以 Z 结尾。
const requestTimeLayout = "2006-01-02T15:04:05.000Z"

// ParseChoice 识别过期策略；无法识别的值回落到 1h，并通过第二个返回值告知调用方。
func ParseChoice(s string) (ExpirationChoice, bool) {
	c := ExpirationChoice(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Choices {
		if c == known {
			return c, true
		}
	}
	return Expire1h, false
}

func (c ExpirationChoice) Label() string {
	switch c {
	case Expire1h:
		return "1 Hour"
	case Expire12h:
		return "12 Hours"
	case Expire1d:
		return "1 Day"
	case Expire7d:
		return "7 Days"
	case Expire30d:
		return "30 Days"
	case ExpirePermanent:
		return "Permanent"
	}
	return string(c)
}

// ExpiresAt 计算发给服务端的过期时刻。
//
// 小时按绝对时长相加；天数用 AddDate 在 now 所在时区做日历加法，
// 跨月、跨夏令时由 time 包处理。permanent 返回 SentinelEpoch。
func (c ExpirationChoice) ExpiresAt(now time.Time) time.Time {
	switch c {
	case ExpirePermanent:
		return SentinelEpoch
	case Expire12h:
		return now.Add(12 * time.Hour)
	case Expire1d:
		return now.AddDate(0, 0, 1)
	case Expire7d:
		return now.AddDate(0, 0, 7)
	case Expire30d:
		return now.AddDate(0, 0, 30)
	default:
		return now.Add(time.Hour)
	}
}

// FormatRequestTime 把时刻格式化成 2025-01-01T01:00:00.000Z。
func FormatRequestTime(t time.Time) string {
	return t.UTC().Format(requestTimeLayout)
}
