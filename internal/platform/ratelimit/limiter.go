package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 滑动窗口：ZSET 里存窗口内每次请求的时间戳，超限时把本次成员移除并算出还要等多久。
const slidingWindowLua = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, 0}
end

redis.call("ZREM", key, member)

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  local retryAfter = (tonumber(oldest[2]) + window) - now
  if retryAfter < 0 then retryAfter = 0 end
  return {0, retryAfter}
end
return {0, window}
`

var script = redis.NewScript(slidingWindowLua)

type Limiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client: client,
		now:    time.Now,
	}
}

// Allow 返回：allowed、retryAfter（仅当超限时有意义）
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration, member string) (bool, time.Duration, error) {
	nowMS := l.now().UnixMilli()
	res, err := script.Run(ctx, l.client, []string{key}, nowMS, window.Milliseconds(), limit, member).Result()
	if err != nil {
		return false, 0, err
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("unexpected redis eval result: %T %v", res, res)
	}

	allowed, _ := arr[0].(int64)
	var retryAfterMs int64
	switch v := arr[1].(type) {
	case int64:
		retryAfterMs = v
	case string:
		retryAfterMs, _ = strconv.ParseInt(v, 10, 64)
	}

	return allowed == 1, time.Duration(retryAfterMs) * time.Millisecond, nil
}

// LimitedError 表示本地限流拒绝了这次创建。
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("too many short links created, retry in %s", e.RetryAfter.Round(time.Second))
}

// Guard 把 Limiter 绑定到固定的 key / 配额上，供创建短链前调用。
// 多个 CLI 进程共用同一个 Redis 时，配额是共享的。
type Guard struct {
	limiter *Limiter
	key     string
	limit   int
	window  time.Duration
}

func NewGuard(l *Limiter, key string, limit int, window time.Duration) *Guard {
	return &Guard{
		limiter: l,
		key:     "rl:shorten:" + key,
		limit:   limit,
		window:  window,
	}
}

// Allow 超限时返回 *LimitedError；Redis 出错时放行，只记日志。
func (g *Guard) Allow(ctx context.Context) error {
	member := strconv.FormatInt(g.limiter.now().UnixNano(), 10)
	ok, retryAfter, err := g.limiter.Allow(ctx, g.key, g.limit, g.window, member)
	if err != nil {
		slog.WarnContext(ctx, "ratelimit check failed, allowing", "err", err)
		return nil
	}
	if !ok {
		return &LimitedError{RetryAfter: retryAfter}
	}
	return nil
}
