package shortlink

import (
	"math"
	"sync"
	"time"

	"github.com/sqids/sqids-go"
)

var (
	sq   *sqids.Sqids
	once sync.Once
)

func getSqids() *sqids.Sqids {
	once.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat",
			MinLength: 8,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// IDGenerator 用创建时刻（毫秒）生成记录 ID。
// 同一毫秒内的第二次调用会顺延 1ms，保证进程内单调且不重复。
// 跨进程（重启、时钟回拨）靠 Observe 把已有记录的 ID 喂进来。
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *IDGenerator) Next(now time.Time) (string, error) {
	ms := now.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()
	return getSqids().Encode([]uint64{uint64(ms)})
}

// Observe 记下一个已经存在的 ID，之后生成的 ID 一定比它大。
// 不是本生成器格式的 ID 直接忽略。
func (g *IDGenerator) Observe(id string) {
	t, ok := DecodeID(id)
	if !ok {
		return
	}
	ms := t.UnixMilli()
	g.mu.Lock()
	if ms > g.last {
		g.last = ms
	}
	g.mu.Unlock()
}

// DecodeID 还原 ID 对应的毫秒时间戳。只接受 Encode 的规范输出。
func DecodeID(id string) (time.Time, bool) {
	nums := getSqids().Decode(id)
	if len(nums) != 1 || nums[0] > math.MaxInt64 {
		return time.Time{}, false
	}
	if canonical, err := getSqids().Encode(nums); err != nil || canonical != id {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(nums[0])).UTC(), true
}
