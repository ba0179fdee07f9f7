// Package slot 提供"整体读 / 整体写"的单槽位存储。
// 历史记录的约定是每次写入替换全部内容，不做增量更新。
package slot

import (
	"context"
	"errors"
)

// ErrNotFound 表示槽位还不存在（首次运行），调用方按空历史处理。
var ErrNotFound = errors.New("slot not found")

type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
