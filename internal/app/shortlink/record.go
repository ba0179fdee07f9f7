package shortlink

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExpirationLabel 是由 Expiry 推导出来的标签，不单独存储、不可单独设置。
type ExpirationLabel string

const (
	LabelPermanent ExpirationLabel = "permanent"
	LabelCustom    ExpirationLabel = "custom"
)

// SentinelEpoch 是与短链服务约定的"永不过期"标记（Unix 纪元），不是真实时间。
var SentinelEpoch = time.Unix(0, 0).UTC()

// Expiry 是 Permanent | TimedUntil(t) 的标签联合。
// 零值即 Permanent。
type Expiry struct {
	until time.Time
	timed bool
}

func Permanent() Expiry { return Expiry{} }

func TimedUntil(t time.Time) Expiry {
	return Expiry{until: t.UTC(), timed: true}
}

func (e Expiry) IsPermanent() bool { return !e.timed }

// Until 返回过期时刻；永久链接返回 false。
func (e Expiry) Until() (time.Time, bool) {
	return e.until, e.timed
}

func (e Expiry) Label() ExpirationLabel {
	if e.timed {
		return LabelCustom
	}
	return LabelPermanent
}

// LinkRecord 是历史记录的持久化单元。创建后不再修改，只会被整体淘汰。
type LinkRecord struct {
	ID          string
	OriginalURL string
	ShortURL    string
	CreatedAt   time.Time
	Expiry      Expiry
}

func (r LinkRecord) ExpiresAt() (time.Time, bool) { return r.Expiry.Until() }

func (r LinkRecord) Label() ExpirationLabel { return r.Expiry.Label() }

// recordJSON 是落盘格式，字段名与浏览器 localStorage 里的历史记录保持一致。
type recordJSON struct {
	ID          string          `json:"id"`
	OriginalURL string          `json:"originalUrl"`
	ShortURL    string          `json:"shortUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Expiration  ExpirationLabel `json:"expiration"`
}

func (r LinkRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortURL:    r.ShortURL,
		CreatedAt:   r.CreatedAt.UTC(),
		Expiration:  r.Label(),
	}
	if t, ok := r.ExpiresAt(); ok {
		out.ExpiresAt = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON 忽略存储里的 expiration 字段，标签总是由 expiresAt 重新推导。
func (r *LinkRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.ID == "" || in.ShortURL == "" {
		return fmt.Errorf("history record: missing id or shortUrl")
	}
	rec := LinkRecord{
		ID:          in.ID,
		OriginalURL: in.OriginalURL,
		ShortURL:    in.ShortURL,
		CreatedAt:   in.CreatedAt.UTC(),
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.Equal(SentinelEpoch) {
		rec.Expiry = TimedUntil(*in.ExpiresAt)
	}
	*r = rec
	return nil
}
