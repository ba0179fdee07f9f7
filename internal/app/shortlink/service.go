package shortlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"shortlink.local/internal/app/shortlink/client"
	"shortlink.local/internal/platform/metrics"
)

// Shortener 是远端短链服务的创建能力。
//
// 上层只依赖接口：测试里可以换成假的服务端。
type Shortener interface {
	Create(ctx context.Context, req client.CreateRequest) (client.CreateResponse, error)
}

// Orchestrator 把 (url, 过期策略) 翻译成一次服务端请求，并把结果规整成 LinkRecord。
// 它不修改本地状态，写历史由 Session 负责。
// Throttle 在发请求前做一次限流判断，超限返回错误。
type Throttle interface {
	Allow(ctx context.Context) error
}

type Orchestrator struct {
	svc      Shortener
	now      func() time.Time
	ids      *IDGenerator
	throttle Throttle
}

type Option func(*Orchestrator)

// WithClock 替换时钟，便于测试（避免在函数内部直接 time.Now()）。
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithThrottle 在校验通过之后、发请求之前限流。空 URL 不消耗配额。
func WithThrottle(t Throttle) Option {
	return func(o *Orchestrator) { o.throttle = t }
}

func NewOrchestrator(svc Shortener, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc: svc,
		now: time.Now,
		ids: &IDGenerator{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CreateShortLink 发起一次创建请求（不重试），成功时返回规整后的记录。
//
// 错误约定：
// - url 为空：ErrValidation，不发请求
// - 被限流：Throttle 返回的错误，不发请求
// - 网络失败 / 非 2xx / 响应缺字段：*ServiceError（errors.Is(err, ErrShorten) 为 true）
func (o *Orchestrator) CreateShortLink(ctx context.Context, rawURL string, choice string) (LinkRecord, error) {
	if err := ValidateURL(rawURL); err != nil {
		return LinkRecord{}, err
	}
	if o.throttle != nil {
		if err := o.throttle.Allow(ctx); err != nil {
			return LinkRecord{}, err
		}
	}

	policy, known := ParseChoice(choice)
	if !known {
		slog.WarnContext(ctx, "unknown expiration choice, using default", "choice", choice, "default", policy)
	}

	ctx, span := otel.Tracer("shortlink").Start(ctx, "shortlink.create")
	defer span.End()
	span.SetAttributes(attribute.String("shortlink.expiration", string(policy)))

	req := client.CreateRequest{
		URL:       rawURL,
		ExpiresAt: FormatRequestTime(policy.ExpiresAt(o.now())),
	}

	resp, err := o.svc.Create(ctx, req)
	if err != nil {
		serr := toServiceError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, serr.Error())
		return LinkRecord{}, serr
	}

	rec, err := o.normalize(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return LinkRecord{}, &ServiceError{Message: DefaultServiceMessage, Err: err}
	}

	metrics.ShortLinksCreated.WithLabelValues(string(rec.Label())).Inc()
	span.SetAttributes(attribute.String("shortlink.label", string(rec.Label())))
	slog.DebugContext(ctx, "short link created", "id", rec.ID, "short_url", rec.ShortURL, "expiration", rec.Label())
	return rec, nil
}

// normalize 把服务端响应映射成 LinkRecord。
// expires_at 与 SentinelEpoch 按时刻比较（不比较字符串），为 null 也视为永久。
func (o *Orchestrator) normalize(resp client.CreateResponse) (LinkRecord, error) {
	if strings.TrimSpace(resp.ShortURL) == "" {
		return LinkRecord{}, errors.New("response missing short_url")
	}
	if strings.TrimSpace(resp.OriginalURL) == "" {
		return LinkRecord{}, errors.New("response missing original_url")
	}
	if strings.TrimSpace(resp.CreatedAt) == "" {
		return LinkRecord{}, errors.New("response missing created_at")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, resp.CreatedAt)
	if err != nil {
		return LinkRecord{}, fmt.Errorf("parse created_at: %w", err)
	}

	expiry := Permanent()
	if resp.ExpiresAt != nil && strings.TrimSpace(*resp.ExpiresAt) != "" {
		until, err := time.Parse(time.RFC3339Nano, *resp.ExpiresAt)
		if err != nil {
			return LinkRecord{}, fmt.Errorf("parse expires_at: %w", err)
		}
		if !until.Equal(SentinelEpoch) {
			expiry = TimedUntil(until)
		}
	}

	// 服务端不提供 ID，本地按创建时刻生成
	id, err := o.ids.Next(o.now())
	if err != nil {
		return LinkRecord{}, fmt.Errorf("generate id: %w", err)
	}

	return LinkRecord{
		ID:          id,
		OriginalURL: resp.OriginalURL,
		ShortURL:    resp.ShortURL,
		CreatedAt:   createdAt.UTC(),
		Expiry:      expiry,
	}, nil
}

func toServiceError(err error) *ServiceError {
	var se *client.StatusError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = DefaultServiceMessage
		}
		return &ServiceError{Status: se.StatusCode, Message: msg, Err: err}
	}
	return &ServiceError{Message: DefaultServiceMessage, Err: err}
}
