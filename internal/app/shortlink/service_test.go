package shortlink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"shortlink.local/internal/app/shortlink/client"
)

var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeShortener 回显请求里的 expires_at，模拟真实服务端。
type fakeShortener struct {
	mu      sync.Mutex
	calls   int
	lastReq client.CreateRequest
	resp    *client.CreateResponse
	err     error
}

func (f *fakeShortener) Create(ctx context.Context, req client.CreateRequest) (client.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return client.CreateResponse{}, f.err
	}
	if f.resp != nil {
		return *f.resp, nil
	}
	exp := req.ExpiresAt
	return client.CreateResponse{
		ShortURL:    "https://s.example.com/2",
		OriginalURL: req.URL,
		CreatedAt:   "2025-01-01T00:00:00.000Z",
		ExpiresAt:   &exp,
	}, nil
}

func newTestOrchestrator(svc Shortener, opts ...Option) *Orchestrator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewOrchestrator(svc, opts...)
}

func TestCreateShortLink_OneHour(t *testing.T) {
	svc := &fakeShortener{}
	o := newTestOrchestrator(svc)

	r, err := o.CreateShortLink(context.Background(), "https://example.com/x", "1h")
	if err != nil {
		t.Fatalf("CreateShortLink: %v", err)
	}
	if got, want := svc.lastReq.ExpiresAt, "2025-01-01T01:00:00.000Z"; got != want {
		t.Fatalf("request expires_at: got %q, want %q", got, want)
	}
	until, ok := r.ExpiresAt()
	if !ok || !until.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("expiresAt: got (%v, %v)", until, ok)
	}
	if r.Label() != LabelCustom {
		t.Fatalf("label: got %q", r.Label())
	}
	if r.ShortURL != "https://s.example.com/2" || r.OriginalURL != "https://example.com/x" {
		t.Fatalf("record: %+v", r)
	}
	if r.ID == "" {
		t.Fatal("empty id")
	}
}

func TestCreateShortLink_PermanentIffChoicePermanent(t *testing.T) {
	for _, c := range Choices {
		svc := &fakeShortener{}
		r, err := newTestOrchestrator(svc).CreateShortLink(context.Background(), "https://example.com", string(c))
		if err != nil {
			t.Fatalf("%s: %v", c, err)
		}
		if got, want := r.Expiry.IsPermanent(), c == ExpirePermanent; got != want {
			t.Fatalf("%s: permanent got %v, want %v", c, got, want)
		}
	}
}

func TestCreateShortLink_PermanentSentinel(t *testing.T) {
	svc := &fakeShortener{}
	r, err := newTestOrchestrator(svc).CreateShortLink(context.Background(), "https://example.com", "permanent")
	if err != nil {
		t.Fatalf("CreateShortLink: %v", err)
	}
	if got := svc.lastReq.ExpiresAt; got != "1970-01-01T00:00:00.000Z" {
		t.Fatalf("request expires_at: got %q", got)
	}
	if _, ok := r.ExpiresAt(); ok || r.Label() != LabelPermanent {
		t.Fatalf("record not permanent: %+v", r)
	}
}

func TestCreateShortLink_SentinelComparedByInstant(t *testing.T) {
	for _, exp := range []string{"1970-01-01T00:00:00Z", "1970-01-01T08:00:00+08:00", ""} {
		e := exp
		svc := &fakeShortener{resp: &client.CreateResponse{
			ShortURL: "https://s.example.com/3", OriginalURL: "https://example.com",
			CreatedAt: "2025-01-01T00:00:00Z", ExpiresAt: &e,
		}}
		r, err := newTestOrchestrator(svc).CreateShortLink(context.Background(), "https://example.com", "permanent")
		if err != nil {
			t.Fatalf("%q: %v", exp, err)
		}
		if !r.Expiry.IsPermanent() {
			t.Fatalf("%q: not permanent", exp)
		}
	}
}

func TestCreateShortLink_UnknownChoiceFallsBack(t *testing.T) {
	svc := &fakeShortener{}
	if _, err := newTestOrchestrator(svc).CreateShortLink(context.Background(), "https://example.com", "2w"); err != nil {
		t.Fatalf("CreateShortLink: %v", err)
	}
	if got, want := svc.lastReq.ExpiresAt, "2025-01-01T01:00:00.000Z"; got != want {
		t.Fatalf("expires_at: got %q, want %q", got, want)
	}
}

func TestCreateShortLink_EmptyURLNoRequest(t *testing.T) {
	svc := &fakeShortener{}
	_, err := newTestOrchestrator(svc).CreateShortLink(context.Background(), "  ", "1h")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if svc.calls != 0 {
		t.Fatalf("service called %d times", svc.calls)
	}
}

func TestCreateShortLink_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"message", &client.StatusError{StatusCode: 400, Message: "Invalid URL"}, "Invalid URL"},
		{"no message", &client.StatusError{StatusCode: 500}, DefaultServiceMessage},
		{"network", errors.New("dial tcp: connection refused"), DefaultServiceMessage},
	}
	for _, c := range cases {
		_, err := newTestOrchestrator(&fakeShortener{err: c.err}).CreateShortLink(context.Background(), "https://example.com", "1h")
		if !errors.Is(err, ErrShorten) {
			t.Fatalf("%s: got %v, want ErrShorten", c.name, err)
		}
		if err.Error() != c.want {
			t.Fatalf("%s: message got %q, want %q", c.name, err.Error(), c.want)
		}
	}
}

func TestCreateShortLink_MalformedResponse(t *testing.T) {
	cases := []client.CreateResponse{
		{OriginalURL: "https://example.com", CreatedAt: "2025-01-01T00:00:00Z"},
		{ShortURL: "https://s.example.com/1", CreatedAt: "2025-01-01T00:00:00Z"},
		{ShortURL: "https://s.example.com/1", OriginalURL: "https://example.com"},
		{ShortURL: "https://s.example.com/1", OriginalURL: "https://example.com", CreatedAt: "yesterday"},
	}
	for i := range cases {
		_, err := newTestOrchestrator(&fakeShortener{resp: &cases[i]}).CreateShortLink(context.Background(), "https://example.com", "1h")
		var se *ServiceError
		if !errors.As(err, &se) || se.Message != DefaultServiceMessage {
			t.Fatalf("case %d: got %v", i, err)
		}
	}
}

func TestCreateShortLink_OverHTTP(t *testing.T) {
	var body client.CreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/shorten" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if strings.HasPrefix(body.URL, "ftp:") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid URL"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"short_url":"http://localhost:3000/2","original_url":"` + body.URL +
			`","created_at":"2025-01-01T00:00:00.000Z","expires_at":"` + body.ExpiresAt + `"}`))
	}))
	defer srv.Close()

	o := newTestOrchestrator(client.New(srv.URL, 2*time.Second))

	r, err := o.CreateShortLink(context.Background(), "https://example.com/x", "7d")
	if err != nil {
		t.Fatalf("CreateShortLink: %v", err)
	}
	if body.ExpiresAt != "2025-01-08T00:00:00.000Z" {
		t.Fatalf("request expires_at: got %q", body.ExpiresAt)
	}
	if r.ShortURL != "http://localhost:3000/2" {
		t.Fatalf("short url: got %q", r.ShortURL)
	}

	_, err = o.CreateShortLink(context.Background(), "ftp://example.com", "1h")
	if err == nil || err.Error() != "Invalid URL" {
		t.Fatalf("got %v, want Invalid URL", err)
	}
}

func TestCreateShortLink_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	old := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(old)
		_ = tp.Shutdown(context.Background())
	})

	if _, err := newTestOrchestrator(&fakeShortener{}).CreateShortLink(context.Background(), "https://example.com", "1d"); err != nil {
		t.Fatalf("CreateShortLink: %v", err)
	}
	spans := sr.Ended()
	if len(spans) == 0 || spans[0].Name() != "shortlink.create" {
		t.Fatalf("spans: %v", spans)
	}
}
