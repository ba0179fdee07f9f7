package shortlink

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRecordJSON_RoundTrip(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []LinkRecord{
		{ID: "a", OriginalURL: "https://example.com/x", ShortURL: "https://s.example.com/1", CreatedAt: created, Expiry: TimedUntil(created.Add(time.Hour))},
		{ID: "b", OriginalURL: "https://example.com/y", ShortURL: "https://s.example.com/2", CreatedAt: created, Expiry: Permanent()},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []LinkRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip:\n got  %+v\n want %+v", out, in)
	}
}

func TestRecordJSON_Fields(t *testing.T) {
	r := LinkRecord{ID: "b", OriginalURL: "https://example.com/y", ShortURL: "https://s.example.com/2",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"expiration":"permanent"`) {
		t.Fatalf("missing permanent label: %s", s)
	}
	if strings.Contains(s, "expiresAt") {
		t.Fatalf("permanent record carries expiresAt: %s", s)
	}
}

func TestRecordJSON_LabelDerivedFromExpiry(t *testing.T) {
	// 存储里的 expiration 与 expiresAt 矛盾时，以 expiresAt 为准
	raw := `{"id":"a","originalUrl":"u","shortUrl":"https://s.example.com/1","createdAt":"2025-01-01T00:00:00Z","expiresAt":"2025-01-01T01:00:00Z","expiration":"permanent"}`
	var r LinkRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Label() != LabelCustom {
		t.Fatalf("label: got %q, want %q", r.Label(), LabelCustom)
	}

	raw = `{"id":"b","originalUrl":"u","shortUrl":"https://s.example.com/2","createdAt":"2025-01-01T00:00:00Z","expiresAt":"1970-01-01T00:00:00.000Z","expiration":"custom"}`
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !r.Expiry.IsPermanent() {
		t.Fatal("epoch expiresAt should load as permanent")
	}
}

func TestRecordJSON_RejectsMissingID(t *testing.T) {
	var r LinkRecord
	if err := json.Unmarshal([]byte(`{"shortUrl":"https://s.example.com/1"}`), &r); err == nil {
		t.Fatal("expected error for record without id")
	}
}
