package slot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := OpenSQLiteSlot(context.Background(), path, "default")
	if err != nil {
		t.Fatalf("OpenSQLiteSlot: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	exerciseSlot(t, s)
}

func TestSQLiteSlot_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	a, err := OpenSQLiteSlot(ctx, path, "a")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	if err := a.Save(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, err := OpenSQLiteSlot(ctx, path, "b")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	if _, err := b.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load b: got %v, want ErrNotFound", err)
	}
}

func TestSQLiteSlot_EmptyPath(t *testing.T) {
	if _, err := OpenSQLiteSlot(context.Background(), "", "k"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("got %v, want ErrInvalidPath", err)
	}
}
