package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // 纯 Go 的 SQLite 驱动，不需要 cgo
)

// SQLiteSlot 把槽位存成本地 SQLite 文件里的一行，适合多个 key 共用一个文件。
type SQLiteSlot struct {
	db  *sql.DB
	key string
}

// OpenSQLiteSlot 打开（必要时创建）数据库文件并建表。
func OpenSQLiteSlot(ctx context.Context, path, key string) (*SQLiteSlot, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// 单连接：写入之间天然串行，也避免 database is locked
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS history_slots (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history_slots: %w", err)
	}
	return &SQLiteSlot{db: db, key: key}, nil
}

func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM history_slots WHERE key = ?`, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO history_slots (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.key, string(data))
	return err
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
