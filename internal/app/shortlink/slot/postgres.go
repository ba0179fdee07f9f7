package slot

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// PostgresSlot 把槽位存成 history_slots 表里的一行，写入用 upsert 整行替换。
type PostgresSlot struct {
	db  *pgxpool.Pool
	key string
}

func NewPostgresSlot(db *pgxpool.Pool, key string) *PostgresSlot {
	return &PostgresSlot{db: db, key: key}
}

func (s *PostgresSlot) Load(ctx context.Context) ([]byte, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var payload []byte
	err := s.db.QueryRow(dbctx, `SELECT payload::text FROM history_slots WHERE key=$1`, s.key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save 写入的 data 必须是合法 JSON（列类型是 JSONB）。
func (s *PostgresSlot) Save(ctx context.Context, data []byte) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := s.db.Exec(dbctx, `
INSERT INTO history_slots (key, payload, updated_at) VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.key, string(data))
	return err
}
