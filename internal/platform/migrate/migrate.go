package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Options struct {
	// FS 里放 .sql 文件，通常是某个包 go:embed 进来的目录。
	FS  fs.FS
	Dir string // FS 内的子目录，默认 "."
}

type Result struct {
	AppliedFiles []string
	SkippedFiles []string
}

// Up 按文件名顺序执行尚未执行过的迁移，每个文件一个事务。
func Up(ctx context.Context, db *pgxpool.Pool, opts Options) (*Result, error) {
	if opts.FS == nil {
		return nil, fmt.Errorf("migrate: nil FS")
	}
	dir := opts.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}

	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}

	entries, err := listSQLFiles(opts.FS, dir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, name := range entries {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return nil, err
		}
		if applied {
			res.SkippedFiles = append(res.SkippedFiles, name)
			continue
		}
		if err := applyFile(ctx, db, opts.FS, dir, name); err != nil {
			return nil, err
		}
		res.AppliedFiles = append(res.AppliedFiles, name)
	}

	return res, nil
}

func ensureTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
	return err
}

// listSQLFiles 只看 dir 这一层，按文件名排序（001_xxx.sql, 002_xxx.sql ...）。
func listSQLFiles(fsys fs.FS, dir string) ([]string, error) {
	dirEntries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	entries := make([]string, 0, len(dirEntries))
	for _, d := range dirEntries {
		if d.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			entries = append(entries, d.Name())
		}
	}
	sort.Strings(entries)
	return entries, nil
}

func isApplied(ctx context.Context, db *pgxpool.Pool, version string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	return exists, err
}

func applyFile(ctx context.Context, db *pgxpool.Pool, fsys fs.FS, dir, filename string) error {
	name := filename
	if dir != "." {
		name = dir + "/" + filename
	}
	sqlBytes, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filename, err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1,$2)`, filename, time.Now()); err != nil {
		return fmt.Errorf("record migration %s: %w", filename, err)
	}

	return tx.Commit(ctx)
}
