package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/db"
)

const (
	migrationAttempts    = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// serialization_failure, deadlock_detected, lock_not_available
var transientPgCodes = map[string]bool{"40001": true, "40P01": true, "55P03": true}

// migrator applies SQL files from a directory and reports progress to out.
type migrator struct {
	dir string
	out io.Writer
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 && args[0] != "" {
		command = args[0]
	}
	if command != "up" && command != "status" {
		return fmt.Errorf("unknown migrate command %q", command)
	}

	dir, err := resolveDir(cfg.MigrationDir)
	if err != nil {
		return err
	}
	m := migrator{dir: dir, out: os.Stdout}

	files, err := m.files()
	if err != nil {
		return err
	}

	return withConn(ctx, cfg.DatabaseURL, func(conn *pgxpool.Conn) error {
		applied, err := appliedMigrations(ctx, conn)
		if err != nil {
			return err
		}
		if command == "status" {
			m.status(files, applied)
			return nil
		}
		return m.up(ctx, conn, files, applied)
	})
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}

	dir, err := resolveDir(cfg.SeedDir)
	if err != nil {
		return err
	}

	name := seedFileName(args[0])
	contents, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}

	return withConn(ctx, cfg.DatabaseURL, func(conn *pgxpool.Conn) error {
		if _, err := conn.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply seed %s: %w", name, err)
		}
		fmt.Printf("applied seed %s\n", name)
		return nil
	})
}

func withConn(ctx context.Context, databaseURL string, fn func(*pgxpool.Conn) error) error {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(conn)
}

func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}

// seedFileName maps a short seed name such as "dev" to dev_seed.sql.
func seedFileName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, ".sql") {
		return name
	}
	return name + "_seed.sql"
}

// files lists the .sql files in the migration directory in lexical order.
func (m migrator) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (m migrator) status(files []string, applied map[string]bool) {
	for _, name := range files {
		mark := " "
		if applied[name] {
			mark = "x"
		}
		fmt.Fprintf(m.out, "[%s] %s\n", mark, name)
	}
}

func (m migrator) up(ctx context.Context, conn *pgxpool.Conn, files []string, applied map[string]bool) error {
	pending := 0
	for _, name := range files {
		if applied[name] {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := m.apply(ctx, conn, name, string(contents)); err != nil {
			return err
		}
		pending++
		fmt.Fprintf(m.out, "applied migration %s\n", name)
	}
	if pending == 0 {
		fmt.Fprintln(m.out, "no migrations to apply")
	}
	return nil
}

func appliedMigrations(ctx context.Context, conn *pgxpool.Conn) (map[string]bool, error) {
	if _, err := conn.Exec(ctx, schemaMigrationsDDL); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// apply runs one migration in a serializable transaction, retrying transient
// failures with capped exponential backoff.
func (m migrator) apply(ctx context.Context, conn *pgxpool.Conn, name, contents string) error {
	var lastErr error
	for attempt := 0; attempt < migrationAttempts; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(m.out, "retrying migration %s (attempt %d/%d): %v\n", name, attempt+1, migrationAttempts, lastErr)
			if err := sleepCtx(ctx, migrationBackoff(attempt)); err != nil {
				return err
			}
		}

		lastErr = pgx.BeginTxFunc(ctx, conn, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, contents); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}
			return nil
		})
		if lastErr == nil || !isTransient(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("migration %s failed after %d attempts: %w", name, migrationAttempts, lastErr)
}

func migrationBackoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	backoff := migrationBaseBackoff << (attempt - 1)
	if backoff > migrationMaxBackoff || backoff <= 0 {
		return migrationMaxBackoff
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && transientPgCodes[pgErr.Code]
}
