package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет все встроенные миграции по порядку имён файлов.
// Скрипты идемпотентны (IF NOT EXISTS), повторный запуск безопасен.
func Migrate(ctx context.Context, db *pgxpool.Pool, log logger.Logger) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		// Без аргументов pgx использует simple protocol, несколько операторов допустимы.
		if _, err := db.Exec(ctx, string(script)); err != nil {
			log.Error("Failed to apply migration", "migration", name, "error", err)
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("Migration applied", "migration", name)
	}

	return nil
}
