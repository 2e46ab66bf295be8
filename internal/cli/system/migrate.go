package system

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/migration"
	"github.com/tannerhall/tritrack/internal/storage/postgres"
	"github.com/tannerhall/tritrack/internal/storage/sqlite"
	"github.com/tannerhall/tritrack/migrations"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	var db *sql.DB
	var driver string
	switch s := ctx.Store.(type) {
	case *sqlite.Store:
		db, driver = s.GetDB(), "sqlite"
	case *postgres.Store:
		db, driver = s.GetDB(), "postgres"
	default:
		return fmt.Errorf("migrate command does not support this storage backend")
	}
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	subFS, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("failed to access %s migrations: %w", driver, err)
	}

	runner := migration.NewRunner(db, subFS)
	count, err := runner.ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}

	return nil
}
