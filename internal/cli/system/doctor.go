package system

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/keyring"
	"github.com/tannerhall/tritrack/internal/migration"
	"github.com/tannerhall/tritrack/internal/storage/sqlite"
	"github.com/tannerhall/tritrack/internal/utils"
	"github.com/tannerhall/tritrack/internal/validation"
	"github.com/tannerhall/tritrack/migrations"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false

	// Check 1: DB reachable
	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	// Check 2: Schema version valid (only if DB is reachable)
	if dbReachable {
		if err := checkSchemaVersion(ctx); err != nil {
			fmt.Printf("❌ Schema version: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Schema version: OK\n")
		}
	} else {
		fmt.Printf("⊘ Schema version: SKIPPED (database not reachable)\n")
	}

	// Check 3: Settings present (only if DB is reachable)
	if dbReachable {
		if err := checkSettings(ctx); err != nil {
			fmt.Printf("❌ Settings: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Settings: OK\n")
		}
	} else {
		fmt.Printf("⊘ Settings: SKIPPED (database not reachable)\n")
	}

	// Check 4: Record integrity (only if DB is reachable)
	if dbReachable {
		if err := checkRecordIntegrity(ctx); err != nil {
			fmt.Printf("❌ Record integrity: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Record integrity: OK\n")
		}
	} else {
		fmt.Printf("⊘ Record integrity: SKIPPED (database not reachable)\n")
	}

	// Check 5: Clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	// Check 6: OS keyring (warning only; local sqlite needs none)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: WARNING\n")
		fmt.Printf("   Keyring is unavailable; postgres credentials and accounts tokens cannot be stored\n")
	}

	// Check 7: Concurrent processes (warning only)
	if n, err := countOtherInstances(); err != nil {
		fmt.Printf("⚠ Concurrent instances: WARNING\n")
		fmt.Printf("   Could not enumerate processes: %v\n", err)
	} else if n > 0 {
		fmt.Printf("⚠ Concurrent instances: WARNING\n")
		fmt.Printf("   %d other %s process(es) running; concurrent sqlite writes may contend\n", n, constants.AppName)
	} else {
		fmt.Printf("✓ Concurrent instances: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	// For SQLite, also try a simple query
	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		// Postgres validates its version on Load
		return nil
	}

	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(db, subFS)

	currentVersion, err := runner.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latestVersion, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}

	if currentVersion > latestVersion {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", currentVersion, latestVersion)
	}
	if currentVersion < latestVersion {
		return fmt.Errorf("database schema version (%d) is behind latest (%d); run 'tritrack migrate'", currentVersion, latestVersion)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if settings.DefaultUser == "" {
		return fmt.Errorf("no default user configured")
	}
	return nil
}

func checkRecordIntegrity(ctx *cli.Context) error {
	days, err := ctx.Store.GetAllDays()
	if err != nil {
		return err
	}
	for _, rec := range days {
		if err := validation.Day(rec.Day); err != nil {
			return fmt.Errorf("day %q: %w", rec.Day, err)
		}
		for cat, bucket := range rec.Buckets {
			for _, entry := range bucket {
				if _, err := validation.Mutation(rec.Day, string(cat), entry.Type, entry.Quantity); err != nil {
					return fmt.Errorf("day %s, %s/%s: %w", rec.Day, cat, entry.Type, err)
				}
				if entry.UpdatedAt.After(time.Now().Add(24 * time.Hour)) {
					return fmt.Errorf("day %s, %s/%s: updated_at is in the future", rec.Day, cat, entry.Type)
				}
			}
		}
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		// Without settings fall back to checking the host clock only
		settings.Timezone = "Local"
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("configured timezone %q is invalid: %w", settings.Timezone, err)
	}
	if time.Now().Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", time.Now().Format(time.RFC3339))
	}
	return nil
}

// countOtherInstances counts running tritrack processes besides this one.
func countOtherInstances() (int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, err
	}
	self := os.Getpid()
	count := 0
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name := strings.TrimSuffix(p.Executable(), ".exe")
		if name == constants.AppName {
			count++
		}
	}
	return count, nil
}
