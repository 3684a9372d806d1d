package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	stepsFlag         = "steps"
	downFlag          = "down"
)

type flags struct {
	storagePath    string
	migrationsPath string
	steps          int
	down           bool
}

func main() {
	f := getFlagsValues()
	validateFlags(f)
	makeMigrations(f)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() flags {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres DSN")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "", "migrations dir")
	steps := pflag.IntP(stepsFlag, "n", 0, "apply only n migrations")
	down := pflag.Bool(downFlag, false, "roll migrations back")
	pflag.Parse()
	return flags{
		storagePath:    *storagePath,
		migrationsPath: *migrationsPath,
		steps:          *steps,
		down:           *down,
	}
}

func validateFlags(f flags) {
	var errs []error

	if f.storagePath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", storagePathFlag))
	}

	if f.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if f.steps < 0 {
		errs = append(errs, fmt.Errorf("--%s flag: must be positive", stepsFlag))
	}

	if len(errs) != 0 {
		slog.Error("invalid args", "err", errors.Join(errs...))
		fallDown()
	}
}

// databaseURL accepts both bare "user:pass@host/db" and
// "postgres://" DSNs, the driver is registered as "pgx5".
func databaseURL(storagePath string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(storagePath, scheme); ok {
			return "pgx5://" + rest
		}
	}
	if strings.HasPrefix(storagePath, "pgx5://") {
		return storagePath
	}
	return "pgx5://" + storagePath
}

func makeMigrations(f flags) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", f.migrationsPath),
		databaseURL(f.storagePath),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = NewMigrationLogger()

	if err := apply(m, f); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		slog.Error("failed to read version", "err", err)
		fallDown()
	}
	slog.Info("migration applied", "version", version, "dirty", dirty)
}

func apply(m *migrate.Migrate, f flags) error {
	switch {
	case f.steps != 0 && f.down:
		return m.Steps(-f.steps)
	case f.steps != 0:
		return m.Steps(f.steps)
	case f.down:
		return m.Down()
	default:
		return m.Up()
	}
}

func fallDown() {
	os.Exit(2)
}
