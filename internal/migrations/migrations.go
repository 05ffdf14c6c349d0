package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopcore-next/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // postgres database/sql 驱动
)

//go:embed sql/*.sql
var files embed.FS

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Run 对 postgres 执行迁移，无变更时视为成功
// steps 为 0 时执行全部，否则按步数前进或回退
func Run(dsn, direction string, steps int) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", DirectionUp:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case DirectionDown:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unsupported migrate direction: %s", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Infow("migrate_no_change", "direction", direction)
		return nil
	}
	if err != nil {
		return err
	}
	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Infow("migrate_done", "direction", direction, "version", version, "dirty", dirty)
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("load migration files failed: %w", err)
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("init migrate driver failed: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}
