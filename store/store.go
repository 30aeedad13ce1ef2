// Package store owns the embedded SQLite database every repository works on.
package store

import (
	"context"
	"fmt"
	"time"

	puregosqlite "github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beesaferoot/rentstore/migration"
)

// Driver selects the SQLite driver behind a store.
type Driver string

const (
	// DriverSQLite is the cgo driver built on mattn/go-sqlite3.
	DriverSQLite Driver = "sqlite"
	// DriverPureGo is the cgo-free driver built on modernc.org/sqlite.
	DriverPureGo Driver = "sqlite-purego"
)

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

// Options configures Open. The zero value opens a private in-memory store with the
// cgo driver and the declared migrations.
type Options struct {
	// Path is the database file, or MemoryPath.
	Path   string
	Driver Driver
	Logger logrus.FieldLogger
	// SQLDebug logs every statement at info level.
	SQLDebug bool
	// Migrations overrides the declared schema history.
	Migrations []*migration.Migration
	// SkipMigrations opens the store as it is on disk. Pending versions are left for
	// an explicit Migrations().Apply.
	SkipMigrations bool
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = MemoryPath
	}
	if o.Driver == "" {
		o.Driver = DriverSQLite
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Migrations == nil {
		o.Migrations = migration.Declared()
	}
	return o
}

// Store is an open database handle. It holds a single connection, so transactions
// commit one at a time.
type Store struct {
	db           *gorm.DB
	migrations   *migration.Manager
	log          logrus.FieldLogger
	path         string
	migrationErr error
}

// Open opens the database at opts.Path and applies pending migrations. A failing
// migration does not prevent opening: it is logged, kept in LastMigrationError, and
// the store stays at its last applied version.
func Open(ctx context.Context, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	log := opts.Logger.WithFields(logrus.Fields{"path": opts.Path, "driver": opts.Driver})

	dialector, err := dialectorFor(opts.Driver, opts.Path)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(opts.Logger, opts.SQLDebug),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	manager, err := migration.NewManager(db, opts.Migrations, opts.Logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	s := &Store{
		db:         db,
		migrations: manager,
		log:        opts.Logger,
		path:       opts.Path,
	}

	if opts.SkipMigrations {
		return s, nil
	}

	applied, err := manager.Apply(ctx)
	if err != nil {
		s.migrationErr = err
		log.WithError(err).Error("store opened with pending migrations")
	}
	if len(applied) > 0 {
		log.WithField("applied", applied).Info("migrations applied")
	}
	return s, nil
}

func dialectorFor(driver Driver, path string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(path), nil
	case DriverPureGo:
		return puregosqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}

func newGormLogger(log logrus.FieldLogger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// DB returns a session bound to ctx.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn in one transaction, committed when fn returns nil. fn must
// only use tx: the store has a single connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Migrations() *migration.Manager {
	return s.migrations
}

// LastMigrationError returns the error of the migration run done by Open, if any.
func (s *Store) LastMigrationError() error {
	return s.migrationErr
}

func (s *Store) Logger() logrus.FieldLogger {
	return s.log
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
