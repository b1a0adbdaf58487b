package database

import (
	"context"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	Path   string // sqlite file, ":memory:" works for tests
	DSN    string // postgres connection string
	Silent bool
}

func Init(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	logMode := gormlogger.Warn
	if cfg.Silent {
		logMode = gormlogger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite has no row locks: a single connection serializes every
	// transaction, which is what keeps per-creator commands race-free.
	if cfg.Driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
	} else {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Pool limits go first: every ":memory:" connection is its own database.
	if err = Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.FamilyMember{},
		&entity.FamilyInvitation{},
		&entity.NoteLifecycle{},
		&entity.ConsentRecord{},
		&entity.CategoryAccess{},
		&entity.AccessPreset{},
		&entity.Notification{},
		&entity.Note{},
	)
}

// TxRunner opens transactions for services. Repositories stay unaware of
// transaction boundaries and just use whatever dbctx.Context they get.
type TxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (t *TxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
