package testutils

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/warden-io/warden-panel/database"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupMockDB returns a postgres-dialect database backed by sqlmock.
func SetupMockDB() (*database.Database, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		panic(err)
	}

	return &database.Database{DB: gormDB}, mock, func() { db.Close() }
}

// SetupSQLiteDB returns a migrated database in a temporary file.
func SetupSQLiteDB(t *testing.T) *database.Database {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := database.RunMigrations(gormDB); err != nil {
		t.Fatalf("migrating sqlite: %v", err)
	}

	db := &database.Database{DB: gormDB}
	t.Cleanup(db.Close)
	return db
}
