// Package testsupport reúne banco SQLite e dublês usados pelos testes de repositório, serviço e HTTP
package testsupport

import (
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rafabene/carelink-accounts/internal/infrastructure/persistence/postgres"
)

// TB é o subconjunto de testing.TB que também é satisfeito por GinkgoT()
type TB interface {
	Helper()
	TempDir() string
	Cleanup(func())
	Fatalf(format string, args ...any)
}

// NewSQLiteDB abre um banco SQLite isolado em arquivo temporário com o schema migrado.
// Uma única conexão serializa as transações, como os row locks fariam no PostgreSQL.
func NewSQLiteDB(tb TB) *gorm.DB {
	tb.Helper()

	dsn := filepath.Join(tb.TempDir(), "accounts.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), postgres.GormConfig(logger.Silent))
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := postgres.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}
	return db
}
