package testutil

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/repo"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
)

// NewDB opens a migrated in-memory sqlite database. A single connection keeps
// every query on the same memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := pkgdb.GormConfig()
	cfg.PrepareStmt = false

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.New(db).Migrate(context.Background()))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func NewRepo(t testing.TB) *repo.GormRepo {
	t.Helper()
	return repo.New(NewDB(t))
}
