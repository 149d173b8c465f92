package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/algoviz-app/algoviz_api/model"
)

// newTestSql opens a throwaway sqlite database with the full schema. Each
// test gets its own file under t.TempDir so tests stay independent.
func newTestSql(t *testing.T) *SqlService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Entitlement{},
		&model.LessonProgress{},
		&model.Bookmark{},
		&model.Lesson{},
		&model.LessonAsset{},
	))

	return &SqlService{db: db}
}

// newTestEntitlements wires an EntitlementService directly against a fresh
// database and the in-process feed, skipping the service container.
func newTestEntitlements(t *testing.T, sqlSvc *SqlService) *EntitlementService {
	t.Helper()

	return &EntitlementService{
		sqlSvc:  sqlSvc,
		userSvc: &UserService{sqlSvc: sqlSvc},
		feed:    newMemoryFeed(),
	}
}

func newTestProgress(t *testing.T, sqlSvc *SqlService) *ProgressService {
	t.Helper()

	return &ProgressService{
		sqlSvc:  sqlSvc,
		userSvc: &UserService{sqlSvc: sqlSvc},
	}
}
