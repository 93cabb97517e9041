package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lapor-chat/internal/config"
	"lapor-chat/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.InitDB(config.DatabaseConfig{
		Type:     "sqlite",
		Path:     filepath.Join(t.TempDir(), "chat.db"),
		LogLevel: "silent",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrateTables(db))
	return db
}
