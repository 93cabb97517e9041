package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should fall back to defaults without a config file", func(t *testing.T) {
		req := require.New(t)

		cfg, err := LoadConfig("")

		req.NoError(err)
		req.Equal(DeletePolicyAny, cfg.Chat.DeletePolicy)
		req.Equal("https://exp.host/--/api/v2/push/send", cfg.Push.GatewayURL)
		req.Equal("Pesan Baru Masuk", cfg.Push.Title)
		req.Equal("default", cfg.Push.Sound)
		req.Equal("uploads/", cfg.Storage.KeyPrefix)
		req.Equal(time.Hour, cfg.Storage.OwnershipTTL)
		req.Equal("ws://localhost:8080/ws/chat", cfg.Client.WSURL)
		req.Equal(30*time.Second, cfg.Client.Timeout)
		req.Empty(cfg.Client.Position)
	})

	t.Run("should let environment variables override nested keys", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("CHAT_DELETE_POLICY", DeletePolicyOwnerOrAdmin)
		t.Setenv("STORAGE_MINIO_BUCKET", "other-bucket")

		cfg, err := LoadConfig("")

		req.NoError(err)
		req.Equal(DeletePolicyOwnerOrAdmin, cfg.Chat.DeletePolicy)
		req.Equal("other-bucket", cfg.Storage.MinIO.Bucket)
	})

	t.Run("should read an explicit yaml file", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := "DATABASE:\n  TYPE: sqlite\n  PATH: chat.db\nPUSH:\n  TITLE: Halo\n"
		req.NoError(os.WriteFile(path, []byte(body), 0o600))

		cfg, err := LoadConfig(path)

		req.NoError(err)
		req.Equal("sqlite", cfg.Database.Type)
		req.Equal("chat.db", cfg.Database.Path)
		req.Equal("Halo", cfg.Push.Title)
	})

	t.Run("should fail on a malformed explicit file", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		req.NoError(os.WriteFile(path, []byte("DATABASE: [unclosed"), 0o600))

		_, err := LoadConfig(path)

		req.Error(err)
	})
}
