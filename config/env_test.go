package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(yamlPath, []byte("app_port: 9090\nextract_timeout: 90s\ndb_driver: postgres\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nAPP_PORT=7070\nCRON_SECRET=\"s3cret\"\n"), 0o644))

	require.NoError(t, loadFromFiles(yamlPath, filepath.Join(dir, "missing.json"), envPath))

	assert.Equal(t, "7070", get("APP_PORT", ""))
	assert.Equal(t, "s3cret", get("CRON_SECRET", ""))
	assert.Equal(t, "postgres", get("DB_DRIVER", ""))
	assert.Equal(t, 90*time.Second, duration("EXTRACT_TIMEOUT", time.Minute))
}

func TestDuration_FallsBackOnGarbage(t *testing.T) {
	Set("EXTRACT_POLL_INTERVAL", "soon")
	defer Set("EXTRACT_POLL_INTERVAL", "")

	assert.Equal(t, defaultPollInterval, duration("EXTRACT_POLL_INTERVAL", defaultPollInterval))
}

func TestMergeScalars_IgnoresNested(t *testing.T) {
	out := map[string]string{}
	mergeScalars(map[string]interface{}{
		"redis_addr": "cache:6379",
		"nested":     map[string]interface{}{"a": 1},
		"rate":       60,
	}, out)

	assert.Equal(t, "cache:6379", out["REDIS_ADDR"])
	assert.Equal(t, "60", out["RATE"])
	_, ok := out["NESTED"]
	assert.False(t, ok)
}
