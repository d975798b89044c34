package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JIRA_FIELDS_FILE", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("APP_TZ", "UTC")
	cfg := Load()
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "customfield_10016", cfg.JiraStoryPointsField)
	assert.Equal(t, 12, cfg.SprintLookback)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Nil(t, cfg.JiraFieldMap)
}

func TestLoad_EnvAndFieldMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"customfield_10002","name":"Story Points"},{"id":"customfield_10008","name":"Epic Link"},{"id":"","name":"Broken"}]`), 0o600))
	t.Setenv("APP_TZ", "UTC")
	t.Setenv("JIRA_FIELDS_FILE", path)
	t.Setenv("JIRA_BOARD_IDS", "12, x, 40,")
	t.Setenv("WORKERS_JIRA", "nope")
	t.Setenv("REPORT_CACHE_TTL", "90s")

	cfg := Load()
	assert.Equal(t, []int64{12, 40}, cfg.JiraBoardIDs)
	assert.Equal(t, 6, cfg.WorkersJira, "invalid ints fall back to the default")
	assert.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, "customfield_10002", cfg.JiraStoryPointsField)
	assert.Equal(t, "customfield_10008", cfg.JiraEpicLinkField)
	assert.Len(t, cfg.JiraFieldMap, 2)
}

func TestParseStrings(t *testing.T) {
	assert.Nil(t, ParseStrings(""))
	assert.Equal(t, []string{"a", "b"}, ParseStrings(" a,,b "))
}
