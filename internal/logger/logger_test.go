package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

func TestNewWithWriter_JSONOutsideDev(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(config.Config{AppEnv: "prod"}, buf)
	log.Info().Int64("board", 7).Msg("rollup loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "jira-reporting", line["app"])
	assert.Equal(t, "rollup loaded", line["message"])
	assert.EqualValues(t, 7, line["board"])
	assert.NotEmpty(t, line["time"])
}

func TestNewWithWriter_ConsoleInDev(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(config.Config{AppEnv: "dev"}, buf)
	log.Warn().Msg("no store")

	assert.Contains(t, buf.String(), "no store")
	assert.False(t, json.Valid(buf.Bytes()))
}
