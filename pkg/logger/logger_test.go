package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutputJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	log := NewWithOutput("debug", "text", &buf)

	Component(log, "trade").WithField("trader_id", "prapor").Info("bought")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trade", entry["component"])
	assert.Equal(t, "prapor", entry["trader_id"])
	assert.Equal(t, "bought", entry["msg"])
	assert.Equal(t, logrus.InfoLevel, log.GetLevel(), "empty LOG_LEVEL is not a valid level")
}

func TestNewWithOutputLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log.Info("hidden")
	assert.Empty(t, buf.String())
}
