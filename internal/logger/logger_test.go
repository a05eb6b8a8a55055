package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithOutput("debug", "json", &buf)

	WithFields(logrus.Fields{"round": "1001"}).Info("forecast created")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "forecast created", line["msg"])
	assert.Equal(t, "1001", line["round"])
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}

func TestInitLoggerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithOutput("verbose", "text", &buf)

	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	Debug("hidden")
	assert.Empty(t, buf.String())
	Warnf("visible %d", 1)
	assert.Contains(t, buf.String(), "visible 1")
}
