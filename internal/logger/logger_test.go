package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"newsnotes/internal/logger"

	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithService(t *testing.T) {
	logger.Init("news")
	var buf bytes.Buffer
	logger.Log.SetOutput(&buf)
	defer logger.Discard()

	logger.Log.WithField("path", "/").Info("Обработан запрос")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "news", entry["service"])
	require.Equal(t, "Обработан запрос", entry["message"])
	require.Equal(t, "info", entry["level"])
	require.Contains(t, entry, "timestamp")
}
