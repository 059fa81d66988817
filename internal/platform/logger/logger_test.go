package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, New("DEBUG", "text").GetLevel())
	require.Equal(t, logrus.InfoLevel, New("loud", "text").GetLevel())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput("info", "json", &buf)
	log.WithField("user_id", 7).Info("user registered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "user registered", entry["msg"])
	require.Equal(t, float64(7), entry["user_id"])
}
