package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	defer logrus.SetOutput(os.Stdout)

	closer, err := Setup(Options{Level: "debug", Format: "json", Dir: dir})
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.WithField("video_id", "abc").Info("hello")

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"video_id":"abc"`)
}

func TestSetup_InvalidLevelFallsBack(t *testing.T) {
	closer, err := Setup(Options{Level: "loud"})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
