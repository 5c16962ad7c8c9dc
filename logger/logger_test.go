package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agnosto/dm-archiver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingFile_RotatesAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	rf, err := newRotatingFile(path)
	require.NoError(t, err)

	chunk := []byte(strings.Repeat("x", 1024*1024))
	for i := 0; i < 6; i++ {
		_, err := rf.Write(chunk)
		require.NoError(t, err)
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "expected a first backup")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(maxLogSize))
}

func TestInitLogger_WritesJSONToFile(t *testing.T) {
	cfg := config.CreateDefaultConfig()
	cfg.Options.LogDir = t.TempDir()
	cfg.Options.LogLevel = "debug"

	require.NoError(t, InitLogger(cfg))
	t.Cleanup(Discard)

	Logger.Info().Str("component", "test").Msg("hello")

	data, err := os.ReadFile(filepath.Join(cfg.Options.LogDir, "dm-archiver.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}
