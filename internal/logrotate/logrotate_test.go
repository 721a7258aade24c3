package logrotate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterCreatesDirectory(t *testing.T) {
	config := DefaultConfig
	config.Filename = filepath.Join(t.TempDir(), "logs", "nested", "trailzero.log")

	w, err := NewWriter(config)
	require.NoError(t, err)

	_, err = w.Write([]byte("[INFO] started\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := os.ReadFile(config.Filename)
	require.NoError(t, err)
	assert.Equal(t, "[INFO] started\n", string(content))
}

func TestNewWriterRequiresFilename(t *testing.T) {
	_, err := NewWriter(DefaultConfig)
	assert.Error(t, err)
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	config := Config{Filename: filepath.Join(dir, "trailzero.log"), MaxBackups: 2}

	w, err := NewWriter(config)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, w.Rotate())
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	content, err := os.ReadFile(config.Filename)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(content))
}

func TestTee(t *testing.T) {
	var console bytes.Buffer

	out, closer, err := Tee(&console, Config{})
	require.NoError(t, err)
	assert.Same(t, &console, out)
	assert.NoError(t, closer.Close())

	config := Config{Filename: filepath.Join(t.TempDir(), "trailzero.log")}
	out, closer, err = Tee(&console, config)
	require.NoError(t, err)

	_, err = out.Write([]byte("both\n"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	assert.Equal(t, "both\n", console.String())
	content, err := os.ReadFile(config.Filename)
	require.NoError(t, err)
	assert.Equal(t, "both\n", string(content))
}
