package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worksheets.log")
	log, err := New("debug", path)
	require.NoError(t, err)

	log.Debug("scored")
	log.Info("generated")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scored"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}
