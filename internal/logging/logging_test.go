package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelWriter(t *testing.T) {
	w := NewChannelWriter(2)

	for _, line := range []string{"a\n", "b\n", "c\n"} {
		n, err := w.Write([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, len(line), n)
	}

	assert.Equal(t, "a\n", <-w.Lines())
	assert.Equal(t, "b\n", <-w.Lines())
	assert.EqualValues(t, 1, w.Dropped())
}

func TestChannelWriter_CopiesLine(t *testing.T) {
	w := NewChannelWriter(1)
	buf := []byte("first\n")
	_, _ = w.Write(buf)
	copy(buf, "XXXXX\n")
	assert.Equal(t, "first\n", <-w.Lines())
}

func TestNew_FileAndExtra(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var console bytes.Buffer
	ui := NewChannelWriter(4)

	logger := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}, &console, nil, ui)
	logger.Printf("Engine: hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Engine: hello")
	assert.Contains(t, console.String(), "Engine: hello")
	assert.Contains(t, <-ui.Lines(), "Engine: hello")
}

func TestNew_NoOutputs(t *testing.T) {
	logger := New(Options{})
	logger.Printf("discarded")
	assert.NoError(t, logger.Close())
}
