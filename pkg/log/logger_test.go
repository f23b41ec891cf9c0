package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Notice)
	logger.Debugf("hidden %d", 1)
	logger.Noticef("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "[test]")
	assert.False(t, Enabled(Debug))

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("visible %d", 3)
	assert.Contains(t, buf.String(), "visible 3")
	assert.True(t, Enabled(Debug))
}

func TestSetSinkKeepsLevel(t *testing.T) {
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	SetLevel(Warning)
	var buf bytes.Buffer
	SetSink(&buf)

	New("sink").Noticef("dropped")
	assert.Empty(t, buf.String())
	New("sink").Warningf("kept")
	assert.Contains(t, buf.String(), "kept")
}
