package logging

import (
	"bytes"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		" error ": logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("verbose"))
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewFactory(&buf)("backend")

	l.Infof("read %d bytes", 12)
	assert.Contains(t, buf.String(), "INFO  | backend         | read 12 bytes\n")

	buf.Reset()
	l.Debugf("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(logger.DEBUG)
	l.Debugf("visible")
	assert.Contains(t, buf.String(), "DEBUG | backend         | visible")

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden")
	l.Errorf("broken %s", "payload")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "ERROR | backend         | broken payload")

	assert.PanicsWithValue(t, "fatal 1", func() { l.Panicf("fatal %d", 1) })
}
