package logger_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func Test_Emit_RespectsMinimumLevel(t *testing.T) {
	color.NoColor = true
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	logger.SetMinLoggingLevel(logger.WARNING)
	t.Cleanup(func() {
		logger.SetMinLoggingLevel(logger.INFO)
	})

	log := logger.Get("Test")
	log.Infof("hidden %d", 1)
	log.Warnf("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[Test] (!) shown 2\n")
}

func Test_ParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.LogLevel
		wantErr  bool
	}{
		{"debug", logger.DEBUG, false},
		{" Warn ", logger.WARNING, false},
		{"VERBOSE", logger.VERBOSE, false},
		{"loud", logger.INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, err := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.expected, lvl)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
