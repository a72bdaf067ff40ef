package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMakeWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New().FromBuffer(&buf).WithLevel("debug").Make()

	l.Debug().Str("operation", "create_warden").Msg("dispatching")

	assert.Contains(t, buf.String(), `"operation":"create_warden"`)
	assert.Contains(t, buf.String(), `"message":"dispatching"`)
}

func TestWithLevelFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New().FromBuffer(&buf).WithLevel("warn").Make()

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithLevelIgnoresUnknownNames(t *testing.T) {
	build := New().WithLevel("loud")
	assert.Equal(t, zerolog.InfoLevel, build.level)
}
