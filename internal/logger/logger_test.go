package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	Init("dev", "")
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())

	Init("prod", "")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Init("prod", "WARN")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Init("dev", "nonsense")
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())
}
