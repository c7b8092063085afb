package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndL(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	L().Info("hello", zap.String("k", "v"))
	assert.Equal(t, 1, logs.FilterMessage("hello").Len())

	Set(nil)
	assert.NotNil(t, L())
}

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	assert.NoError(t, Init(false))
	assert.True(t, L().Core().Enabled(zap.InfoLevel))
	assert.False(t, L().Core().Enabled(zap.DebugLevel))
	assert.NoError(t, Init(true))
	assert.True(t, L().Core().Enabled(zap.DebugLevel))
}
