package constants

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignDefaults(t *testing.T) {
	t.Run("DefaultKeyMode stays backward compatible", func(t *testing.T) {
		assert.Equal(t, "testkey", DefaultKeyMode)
	})

	t.Run("DefaultThrottleInterval caps updates at two per second", func(t *testing.T) {
		assert.Equal(t, 500*time.Millisecond, DefaultThrottleInterval)
		assert.Equal(t, 2, int(time.Second/DefaultThrottleInterval))
	})

	t.Run("CompletePercent is the final value", func(t *testing.T) {
		assert.Equal(t, 100, CompletePercent)
	})
}

func TestParamKeys(t *testing.T) {
	assert.Equal(t, "inputFile", ParamInputFile)
	assert.Equal(t, "outputFile", ParamOutputFile)
	assert.Equal(t, "keyMode", ParamKeyMode)
	assert.Equal(t, "showProgressItems", ParamShowProgressItems)
}

func TestArchiveLayout(t *testing.T) {
	for _, name := range []string{ManifestName, SignatureFileName, SignatureBlockName} {
		assert.True(t, strings.HasPrefix(name, MetaInfDir), name)
	}
}
