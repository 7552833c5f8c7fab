package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_VerbosityGatesLevels(t *testing.T) {
	t.Parallel()

	logger, flush, err := New(1, false)
	require.NoError(t, err)
	defer flush()

	assert.True(t, logger.V(0).Enabled())
	assert.True(t, logger.V(1).Enabled())
	assert.False(t, logger.V(2).Enabled())
}

func TestNew_NegativeVerbosityIsQuiet(t *testing.T) {
	t.Parallel()

	logger, flush, err := New(-3, true)
	require.NoError(t, err)
	defer flush()

	assert.True(t, logger.Enabled())
	assert.False(t, logger.V(1).Enabled())
}
