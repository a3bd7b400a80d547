package main

import (
	"testing"

	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	steps, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	_, err = parseSteps([]string{"0"})
	require.Error(t, err)
	_, err = parseSteps([]string{"abc"})
	require.Error(t, err)
}

func TestParseVersionAndTarget(t *testing.T) {
	v, err := parseVersion("1771776034")
	require.NoError(t, err)
	assert.Equal(t, 1771776034, v)

	_, err = parseVersion("-1")
	require.Error(t, err)

	target, err := parseTarget("1771776035")
	require.NoError(t, err)
	assert.Equal(t, uint(1771776035), target)

	_, err = parseTarget("-5")
	require.Error(t, err)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("MIGRATION_TEST_FLAG", "")
	assert.True(t, envBool("MIGRATION_TEST_FLAG", true))

	t.Setenv("MIGRATION_TEST_FLAG", "false")
	assert.False(t, envBool("MIGRATION_TEST_FLAG", true))

	t.Setenv("MIGRATION_TEST_FLAG", "nope")
	assert.False(t, envBool("MIGRATION_TEST_FLAG", false))
}

func TestRun_RequiresCommand(t *testing.T) {
	err := run(nil, logging.NewNop())
	require.ErrorIs(t, err, errUsage)
}

func TestRun_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	err := run([]string{"up"}, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
}
