package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

func TestEnvVarList(t *testing.T) {
	t.Setenv("LIVEARCHIVER_TEST_LIST", " alpha, ,beta ,")
	assert.Equal(t, []string{"alpha", "beta"}, utils.EnvVarList("LIVEARCHIVER_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, utils.EnvVarList("LIVEARCHIVER_TEST_UNSET", []string{"x"}))
}

func TestEnvVarBool(t *testing.T) {
	t.Setenv("LIVEARCHIVER_TEST_BOOL", "true")
	value, err := utils.EnvVarBool("LIVEARCHIVER_TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, value)

	t.Setenv("LIVEARCHIVER_TEST_BOOL", "yes")
	_, err = utils.EnvVarBool("LIVEARCHIVER_TEST_BOOL", false)
	assert.Error(t, err)
}

func TestEnvVarDuration(t *testing.T) {
	t.Setenv("LIVEARCHIVER_TEST_DURATION", "45s")
	value, err := utils.EnvVarDuration("LIVEARCHIVER_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, value)

	value, err = utils.EnvVarDuration("LIVEARCHIVER_TEST_UNSET", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, value)
}
