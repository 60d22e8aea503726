package rtconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	c, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, SmallerIsHigher, c.PriorityConvention)
	assert.Equal(t, 32, c.PriorityMax)
	assert.Equal(t, 1000, c.TickHz)
	assert.Equal(t, StaticOnly, c.AllocationMode)
}

func TestResolve_AppliesOptions(t *testing.T) {
	c, err := Resolve(
		WithPriorityMax(8),
		WithTickHz(100),
		WithAllocationMode(StaticOnly),
		WithIPC(true, false, true, false),
	)
	require.NoError(t, err)
	assert.Equal(t, 8, c.PriorityMax)
	assert.Equal(t, 100, c.TickHz)
	assert.True(t, c.IPCMutex)
	assert.False(t, c.IPCRecursiveMutex)
}

func TestResolve_RejectsPriorityMaxOutOfRange(t *testing.T) {
	_, err := Resolve(WithPriorityMax(33))
	require.Error(t, err)
}

func TestResolve_RequiresDynamicPoolSizeWhenDynamicEnabled(t *testing.T) {
	_, err := Resolve(WithAllocationMode(DynamicOnly))
	require.Error(t, err)

	_, err = Resolve(WithAllocationMode(DynamicOnly), WithDynamicPoolSize(4096))
	require.NoError(t, err)
}

func TestResolve_StaticOnlyNeedsNoPool(t *testing.T) {
	c, err := Resolve(WithAllocationMode(StaticOnly))
	require.NoError(t, err)
	assert.Equal(t, StaticOnly, c.AllocationMode)
}
