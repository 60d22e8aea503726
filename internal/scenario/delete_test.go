package scenario

import (
	"testing"

	"github.com/joeycumines/go-rtos/ipc"
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_DeleteWakesAllWaitersWithDeleted is spec.md §8's
// delete-while-waiting scenario: deleting an IPC object while threads
// are blocked on it must wake every waiter with ErrDeleted rather than
// leaving them parked forever.
func TestScenario_DeleteWakesAllWaitersWithDeleted(t *testing.T) {
	k := newTestKernel(t, 8)
	sem, err := ipc.NewSemaphore(k, 1, 0, kernel.FIFOOrder)
	require.NoError(t, err)

	idle, err := k.CreateThread("idle", idleBody(k), nil, 7, 64, 10)
	require.NoError(t, err)
	require.NoError(t, k.Startup(idle))

	done := make(chan error, 2)
	for _, name := range []string{"waiter-1", "waiter-2"} {
		waiter, err := k.CreateThread(name, func(any) {
			done <- sem.Receive(ipc.Forever)
		}, nil, 2, 256, 5)
		require.NoError(t, err)
		require.NoError(t, k.Startup(waiter))
	}

	deleterDone := make(chan struct{}, 1)
	deleter, err := k.CreateThread("deleter", func(any) {
		sem.Delete()
		deleterDone <- struct{}{}
	}, nil, 3, 256, 5)
	require.NoError(t, err)
	require.NoError(t, k.Startup(deleter))

	require.NoError(t, k.Start())

	assert.ErrorIs(t, awaitResult(t, done), rterr.ErrDeleted)
	assert.ErrorIs(t, awaitResult(t, done), rterr.ErrDeleted)
	awaitResult(t, deleterDone)
}
