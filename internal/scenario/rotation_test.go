package scenario

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenario_RoundRobinRotatesEqualPriorityThreads is spec.md §8's
// round-robin scenario, driven through the real archsim goroutines
// rather than kernel's own recordingArch unit test (kernel_test.go's
// TestKernel_RotatesOnSliceExhaustion): two equal-priority threads of
// slice 2, never blocking on anything, must alternate every two ticks
// purely from Kernel.Tick's slice-exhaustion rotation.
//
// Neither thread body ever calls back into the kernel once started —
// the reference simulation's cooperative-only preemption (DESIGN.md)
// means a rotated-off thread's goroutine is not actually suspended,
// only logically requeued, until it next makes a kernel call of its
// own. Rotating the kernel's notion of "current" back onto such a
// thread therefore has nothing to actually hand a baton to: archsim
// tracks per-thread parked state and treats that case as a no-op
// (see archsim.Arch.signal) rather than blocking forever on a channel
// nobody is receiving from. So this scenario verifies the bitmap/slice
// bookkeeping the same safe way Tick itself is documented safe to drive
// from outside a kernel thread's own goroutine: synchronously, from the
// test's own goroutine, reading Current() immediately after each Tick
// returns.
func TestScenario_RoundRobinRotatesEqualPriorityThreads(t *testing.T) {
	k := newTestKernel(t, 8)

	spin := func(name string) func(any) {
		return func(any) {
			for i := 0; i < 64; i++ {
				runtime.Gosched()
			}
			// Park forever rather than returning: this body never yields
			// back to the kernel, so nothing will ever rotate it out for
			// real. Letting it fall through to Kernel.ExitCurrent would
			// race the other still-running spin body for the kernel's
			// critical section pointlessly, with no bearing on the
			// assertions below.
			select {}
		}
	}

	a, err := k.CreateThread("a", spin("a"), nil, 4, 256, 2)
	require.NoError(t, err)
	b, err := k.CreateThread("b", spin("b"), nil, 4, 256, 2)
	require.NoError(t, err)
	require.NoError(t, k.Startup(a))
	require.NoError(t, k.Startup(b))
	require.NoError(t, k.Start())
	assert.Same(t, a, k.Current())

	k.Tick()
	assert.Same(t, a, k.Current(), "a's slice not yet exhausted")
	k.Tick()
	assert.Same(t, b, k.Current(), "a's slice exhausted: rotate to b")
	k.Tick()
	assert.Same(t, b, k.Current(), "b's slice not yet exhausted")
	k.Tick()
	assert.Same(t, a, k.Current(), "b's slice exhausted: rotate back to a")
}
