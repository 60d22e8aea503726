// Package scenario exercises spec.md §8's worked end-to-end scenarios at
// the full kernel+archsim level: real goroutines, real baton channels,
// real ticks, rather than package kernel's own recording-only test
// double or any single primitive's unit tests in isolation.
package scenario

import (
	"runtime"
	"testing"
	"time"

	"github.com/joeycumines/go-rtos/archsim"
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/stretchr/testify/require"
)

// newTestKernel builds a Kernel driven by archsim, mirroring package
// ipc's own test helper, so every scenario here runs against the real
// goroutine-and-channel architecture collaborator.
func newTestKernel(t *testing.T, priorityMax int) *kernel.Kernel {
	t.Helper()
	cfg, err := rtconfig.Resolve(
		rtconfig.WithPriorityMax(priorityMax),
		rtconfig.WithAllocationMode(rtconfig.Both),
		rtconfig.WithDynamicPoolSize(4096),
	)
	require.NoError(t, err)
	return kernel.New(cfg, archsim.New(cfg.PriorityConvention))
}

// idleBody never blocks on an object under test; it just reaps
// terminated threads and re-sleeps, the lowest-priority thread every
// scenario needs so the ready bitmap is never empty.
func idleBody(k *kernel.Kernel) func(any) {
	return func(any) {
		for {
			k.Reap()
			_ = k.Sleep(1)
			runtime.Gosched()
		}
	}
}

// startTicker drives simulated ticks at a small real-time interval until
// stop is closed, for scenarios that rely on timeout expiry.
func startTicker(k *kernel.Kernel, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				k.Tick()
			}
		}
	}()
}

// awaitResult fails the test if result doesn't arrive within a generous
// bound, guarding against a scenario that deadlocks instead of
// completing.
func awaitResult[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for scenario result")
		var zero T
		return zero
	}
}
