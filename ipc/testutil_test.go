package ipc_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/joeycumines/go-rtos/archsim"
	"github.com/joeycumines/go-rtos/kernel"
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/stretchr/testify/require"
)

// newTestKernel builds a Kernel driven by archsim, the real
// goroutine-and-channel architecture collaborator, so blocking IPC calls
// made from a simulated thread's own body actually park and resume —
// unlike package kernel's own recording-only test double.
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

// idleBody never blocks on an IPC object under test; it just reaps
// terminated threads and re-sleeps, the lowest-priority thread every
// scenario needs so the ready bitmap is never empty. Sleep(1) is a no-op
// switch whenever idle is the only ready thread (nothing to switch to),
// so it yields the OS thread explicitly rather than spinning.
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
