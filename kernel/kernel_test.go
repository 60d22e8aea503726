package kernel

import (
	"math/bits"
	"testing"

	"github.com/joeycumines/go-rtos/arch"
	"github.com/joeycumines/go-rtos/rtconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingArch is a goroutine-free, single-threaded [arch.Arch] double
// for the kernel's own unit tests: Switch/FirstSwitch just record which
// thread became current, instead of actually transferring control
// between goroutines (that is archsim's job).
type recordingArch struct {
	arch.MutexCritical
	switches []uint64
	started  uint64
}

func (r *recordingArch) StackInit(t arch.Thread, entry func(arg any), arg any) {}

func (r *recordingArch) FirstSwitch(t arch.Thread) {
	r.started = t.ID()
	r.switches = append(r.switches, t.ID())
}

func (r *recordingArch) Switch(old, new arch.Thread) {
	r.switches = append(r.switches, new.ID())
}

func (r *recordingArch) BitScan(bitmap uint32) int {
	if bitmap == 0 {
		return 0
	}
	return bits.TrailingZeros32(bitmap)
}

func newTestKernel(t *testing.T) (*Kernel, *recordingArch) {
	cfg, err := rtconfig.Resolve(rtconfig.WithPriorityMax(8))
	require.NoError(t, err)
	a := &recordingArch{}
	return New(cfg, a), a
}

func TestKernel_CreateStartupStart(t *testing.T) {
	k, a := newTestKernel(t)
	th, err := k.CreateThread("A", func(any) {}, nil, 2, 256, 5)
	require.NoError(t, err)
	assert.Equal(t, Init, th.Status())

	require.NoError(t, k.Startup(th))
	assert.Equal(t, Ready, th.Status())

	require.NoError(t, k.Start())
	assert.Equal(t, Running, th.Status())
	assert.Same(t, th, k.Current())
	assert.Equal(t, th.id, a.started)
}

func TestKernel_CreateRejectsInvalidArgs(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.CreateThread("bad-entry", nil, nil, 0, 256, 5)
	assert.Error(t, err)

	_, err = k.CreateThread("bad-priority", func(any) {}, nil, 99, 256, 5)
	assert.Error(t, err)

	_, err = k.CreateThread("bad-slice", func(any) {}, nil, 0, 256, 0)
	assert.Error(t, err)
}

func TestKernel_HigherPriorityPreemptsOnStartup(t *testing.T) {
	k, _ := newTestKernel(t)
	low, err := k.CreateThread("low", func(any) {}, nil, 5, 256, 5)
	require.NoError(t, err)
	require.NoError(t, k.Startup(low))
	require.NoError(t, k.Start())
	assert.Same(t, low, k.Current())

	high, err := k.CreateThread("high", func(any) {}, nil, 1, 256, 5)
	require.NoError(t, err)
	require.NoError(t, k.Startup(high))
	assert.Same(t, high, k.Current())
	assert.Equal(t, Ready, low.Status())
}

func TestKernel_RotatesOnSliceExhaustion(t *testing.T) {
	k, _ := newTestKernel(t)
	a1, _ := k.CreateThread("a", func(any) {}, nil, 4, 256, 2)
	a2, _ := k.CreateThread("b", func(any) {}, nil, 4, 256, 2)
	require.NoError(t, k.Startup(a1))
	require.NoError(t, k.Startup(a2))
	require.NoError(t, k.Start())
	assert.Same(t, a1, k.Current())

	k.Tick()
	assert.Same(t, a1, k.Current(), "slice not yet exhausted")
	k.Tick()
	assert.Same(t, a2, k.Current(), "slice exhausted: rotate to b")
}

func TestKernel_SleepWakesViaTimer(t *testing.T) {
	k, _ := newTestKernel(t)
	idle, _ := k.CreateThread("idle", func(any) {}, nil, 7, 64, 10)
	sleeper, _ := k.CreateThread("sleeper", func(any) {}, nil, 3, 256, 10)
	require.NoError(t, k.Startup(idle))
	require.NoError(t, k.Startup(sleeper))
	require.NoError(t, k.Start())
	assert.Same(t, sleeper, k.Current())

	require.NoError(t, k.Sleep(3))
	assert.Equal(t, Suspend, sleeper.Status())
	assert.Same(t, idle, k.Current())

	k.Tick()
	k.Tick()
	assert.Equal(t, Suspend, sleeper.Status())
	k.Tick()
	assert.Equal(t, Running, sleeper.Status())
	assert.Same(t, sleeper, k.Current())
}

func TestKernel_SetPriorityRequeuesRunningThread(t *testing.T) {
	k, _ := newTestKernel(t)
	owner, _ := k.CreateThread("owner", func(any) {}, nil, 5, 256, 5)
	waiter, _ := k.CreateThread("waiter", func(any) {}, nil, 1, 256, 5)
	require.NoError(t, k.Startup(owner))
	require.NoError(t, k.Start())
	assert.Same(t, owner, k.Current())

	require.NoError(t, k.SetPriority(owner, 0))
	assert.Equal(t, Running, owner.Status())
	assert.Same(t, owner, k.Current())

	require.NoError(t, k.Startup(waiter))
	assert.Same(t, owner, k.Current(), "boosted owner still outranks waiter")
}

func TestKernel_DeleteAndReapFreesHeapStack(t *testing.T) {
	cfg, err := rtconfig.Resolve(rtconfig.WithPriorityMax(8), rtconfig.WithAllocationMode(rtconfig.DynamicOnly), rtconfig.WithDynamicPoolSize(4096))
	require.NoError(t, err)
	k := New(cfg, &recordingArch{})

	idle, _ := k.CreateThread("idle", func(any) {}, nil, 7, 64, 10)
	victim, _ := k.CreateThread("victim", func(any) {}, nil, 3, 256, 10)
	require.NoError(t, k.Startup(idle))
	require.NoError(t, k.Startup(victim))
	require.NoError(t, k.Start())

	require.NoError(t, k.Delete(victim))
	assert.Equal(t, Terminated, victim.Status())

	k.Reap()
	assert.Equal(t, Deleted, victim.Status())
	assert.Nil(t, victim.stack)

	// the pool can still serve another 256-byte stack after the reap.
	again, err := k.CreateThread("again", func(any) {}, nil, 3, 256, 10)
	require.NoError(t, err)
	assert.Len(t, again.stack, 256)
}

func TestKernel_RestartRequiresDeleted(t *testing.T) {
	k, _ := newTestKernel(t)
	th, _ := k.CreateThread("t", func(any) {}, nil, 3, 256, 10)
	err := k.Restart(th)
	assert.Error(t, err)
}
