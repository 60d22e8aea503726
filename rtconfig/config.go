// Package rtconfig models the compile-time configuration options of
// spec.md §6 as a runtime Config built through functional options, in the
// style of
// github.com/joeycumines/go-utilpkg/eventloop/options.go's
// LoopOption/loopOptionImpl/resolveLoopOptions.
package rtconfig

import "github.com/joeycumines/go-rtos/rterr"

// PriorityConvention selects whether smaller or larger numeric priority
// values denote higher priority.
type PriorityConvention uint8

const (
	// LargerIsHigher: priority 31 preempts priority 0.
	LargerIsHigher PriorityConvention = iota
	// SmallerIsHigher: priority 0 preempts priority 31. This is the
	// convention used by spec.md §8's worked scenarios.
	SmallerIsHigher
)

// AllocationMode controls whether thread/IPC storage may be obtained from
// the static caller-supplied storage path, the dynamic byte-pool path
// (package pool), or both.
type AllocationMode uint8

const (
	StaticOnly AllocationMode = iota
	DynamicOnly
	Both
)

// Config is the resolved, validated kernel configuration.
type Config struct {
	PriorityConvention    PriorityConvention
	PriorityMax           int
	TickHz                int
	TimerLevels           int
	IdleStackSize         int
	AllocationMode        AllocationMode
	DynamicPoolSize       int
	IPCMutex              bool
	IPCRecursiveMutex     bool
	IPCSemaphore          bool
	IPCQueue              bool
	RecursiveMutexMaxDepth int
}

func defaults() Config {
	return Config{
		PriorityConvention:     SmallerIsHigher,
		PriorityMax:            32,
		TickHz:                 1000,
		TimerLevels:            1,
		IdleStackSize:          512,
		AllocationMode:         StaticOnly,
		DynamicPoolSize:        0,
		IPCMutex:               true,
		IPCRecursiveMutex:      true,
		IPCSemaphore:           true,
		IPCQueue:               true,
		RecursiveMutexMaxDepth: 255,
	}
}

// Option configures a Config during Resolve.
type Option interface {
	apply(c *Config)
}

type optionFunc func(c *Config)

func (f optionFunc) apply(c *Config) { f(c) }

func WithPriorityConvention(v PriorityConvention) Option {
	return optionFunc(func(c *Config) { c.PriorityConvention = v })
}

func WithPriorityMax(v int) Option {
	return optionFunc(func(c *Config) { c.PriorityMax = v })
}

func WithTickHz(v int) Option {
	return optionFunc(func(c *Config) { c.TickHz = v })
}

func WithTimerLevels(v int) Option {
	return optionFunc(func(c *Config) { c.TimerLevels = v })
}

func WithIdleStackSize(v int) Option {
	return optionFunc(func(c *Config) { c.IdleStackSize = v })
}

func WithAllocationMode(v AllocationMode) Option {
	return optionFunc(func(c *Config) { c.AllocationMode = v })
}

func WithDynamicPoolSize(v int) Option {
	return optionFunc(func(c *Config) { c.DynamicPoolSize = v })
}

// WithIPC toggles the individually-enabled IPC kinds of spec.md §6.
func WithIPC(mutex, recursiveMutex, semaphore, queue bool) Option {
	return optionFunc(func(c *Config) {
		c.IPCMutex = mutex
		c.IPCRecursiveMutex = recursiveMutex
		c.IPCSemaphore = semaphore
		c.IPCQueue = queue
	})
}

func WithRecursiveMutexMaxDepth(v int) Option {
	return optionFunc(func(c *Config) { c.RecursiveMutexMaxDepth = v })
}

// Resolve applies defaults, then opts in order, then validates the result.
func Resolve(opts ...Option) (Config, error) {
	c := defaults()
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.PriorityMax <= 0 || c.PriorityMax > 32 {
		return rterr.New(rterr.INVALID, "priority_max must be in (0, 32]")
	}
	if c.TickHz <= 0 {
		return rterr.New(rterr.INVALID, "tick_hz must be positive")
	}
	if c.TimerLevels < 1 {
		return rterr.New(rterr.INVALID, "timer_levels must be >= 1")
	}
	if c.DynamicPoolSize < 0 {
		return rterr.New(rterr.INVALID, "dynamic_pool_size must not be negative")
	}
	if c.AllocationMode != StaticOnly && c.DynamicPoolSize <= 0 {
		return rterr.New(rterr.INVALID, "dynamic_pool_size is required when dynamic allocation is enabled")
	}
	if c.RecursiveMutexMaxDepth < 1 {
		return rterr.New(rterr.INVALID, "recursive_mutex_max_depth must be >= 1")
	}
	return nil
}
