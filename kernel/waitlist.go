package kernel

// ArmTimeout re-arms t's own timer for ticks against [Kernel.DefaultTimeoutWake],
// the unified wake path for sleep and IPC timeouts (spec.md §4.C). Callers
// (package ipc's blocking retry loop) must already hold the critical
// section — this mirrors the "set thread-timer to remaining timeout,
// start it" step of spec.md §4.F's pseudocode, which happens inside the
// same critical section as the ipc-suspend call.
func (k *Kernel) ArmTimeout(t *Thread, ticks uint32) {
	k.timers.Stop(&t.timer)
	k.timers.Arm(&t.timer, ticks, k.DefaultTimeoutWake, t)
}

// StopTimeout cancels t's timeout timer; safe to call when it is not
// armed. Package ipc's blocking operations do not call it, so a timer
// they armed stays armed after the operation proceeds.
func (k *Kernel) StopTimeout(t *Thread) {
	k.timers.Stop(&t.timer)
}
