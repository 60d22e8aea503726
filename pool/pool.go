// Package pool implements the byte-pool allocator spec.md §9 calls out as
// the kernel's "optional collaborator": a fixed-size arena that package
// kernel uses to back thread stacks when rtconfig.Config.AllocationMode
// enables dynamic allocation, instead of routing them through the Go
// garbage collector. Thread objects and IPC queue buffers are ordinary Go
// allocations and do not come from the pool.
//
// The design is a port of original_source/mem_mang/Tomem1/mem1.c: the
// arena is a list of blocks (free or allocated) kept in address order;
// allocation is first-fit starting from a roving search pointer that
// resumes where the previous search left off, spreading allocations
// across the arena; adjacent free blocks are merged lazily, only when
// encountered during a later search, so Free only looks up its block and
// marks it free.
package pool

import (
	"sync"
	"unsafe"

	"github.com/joeycumines/go-rtos/rterr"
)

const minRemainder = 16

// block is a region of the arena: [off, off+size).
type block struct {
	off, size int
	free      bool
}

// Pool is a fixed-capacity byte arena with first-fit, roving-pointer,
// lazily-merged allocation. The zero value is not usable; use [New].
type Pool struct {
	mu     sync.Mutex
	buf    []byte
	blocks []block // sorted by off, partitioning [0,len(buf)) with no gaps
	search int     // index into blocks: the roving search pointer
}

// New creates a Pool managing size bytes.
func New(size int) *Pool {
	if size < 0 {
		size = 0
	}
	return &Pool{
		buf:    make([]byte, size),
		blocks: []block{{off: 0, size: size, free: true}},
	}
}

// Cap returns the total arena size in bytes.
func (p *Pool) Cap() int {
	return len(p.buf)
}

// Alloc returns a size-byte slice backed by the arena, or rterr.ErrBusy if
// no free block (after lazy merging) is large enough.
func (p *Pool) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, rterr.New(rterr.INVALID, "pool: alloc size must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.search >= len(p.blocks) {
		p.search = 0
	}
	n := len(p.blocks)
	for i := 0; i < n; i++ {
		idx := (p.search + i) % len(p.blocks)
		p.mergeAt(idx)
		if idx >= len(p.blocks) {
			break
		}
		b := p.blocks[idx]
		if b.free && b.size >= size {
			p.splitAt(idx, size)
			p.blocks[idx].free = false
			p.search = (idx + 1) % len(p.blocks)
			off := p.blocks[idx].off
			return p.buf[off : off+size : off+size], nil
		}
	}
	return nil, rterr.ErrBusy
}

// Free releases a slice previously returned by Alloc. It does not merge
// immediately; merging happens lazily on the next Alloc search that visits
// this block, per the original's design.
func (p *Pool) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	off, ok := p.offsetOf(b)
	if !ok {
		return rterr.New(rterr.INVALID, "pool: free: slice not owned by this pool")
	}
	for i := range p.blocks {
		if p.blocks[i].off == off {
			if p.blocks[i].free {
				return rterr.New(rterr.INVALID, "pool: double free")
			}
			p.blocks[i].free = true
			return nil
		}
	}
	return rterr.New(rterr.INVALID, "pool: free: slice not owned by this pool")
}

// offsetOf returns the arena offset of b's first byte, via pointer
// arithmetic against the arena's backing array, plus ok=false if b is not
// backed by p.buf.
func (p *Pool) offsetOf(b []byte) (int, bool) {
	if len(p.buf) == 0 || len(b) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&p.buf[0]))
	head := uintptr(unsafe.Pointer(&b[0]))
	if head < base {
		return 0, false
	}
	off := int(head - base)
	if off >= len(p.buf) {
		return 0, false
	}
	return off, true
}

// mergeAt coalesces the block at idx with its immediate successor in
// address order, repeatedly, while both are free. Called only from within
// an allocation search (the lazy-merge design).
func (p *Pool) mergeAt(idx int) {
	for idx+1 < len(p.blocks) && p.blocks[idx].free && p.blocks[idx+1].free {
		p.blocks[idx].size += p.blocks[idx+1].size
		p.blocks = append(p.blocks[:idx+1], p.blocks[idx+2:]...)
		if p.search > idx {
			p.search--
		}
	}
}

// splitAt carves a size-byte block out of the free block at idx, leaving
// the remainder (if large enough to be worth tracking) as a new free
// block immediately after it in address order.
func (p *Pool) splitAt(idx, size int) {
	b := p.blocks[idx]
	remainder := b.size - size
	if remainder < minRemainder {
		return
	}
	newBlock := block{off: b.off + size, size: remainder, free: true}
	p.blocks[idx].size = size
	p.blocks = append(p.blocks, block{})
	copy(p.blocks[idx+2:], p.blocks[idx+1:])
	p.blocks[idx+1] = newBlock
	if p.search > idx {
		p.search++
	}
}
