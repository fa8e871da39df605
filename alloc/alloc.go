// Package alloc provides a nestable scratch buffer pool and an
// ArrayBuffer move-adapter. The other packages of this module do not use
// them: path conversions and file reads allocate directly.
package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
)

// Scratch is a nestable scratch-buffer allocator. Acquire/Release are
// called in matching pairs; nested acquisition from the same goroutine is
// allowed, and the depth counter records the nesting but does not enforce
// it.
type Scratch struct {
	pool  sync.Pool
	depth int32
}

// NewScratch returns a scratch allocator whose buffers start at the given
// capacity and grow as needed.
func NewScratch(initialCapacity int) *Scratch {
	return &Scratch{
		pool: sync.Pool{
			New: func() any {
				buf := make([]byte, 0, initialCapacity)
				return &buf
			},
		},
	}
}

// Acquire borrows a buffer from the pool, incrementing the nesting depth.
func (s *Scratch) Acquire() *[]byte {
	atomic.AddInt32(&s.depth, 1)
	buf := s.pool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// Release returns a buffer to the pool, decrementing the nesting depth.
func (s *Scratch) Release(buf *[]byte) {
	atomic.AddInt32(&s.depth, -1)
	s.pool.Put(buf)
}

// Depth reports the current nesting depth (Acquire calls minus Release
// calls).
func (s *Scratch) Depth() int32 {
	return atomic.LoadInt32(&s.depth)
}

// ArrayBufferAllocator adapts host-owned bytes into goja ArrayBuffer
// values without copying.
type ArrayBufferAllocator struct {
	rt *goja.Runtime
}

// NewArrayBufferAllocator returns an allocator bound to the given runtime.
func NewArrayBufferAllocator(rt *goja.Runtime) *ArrayBufferAllocator {
	return &ArrayBufferAllocator{rt: rt}
}

// Move hands ownership of buf to a newly allocated ArrayBuffer value. The
// caller must not retain buf after calling Move.
func (a *ArrayBufferAllocator) Move(buf []byte) goja.Value {
	return a.rt.ToValue(a.rt.NewArrayBuffer(buf))
}
