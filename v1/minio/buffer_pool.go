package minio

import (
	"bytes"
	"sync"
	"sync/atomic"
)

const (
	maxPooledBufferSize = 32 << 20
	initialBufferSize   = 64 << 10
)

// BufferPool recycles download buffers. Buffers grown past 32MiB are dropped
// instead of returned to the pool.
type BufferPool struct {
	pool      sync.Pool
	created   atomic.Int64
	reused    atomic.Int64
	discarded atomic.Int64
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	bp.pool.New = func() interface{} {
		bp.created.Add(1)
		return bytes.NewBuffer(make([]byte, 0, initialBufferSize))
	}
	return bp
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	bp.reused.Add(1)
	return buf
}

// Put returns b to the pool.
func (bp *BufferPool) Put(b *bytes.Buffer) {
	if b == nil {
		return
	}
	if b.Cap() > maxPooledBufferSize {
		bp.discarded.Add(1)
		return
	}
	b.Reset()
	bp.pool.Put(b)
}

// BufferPoolStats reports buffer pool usage.
type BufferPoolStats struct {
	Created   int64 `json:"created"`
	Reused    int64 `json:"reused"`
	Discarded int64 `json:"discarded"`
}

// Stats returns the current counters.
func (bp *BufferPool) Stats() BufferPoolStats {
	return BufferPoolStats{
		Created:   bp.created.Load(),
		Reused:    bp.reused.Load(),
		Discarded: bp.discarded.Load(),
	}
}
