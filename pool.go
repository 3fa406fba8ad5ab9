// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"errors"
	"sync"
)

// ErrPoolExhausted indicates the pool's live-texture budget is spent and a
// new allocation is not permitted. Callers surface this as a render failure;
// the pool never blocks.
var ErrPoolExhausted = errors.New("fxgraph: texture pool exhausted")

// Pool is a thread-safe reuse cache for transient textures.
//
// Pool groups free textures by descriptor, so acquiring the same size,
// format and usage repeatedly reuses the same underlying allocations instead
// of churning per frame. The pool exclusively owns allocation; the executor
// borrows a texture for one node's production-and-consumption window and
// releases it back.
//
// Usage:
//
//	pool := fxgraph.NewPool()
//	tex, err := pool.Acquire(desc)
//	defer pool.Release(tex)
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[Descriptor][]*Texture
	live    int
	idle    int

	maxPerBucket int
	maxLive      int

	stats PoolStats
}

// PoolStats contains pool usage counters.
type PoolStats struct {
	// Hits counts acquires satisfied from a bucket.
	Hits uint64

	// Misses counts acquires that allocated a new texture.
	Misses uint64

	// Discards counts releases dropped because a bucket was full.
	Discards uint64

	// Live is the number of textures currently acquired.
	Live int

	// Idle is the number of textures currently parked in buckets.
	Idle int
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMaxPerBucket limits how many free textures of one descriptor are
// retained. Zero means unlimited. Default is 8.
func WithMaxPerBucket(n int) PoolOption {
	return func(p *Pool) {
		p.maxPerBucket = n
	}
}

// WithMaxLive bounds the number of simultaneously acquired textures.
// Acquire returns ErrPoolExhausted beyond the bound. Zero (the default)
// means unbounded.
func WithMaxLive(n int) PoolOption {
	return func(p *Pool) {
		p.maxLive = n
	}
}

// NewPool creates a new texture pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		buckets:      make(map[Descriptor][]*Texture),
		maxPerBucket: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns a texture matching the descriptor, reusing a parked one
// when available. Reused textures are cleared to transparent black.
func (p *Pool) Acquire(desc Descriptor) (*Texture, error) {
	p.mu.Lock()

	if p.maxLive > 0 && p.live >= p.maxLive {
		p.mu.Unlock()
		return nil, ErrPoolExhausted
	}

	bucket := p.buckets[desc]
	if n := len(bucket); n > 0 {
		tex := bucket[n-1]
		p.buckets[desc] = bucket[:n-1]
		p.live++
		p.idle--
		p.stats.Hits++
		p.mu.Unlock()

		clear(tex.img.Pix)
		return tex, nil
	}

	p.live++
	p.stats.Misses++
	p.mu.Unlock()

	return NewTexture(desc), nil
}

// Release returns a texture to the pool for reuse within the same frame or
// a later one. Releasing nil is a no-op. If the texture's bucket is at
// capacity the texture is destroyed instead.
func (p *Pool) Release(tex *Texture) {
	if tex == nil {
		return
	}

	desc := tex.Descriptor()

	p.mu.Lock()
	p.live--

	bucket := p.buckets[desc]
	if p.maxPerBucket > 0 && len(bucket) >= p.maxPerBucket {
		p.stats.Discards++
		p.mu.Unlock()

		Logger().Debug("pool: bucket full, discarding texture",
			"width", desc.Width, "height", desc.Height)
		tex.Destroy()
		return
	}

	p.buckets[desc] = append(bucket, tex)
	p.idle++
	p.mu.Unlock()
}

// Warmup pre-allocates count textures of the given descriptor so that the
// first frames render allocation-free.
func (p *Pool) Warmup(desc Descriptor, count int) {
	texs := make([]*Texture, 0, count)
	for i := 0; i < count; i++ {
		tex, err := p.Acquire(desc)
		if err != nil {
			break
		}
		texs = append(texs, tex)
	}
	for _, tex := range texs {
		p.Release(tex)
	}
}

// Trim destroys all parked textures, keeping live borrows untouched.
// Call on memory pressure or after a large resolution change.
func (p *Pool) Trim() {
	p.mu.Lock()
	buckets := p.buckets
	p.buckets = make(map[Descriptor][]*Texture)
	p.idle = 0
	p.mu.Unlock()

	for _, bucket := range buckets {
		for _, tex := range bucket {
			tex.Destroy()
		}
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Live = p.live
	s.Idle = p.idle
	return s
}
