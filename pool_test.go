// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func testDesc(w, h int) Descriptor {
	return Descriptor{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  UsageIntermediate,
	}
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool()
	desc := testDesc(64, 64)

	first, err := pool.Acquire(desc)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	pool.Release(first)

	second, err := pool.Acquire(desc)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// With no other acquire of the same descriptor outstanding, the second
	// acquire must return the same underlying allocation.
	if first != second {
		t.Error("second Acquire() of same descriptor did not reuse the allocation")
	}

	stats := pool.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses, want 1, 1", stats.Hits, stats.Misses)
	}
}

func TestPoolReusedTextureIsCleared(t *testing.T) {
	pool := NewPool()
	desc := testDesc(4, 4)

	tex, err := pool.Acquire(desc)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	tex.Pixels()[0] = 0xFF
	pool.Release(tex)

	tex, err = pool.Acquire(desc)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if tex.Pixels()[0] != 0 {
		t.Error("reused texture was not cleared")
	}
}

func TestPoolDistinctDescriptors(t *testing.T) {
	pool := NewPool()

	a, _ := pool.Acquire(testDesc(32, 32))
	pool.Release(a)

	b, _ := pool.Acquire(testDesc(64, 64))
	if a == b {
		t.Error("Acquire() with different descriptor reused a mismatched texture")
	}
	if b.Width() != 64 || b.Height() != 64 {
		t.Errorf("texture size = %dx%d, want 64x64", b.Width(), b.Height())
	}
}

func TestPoolMaxLive(t *testing.T) {
	pool := NewPool(WithMaxLive(2))
	desc := testDesc(8, 8)

	a, _ := pool.Acquire(desc)
	b, _ := pool.Acquire(desc)

	if _, err := pool.Acquire(desc); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Acquire() beyond budget = %v, want ErrPoolExhausted", err)
	}

	pool.Release(a)
	if _, err := pool.Acquire(desc); err != nil {
		t.Errorf("Acquire() after release error: %v", err)
	}
	pool.Release(b)
}

func TestPoolMaxPerBucket(t *testing.T) {
	pool := NewPool(WithMaxPerBucket(1))
	desc := testDesc(8, 8)

	a, _ := pool.Acquire(desc)
	b, _ := pool.Acquire(desc)
	pool.Release(a)
	pool.Release(b) // bucket full, discarded

	stats := pool.Stats()
	if stats.Discards != 1 {
		t.Errorf("Discards = %d, want 1", stats.Discards)
	}
	if stats.Idle != 1 {
		t.Errorf("Idle = %d, want 1", stats.Idle)
	}
}

func TestPoolTrim(t *testing.T) {
	pool := NewPool()
	desc := testDesc(16, 16)

	tex, _ := pool.Acquire(desc)
	pool.Release(tex)
	pool.Trim()

	if stats := pool.Stats(); stats.Idle != 0 {
		t.Errorf("Idle after Trim() = %d, want 0", stats.Idle)
	}
}

func TestPoolWarmup(t *testing.T) {
	pool := NewPool()
	desc := testDesc(16, 16)
	pool.Warmup(desc, 4)

	if stats := pool.Stats(); stats.Idle != 4 {
		t.Errorf("Idle after Warmup(4) = %d, want 4", stats.Idle)
	}

	// Subsequent acquires are all hits.
	for i := 0; i < 4; i++ {
		if _, err := pool.Acquire(desc); err != nil {
			t.Fatalf("Acquire() error: %v", err)
		}
	}
	if stats := pool.Stats(); stats.Hits != 4 {
		t.Errorf("Hits = %d, want 4", stats.Hits)
	}
}

func BenchmarkPoolAcquireRelease(b *testing.B) {
	pool := NewPool()
	desc := testDesc(1920, 1080)
	pool.Warmup(desc, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tex, _ := pool.Acquire(desc)
		pool.Release(tex)
	}
}
