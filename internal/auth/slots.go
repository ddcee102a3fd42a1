// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// HashSlots bounds the number of password hash computations in flight.
// Every component that hashes or verifies passwords should share one
// instance. A nil *HashSlots imposes no bound.
type HashSlots struct {
	sem *semaphore.Weighted
}

// NewHashSlots allows n concurrent hash computations.
func NewHashSlots(n int) (*HashSlots, error) {
	if n <= 0 {
		return nil, configError("max concurrent hashes must be positive, got %d", n)
	}
	return &HashSlots{sem: semaphore.NewWeighted(int64(n))}, nil
}

// Run calls fn once a slot is free. It returns ctx's error without calling fn
// if ctx ends first.
func (s *HashSlots) Run(ctx context.Context, fn func()) error {
	if s == nil {
		fn()
		return nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	fn()
	return nil
}
