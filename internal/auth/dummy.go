// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// DigestReplicator is implemented by hashers that can mint a digest with the
// same algorithm and work parameters as an existing one.
type DigestReplicator interface {
	HashLike(password, reference string) (string, error)
}

// maxDummyProfiles bounds how many distinct digest profiles are tracked.
const maxDummyProfiles = 16

// dummyDigests keeps one throwaway digest per digest profile seen among
// stored passwords. Unknown identifiers are verified against the dummy for
// the most frequently seen profile, so a rejection for a missing account
// costs the same as one for an account whose digest predates a hasher change.
type dummyDigests struct {
	replicate func(ctx context.Context, reference string) (string, error)

	mu      sync.Mutex
	digests map[string]string
	counts  map[string]int
	current string
}

func newDummyDigests(initial string, replicate func(context.Context, string) (string, error)) *dummyDigests {
	profile, _ := DigestProfile(initial)
	return &dummyDigests{
		replicate: replicate,
		digests:   map[string]string{profile: initial},
		counts:    map[string]int{profile: 0},
		current:   profile,
	}
}

// pick returns the dummy digest for the dominant profile.
func (d *dummyDigests) pick() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.digests[d.current]
}

// observe counts the profile of a stored digest and switches the dominant
// dummy when that profile overtakes it.
func (d *dummyDigests) observe(ctx context.Context, stored string) {
	if d.replicate == nil {
		return
	}
	profile, ok := DigestProfile(stored)
	if !ok {
		return
	}

	d.mu.Lock()
	if _, tracked := d.counts[profile]; !tracked && len(d.counts) >= maxDummyProfiles {
		d.mu.Unlock()
		return
	}
	d.counts[profile]++
	if profile == d.current || d.counts[profile] <= d.counts[d.current] {
		d.mu.Unlock()
		return
	}
	dummy, have := d.digests[profile]
	d.mu.Unlock()

	if !have {
		var err error
		if dummy, err = d.replicate(ctx, stored); err != nil {
			return
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.digests[profile] = dummy
	if d.counts[profile] > d.counts[d.current] {
		d.current = profile
	}
}

// randomSecret returns a throwaway password nobody can know.
func randomSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
