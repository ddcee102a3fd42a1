// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lahmamsi/librarymanagement/internal/observability"
	"github.com/lahmamsi/librarymanagement/internal/store"
)

type fakeMigrator struct {
	mu       sync.Mutex
	calls    []string
	version  uint
	dirty    bool
	status   *store.MigrationStatus
	upErr    error
	forceErr error
	closed   bool
}

func (f *fakeMigrator) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeMigrator) Up() error {
	f.record("up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.record("down")
	return nil
}

func (f *fakeMigrator) Steps(n int) error {
	f.record("steps")
	f.version = uint(int(f.version) + n)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.record("version")
	return f.version, f.dirty, nil
}

func (f *fakeMigrator) Force(v int) error {
	f.record("force")
	return f.forceErr
}

func (f *fakeMigrator) Status() (*store.MigrationStatus, error) {
	f.record("status")
	return f.status, nil
}

func (f *fakeMigrator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func migratorDeps(m *fakeMigrator, gotURL *string) *Deps {
	return &Deps{
		MigratorFactory: func(databaseURL string, _ *slog.Logger) (Migrator, error) {
			if gotURL != nil {
				*gotURL = databaseURL
			}
			return m, nil
		},
	}
}

type fakeObservability struct {
	metrics  *observability.Metrics
	startErr error
	started  bool
	stopped  bool
}

func newFakeObservability() *fakeObservability {
	return &fakeObservability{metrics: observability.NewMetrics(prometheus.NewRegistry())}
}

func (f *fakeObservability) Start() (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = true
	ch := make(chan error)
	return ch, nil
}

func (f *fakeObservability) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeObservability) Addr() string { return "127.0.0.1:0" }

func (f *fakeObservability) Metrics() *observability.Metrics { return f.metrics }
