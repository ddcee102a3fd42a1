// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/lahmamsi/librarymanagement/pkg/errutil"
)

const tracerName = "github.com/lahmamsi/librarymanagement/internal/auth"

// AttemptResult classifies the outcome of an authentication attempt.
type AttemptResult string

// Attempt outcomes.
const (
	ResultSuccess  AttemptResult = "success"
	ResultRejected AttemptResult = "rejected"
	ResultLocked   AttemptResult = "locked"
	ResultError    AttemptResult = "error"
)

// AttemptRecorder observes authentication attempts.
type AttemptRecorder interface {
	RecordAttempt(result AttemptResult, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordAttempt(AttemptResult, time.Duration) {}

// Service authenticates principals by identifier and password.
// It is safe for concurrent use.
type Service struct {
	lookup    PrincipalLookup
	hasher    PasswordHasher
	tokens    *TokenManager
	throttle  *Throttle
	upgrader  PasswordUpgrader
	recorder  AttemptRecorder
	hashSlots *HashSlots
	dummyHash string
	dummies   *dummyDigests
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets the logger used for audit records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			return configError("logger is required")
		}
		s.logger = logger
		return nil
	}
}

// WithTokenManager attaches the token manager exposed through Manager.
func WithTokenManager(tm *TokenManager) Option {
	return func(s *Service) error {
		s.tokens = tm
		return nil
	}
}

// WithThrottle enables per-identifier lockout.
func WithThrottle(t *Throttle) Option {
	return func(s *Service) error {
		s.throttle = t
		return nil
	}
}

// WithPasswordUpgrader persists rehashed passwords after successful logins.
func WithPasswordUpgrader(u PasswordUpgrader) Option {
	return func(s *Service) error {
		s.upgrader = u
		return nil
	}
}

// WithAttemptRecorder sets the metrics sink for attempts.
func WithAttemptRecorder(r AttemptRecorder) Option {
	return func(s *Service) error {
		if r != nil {
			s.recorder = r
		}
		return nil
	}
}

// WithMaxConcurrentHashes bounds the number of password verifications in flight.
func WithMaxConcurrentHashes(n int) Option {
	return func(s *Service) error {
		slots, err := NewHashSlots(n)
		if err != nil {
			return err
		}
		s.hashSlots = slots
		return nil
	}
}

// WithHashSlots shares a hash bound with other password-handling components.
func WithHashSlots(slots *HashSlots) Option {
	return func(s *Service) error {
		if slots == nil {
			return configError("hash slots are required")
		}
		s.hashSlots = slots
		return nil
	}
}

// WithDummyHash sets the initial digest verified when the identifier is
// unknown. It must come from the same hasher and settings as real digests.
func WithDummyHash(hash string) Option {
	return func(s *Service) error {
		if hash == "" {
			return configError("dummy hash cannot be empty")
		}
		s.dummyHash = hash
		return nil
	}
}

// NewService assembles the authentication service.
// A nil lookup or hasher is a configuration error.
func NewService(lookup PrincipalLookup, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if lookup == nil {
		return nil, configError("principal lookup is required")
	}
	if hasher == nil {
		return nil, configError("password hasher is required")
	}

	s := &Service{
		lookup:   lookup,
		hasher:   hasher,
		recorder: noopRecorder{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.hashSlots == nil {
		s.hashSlots = &HashSlots{sem: semaphore.NewWeighted(int64(runtime.NumCPU()))}
	}

	if s.dummyHash == "" {
		dummy, err := newDummyHash(hasher)
		if err != nil {
			return nil, oops.Code(CodeConfigInvalid).
				With("operation", "generate dummy hash").
				Wrap(err)
		}
		s.dummyHash = dummy
	}

	var replicate func(context.Context, string) (string, error)
	if r, ok := hasher.(DigestReplicator); ok {
		replicate = func(ctx context.Context, reference string) (string, error) {
			secret, err := randomSecret()
			if err != nil {
				return "", err
			}
			var dummy string
			var hashErr error
			if err := s.hashSlots.Run(ctx, func() { dummy, hashErr = r.HashLike(secret, reference) }); err != nil {
				return "", err
			}
			return dummy, hashErr
		}
	}
	s.dummies = newDummyDigests(s.dummyHash, replicate)

	return s, nil
}

// newDummyHash hashes a random throwaway secret so that verifying against it
// costs the same as verifying a real digest.
func newDummyHash(hasher PasswordHasher) (string, error) {
	secret, err := randomSecret()
	if err != nil {
		return "", err
	}
	return hasher.Hash(secret)
}

// Manager returns the authentication manager backed by this service.
func (s *Service) Manager() AuthenticationManager {
	return &manager{service: s, tokens: s.tokens}
}

// Authenticate checks plaintext against the digest stored for identifier.
// Every rejection, whether the identifier is unknown or the password is
// wrong, returns the same InvalidCredentials error.
func (s *Service) Authenticate(ctx context.Context, identifier, plaintext string) (*Principal, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate")
	defer span.End()

	start := time.Now()
	principal, result, err := s.authenticate(ctx, identifier, plaintext)
	elapsed := time.Since(start)

	s.recorder.RecordAttempt(result, elapsed)
	span.SetAttributes(attribute.String("auth.result", string(result)))

	switch result {
	case ResultSuccess:
		s.logger.InfoContext(ctx, "authentication succeeded",
			"principal", principal,
			"duration", elapsed)
	case ResultRejected, ResultLocked:
		s.logger.WarnContext(ctx, "authentication rejected",
			"email", NormalizeIdentifier(identifier),
			"result", string(result),
			"duration", elapsed)
	case ResultError:
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		errutil.LogError(s.logger, "authentication error", err)
	}

	return principal, err
}

func (s *Service) authenticate(ctx context.Context, identifier, plaintext string) (*Principal, AttemptResult, error) {
	principal, lookupErr := s.lookup.Lookup(ctx, identifier)

	targetHash := s.dummies.pick()
	found := false
	switch {
	case lookupErr == nil && principal != nil:
		targetHash = principal.PasswordHash
		found = true
	case lookupErr == nil, errors.Is(lookupErr, ErrPrincipalNotFound):
		// Unknown identifier: verify against the dummy digest anyway.
	default:
		return nil, ResultError, oops.Code(CodeLoginFailed).
			With("operation", "lookup principal").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.verify(ctx, plaintext, targetHash)
	if verifyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ResultError, oops.Code(CodeLoginFailed).
				With("operation", "acquire hash slot").
				Wrap(ctxErr)
		}
		if !found {
			return nil, ResultRejected, invalidCredentials()
		}
		return nil, ResultError, oops.Code(CodeLoginFailed).
			With("operation", "verify password").
			With("principal_id", principal.ID).
			Wrap(verifyErr)
	}

	if found {
		s.dummies.observe(ctx, principal.PasswordHash)
	}

	if !found || !valid {
		if s.throttle != nil {
			s.throttle.RecordFailure(identifier)
		}
		return nil, ResultRejected, invalidCredentials()
	}

	// Lockout is checked after verification so both branches cost the same.
	if s.throttle != nil && s.throttle.IsLocked(identifier) {
		return nil, ResultLocked, invalidCredentials()
	}
	if s.throttle != nil {
		s.throttle.RecordSuccess(identifier)
	}

	s.upgradeHash(ctx, principal, plaintext)

	return principal, ResultSuccess, nil
}

func (s *Service) verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var valid bool
	var verifyErr error
	if err := s.hashSlots.Run(ctx, func() { valid, verifyErr = s.hasher.Verify(plaintext, hash) }); err != nil {
		return false, err
	}
	return valid, verifyErr
}

func (s *Service) upgradeHash(ctx context.Context, principal *Principal, plaintext string) {
	if s.upgrader == nil || !s.hasher.NeedsUpgrade(principal.PasswordHash) {
		return
	}

	var newHash string
	var err error
	if slotErr := s.hashSlots.Run(ctx, func() { newHash, err = s.hasher.Hash(plaintext) }); slotErr != nil {
		err = slotErr
	}
	if err != nil {
		errutil.LogError(s.logger, "password rehash failed", err)
		return
	}
	if err := s.upgrader.UpgradePassword(ctx, principal.ID, newHash); err != nil {
		errutil.LogError(s.logger, "password upgrade failed", err)
		return
	}
	principal.PasswordHash = newHash
	s.logger.InfoContext(ctx, "password hash upgraded", "principal_id", principal.ID)
}
