// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher names accepted by NewHasher.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// DefaultBcryptCost is the bcrypt work factor used when none is configured.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest password bcrypt will accept.
const MaxPasswordBytes = 72

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

const argon2Prefix = "$argon2id$"

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = oops.Code("AUTH_PASSWORD_TOO_LONG").
				With("max_bytes", MaxPasswordBytes).
				Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted adaptive hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash should be recomputed with the current settings.
	NeedsUpgrade(hash string) bool
}

// NewHasher builds the hasher selected by name. The returned hasher verifies
// digests of both supported algorithms so switching algorithms does not lock
// out existing accounts.
func NewHasher(name string, bcryptCost int) (*DelegatingHasher, error) {
	bc, err := NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err
	}
	a2 := NewArgon2idHasher()

	switch strings.ToLower(name) {
	case "", HasherBcrypt:
		return &DelegatingHasher{primary: bc, bcrypt: bc, argon2: a2}, nil
	case HasherArgon2id:
		return &DelegatingHasher{primary: a2, bcrypt: bc, argon2: a2}, nil
	default:
		return nil, configError("unknown password hasher %q", name)
	}
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given cost.
// A zero cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code(CodeConfigInvalid).
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
}

// NeedsUpgrade returns true if the hash is not bcrypt or uses a lower cost.
func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	if !isBcryptHash(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	return hashArgon2(password, defaultArgon2Params)
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, expectedHash, err := parseArgon2(encodedHash)
	if err != nil {
		return false, err
	}
	computedHash := argon2.IDKey([]byte(password), salt, params.iterations, params.memory, params.threads, params.keyLen)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

type argon2Params struct {
	memory     uint32
	iterations uint32
	threads    uint8
	keyLen     uint32
}

var defaultArgon2Params = argon2Params{
	memory:     argon2Memory,
	iterations: argon2Time,
	threads:    argon2Threads,
	keyLen:     argon2KeyLen,
}

func hashArgon2(password string, p argon2Params) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.threads, p.keyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.iterations,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func parseArgon2(encodedHash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &threads); err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	p.threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<30 {
		return p, nil, nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}

// NeedsUpgrade returns true if the hash is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	return !strings.HasPrefix(hash, argon2Prefix)
}

// DelegatingHasher hashes with its primary algorithm and verifies digests of
// any supported algorithm by inspecting the digest prefix.
type DelegatingHasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

// Hash produces a digest with the primary algorithm.
func (h *DelegatingHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

// Verify dispatches on the digest prefix.
func (h *DelegatingHasher) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, argon2Prefix) {
		return h.argon2.Verify(password, hash)
	}
	return h.bcrypt.Verify(password, hash)
}

// NeedsUpgrade reports whether hash was produced by anything other than the
// primary algorithm at its current settings.
func (h *DelegatingHasher) NeedsUpgrade(hash string) bool {
	return h.primary.NeedsUpgrade(hash)
}

// Algorithm returns the name of the primary algorithm.
func (h *DelegatingHasher) Algorithm() string {
	if _, ok := h.primary.(*Argon2idHasher); ok {
		return HasherArgon2id
	}
	return HasherBcrypt
}

// HashLike hashes password with the algorithm and work parameters of
// reference, so that verifying either digest costs the same.
func (h *DelegatingHasher) HashLike(password, reference string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if strings.HasPrefix(reference, argon2Prefix) {
		params, _, _, err := parseArgon2(reference)
		if err != nil {
			return "", err
		}
		return hashArgon2(password, params)
	}

	cost, err := bcrypt.Cost([]byte(reference))
	if err != nil {
		return "", oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	bc, err := NewBcryptHasher(cost)
	if err != nil {
		return "", err
	}
	return bc.Hash(password)
}

// DigestProfile names the algorithm and work parameters of a digest. Digests
// with the same profile cost the same to verify. The second result is false
// for digests neither algorithm recognizes.
func DigestProfile(hash string) (string, bool) {
	if strings.HasPrefix(hash, argon2Prefix) {
		p, _, _, err := parseArgon2(hash)
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("argon2id/m=%d,t=%d,p=%d,k=%d", p.memory, p.iterations, p.threads, p.keyLen), true
	}
	if !isBcryptHash(hash) {
		return "", false
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("bcrypt/%d", cost), true
}
