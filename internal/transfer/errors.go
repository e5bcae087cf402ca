package transfer

import (
	"errors"

	"github.com/shieldedpay/transferzk/internal/keyfile"
)

// Sentinel errors forming the boundary error taxonomy (spec.md §6/§7). Every
// failure path documented for the builder and key-context surfaces as one
// of these, wrapped with fmt.Errorf("...: %w", ...) where extra context
// helps, so callers can still errors.Is against the sentinel.
var (
	// ErrSynthesisFailed covers an unsatisfiable witness: amount, fee, or
	// remaining balance out of range, a malformed curve point, or a
	// balance-integrity mismatch. Not retried with the same inputs.
	ErrSynthesisFailed = errors.New("transfer: circuit synthesis failed")

	// ErrMalformedVerifyingKey is returned when a freshly generated proof
	// fails its own self-verification. Indicates a corrupted key file or a
	// circuit/key version mismatch; fatal.
	ErrMalformedVerifyingKey = errors.New("transfer: proof failed self-verification")

	// ErrIO wraps a transient key-file read/write failure.
	ErrIO = errors.New("transfer: key file i/o failure")

	// ErrInvalidSeed is returned when a supplied seed cannot derive valid
	// key material (currently: a zero decryption key).
	ErrInvalidSeed = errors.New("transfer: seed does not derive a valid key")

	// ErrInvalidPassword is returned by the keyfile package on MAC mismatch
	// during password-based decryption; re-exported here so callers can
	// handle the full boundary taxonomy from one package.
	ErrInvalidPassword = keyfile.ErrInvalidPassword
)
