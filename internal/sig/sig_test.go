package sig

import (
	"math/big"
	"testing"

	"github.com/shieldedpay/transferzk/internal/keys"
)

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

func TestRandomizedVerificationKeyMatchesItsOwnAlpha(t *testing.T) {
	sk := keys.DeriveSpendingKey(seed(0x9a))
	pgk := keys.DeriveProofGenerationKey(sk)
	alpha := big.NewInt(123456789)

	rvk := RandomizedVerificationKey(pgk, alpha)
	if !RandomizedVerificationKeyMatches(rvk, pgk, alpha) {
		t.Fatalf("rvk must match the alpha it was derived with")
	}
}

func TestDifferentAlphaYieldsDifferentRvk(t *testing.T) {
	sk := keys.DeriveSpendingKey(seed(0x9a))
	pgk := keys.DeriveProofGenerationKey(sk)

	rvk := RandomizedVerificationKey(pgk, big.NewInt(1))
	if RandomizedVerificationKeyMatches(rvk, pgk, big.NewInt(2)) {
		t.Fatalf("a different alpha must not match a stale rvk (spec.md §8 property 5)")
	}
}

func TestRandomizedSigningKeyTracksAlpha(t *testing.T) {
	sk := keys.DeriveSpendingKey(seed(0x9a))
	rsk1 := RandomizedSigningKey(sk, big.NewInt(5))
	rsk2 := RandomizedSigningKey(sk, big.NewInt(5))
	if rsk1.Cmp(rsk2) != 0 {
		t.Fatalf("RandomizedSigningKey must be deterministic given the same alpha")
	}
	rsk3 := RandomizedSigningKey(sk, big.NewInt(6))
	if rsk1.Cmp(rsk3) == 0 {
		t.Fatalf("different alpha must produce a different rsk")
	}
}
