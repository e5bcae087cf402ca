package keys

import (
	"testing"

	"github.com/shieldedpay/transferzk/internal/curve"
)

func seed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

func TestDerivationChainIsDeterministic(t *testing.T) {
	sk := DeriveSpendingKey(seed(0x42))
	pgk1 := DeriveProofGenerationKey(sk)
	pgk2 := DeriveProofGenerationKey(sk)
	if !pgk1.Point.Equal(pgk2.Point) {
		t.Fatalf("DeriveProofGenerationKey is not deterministic")
	}

	dk1, err := DeriveDecryptionKey(pgk1)
	if err != nil {
		t.Fatalf("DeriveDecryptionKey: %v", err)
	}
	dk2, err := DeriveDecryptionKey(pgk1)
	if err != nil {
		t.Fatalf("DeriveDecryptionKey: %v", err)
	}
	if dk1.Scalar.Cmp(dk2.Scalar) != 0 {
		t.Fatalf("DeriveDecryptionKey is not deterministic")
	}
}

func TestDistinctSeedsYieldDistinctKeys(t *testing.T) {
	a := DeriveProofGenerationKey(DeriveSpendingKey(seed(0x01)))
	b := DeriveProofGenerationKey(DeriveSpendingKey(seed(0x02)))
	if a.Point.Equal(b.Point) {
		t.Fatalf("distinct seeds must not collide")
	}
}

func TestEncryptionKeyMatchesDecryptionKeyTimesBase(t *testing.T) {
	sk := DeriveSpendingKey(seed(0x77))
	pgk := DeriveProofGenerationKey(sk)
	dk, err := DeriveDecryptionKey(pgk)
	if err != nil {
		t.Fatalf("DeriveDecryptionKey: %v", err)
	}
	ek := EncryptionKeyOf(dk)
	if !ek.Point.Equal(curve.Base().ScalarMul(dk.Scalar)) {
		t.Fatalf("encryption key must equal dk*G_ncr")
	}
	if ek.Point.Equal(curve.Identity()) {
		t.Fatalf("encryption key must not be the identity")
	}
}
