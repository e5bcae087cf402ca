package elgamal

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/shieldedpay/transferzk/internal/curve"
)

func decrypt(ct Ciphertext, dk *big.Int) curve.Point {
	shared := ct.R.ScalarMul(dk)
	return ct.L.Add(shared.Neg())
}

func TestEncryptDecryptRecoversPlaintextPoint(t *testing.T) {
	dk, err := curve.RandomScalar(rand.Read)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	ek := curve.Base().ScalarMul(dk)

	r, err := curve.RandomScalar(rand.Read)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	ct := Encrypt(42, r, ek)

	got := decrypt(ct, dk)
	want := curve.Base().ScalarMul(big.NewInt(42))
	if !got.Equal(want) {
		t.Errorf("decrypted point does not match 42*G")
	}
}

func TestAddIsHomomorphicUnderSharedRandomness(t *testing.T) {
	dk, _ := curve.RandomScalar(rand.Read)
	ek := curve.Base().ScalarMul(dk)
	r, _ := curve.RandomScalar(rand.Read)

	a := Encrypt(10, r, ek)
	b := Encrypt(5, r, ek)
	sum := Add(a, b)

	got := decrypt(sum, dk)
	want := curve.Base().ScalarMul(big.NewInt(15))
	if !got.Equal(want) {
		t.Errorf("sum ciphertext does not decrypt to 15*G")
	}
}

func TestSubUndoesAdd(t *testing.T) {
	dk, _ := curve.RandomScalar(rand.Read)
	ek := curve.Base().ScalarMul(dk)
	r, _ := curve.RandomScalar(rand.Read)

	a := Encrypt(30, r, ek)
	b := Encrypt(12, r, ek)
	diff := Sub(Add(a, b), b)

	got := decrypt(diff, dk)
	want := curve.Base().ScalarMul(big.NewInt(30))
	if !got.Equal(want) {
		t.Errorf("(a+b)-b must decrypt back to a's plaintext")
	}
}
