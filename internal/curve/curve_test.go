package curve

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func TestBaseAndSpendBaseAreDistinctGenerators(t *testing.T) {
	if Base().Equal(SpendBase()) {
		t.Fatalf("G_ncr and G_skg must not coincide")
	}
	if !Base().IsOnCurve() || !SpendBase().IsOnCurve() {
		t.Fatalf("both generators must lie on the curve")
	}
}

func TestIdentityIsSmallOrder(t *testing.T) {
	if !Identity().IsSmallOrder() {
		t.Errorf("identity must be flagged small-order")
	}
}

func TestBaseIsNotSmallOrder(t *testing.T) {
	if Base().IsSmallOrder() {
		t.Errorf("G_ncr is a large-order point and must not be flagged small-order")
	}
}

func TestScalarMulDistributesOverAddition(t *testing.T) {
	a := big.NewInt(7)
	b := big.NewInt(11)
	sum := new(big.Int).Add(a, b)

	lhs := Base().ScalarMul(sum)
	rhs := Base().ScalarMul(a).Add(Base().ScalarMul(b))
	if !lhs.Equal(rhs) {
		t.Errorf("(a+b)*G must equal a*G + b*G")
	}
}

func TestRandomScalarStaysBelowOrder(t *testing.T) {
	for i := 0; i < 16; i++ {
		s, err := RandomScalar(rand.Read)
		if err != nil {
			t.Fatalf("RandomScalar: %v", err)
		}
		if s.Cmp(Order()) >= 0 {
			t.Errorf("drawn scalar %s exceeds subgroup order", s)
		}
	}
}

func TestMarshalUnmarshalRoundTrips(t *testing.T) {
	p := Base().ScalarMul(big.NewInt(12345))
	enc := p.Marshal()
	got, err := Unmarshal(enc)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(p) {
		t.Errorf("round trip changed the point")
	}
}
