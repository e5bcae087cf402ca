package curve

import (
	"math/big"

	gcedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	tedwards "github.com/consensys/gnark/std/algebra/native/twistededwards"
)

// Var is a Jubjub point witnessed inside the circuit, as a pair of
// frontend.Variable affine coordinates.
type Var struct {
	X, Y frontend.Variable
}

// NewCurve instantiates the in-circuit Jubjub gadget. Circuit.Define makes
// one of these and threads it through its steps, and EpochCircuit.Define
// makes a second for its extra constraints; the curve parameters are
// process-wide immutable, so there is nothing to synchronize across calls.
func NewCurve(api frontend.API) (tedwards.Curve, error) {
	return tedwards.NewEdCurve(api, gcedwards.BLS12_381)
}

// BaseVar returns G_ncr as a circuit constant point.
func BaseVar(curve tedwards.Curve) Var {
	p := curve.Params()
	return Var{X: p.Base[0], Y: p.Base[1]}
}

// FixedBaseMul computes scalar*G_ncr inside the circuit. scalar is given as
// a frontend.Variable representing an element of Fs; the gadget performs
// the bit decomposition and double-and-add internally.
func FixedBaseMul(curve tedwards.Curve, scalar frontend.Variable) Var {
	base := BaseVar(curve)
	out := curve.ScalarMul(tedwards.Point{X: base.X, Y: base.Y}, scalar)
	return Var{X: out.X, Y: out.Y}
}

// Mul computes scalar*p for an arbitrary witnessed point p (variable-base
// multiplication), used for the ElGamal shared-secret terms
// randomness*ek_sender, randomness*ek_recipient and dk*c_right.
func Mul(curve tedwards.Curve, p Var, scalar frontend.Variable) Var {
	out := curve.ScalarMul(tedwards.Point{X: p.X, Y: p.Y}, scalar)
	return Var{X: out.X, Y: out.Y}
}

// Add returns p + q inside the circuit.
func Add(curve tedwards.Curve, p, q Var) Var {
	out := curve.Add(tedwards.Point{X: p.X, Y: p.Y}, tedwards.Point{X: q.X, Y: q.Y})
	return Var{X: out.X, Y: out.Y}
}

// Witness allocates a point as (x, y) witness variables and asserts it lies
// on the Jubjub curve. Use this for every point the prover supplies that
// is not itself computed from other in-circuit values (recipient key,
// balance ciphertext, proof generation key).
func Witness(curve tedwards.Curve, x, y frontend.Variable) Var {
	p := tedwards.Point{X: x, Y: y}
	curve.AssertIsOnCurve(p)
	return Var{X: p.X, Y: p.Y}
}

// AssertNotSmallOrder enforces that p does not have order dividing the
// curve's cofactor (8 for Jubjub). It multiplies p by the cofactor and
// asserts the result's x-coordinate is nonzero: the only points with x = 0
// are the identity and the unique order-2 point, both of which have order
// dividing 8.
func AssertNotSmallOrder(api frontend.API, curve tedwards.Curve, p Var) {
	cleared := curve.Double(tedwards.Point{X: p.X, Y: p.Y})
	cleared = curve.Double(cleared)
	cleared = curve.Double(cleared)
	api.AssertIsDifferent(cleared.X, 0)
}

// PointToNative converts a native curve.Point into the (x, y) big.Int pair
// gnark witness assignment expects.
func PointToNative(p Point) (x, y *big.Int) {
	return p.X.BigInt(new(big.Int)), p.Y.BigInt(new(big.Int))
}
