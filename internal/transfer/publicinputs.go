package transfer

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/shieldedpay/transferzk/internal/curve"
)

// PublicInputs is the circuit's public witness, named field by named field
// in the exact order spec.md §6 fixes: enc_key_sender, enc_key_recipient,
// c_left_sender, c_left_recipient, c_right, f_left_sender, balance_left,
// balance_right, rvk, each contributing (x, y). gnark derives the public
// input vector from this struct's field order via reflection, so the
// circuit side has no hand-written index. The one place that maps numeric
// indices is PublicInputValues.ToCircuit, which reads Ordered's flat slice
// into named fields; a field named twice there is a compile error, so the
// class of bug spec.md §9 flags (public_input[12..14] written twice in one
// prover variant) cannot take the form of one field written twice.
type PublicInputs struct {
	EncKeySenderX, EncKeySenderY       frontend.Variable `gnark:",public"`
	EncKeyRecipientX, EncKeyRecipientY frontend.Variable `gnark:",public"`
	CLeftSenderX, CLeftSenderY         frontend.Variable `gnark:",public"`
	CLeftRecipientX, CLeftRecipientY   frontend.Variable `gnark:",public"`
	CRightX, CRightY                   frontend.Variable `gnark:",public"`
	FLeftSenderX, FLeftSenderY         frontend.Variable `gnark:",public"`
	BalanceLeftX, BalanceLeftY         frontend.Variable `gnark:",public"`
	BalanceRightX, BalanceRightY       frontend.Variable `gnark:",public"`
	RvkX, RvkY                         frontend.Variable `gnark:",public"`
}

// PublicInputValues is the native (out-of-circuit) mirror of PublicInputs,
// used by the builder to assign a witness and to reconstruct the vector for
// self-verification.
type PublicInputValues struct {
	EncKeySender, EncKeyRecipient curve.Point
	CLeftSender, CLeftRecipient   curve.Point
	CRight                        curve.Point
	FLeftSender                   curve.Point
	BalanceLeft, BalanceRight     curve.Point
	Rvk                           curve.Point
}

// Ordered returns the 18 field elements (9 points x,y) in the fixed order
// spec.md §6 names. The implicit leading ONE the backend contributes is not
// included here; it is never user-supplied.
func (p PublicInputValues) Ordered() []*big.Int {
	out := make([]*big.Int, 0, 18)
	for _, pt := range []curve.Point{
		p.EncKeySender, p.EncKeyRecipient,
		p.CLeftSender, p.CLeftRecipient,
		p.CRight, p.FLeftSender,
		p.BalanceLeft, p.BalanceRight,
		p.Rvk,
	} {
		x, y := curve.PointToNative(pt)
		out = append(out, x, y)
	}
	return out
}

// ToCircuit produces the gnark witness assignment for PublicInputs.
func (p PublicInputValues) ToCircuit() PublicInputs {
	v := p.Ordered()
	return PublicInputs{
		EncKeySenderX: v[0].String(), EncKeySenderY: v[1].String(),
		EncKeyRecipientX: v[2].String(), EncKeyRecipientY: v[3].String(),
		CLeftSenderX: v[4].String(), CLeftSenderY: v[5].String(),
		CLeftRecipientX: v[6].String(), CLeftRecipientY: v[7].String(),
		CRightX: v[8].String(), CRightY: v[9].String(),
		FLeftSenderX: v[10].String(), FLeftSenderY: v[11].String(),
		BalanceLeftX: v[12].String(), BalanceLeftY: v[13].String(),
		BalanceRightX: v[14].String(), BalanceRightY: v[15].String(),
		RvkX: v[16].String(), RvkY: v[17].String(),
	}
}
