// Package curve wraps the Jubjub twisted-Edwards curve embedded in the
// BLS12-381 scalar field: the pairing curve used by the transfer circuit's
// Groth16 backend is BLS12-381, and Jubjub is the twisted-Edwards curve
// whose base field equals BLS12-381's scalar field Fr. This is the same
// curve pairing Zcash Sapling (and the zero-chain prototype this protocol
// is modeled on) uses.
//
// Every fixed-base scalar multiplication inside the transfer circuit uses
// exactly one generator, Base (labeled G_ncr in the spec: "note-commitment
// randomness"). A second, independent generator SpendBase (G_skg) exists
// only for use outside the circuit, by package keys. Mixing the two inside
// the circuit would silently break soundness, so the circuit package only
// ever imports Base.
package curve
