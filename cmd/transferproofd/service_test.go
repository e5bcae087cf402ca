package main

import (
	"errors"
	"testing"

	"github.com/shieldedpay/transferzk/internal/transfer"
)

func TestDecodeSeedRejectsWrongLength(t *testing.T) {
	if _, err := decodeSeed("aabb"); err == nil {
		t.Fatal("expected error decoding a too-short hex seed")
	}
}

func TestDecodeSeedRoundTrips(t *testing.T) {
	hex64 := "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	seed, err := decodeSeed(hex64)
	if err != nil {
		t.Fatalf("decodeSeed: %v", err)
	}
	if seed[0] != 0x01 || seed[31] != 0x20 {
		t.Fatalf("unexpected decoded seed: %x", seed)
	}
}

func TestErrKindMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{wrap(transfer.ErrSynthesisFailed), "synthesis_failed"},
		{wrap(transfer.ErrMalformedVerifyingKey), "malformed_verifying_key"},
		{wrap(transfer.ErrInvalidSeed), "invalid_seed"},
		{wrap(transfer.ErrIO), "io"},
		{errors.New("something else"), "unknown"},
	}
	for _, c := range cases {
		if got := errKind(c.err); got != c.want {
			t.Errorf("errKind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func wrap(sentinel error) error {
	return errors.Join(sentinel, errors.New("wrapped detail"))
}
