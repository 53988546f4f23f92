// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

func TestKeypairDeterministic(t *testing.T) {
	rng1, err := NewEntropySource(testSeed(7))
	if err != nil {
		t.Fatalf("NewEntropySource: %v", err)
	}
	rng2, err := NewEntropySource(testSeed(7))
	if err != nil {
		t.Fatalf("NewEntropySource: %v", err)
	}

	digest := BlankHash()
	pk1, sk1, err := Keypair(rng1, digest)
	if err != nil {
		t.Fatalf("Keypair: %v", err)
	}
	pk2, sk2, err := Keypair(rng2, digest)
	if err != nil {
		t.Fatalf("Keypair: %v", err)
	}

	if sk1.Tau.BigInt(new(big.Int)).Cmp(sk2.Tau.BigInt(new(big.Int))) != 0 {
		t.Errorf("tau differs across identically-seeded runs")
	}
	if !pk1.TauG2.Equal(&pk2.TauG2) {
		t.Errorf("public key differs across identically-seeded runs")
	}
}

func TestPublicKeySerializationRoundTrip(t *testing.T) {
	rng, err := NewEntropySource(testSeed(3))
	if err != nil {
		t.Fatalf("NewEntropySource: %v", err)
	}
	pk, _, err := Keypair(rng, BlankHash())
	if err != nil {
		t.Fatalf("Keypair: %v", err)
	}

	var buf bytes.Buffer
	if err := pk.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != PublicKeySize {
		t.Errorf("serialized public key is %d bytes, want %d", buf.Len(), PublicKeySize)
	}

	got, err := DeserializePublicKey(&buf)
	if err != nil {
		t.Fatalf("DeserializePublicKey: %v", err)
	}

	if !got.TauG1[0].Equal(&pk.TauG1[0]) || !got.TauG1[1].Equal(&pk.TauG1[1]) {
		t.Errorf("TauG1 round-trip mismatch")
	}
	if !got.AlphaG1[0].Equal(&pk.AlphaG1[0]) || !got.AlphaG1[1].Equal(&pk.AlphaG1[1]) {
		t.Errorf("AlphaG1 round-trip mismatch")
	}
	if !got.BetaG1[0].Equal(&pk.BetaG1[0]) || !got.BetaG1[1].Equal(&pk.BetaG1[1]) {
		t.Errorf("BetaG1 round-trip mismatch")
	}
	if !got.TauG2.Equal(&pk.TauG2) {
		t.Errorf("TauG2 round-trip mismatch")
	}
	if !got.AlphaG2.Equal(&pk.AlphaG2) {
		t.Errorf("AlphaG2 round-trip mismatch")
	}
	if !got.BetaG2.Equal(&pk.BetaG2) {
		t.Errorf("BetaG2 round-trip mismatch")
	}
}

// TestDeserializePublicKeyRejectsInfinity covers scenario S4: a public key
// record whose first G1 limb is encoded as the point at infinity must be
// rejected rather than silently accepted.
func TestDeserializePublicKeyRejectsInfinity(t *testing.T) {
	rng, err := NewEntropySource(testSeed(9))
	if err != nil {
		t.Fatalf("NewEntropySource: %v", err)
	}
	pk, _, err := Keypair(rng, BlankHash())
	if err != nil {
		t.Fatalf("Keypair: %v", err)
	}

	var buf bytes.Buffer
	if err := pk.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	raw := buf.Bytes()

	var infinity bn254.G1Affine
	copy(raw[0:g1UncompressedSize], infinity.RawBytes()[:])

	_, err = DeserializePublicKey(bytes.NewReader(raw))
	if err == nil {
		t.Fatalf("expected an error deserializing a public key with an infinity limb")
	}
	var derr *DeserializationError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a *DeserializationError, got %T", err)
	}
	if derr.Kind != PointAtInfinityError {
		t.Errorf("error kind = %v, want PointAtInfinityError", derr.Kind)
	}
}
