// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

func smallConfig(t *testing.T) Configuration {
	t.Helper()
	config, err := NewConfiguration(4)
	if err != nil {
		t.Fatalf("NewConfiguration: %v", err)
	}
	return config
}

func TestNewAccumulatorIsIdentity(t *testing.T) {
	config := smallConfig(t)
	a := NewAccumulator(config)
	_, _, g1Gen, g2Gen := bn254.Generators()

	for i, p := range a.TauG1 {
		if !p.Equal(&g1Gen) {
			t.Errorf("TauG1[%d] != generator", i)
		}
	}
	for i, p := range a.TauG2 {
		if !p.Equal(&g2Gen) {
			t.Errorf("TauG2[%d] != generator", i)
		}
	}
	for i, p := range a.AlphaG1 {
		if !p.Equal(&g1Gen) {
			t.Errorf("AlphaG1[%d] != generator", i)
		}
	}
	for i, p := range a.BetaG1 {
		if !p.Equal(&g1Gen) {
			t.Errorf("BetaG1[%d] != generator", i)
		}
	}
	if !a.BetaG2.Equal(&g2Gen) {
		t.Errorf("BetaG2 != generator")
	}
}

func TestAccumulatorSerializationRoundTrip(t *testing.T) {
	config := smallConfig(t)

	for _, c := range []Compression{Compressed, Uncompressed} {
		a := NewAccumulator(config)
		rng, err := NewEntropySource(testSeed(1))
		if err != nil {
			t.Fatalf("NewEntropySource: %v", err)
		}
		var digest [64]byte
		_, sk, err := Keypair(rng, digest)
		if err != nil {
			t.Fatalf("Keypair: %v", err)
		}
		a.Transform(sk)

		var buf bytes.Buffer
		if err := a.Serialize(&buf, c); err != nil {
			t.Fatalf("Serialize(%v): %v", c, err)
		}

		expectedSize := config.AccumulatorSize - 64 // no hash-chain prefix at this layer
		if c == Compressed {
			expectedSize = config.ContributionSize - 64 - PublicKeySize
		}
		if buf.Len() != expectedSize {
			t.Errorf("Serialize(%v) produced %d bytes, want %d", c, buf.Len(), expectedSize)
		}

		got, err := DeserializeAccumulator(config, &buf, c, CheckForCorrectness)
		if err != nil {
			t.Fatalf("DeserializeAccumulator(%v): %v", c, err)
		}

		if len(got.TauG1) != len(a.TauG1) || len(got.TauG2) != len(a.TauG2) {
			t.Fatalf("deserialized accumulator has wrong shape")
		}
		for i := range a.TauG1 {
			if !got.TauG1[i].Equal(&a.TauG1[i]) {
				t.Errorf("TauG1[%d] round-trip mismatch", i)
			}
		}
		for i := range a.TauG2 {
			if !got.TauG2[i].Equal(&a.TauG2[i]) {
				t.Errorf("TauG2[%d] round-trip mismatch", i)
			}
		}
		for i := range a.AlphaG1 {
			if !got.AlphaG1[i].Equal(&a.AlphaG1[i]) {
				t.Errorf("AlphaG1[%d] round-trip mismatch", i)
			}
		}
		for i := range a.BetaG1 {
			if !got.BetaG1[i].Equal(&a.BetaG1[i]) {
				t.Errorf("BetaG1[%d] round-trip mismatch", i)
			}
		}
		if !got.BetaG2.Equal(&a.BetaG2) {
			t.Errorf("BetaG2 round-trip mismatch")
		}
	}
}

func TestAccumulatorDeserializeTruncated(t *testing.T) {
	config := smallConfig(t)
	a := NewAccumulator(config)

	var buf bytes.Buffer
	if err := a.Serialize(&buf, Uncompressed); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-1])
	if _, err := DeserializeAccumulator(config, truncated, Uncompressed, CheckForCorrectness); err == nil {
		t.Errorf("expected an error deserializing a truncated accumulator")
	}
}

// testSeed returns a fixed ChaCha20 seed for deterministic test fixtures;
// it has no relationship to the production entropy ritual in rng.go.
func testSeed(b byte) [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = b
	}
	return seed
}
