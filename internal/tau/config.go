// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// Package tau implements the BN254 Powers of Tau accumulator: its data
// model, the parallel transform that advances it, keypair derivation,
// and pairing-based verification of each contribution.
package tau

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// Point encoding widths, fixed by gnark-crypto's bn254 implementation.
const (
	g1UncompressedSize = bn254.SizeOfG1AffineUncompressed
	g1CompressedSize   = bn254.SizeOfG1AffineCompressed
	g2UncompressedSize = bn254.SizeOfG2AffineUncompressed
	g2CompressedSize   = bn254.SizeOfG2AffineCompressed

	// PublicKeySize is the fixed length of an uncompressed PublicKey:
	// three G2 points and six G1 points, always uncompressed.
	PublicKeySize = 3*g2UncompressedSize + 6*g1UncompressedSize

	// digestSize is the width of a BLAKE2b-512 digest.
	digestSize = 64

	// DefaultNumPowers is the default ceremony size (N), chosen to match
	// the reference ceremony's target circuit depth.
	DefaultNumPowers = 1 << 21
)

// Configuration is an immutable record of the ceremony's size parameters.
// It is threaded explicitly through every operation that needs it rather
// than held as global state.
type Configuration struct {
	// N is num_powers: the length of TauG2, AlphaG1, BetaG1. Must
	// be a power of two.
	N int
	// M is num_powers_g1 = 2N-1: the length of TauG1.
	M int
	// AccumulatorSize is the byte length of an uncompressed accumulator
	// file, including its leading 64-byte hash-chain prefix.
	AccumulatorSize int
	// ContributionSize is the byte length of a response file: the
	// compressed accumulator plus the uncompressed public key, plus the
	// 64-byte hash-chain prefix.
	ContributionSize int
}

// NewConfiguration derives a Configuration from N, the number of powers of
// tau to track in G2 (and, implicitly, the 2N-1 powers tracked in G1). N
// must be a power of two.
func NewConfiguration(n int) (Configuration, error) {
	if n <= 0 || !isPowerOfTwo(n) {
		return Configuration{}, fmt.Errorf("tau: num_powers %d is not a positive power of two", n)
	}
	m := 2*n - 1

	accumulatorSize := m*g1UncompressedSize +
		n*(g2UncompressedSize+2*g1UncompressedSize) +
		g2UncompressedSize + digestSize

	contributionSize := m*g1CompressedSize +
		n*(g2CompressedSize+2*g1CompressedSize) +
		g2CompressedSize + digestSize + PublicKeySize

	return Configuration{
		N:                n,
		M:                m,
		AccumulatorSize:  accumulatorSize,
		ContributionSize: contributionSize,
	}, nil
}

func isPowerOfTwo(n int) bool {
	return bits.OnesCount(uint(n)) == 1
}
