// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/chacha20"
)

// EntropySource is a deterministic byte stream keyed by a 32-byte seed via
// ChaCha20 (zero nonce). It is the ceremony's only source of "random"
// bytes for Fr and G1 sampling during a contribution; math/rand is never
// used for anything that ends up in a transform.
type EntropySource struct {
	cipher *chacha20.Cipher
}

// NewEntropySource keys a ChaCha20 stream with seed and returns the
// resulting deterministic byte source.
func NewEntropySource(seed [32]byte) (*EntropySource, error) {
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("tau: chacha20 init: %w", err)
	}
	return &EntropySource{cipher: c}, nil
}

// Read fills p with keystream bytes and never fails.
func (e *EntropySource) Read(p []byte) (int, error) {
	zero := make([]byte, len(p))
	e.cipher.XORKeyStream(p, zero)
	return len(p), nil
}

// Fr draws a scalar uniformly from the entropy source.
func (e *EntropySource) Fr() (fr.Element, error) {
	var buf [32]byte
	if _, err := io.ReadFull(e, buf[:]); err != nil {
		return fr.Element{}, err
	}
	var x fr.Element
	x.SetBytes(buf[:])
	return x, nil
}

// G1 draws a point uniformly from G1 by scalar-multiplying the generator
// by a uniform scalar. Valid because G1 is a prime-order cyclic group: a
// uniform scalar times the generator is a uniform group element.
func (e *EntropySource) G1() (bn254.G1Affine, error) {
	scalar, err := e.Fr()
	if err != nil {
		return bn254.G1Affine{}, err
	}
	var p bn254.G1Affine
	p.ScalarMultiplicationBase(scalar.BigInt(new(big.Int)))
	return p, nil
}

// SeedFromRitual performs the participant entropy-seeding ritual: 1024
// single bytes drawn from the OS CSPRNG, followed by one line of
// user-typed text, folded together with BLAKE2b-512; the digest's first
// 32 bytes become the ChaCha20 seed. This mixing is part of the
// contribution protocol and is preserved exactly, not simplified.
func SeedFromRitual(userText io.Reader) ([32]byte, error) {
	h := newHasher()
	var b [1]byte
	for i := 0; i < 1024; i++ {
		if _, err := rand.Read(b[:]); err != nil {
			return [32]byte{}, fmt.Errorf("tau: reading OS entropy: %w", err)
		}
		h.Write(b[:])
	}
	line, err := readOneLine(userText)
	if err != nil {
		return [32]byte{}, fmt.Errorf("tau: reading entropy text: %w", err)
	}
	h.Write(line)
	digest := h.Sum(nil)
	var seed [32]byte
	copy(seed[:], digest[:32])
	return seed, nil
}

func readOneLine(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return line, nil
}
