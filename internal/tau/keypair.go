// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Personalization bytes distinguishing the three Fiat-Shamir derivations
// that make up a Keypair, per §4.3.
const (
	personalizationTau   byte = 0
	personalizationAlpha byte = 1
	personalizationBeta  byte = 2
)

// PrivateKey holds the three secret scalars a participant draws for one
// contribution. It is never serialized and its lifetime is exactly the
// call to Accumulator.Transform that consumes it; callers should let it
// go out of scope immediately afterward.
type PrivateKey struct {
	Tau   fr.Element
	Alpha fr.Element
	Beta  fr.Element
}

// PublicKey is a participant's zero-knowledge proof of knowledge of Tau,
// Alpha, and Beta: three pairs in G1 and three Fiat-Shamir-derived points
// in G2. No field may be the identity element.
type PublicKey struct {
	TauG1   [2]bn254.G1Affine // (s_τ, s_τ·τ)
	AlphaG1 [2]bn254.G1Affine // (s_α, s_α·α)
	BetaG1  [2]bn254.G1Affine // (s_β, s_β·β)
	TauG2   bn254.G2Affine    // s'_τ·τ
	AlphaG2 bn254.G2Affine    // s'_α·α
	BetaG2  bn254.G2Affine    // s'_β·β
}

// Keypair draws τ, α, β uniformly from rng and derives the accompanying
// proof of knowledge bound to digest (the 64-byte challenge digest).
func Keypair(rng *EntropySource, digest [digestSize]byte) (PublicKey, PrivateKey, error) {
	var sk PrivateKey
	var err error
	if sk.Tau, err = rng.Fr(); err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	if sk.Alpha, err = rng.Fr(); err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	if sk.Beta, err = rng.Fr(); err != nil {
		return PublicKey{}, PrivateKey{}, err
	}

	tauG1, tauG2, err := deriveComponent(rng, sk.Tau, personalizationTau, digest)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	alphaG1, alphaG2, err := deriveComponent(rng, sk.Alpha, personalizationAlpha, digest)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	betaG1, betaG2, err := deriveComponent(rng, sk.Beta, personalizationBeta, digest)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}

	return PublicKey{
		TauG1:   tauG1,
		AlphaG1: alphaG1,
		BetaG1:  betaG1,
		TauG2:   tauG2,
		AlphaG2: alphaG2,
		BetaG2:  betaG2,
	}, sk, nil
}

// deriveComponent draws s uniformly in G1, computes s·x, derives the
// Fiat-Shamir point s' = hash_to_g2(BLAKE2b(personalization‖digest‖
// encode(s)‖encode(s·x))), and returns ((s, s·x), s'·x).
func deriveComponent(rng *EntropySource, x fr.Element, personalization byte, digest [digestSize]byte) ([2]bn254.G1Affine, bn254.G2Affine, error) {
	s, err := rng.G1()
	if err != nil {
		return [2]bn254.G1Affine{}, bn254.G2Affine{}, err
	}

	var sx bn254.G1Affine
	sx.ScalarMultiplication(&s, x.BigInt(new(big.Int)))

	sPrime, err := fiatShamirG2(s, sx, personalization, digest)
	if err != nil {
		return [2]bn254.G1Affine{}, bn254.G2Affine{}, err
	}

	var sPrimeX bn254.G2Affine
	sPrimeX.ScalarMultiplication(&sPrime, x.BigInt(new(big.Int)))

	return [2]bn254.G1Affine{s, sx}, sPrimeX, nil
}

// fiatShamirG2 recomputes s'_x = hash_to_g2(BLAKE2b(personalization‖
// digest‖encode(s)‖encode(s·x))). It is used both when deriving a keypair
// and, independently, when verifying one.
func fiatShamirG2(s, sx bn254.G1Affine, personalization byte, digest [digestSize]byte) (bn254.G2Affine, error) {
	h := newHasher()
	h.Write([]byte{personalization})
	h.Write(digest[:])
	sBytes := s.RawBytes()
	h.Write(sBytes[:])
	sxBytes := sx.RawBytes()
	h.Write(sxBytes[:])
	return hashToG2(h.Sum(nil))
}

// Serialize writes the nine uncompressed points in fixed order: (τ_g1.0,
// τ_g1.1, α_g1.0, α_g1.1, β_g1.0, β_g1.1, τ_g2, α_g2, β_g2).
func (pk *PublicKey) Serialize(w io.Writer) error {
	for _, p := range []*bn254.G1Affine{&pk.TauG1[0], &pk.TauG1[1], &pk.AlphaG1[0], &pk.AlphaG1[1], &pk.BetaG1[0], &pk.BetaG1[1]} {
		if err := writeG1(w, p, Uncompressed); err != nil {
			return err
		}
	}
	for _, p := range []*bn254.G2Affine{&pk.TauG2, &pk.AlphaG2, &pk.BetaG2} {
		if err := writeG2(w, p, Uncompressed); err != nil {
			return err
		}
	}
	return nil
}

// DeserializePublicKey reads the layout Serialize writes and rejects any
// identity element with a PointAtInfinityError.
func DeserializePublicKey(r io.Reader) (PublicKey, error) {
	var pk PublicKey

	g1Fields := []*bn254.G1Affine{&pk.TauG1[0], &pk.TauG1[1], &pk.AlphaG1[0], &pk.AlphaG1[1], &pk.BetaG1[0], &pk.BetaG1[1]}
	for i, dst := range g1Fields {
		p, err := readG1(r, Uncompressed)
		if err != nil {
			return PublicKey{}, err
		}
		if p.IsInfinity() {
			return PublicKey{}, newPointAtInfinityError(g1FieldName(i))
		}
		*dst = p
	}

	g2Fields := []*bn254.G2Affine{&pk.TauG2, &pk.AlphaG2, &pk.BetaG2}
	for i, dst := range g2Fields {
		p, err := readG2(r, Uncompressed)
		if err != nil {
			return PublicKey{}, err
		}
		if p.IsInfinity() {
			return PublicKey{}, newPointAtInfinityError(g2FieldName(i))
		}
		*dst = p
	}

	return pk, nil
}

func g1FieldName(i int) string {
	names := []string{"tau_g1.0", "tau_g1.1", "alpha_g1.0", "alpha_g1.1", "beta_g1.0", "beta_g1.1"}
	return names[i]
}

func g2FieldName(i int) string {
	names := []string{"tau_g2", "alpha_g2", "beta_g2"}
	return names[i]
}
