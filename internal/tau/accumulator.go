// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"io"
	"math/big"
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Compression selects the point encoding used by Accumulator
// (de)serialization.
type Compression int

const (
	Uncompressed Compression = iota
	Compressed
)

// Correctness selects whether Accumulator deserialization is asked to
// perform on-curve/subgroup validation on every decoded point. The
// underlying point decoder always validates regardless of this flag (see
// DESIGN.md's Open Question resolutions); SkipCorrectnessCheck is accepted
// for interface parity with the source ceremony but has no effect.
type Correctness int

const (
	CheckForCorrectness Correctness = iota
	SkipCorrectnessCheck
)

// Accumulator is the ceremony's SRS state: the τ, ατ, βτ power sequences
// and the single β·G2 point, bound to the Configuration that sized them.
type Accumulator struct {
	TauG1   []bn254.G1Affine // length Config.M: τ⁰ … τ^(M-1)
	TauG2   []bn254.G2Affine // length Config.N: τ⁰ … τ^(N-1)
	AlphaG1 []bn254.G1Affine // length Config.N: α, ατ, … ατ^(N-1)
	BetaG1  []bn254.G1Affine // length Config.N: β, βτ, … βτ^(N-1)
	BetaG2  bn254.G2Affine
	Config  Configuration
}

// NewAccumulator builds the identity accumulator: every sequence entry is
// the corresponding generator, i.e. τ, α and β are all still one before
// any contribution folds in.
func NewAccumulator(config Configuration) *Accumulator {
	_, _, g1Gen, g2Gen := bn254.Generators()

	a := &Accumulator{
		TauG1:   make([]bn254.G1Affine, config.M),
		TauG2:   make([]bn254.G2Affine, config.N),
		AlphaG1: make([]bn254.G1Affine, config.N),
		BetaG1:  make([]bn254.G1Affine, config.N),
		BetaG2:  g2Gen,
		Config:  config,
	}
	for i := range a.TauG1 {
		a.TauG1[i] = g1Gen
	}
	for i := range a.TauG2 {
		a.TauG2[i] = g2Gen
		a.AlphaG1[i] = g1Gen
		a.BetaG1[i] = g1Gen
	}
	return a
}

// Serialize writes, in order, TauG1, TauG2, AlphaG1, BetaG1, BetaG2, each
// using the compressed or uncompressed fixed-width encoding per c. There is
// no length prefix; the layout size is determined entirely by Config.
func (a *Accumulator) Serialize(w io.Writer, c Compression) error {
	for i := range a.TauG1 {
		if err := writeG1(w, &a.TauG1[i], c); err != nil {
			return err
		}
	}
	for i := range a.TauG2 {
		if err := writeG2(w, &a.TauG2[i], c); err != nil {
			return err
		}
	}
	for i := range a.AlphaG1 {
		if err := writeG1(w, &a.AlphaG1[i], c); err != nil {
			return err
		}
	}
	for i := range a.BetaG1 {
		if err := writeG1(w, &a.BetaG1[i], c); err != nil {
			return err
		}
	}
	return writeG2(w, &a.BetaG2, c)
}

// DeserializeAccumulator reads the layout Serialize writes. check is
// accepted for interface parity (see Correctness); every decoded point is
// validated on-curve and in-subgroup regardless. Points at infinity are
// not rejected here: only PublicKey deserialization forbids them.
func DeserializeAccumulator(config Configuration, r io.Reader, c Compression, check Correctness) (*Accumulator, error) {
	a := &Accumulator{
		TauG1:   make([]bn254.G1Affine, config.M),
		TauG2:   make([]bn254.G2Affine, config.N),
		AlphaG1: make([]bn254.G1Affine, config.N),
		BetaG1:  make([]bn254.G1Affine, config.N),
		Config:  config,
	}
	for i := range a.TauG1 {
		p, err := readG1(r, c)
		if err != nil {
			return nil, err
		}
		a.TauG1[i] = p
	}
	for i := range a.TauG2 {
		p, err := readG2(r, c)
		if err != nil {
			return nil, err
		}
		a.TauG2[i] = p
	}
	for i := range a.AlphaG1 {
		p, err := readG1(r, c)
		if err != nil {
			return nil, err
		}
		a.AlphaG1[i] = p
	}
	for i := range a.BetaG1 {
		p, err := readG1(r, c)
		if err != nil {
			return nil, err
		}
		a.BetaG1[i] = p
	}
	betaG2, err := readG2(r, c)
	if err != nil {
		return nil, err
	}
	a.BetaG2 = betaG2
	return a, nil
}

func writeG1(w io.Writer, p *bn254.G1Affine, c Compression) error {
	if c == Compressed {
		b := p.Bytes()
		if _, err := w.Write(b[:]); err != nil {
			return newIOError("writing G1 point", err)
		}
		return nil
	}
	b := p.RawBytes()
	if _, err := w.Write(b[:]); err != nil {
		return newIOError("writing G1 point", err)
	}
	return nil
}

func writeG2(w io.Writer, p *bn254.G2Affine, c Compression) error {
	if c == Compressed {
		b := p.Bytes()
		if _, err := w.Write(b[:]); err != nil {
			return newIOError("writing G2 point", err)
		}
		return nil
	}
	b := p.RawBytes()
	if _, err := w.Write(b[:]); err != nil {
		return newIOError("writing G2 point", err)
	}
	return nil
}

func readG1(r io.Reader, c Compression) (bn254.G1Affine, error) {
	size := g1CompressedSize
	if c == Uncompressed {
		size = g1UncompressedSize
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return bn254.G1Affine{}, decodeReadError("G1 point", err)
	}
	var p bn254.G1Affine
	if _, err := p.SetBytes(buf); err != nil {
		return bn254.G1Affine{}, newCurveError("decoding G1 point", err)
	}
	return p, nil
}

func readG2(r io.Reader, c Compression) (bn254.G2Affine, error) {
	size := g2CompressedSize
	if c == Uncompressed {
		size = g2UncompressedSize
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return bn254.G2Affine{}, decodeReadError("G2 point", err)
	}
	var p bn254.G2Affine
	if _, err := p.SetBytes(buf); err != nil {
		return bn254.G2Affine{}, newCurveError("decoding G2 point", err)
	}
	return p, nil
}

// decodeReadError distinguishes a genuine I/O failure from a record that
// simply ran out of bytes early (Decoding), matching §7's split between
// IO and Decoding error kinds.
func decodeReadError(what string, err error) error {
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return newDecodingError("truncated " + what)
	}
	return newIOError("reading "+what, err)
}

// Transform multiplies the i-th element of TauG1 by τⁱ, of TauG2 by τⁱ, of
// AlphaG1 by α·τⁱ, of BetaG1 by β·τⁱ, and BetaG2 by β, mutating a in
// place. Every vector is partitioned into disjoint slices processed by up
// to runtime.NumCPU() workers; no locking is needed because each worker
// writes only its own slice and the only synchronization is the join.
func (a *Accumulator) Transform(key PrivateKey) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	exps := buildPowers(key.Tau, a.Config.M, workers)

	transformG1(a.TauG1, exps, nil, workers)
	transformG2(a.TauG2, exps[:a.Config.N], nil, workers)
	transformG1(a.AlphaG1, exps[:a.Config.N], &key.Alpha, workers)
	transformG1(a.BetaG1, exps[:a.Config.N], &key.Beta, workers)

	a.BetaG2.ScalarMultiplication(&a.BetaG2, key.Beta.BigInt(new(big.Int)))
}

// buildPowers returns [τ⁰, τ¹, …, τ^(m-1)]. It is partitioned into up to p
// disjoint chunks; each chunk computes its first power by fast
// exponentiation and fills the rest by repeated multiplication, all in
// parallel.
func buildPowers(tau fr.Element, m, p int) []fr.Element {
	exps := make([]fr.Element, m)
	chunkSize := (m + p - 1) / p
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < m; start += chunkSize {
		end := start + chunkSize
		if end > m {
			end = m
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			var cur fr.Element
			cur.Exp(tau, big.NewInt(int64(start)))
			exps[start] = cur
			for i := start + 1; i < end; i++ {
				var next fr.Element
				next.Mul(&exps[i-1], &tau)
				exps[i] = next
			}
		}(start, end)
	}
	wg.Wait()
	return exps
}

// transformG1 multiplies each points[i] by exps[i] (times coeff, if
// non-nil) in place, across up to p parallel disjoint-slice workers.
func transformG1(points []bn254.G1Affine, exps []fr.Element, coeff *fr.Element, p int) {
	n := len(points)
	chunkSize := (n + p - 1) / p
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				e := exps[i]
				if coeff != nil {
					e.Mul(&e, coeff)
				}
				points[i].ScalarMultiplication(&points[i], e.BigInt(new(big.Int)))
			}
		}(start, end)
	}
	wg.Wait()
}

// transformG2 is transformG1's twin for G2Affine vectors.
func transformG2(points []bn254.G2Affine, exps []fr.Element, coeff *fr.Element, p int) {
	n := len(points)
	chunkSize := (n + p - 1) / p
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				e := exps[i]
				if coeff != nil {
					e.Mul(&e, coeff)
				}
				points[i].ScalarMultiplication(&points[i], e.BigInt(new(big.Int)))
			}
		}(start, end)
	}
	wg.Wait()
}
