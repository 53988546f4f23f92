// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package tau

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// VerifyTransform checks that after is the result of an honest,
// proof-of-knowledge-bound transform of before under pk, challenged by
// digest. It returns false (never an error) on the first failed check; an
// error return indicates a structural failure (a malformed field) rather
// than a rejected proof.
func VerifyTransform(before, after *Accumulator, pk PublicKey, digest [digestSize]byte) (bool, error) {
	sPrimeTau, err := fiatShamirG2(pk.TauG1[0], pk.TauG1[1], personalizationTau, digest)
	if err != nil {
		return false, err
	}
	sPrimeAlpha, err := fiatShamirG2(pk.AlphaG1[0], pk.AlphaG1[1], personalizationAlpha, digest)
	if err != nil {
		return false, err
	}
	sPrimeBeta, err := fiatShamirG2(pk.BetaG1[0], pk.BetaG1[1], personalizationBeta, digest)
	if err != nil {
		return false, err
	}

	_, _, g1Gen, g2Gen := bn254.Generators()

	checks := [...]func() (bool, error){
		// 1-3: knowledge of τ, α, β.
		func() (bool, error) { return sameRatio(pk.TauG1[0], pk.TauG1[1], sPrimeTau, pk.TauG2) },
		func() (bool, error) { return sameRatio(pk.AlphaG1[0], pk.AlphaG1[1], sPrimeAlpha, pk.AlphaG2) },
		func() (bool, error) { return sameRatio(pk.BetaG1[0], pk.BetaG1[1], sPrimeBeta, pk.BetaG2) },
		// 4: leading elements are the generators.
		func() (bool, error) {
			return after.TauG1[0].Equal(&g1Gen) && after.TauG2[0].Equal(&g2Gen), nil
		},
		// 5-7: the participant multiplied the prior value by the new one.
		func() (bool, error) { return sameRatio(before.TauG1[1], after.TauG1[1], sPrimeTau, pk.TauG2) },
		func() (bool, error) { return sameRatio(before.AlphaG1[0], after.AlphaG1[0], sPrimeAlpha, pk.AlphaG2) },
		func() (bool, error) { return sameRatio(before.BetaG1[0], after.BetaG1[0], sPrimeBeta, pk.BetaG2) },
		// 8: β is consistent between G1 and G2.
		func() (bool, error) {
			return sameRatio(before.BetaG1[0], after.BetaG1[0], before.BetaG2, after.BetaG2)
		},
		// 9-12: the power series are genuine and share the same τ.
		func() (bool, error) {
			p, q, err := powerPairsG1(after.TauG1)
			if err != nil {
				return false, err
			}
			return sameRatio(p, q, after.TauG2[0], after.TauG2[1])
		},
		func() (bool, error) {
			c, d, err := powerPairsG2(after.TauG2)
			if err != nil {
				return false, err
			}
			return sameRatio(after.TauG1[0], after.TauG1[1], c, d)
		},
		func() (bool, error) {
			p, q, err := powerPairsG1(after.AlphaG1)
			if err != nil {
				return false, err
			}
			return sameRatio(p, q, after.TauG2[0], after.TauG2[1])
		},
		func() (bool, error) {
			p, q, err := powerPairsG1(after.BetaG1)
			if err != nil {
				return false, err
			}
			return sameRatio(p, q, after.TauG2[0], after.TauG2[1])
		},
	}

	for _, check := range checks {
		ok, err := check()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// sameRatio tests same_ratio((a,b),(c,d)) = e(a,d) = e(b,c), i.e. that the
// discrete logs b/a and d/c are equal.
func sameRatio(a, b bn254.G1Affine, c, d bn254.G2Affine) (bool, error) {
	var negB bn254.G1Affine
	negB.Neg(&b)
	return bn254.PairingCheck([]bn254.G1Affine{a, negB}, []bn254.G2Affine{d, c})
}

// powerPairsG1 returns mergePairsG1(v[:len-1], v[1:]): a randomized,
// probabilistic check that v is the power series of a single exponent.
func powerPairsG1(v []bn254.G1Affine) (bn254.G1Affine, bn254.G1Affine, error) {
	if len(v) < 2 {
		return bn254.G1Affine{}, bn254.G1Affine{}, fmt.Errorf("tau: power_pairs: need at least 2 elements, got %d", len(v))
	}
	return mergePairsG1(v[:len(v)-1], v[1:])
}

// powerPairsG2 is powerPairsG1's twin for G2 sequences.
func powerPairsG2(v []bn254.G2Affine) (bn254.G2Affine, bn254.G2Affine, error) {
	if len(v) < 2 {
		return bn254.G2Affine{}, bn254.G2Affine{}, fmt.Errorf("tau: power_pairs: need at least 2 elements, got %d", len(v))
	}
	return mergePairsG2(v[:len(v)-1], v[1:])
}

// mergePairsG1 draws fresh scalars ρᵢ (not ceremony-grade; this is a
// probabilistic soundness check, not a secrecy boundary) and returns
// (Σρᵢ·v1[i], Σρᵢ·v2[i]). Each worker accumulates its slice locally in
// Jacobian coordinates; the two partial sums are folded into shared
// accumulators under a mutex held only for that final fold.
func mergePairsG1(v1, v2 []bn254.G1Affine) (bn254.G1Affine, bn254.G1Affine, error) {
	n := len(v1)
	if len(v2) != n {
		return bn254.G1Affine{}, bn254.G1Affine{}, fmt.Errorf("tau: merge_pairs: length mismatch %d vs %d", n, len(v2))
	}
	if n == 0 {
		return bn254.G1Affine{}, bn254.G1Affine{}, fmt.Errorf("tau: merge_pairs: empty input")
	}

	rhos, err := randomScalars(n)
	if err != nil {
		return bn254.G1Affine{}, bn254.G1Affine{}, err
	}

	workers := workerCount(n)
	chunkSize := (n + workers - 1) / workers

	var mu sync.Mutex
	var sum1, sum2 bn254.G1Jac
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			var local1, local2 bn254.G1Jac
			for i := start; i < end; i++ {
				exp := rhos[i].BigInt(new(big.Int))
				var t1, t2 bn254.G1Jac
				t1.FromAffine(&v1[i])
				t1.ScalarMultiplication(&t1, exp)
				local1.AddAssign(&t1)

				t2.FromAffine(&v2[i])
				t2.ScalarMultiplication(&t2, exp)
				local2.AddAssign(&t2)
			}
			mu.Lock()
			sum1.AddAssign(&local1)
			sum2.AddAssign(&local2)
			mu.Unlock()
		}(start, end)
	}
	wg.Wait()

	var out1, out2 bn254.G1Affine
	out1.FromJacobian(&sum1)
	out2.FromJacobian(&sum2)
	return out1, out2, nil
}

// mergePairsG2 is mergePairsG1's twin for G2 sequences.
func mergePairsG2(v1, v2 []bn254.G2Affine) (bn254.G2Affine, bn254.G2Affine, error) {
	n := len(v1)
	if len(v2) != n {
		return bn254.G2Affine{}, bn254.G2Affine{}, fmt.Errorf("tau: merge_pairs: length mismatch %d vs %d", n, len(v2))
	}
	if n == 0 {
		return bn254.G2Affine{}, bn254.G2Affine{}, fmt.Errorf("tau: merge_pairs: empty input")
	}

	rhos, err := randomScalars(n)
	if err != nil {
		return bn254.G2Affine{}, bn254.G2Affine{}, err
	}

	workers := workerCount(n)
	chunkSize := (n + workers - 1) / workers

	var mu sync.Mutex
	var sum1, sum2 bn254.G2Jac
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			var local1, local2 bn254.G2Jac
			for i := start; i < end; i++ {
				exp := rhos[i].BigInt(new(big.Int))
				var t1, t2 bn254.G2Jac
				t1.FromAffine(&v1[i])
				t1.ScalarMultiplication(&t1, exp)
				local1.AddAssign(&t1)

				t2.FromAffine(&v2[i])
				t2.ScalarMultiplication(&t2, exp)
				local2.AddAssign(&t2)
			}
			mu.Lock()
			sum1.AddAssign(&local1)
			sum2.AddAssign(&local2)
			mu.Unlock()
		}(start, end)
	}
	wg.Wait()

	var out1, out2 bn254.G2Affine
	out1.FromJacobian(&sum1)
	out2.FromJacobian(&sum2)
	return out1, out2, nil
}

func workerCount(n int) int {
	w := runtime.NumCPU()
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// randomScalars draws n scalars that need not be ceremony-grade: they back
// a probabilistic batch-verification check, not a secret.
func randomScalars(n int) ([]fr.Element, error) {
	out := make([]fr.Element, n)
	var buf [32]byte
	for i := range out {
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("tau: sampling batch-check scalar: %w", err)
		}
		out[i].SetBytes(buf[:])
	}
	return out, nil
}
