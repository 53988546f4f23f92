// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

package ceremony

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"tau/internal/tau"
)

// VerifyResult summarizes a completed (non-aborted) transcript replay.
type VerifyResult struct {
	RoundsVerified int
	DigestFound    bool
}

// VerifyTranscript replays rounds responses read from r against config,
// recomputing the hash chain and invoking tau.VerifyTransform at every
// step. It never reads a leading hash from the transcript itself — that
// value is always recomputed, matching the source ceremony's format: a
// transcript is the concatenation of response files with their own
// 64-byte prior-hash prefix stripped (see DESIGN.md for why this module
// follows §4.9's algorithm over §6.1's looser prose description of the
// transcript's byte layout).
//
// If wantDigest is non-nil, VerifyResult.DigestFound reports whether any
// round's resulting hash matched it. An error return means the transcript
// is invalid (a failed verify_transform, a malformed record, or I/O
// failure) and replay stopped at that round.
func VerifyTranscript(config tau.Configuration, r io.Reader, rounds int, wantDigest *[64]byte, log zerolog.Logger) (VerifyResult, error) {
	incumbent := tau.NewAccumulator(config)
	lastResponseHash := tau.BlankHash()

	var result VerifyResult

	for round := 1; round <= rounds; round++ {
		challengeHash, err := hashChallenge(lastResponseHash, incumbent)
		if err != nil {
			return result, fmt.Errorf("ceremony: round %d: computing challenge digest: %w", round, err)
		}

		sink := tau.NewHashWriter(io.Discard)
		if _, err := sink.Write(challengeHash[:]); err != nil {
			return result, fmt.Errorf("ceremony: round %d: hashing challenge prefix: %w", round, err)
		}
		tee := io.TeeReader(r, sink)

		responseAcc, err := tau.DeserializeAccumulator(config, tee, tau.Compressed, tau.CheckForCorrectness)
		if err != nil {
			return result, fmt.Errorf("ceremony: round %d: deserializing response accumulator: %w", round, err)
		}
		pk, err := tau.DeserializePublicKey(tee)
		if err != nil {
			return result, fmt.Errorf("ceremony: round %d: deserializing response public key: %w", round, err)
		}

		responseHash := sink.Sum()
		log.Info().Int("round", round).Str("digest", fmt.Sprintf("%x", responseHash)).Msg("round hash")

		if wantDigest != nil && responseHash == *wantDigest {
			result.DigestFound = true
		}

		ok, err := tau.VerifyTransform(incumbent, responseAcc, pk, challengeHash)
		if err != nil {
			return result, fmt.Errorf("ceremony: round %d: verify_transform: %w", round, err)
		}
		if !ok {
			return result, fmt.Errorf("ceremony: round %d: invalid response file", round)
		}

		incumbent = responseAcc
		lastResponseHash = responseHash
		result.RoundsVerified = round
	}

	return result, nil
}

// hashChallenge computes BLAKE2b(lastResponseHash ‖ uncompressed(incumbent)).
func hashChallenge(lastResponseHash [64]byte, incumbent *tau.Accumulator) ([64]byte, error) {
	sink := tau.NewHashWriter(io.Discard)
	if _, err := sink.Write(lastResponseHash[:]); err != nil {
		return [64]byte{}, err
	}
	if err := incumbent.Serialize(sink, tau.Uncompressed); err != nil {
		return [64]byte{}, err
	}
	return sink.Sum(), nil
}
