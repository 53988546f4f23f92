// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// Package ceremony implements the coordinator-free file-based workflow
// around the tau package's accumulator: a participant driver that turns
// one challenge into one response, and a transcript verifier that replays
// a chain of responses end to end.
package ceremony

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"tau/internal/tau"
)

type driverState int

const (
	stateIdle driverState = iota
	stateLoaded
	stateTransformed
	stateWritten
)

// Driver walks one participant through a single contribution:
// Idle -> Loaded -> Transformed -> Written. Calling a method out of
// sequence is a programmer error and returns a descriptive error rather
// than panicking, since the compute binary is expected to surface it as a
// diagnostic and exit.
type Driver struct {
	config tau.Configuration
	log    zerolog.Logger

	state           driverState
	challengeDigest [64]byte
	accumulator     *tau.Accumulator
	publicKey       tau.PublicKey
}

// NewDriver returns a Driver in the Idle state, bound to config.
func NewDriver(config tau.Configuration, log zerolog.Logger) *Driver {
	return &Driver{config: config, log: log, state: stateIdle}
}

// Load performs Idle -> Loaded: it opens path, verifies its length equals
// config.AccumulatorSize exactly (a SizeMismatch is fatal, checked before
// any cryptography runs), reads and discards the leading 64-byte
// prior-response hash, and deserializes the accumulator uncompressed,
// passing SkipCorrectnessCheck (which has no effect: every point is still
// validated on decode). The challenge digest is the hash-reader's
// running sum over every byte read.
func (d *Driver) Load(path string) error {
	if d.state != stateIdle {
		return fmt.Errorf("ceremony: driver: Load called out of order (state=%d)", d.state)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ceremony: stat %s: %w", path, err)
	}
	if info.Size() != int64(d.config.AccumulatorSize) {
		return fmt.Errorf("ceremony: challenge %s has length %d bytes, expected %d (size mismatch)",
			path, info.Size(), d.config.AccumulatorSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ceremony: open %s: %w", path, err)
	}
	defer f.Close()

	hr := tau.NewHashReader(f)

	var priorHash [64]byte
	if _, err := io.ReadFull(hr, priorHash[:]); err != nil {
		return fmt.Errorf("ceremony: reading challenge prefix: %w", err)
	}

	acc, err := tau.DeserializeAccumulator(d.config, hr, tau.Uncompressed, tau.SkipCorrectnessCheck)
	if err != nil {
		return fmt.Errorf("ceremony: deserializing challenge accumulator: %w", err)
	}

	d.challengeDigest = hr.Sum()
	d.accumulator = acc
	d.state = stateLoaded
	d.log.Info().Str("challenge", path).Msg("loaded challenge")
	return nil
}

// Transform performs Loaded -> Transformed: it derives a keypair from rng
// and the challenge digest, applies the transform in place, and discards
// the private key immediately (it never outlives this call).
func (d *Driver) Transform(rng *tau.EntropySource) error {
	if d.state != stateLoaded {
		return fmt.Errorf("ceremony: driver: Transform called out of order (state=%d)", d.state)
	}

	pk, sk, err := tau.Keypair(rng, d.challengeDigest)
	if err != nil {
		return fmt.Errorf("ceremony: deriving keypair: %w", err)
	}

	d.accumulator.Transform(sk)
	sk = tau.PrivateKey{}

	d.publicKey = pk
	d.state = stateTransformed
	d.log.Info().Msg("transformed accumulator")
	return nil
}

// Write performs Transformed -> Written: it creates path with create-new
// semantics (a preexisting response is fatal), writes the challenge
// digest, the accumulator compressed, and the public key uncompressed,
// and returns the response file's own hash-chain digest.
func (d *Driver) Write(path string) ([64]byte, error) {
	if d.state != stateTransformed {
		return [64]byte{}, fmt.Errorf("ceremony: driver: Write called out of order (state=%d)", d.state)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return [64]byte{}, fmt.Errorf("ceremony: response %s already exists", path)
		}
		return [64]byte{}, fmt.Errorf("ceremony: create %s: %w", path, err)
	}
	defer f.Close()

	hw := tau.NewHashWriter(f)
	if _, err := hw.Write(d.challengeDigest[:]); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: writing response prefix: %w", err)
	}
	if err := d.accumulator.Serialize(hw, tau.Compressed); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: serializing response accumulator: %w", err)
	}
	if err := d.publicKey.Serialize(hw); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: serializing response public key: %w", err)
	}

	responseDigest := hw.Sum()
	d.state = stateWritten
	d.log.Info().Str("response", path).Msg("wrote response")
	return responseDigest, nil
}
