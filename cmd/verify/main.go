// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// verify reads ./transcript and replays it end to end, recomputing the
// hash chain and checking every round's transform.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"tau/internal/ceremony"
	"tau/internal/tau"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	numPowers := fs.Int("n", tau.DefaultNumPowers, "number of powers of tau (must be a power of two)")
	rounds := fs.Int("r", 89, "number of rounds (responses) to expect in the transcript")
	digestFile := fs.String("d", "", "optional file naming a contribution digest that must appear in the transcript")
	fs.Bool("s", false, "skip Lagrange-basis post-processing (accepted for compatibility; has no effect)")
	help := fs.Bool("h", false, "show usage")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		fs.Usage()
		return 0
	}

	log := zerolog.New(stderr).With().Timestamp().Logger()

	config, err := tau.NewConfiguration(*numPowers)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	var wantDigest *[64]byte
	if *digestFile != "" {
		raw, err := os.ReadFile(*digestFile)
		if err != nil {
			fmt.Fprintln(stderr, "error: reading digest file:", err)
			return 2
		}
		d, err := tau.ParseDigest(string(raw))
		if err != nil {
			fmt.Fprintln(stderr, "error: parsing digest file:", err)
			return 2
		}
		wantDigest = &d
	}

	f, err := os.Open("./transcript")
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)

	result, err := ceremony.VerifyTranscript(config, r, *rounds, wantDigest, log)
	if err != nil {
		fmt.Fprintln(stderr, "INVALID RESPONSE FILE!", err)
		return 3
	}

	fmt.Fprintln(stdout, "Transcript OK!")
	fmt.Fprintf(stdout, "%d round(s) verified.\n", result.RoundsVerified)

	if wantDigest != nil && !result.DigestFound {
		return 1
	}
	return 0
}
