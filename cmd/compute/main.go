// Copyright (C) 2025 Logical Mechanism LLC
// SPDX-License-Identifier: GPL-3.0-only

// compute reads ./challenge, performs one participant's contribution to
// the Powers of Tau ceremony, and writes ./response.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"tau/internal/ceremony"
	"tau/internal/tau"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compute", flag.ContinueOnError)
	fs.SetOutput(stderr)

	numPowers := fs.Int("n", tau.DefaultNumPowers, "number of powers of tau (must be a power of two)")
	digestFile := fs.String("d", "", "optional file to write the response digest to")
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
		return 1
	}

	fmt.Fprintln(stdout, "Some entropy is required for additional security of your contribution.")
	fmt.Fprintln(stdout, "Type some random text and press enter:")

	seed, err := tau.SeedFromRitual(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	rng, err := tau.NewEntropySource(seed)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	driver := ceremony.NewDriver(config, log)

	if err := driver.Load("./challenge"); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if err := driver.Transform(rng); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	digest, err := driver.Write("./response")
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	formatted := tau.FormatDigest(digest)
	fmt.Fprintln(stdout, "Done! Your contribution has been written to ./response")
	fmt.Fprintln(stdout, "The BLAKE2b hash of ./response is:")
	fmt.Fprint(stdout, formatted)

	if *digestFile != "" {
		if err := os.WriteFile(*digestFile, []byte(formatted), 0o644); err != nil {
			fmt.Fprintln(stderr, "error: writing digest file:", err)
			return 1
		}
	}

	return 0
}
