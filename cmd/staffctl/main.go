// Command staffctl runs the staffing synthesis engine offline.
//
// Usage:
//
//	staffctl synth -f request.json
//	cat request.json | staffctl synth
//
// The request document has the same shape POST /api/v1/plans accepts,
// minus the collaborator flags. The finalized plan prints to stdout as
// JSON. Exit code 2 signals a configuration error (no candidates and no
// fallback roles for the project type).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agencyops/staffing-engine/internal/config"
	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/synthesis"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

type request struct {
	Project    staffing.ProjectContext `json:"project"`
	Candidates []staffing.Candidate    `json:"candidates"`
}

func main() {
	if len(os.Args) < 2 || os.Args[1] != "synth" {
		fmt.Fprintln(os.Stderr, "usage: staffctl synth [-f request.json] [-taxonomy registry.yaml] [-q]")
		os.Exit(64)
	}

	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	inPath := fs.String("f", "", "request JSON file (default stdin)")
	registryPath := fs.String("taxonomy", "", "role registry YAML (default built-in)")
	quiet := fs.Bool("q", false, "suppress log output")
	fs.Parse(os.Args[2:])

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *quiet {
		logger = zerolog.Nop()
	}

	var in io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot open request file")
		}
		defer f.Close()
		in = f
	}

	var req request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		logger.Fatal().Err(err).Msg("cannot parse request")
	}
	req.Project.Type = staffing.ParseProjectType(string(req.Project.Type))
	req.Project.Complexity = staffing.ParseComplexity(string(req.Project.Complexity))

	registry, err := taxonomy.Load(*registryPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot load role registry")
	}

	engine, err := synthesis.New(registry, config.DefaultPolicy(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot build synthesis engine")
	}

	plan, err := engine.Synthesize(&req.Project, req.Candidates)
	if err != nil {
		logger.Error().Err(err).Msg("synthesis failed")
		if apperrors.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		logger.Fatal().Err(err).Msg("cannot encode plan")
	}
}
