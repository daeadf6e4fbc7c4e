package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/davidahmann/trustgate/core/capability"
	"github.com/davidahmann/trustgate/core/ceiling"
	"github.com/davidahmann/trustgate/core/constraint"
	"github.com/davidahmann/trustgate/core/schema/v1/authz"
	"github.com/davidahmann/trustgate/core/schema/validate"
)

type authorizeOutput struct {
	OK       bool            `json:"ok"`
	Decision *authz.Decision `json:"decision,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func runAuthorize(arguments []string) int {
	flagSet := flag.NewFlagSet("authorize", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var intentPath string
	var profilePath string
	var presetsPath string
	var certifiedTier int
	var competence int
	var contextPolicy int
	var ttl string
	var helpFlag bool

	flagSet.StringVar(&intentPath, "intent", "", "path to intent JSON")
	flagSet.StringVar(&profilePath, "profile", "", "path to trust profile JSON")
	flagSet.StringVar(&presetsPath, "presets", "", "optional band preset overrides YAML")
	flagSet.IntVar(&certifiedTier, "certified-tier", 0, "certification tier from attestations (0-5)")
	flagSet.IntVar(&competence, "competence", int(capability.LevelSovereign), "demonstrated competence level (0-5)")
	flagSet.IntVar(&contextPolicy, "context-policy", int(capability.LevelSovereign), "context policy ceiling (0-5)")
	flagSet.StringVar(&ttl, "ttl", "", "decision ttl (for example 5m)")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("trustgate authorize --intent intent.json --profile profile.json [--presets presets.yaml] [--certified-tier n] [--ttl 5m]")
		return exitOK
	}
	if strings.TrimSpace(intentPath) == "" || strings.TrimSpace(profilePath) == "" {
		return writeJSONOutput(authorizeOutput{Error: "--intent and --profile are required"}, exitInvalidInput)
	}

	rawIntent, err := readFile(intentPath)
	if err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if err := validate.ValidateIntent(rawIntent); err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	var intent authz.Intent
	if err := readJSONFile(intentPath, &intent); err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	var profile authz.TrustProfile
	if err := readJSONFile(profilePath, &profile); err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	opts := constraint.DecideOptions{
		Ceiling: ceiling.Context{
			CertificationTier:    capability.Tier(certifiedTier),
			Competence:           capability.ClampLevel(competence),
			RuntimeTier:          profile.Band,
			ObservabilityCeiling: int(profile.ObservationTier),
			ContextPolicyCeiling: contextPolicy,
		},
	}
	if presetsPath != "" {
		presets, err := constraint.LoadBandPresetsFile(presetsPath)
		if err != nil {
			return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
		}
		opts.Presets = &presets
	}
	if strings.TrimSpace(ttl) != "" {
		ttlDuration, err := time.ParseDuration(strings.TrimSpace(ttl))
		if err != nil || ttlDuration <= 0 {
			return writeJSONOutput(authorizeOutput{Error: "invalid --ttl, expected positive duration"}, exitInvalidInput)
		}
		opts.TTL = ttlDuration
	}

	decision, err := constraint.Decide(profile, intent, opts)
	if err != nil {
		return writeJSONOutput(authorizeOutput{Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	exitCode := exitOK
	if !decision.Permitted {
		exitCode = exitDenied
	}
	return writeJSONOutput(authorizeOutput{OK: decision.Permitted, Decision: &decision}, exitCode)
}
